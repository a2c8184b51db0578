package message

import (
	"time"

	"github.com/drblury/mozdef/internal/runtime/environment"
	errspkg "github.com/drblury/mozdef/internal/runtime/errors"
)

// TimestampLayout is the format of generated timestamps. The offset is
// always literally +00:00 because values are converted to UTC first.
const TimestampLayout = "2006-01-02T15:04:05+00:00"

// FormatTimestamp renders t in UTC using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Option customises New.
type Option func(*options)

type options struct {
	env          environment.Environment
	hostname     *string
	severity     *string
	category     *string
	processID    *int
	processName  *string
	tags         []string
	details      Details
	timestamp    *string
	utcTimestamp *string
	omit         map[string]bool
}

func WithHostname(v string) Option    { return func(o *options) { o.hostname = &v } }
func WithSeverity(v string) Option    { return func(o *options) { o.severity = &v } }
func WithCategory(v string) Option    { return func(o *options) { o.category = &v } }
func WithProcessID(v int) Option      { return func(o *options) { o.processID = &v } }
func WithProcessName(v string) Option { return func(o *options) { o.processName = &v } }
func WithTimestamp(v string) Option   { return func(o *options) { o.timestamp = &v } }

// WithUTCTimestamp sets utctimestamp. When no timestamp is given it also
// becomes the timestamp; the reverse never happens.
func WithUTCTimestamp(v string) Option { return func(o *options) { o.utcTimestamp = &v } }

func WithTags(tags ...string) Option {
	return func(o *options) { o.tags = tags }
}

func WithDetails(d Details) Option { return func(o *options) { o.details = d } }

// WithEnvironment replaces the host and process accessors used for defaults.
func WithEnvironment(env environment.Environment) Option {
	return func(o *options) { o.env = env }
}

// Omit leaves the named fields absent instead of applying their defaults.
// It has no effect on timestamp, which is always populated.
func Omit(fields ...string) Option {
	return func(o *options) {
		if o.omit == nil {
			o.omit = map[string]bool{}
		}
		for _, f := range fields {
			o.omit[f] = true
		}
	}
}

// New builds a message from summary and source and fills every other
// recognized field from opts or its default. It fails only when a default
// needs the host name or process name and the environment cannot supply it.
// Summary content is not checked here; that is the validator's job.
func New(summary, source string, opts ...Option) (*Message, error) {
	o := options{env: environment.Default}
	for _, opt := range opts {
		opt(&o)
	}
	if o.env == nil {
		return nil, errspkg.ErrEnvironmentMissing
	}

	m := &Message{}
	keep := func(field string) bool { return !o.omit[field] }

	if keep(FieldSummary) {
		m.SetSummary(summary)
	}
	// source is carried for compatibility; receivers ignore it.
	if keep(FieldSource) {
		m.SetSource(source)
	}

	if keep(FieldHostname) {
		hostname, err := resolveHostname(o)
		if err != nil {
			return nil, err
		}
		m.SetHostname(hostname)
	}

	if keep(FieldSeverity) {
		m.SetSeverity(valueOr(o.severity, DefaultSeverity))
	}
	if keep(FieldCategory) {
		m.SetCategory(valueOr(o.category, DefaultCategory))
	}

	if keep(FieldProcessID) {
		if o.processID != nil {
			m.SetProcessID(*o.processID)
		} else {
			m.SetProcessID(o.env.PID())
		}
	}

	if keep(FieldProcessName) {
		name := ""
		if o.processName != nil {
			name = *o.processName
		} else {
			var err error
			name, err = o.env.ProcessName()
			if err != nil {
				return nil, &errspkg.ConfigurationError{Key: FieldProcessName, Reason: "unable to resolve process name", Cause: err}
			}
		}
		m.SetProcessName(name)
	}

	if keep(FieldTags) {
		m.SetTags(o.tags)
	}
	if keep(FieldDetails) {
		m.SetDetails(o.details)
	}

	switch {
	case o.timestamp != nil:
		m.SetTimestamp(*o.timestamp)
	case o.utcTimestamp != nil:
		m.SetTimestamp(*o.utcTimestamp)
	default:
		m.SetTimestamp(FormatTimestamp(o.env.Now()))
	}
	if o.utcTimestamp != nil {
		m.SetUTCTimestamp(*o.utcTimestamp)
	}

	return m, nil
}

// resolveHostname applies the placeholder rule to explicit values too: a
// caller passing localhost.localdomain gets the unqualified host name.
func resolveHostname(o options) (string, error) {
	var (
		hostname string
		err      error
	)
	if o.hostname != nil {
		hostname = *o.hostname
		if hostname == environment.PlaceholderFQDN {
			hostname, err = o.env.Hostname()
		}
	} else {
		hostname, err = environment.ResolveHostname(o.env)
	}
	if err != nil {
		return "", &errspkg.ConfigurationError{Key: FieldHostname, Reason: "unable to resolve host name", Cause: err}
	}
	return hostname, nil
}

func valueOr(p *string, fallback string) string {
	if p == nil {
		return fallback
	}
	return *p
}
