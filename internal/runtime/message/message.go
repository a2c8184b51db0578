// Package message implements the MozDef event record: a fixed set of
// recognized top-level fields plus a free-form details map. Fields that
// resolve to null are absent from the record rather than present with a
// null value, and anything non-standard belongs under details.
package message

import (
	"fmt"

	errspkg "github.com/drblury/mozdef/internal/runtime/errors"
	"github.com/drblury/mozdef/internal/runtime/jsoncodec"
)

// Recognized top-level field names.
const (
	FieldSource       = "source"
	FieldHostname     = "hostname"
	FieldCategory     = "category"
	FieldProcessID    = "processid"
	FieldProcessName  = "processname"
	FieldTags         = "tags"
	FieldSummary      = "summary"
	FieldSeverity     = "severity"
	FieldDetails      = "details"
	FieldTimestamp    = "timestamp"
	FieldUTCTimestamp = "utctimestamp"

	// FieldReceivedTimestamp is set by the receiving system only.
	FieldReceivedTimestamp = "receivedtimestamp"
)

// Fields lists the recognized fields in canonical order.
var Fields = []string{
	FieldSource,
	FieldHostname,
	FieldCategory,
	FieldProcessID,
	FieldProcessName,
	FieldTags,
	FieldSummary,
	FieldSeverity,
	FieldDetails,
	FieldTimestamp,
	FieldUTCTimestamp,
}

// Defaults applied by New.
const (
	DefaultSeverity = "INFO"
	DefaultCategory = "event"
)

// Details carries every piece of data that is not a recognized field.
type Details map[string]any

// record is the wire shape. Pointer fields with omitempty give the
// absent-versus-empty distinction: an empty summary is serialized, an unset
// one is not.
type record struct {
	Source       *string   `json:"source,omitempty"`
	Hostname     *string   `json:"hostname,omitempty"`
	Category     *string   `json:"category,omitempty"`
	ProcessID    *int      `json:"processid,omitempty"`
	ProcessName  *string   `json:"processname,omitempty"`
	Tags         *[]string `json:"tags,omitempty"`
	Summary      *string   `json:"summary,omitempty"`
	Severity     *string   `json:"severity,omitempty"`
	Details      *Details  `json:"details,omitempty"`
	Timestamp    *string   `json:"timestamp,omitempty"`
	UTCTimestamp *string   `json:"utctimestamp,omitempty"`
}

// Message is a single event. The zero value is an empty message with no
// fields set; use New to apply the default-population policy.
type Message struct {
	rec record
}

// IsRecognized reports whether name is one of the recognized top-level fields.
func IsRecognized(name string) bool {
	for _, f := range Fields {
		if f == name {
			return true
		}
	}
	return false
}

// Has reports whether the field is present.
func (m *Message) Has(name string) bool {
	_, ok := m.Get(name)
	return ok
}

// Fields returns the names of the present fields in canonical order.
func (m *Message) Fields() []string {
	present := make([]string, 0, len(Fields))
	for _, f := range Fields {
		if m.Has(f) {
			present = append(present, f)
		}
	}
	return present
}

// Get returns the value of a field by name. String fields yield string,
// processid yields int, tags yields []string and details yields Details.
func (m *Message) Get(name string) (any, bool) {
	r := &m.rec
	switch name {
	case FieldSource:
		return derefString(r.Source)
	case FieldHostname:
		return derefString(r.Hostname)
	case FieldCategory:
		return derefString(r.Category)
	case FieldProcessID:
		if r.ProcessID == nil {
			return nil, false
		}
		return *r.ProcessID, true
	case FieldProcessName:
		return derefString(r.ProcessName)
	case FieldTags:
		if r.Tags == nil {
			return nil, false
		}
		return *r.Tags, true
	case FieldSummary:
		return derefString(r.Summary)
	case FieldSeverity:
		return derefString(r.Severity)
	case FieldDetails:
		if r.Details == nil {
			return nil, false
		}
		return *r.Details, true
	case FieldTimestamp:
		return derefString(r.Timestamp)
	case FieldUTCTimestamp:
		return derefString(r.UTCTimestamp)
	}
	return nil, false
}

// Set assigns a field by name. A nil value removes the field. Unknown names
// fail with ErrUnknownField, receivedtimestamp with ErrReservedField and a
// value of the wrong type with ErrFieldType.
func (m *Message) Set(name string, value any) error {
	if name == FieldReceivedTimestamp {
		return fmt.Errorf("%w: %s", errspkg.ErrReservedField, name)
	}
	if !IsRecognized(name) {
		return fmt.Errorf("%w: %s", errspkg.ErrUnknownField, name)
	}
	if value == nil {
		m.Unset(name)
		return nil
	}

	r := &m.rec
	switch name {
	case FieldProcessID:
		pid, ok := asInt(value)
		if !ok {
			return fieldTypeError(name, "int", value)
		}
		r.ProcessID = &pid
	case FieldTags:
		tags, ok := value.([]string)
		if !ok {
			return fieldTypeError(name, "[]string", value)
		}
		m.SetTags(tags)
	case FieldDetails:
		switch d := value.(type) {
		case Details:
			m.SetDetails(d)
		case map[string]any:
			m.SetDetails(Details(d))
		default:
			return fieldTypeError(name, "map[string]any", value)
		}
	default:
		s, ok := value.(string)
		if !ok {
			return fieldTypeError(name, "string", value)
		}
		*m.stringField(name) = &s
	}
	return nil
}

// Unset removes a field. Unknown names are ignored.
func (m *Message) Unset(name string) {
	r := &m.rec
	switch name {
	case FieldProcessID:
		r.ProcessID = nil
	case FieldTags:
		r.Tags = nil
	case FieldDetails:
		r.Details = nil
	default:
		if p := m.stringField(name); p != nil {
			*p = nil
		}
	}
}

func (m *Message) stringField(name string) **string {
	r := &m.rec
	switch name {
	case FieldSource:
		return &r.Source
	case FieldHostname:
		return &r.Hostname
	case FieldCategory:
		return &r.Category
	case FieldProcessName:
		return &r.ProcessName
	case FieldSummary:
		return &r.Summary
	case FieldSeverity:
		return &r.Severity
	case FieldTimestamp:
		return &r.Timestamp
	case FieldUTCTimestamp:
		return &r.UTCTimestamp
	}
	return nil
}

// Marshal returns the compact JSON encoding with fields in canonical order.
func (m *Message) Marshal() ([]byte, error) {
	return jsoncodec.Marshal(&m.rec)
}

// MarshalIndent returns an indented JSON encoding.
func (m *Message) MarshalIndent(prefix, indent string) ([]byte, error) {
	return jsoncodec.MarshalIndent(&m.rec, prefix, indent)
}

func (m *Message) MarshalJSON() ([]byte, error) {
	return m.Marshal()
}

// UnmarshalJSON decodes a MozDef JSON object. Unrecognized top-level keys,
// including receivedtimestamp, are rejected.
func (m *Message) UnmarshalJSON(data []byte) error {
	var keys map[string]any
	if err := jsoncodec.Unmarshal(data, &keys); err != nil {
		return err
	}
	for k := range keys {
		if k == FieldReceivedTimestamp {
			return fmt.Errorf("%w: %s", errspkg.ErrReservedField, k)
		}
		if !IsRecognized(k) {
			return fmt.Errorf("%w: %s", errspkg.ErrUnknownField, k)
		}
	}

	var rec record
	if err := jsoncodec.Unmarshal(data, &rec); err != nil {
		return err
	}
	m.rec = rec
	return nil
}

// Clone returns a deep copy. Nested maps and slices inside details are
// copied; other values are shared.
func (m *Message) Clone() *Message {
	out := &Message{}
	r := m.rec
	out.rec = record{
		Source:       cloneString(r.Source),
		Hostname:     cloneString(r.Hostname),
		Category:     cloneString(r.Category),
		ProcessName:  cloneString(r.ProcessName),
		Summary:      cloneString(r.Summary),
		Severity:     cloneString(r.Severity),
		Timestamp:    cloneString(r.Timestamp),
		UTCTimestamp: cloneString(r.UTCTimestamp),
	}
	if r.ProcessID != nil {
		pid := *r.ProcessID
		out.rec.ProcessID = &pid
	}
	if r.Tags != nil {
		out.SetTags(*r.Tags)
	}
	if r.Details != nil {
		d := Details(deepCopyMap(*r.Details))
		out.rec.Details = &d
	}
	return out
}

// String returns the compact JSON form, or an error marker when encoding fails.
func (m *Message) String() string {
	data, err := m.Marshal()
	if err != nil {
		return fmt.Sprintf("<mozdef message: %v>", err)
	}
	return string(data)
}

func derefString(p *string) (any, bool) {
	if p == nil {
		return nil, false
	}
	return *p, true
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	s := *p
	return &s
}

func asInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case uint32:
		return int(v), true
	}
	return 0, false
}

func fieldTypeError(name, want string, value any) error {
	return fmt.Errorf("%w: %s expects %s, got %T", errspkg.ErrFieldType, name, want, value)
}

func deepCopyMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopyMap(t)
	case Details:
		return Details(deepCopyMap(t))
	case []any:
		cp := make([]any, len(t))
		for i := range t {
			cp[i] = deepCopyValue(t[i])
		}
		return cp
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}
