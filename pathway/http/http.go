// Package http provides a pathway that POSTs messages to an HTTP ingestion
// endpoint. Requests are fire-and-forget unless WithBlocking is set, and
// WithBufferSize groups messages into newline-delimited batches.
package http

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	nethttp "net/http"
	"net/url"
	"strconv"
	"sync"

	watermillhttp "github.com/ThreeDotsLabs/watermill-http/v2/pkg/http"
	wmmessage "github.com/ThreeDotsLabs/watermill/message"

	errspkg "github.com/drblury/mozdef/internal/runtime/errors"
	"github.com/drblury/mozdef/internal/runtime/ids"
	"github.com/drblury/mozdef/internal/runtime/jsoncodec"
	"github.com/drblury/mozdef/internal/runtime/logging"
	"github.com/drblury/mozdef/internal/runtime/message"
	"github.com/drblury/mozdef/internal/runtime/metadata"
	"github.com/drblury/mozdef/pathway"
)

// PathwayName is the name used to register this pathway.
const PathwayName = "http"

const (
	ContentTypeJSON   = "application/json"
	ContentTypeNDJSON = "application/x-ndjson"
)

const deliveryPathway = "HTTP"

// ClientFactory allows overriding the HTTP client creation for testing.
var ClientFactory = NewClient

// MarshalRequestFunc allows overriding how requests are built for testing.
var MarshalRequestFunc = watermillhttp.DefaultMarshalMessageFunc

// NewClient returns a client that ignores proxy settings from the
// environment. Certificate verification is skipped only when verifyCert is
// false.
func NewClient(verifyCert bool) *nethttp.Client {
	transport := nethttp.DefaultTransport.(*nethttp.Transport).Clone()
	transport.Proxy = nil
	if !verifyCert {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &nethttp.Client{Transport: transport}
}

// Response is the result of a blocking delivery.
type Response struct {
	StatusCode int
	Header     nethttp.Header
	Body       []byte
}

// Option customises an Endpoint.
type Option func(*Endpoint)

// WithBlocking makes Send wait for the response and check its status.
func WithBlocking(blocking bool) Option {
	return func(e *Endpoint) { e.blocking = blocking }
}

// WithVerifyCert toggles TLS certificate verification. It is on by default.
// It configures the client built by ClientFactory and has no effect when
// WithHTTPClient supplies the client.
func WithVerifyCert(verify bool) Option {
	return func(e *Endpoint) { e.verifyCert = verify }
}

// WithBufferSize enables buffering when n is greater than 1. Messages are
// held until more than n are pending and then sent as one request.
func WithBufferSize(n int) Option {
	return func(e *Endpoint) { e.bufferSize = n }
}

// WithHeaders adds headers to every request.
func WithHeaders(headers map[string]string) Option {
	return func(e *Endpoint) { e.headers = e.headers.Merge(headers) }
}

// WithHTTPClient replaces the client built by ClientFactory. The client's
// own TLS settings apply; WithVerifyCert is ignored.
func WithHTTPClient(client *nethttp.Client) Option {
	return func(e *Endpoint) { e.client = client }
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger logging.ServiceLogger) Option {
	return func(e *Endpoint) { e.logger = logger }
}

// Endpoint delivers messages to a single URL.
type Endpoint struct {
	url        string
	blocking   bool
	verifyCert bool
	bufferSize int
	headers    metadata.Metadata
	client     *nethttp.Client
	logger     logging.ServiceLogger

	mu       sync.Mutex
	buffer   []*message.Message
	closed   bool
	inflight sync.WaitGroup
}

func init() {
	Register()
}

// Register adds the HTTP pathway to the default registry.
func Register() {
	pathway.RegisterWithCapabilities(PathwayName, Build, pathway.HTTPCapabilities)
}

// Build creates an HTTP pathway from configuration.
func Build(ctx context.Context, cfg pathway.Config, logger logging.ServiceLogger) (pathway.Pathway, error) {
	e, err := New(cfg.GetHTTPURL(),
		WithBlocking(cfg.GetHTTPBlocking()),
		WithVerifyCert(cfg.GetHTTPVerifyCert()),
		WithBufferSize(cfg.GetHTTPBufferSize()),
		WithHeaders(cfg.GetHTTPHeaders()),
		WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// New returns an endpoint posting to rawURL.
func New(rawURL string, opts ...Option) (*Endpoint, error) {
	if rawURL == "" {
		return nil, errspkg.ErrURLRequired
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, &errspkg.ConfigurationError{Key: "http_url", Reason: "invalid URL", Cause: err}
	}

	e := &Endpoint{
		url:        rawURL,
		verifyCert: true,
		bufferSize: 1,
		headers:    metadata.Metadata{},
	}
	for _, opt := range opts {
		opt(e)
	}
	injected := e.client != nil
	if !injected {
		e.client = ClientFactory(e.verifyCert)
	}
	e.logger = logging.OrNop(e.logger).With(logging.LogFields{
		"pathway": PathwayName,
		"host":    parsed.Host,
	})
	if injected && !e.verifyCert {
		e.logger.Debug("Certificate verification setting ignored for the supplied HTTP client", nil)
	}
	e.logger.Debug("Created HTTP pathway", logging.LogFields{
		"blocking":    e.blocking,
		"verify_cert": e.verifyCert,
		"buffer_size": e.bufferSize,
	})
	return e, nil
}

func (e *Endpoint) Name() string { return PathwayName }

// URL returns the target URL.
func (e *Endpoint) URL() string { return e.url }

// Buffering reports whether sends are grouped into batches.
func (e *Endpoint) Buffering() bool { return e.bufferSize > 1 }

// Pending returns the number of buffered messages not yet sent.
func (e *Endpoint) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.buffer)
}

// Capabilities returns the capabilities of this pathway.
func (e *Endpoint) Capabilities() pathway.Capabilities {
	return pathway.HTTPCapabilities
}

// Send delivers msg, or buffers it when buffering is enabled.
//
// A buffered message reports StatusBuffered. The send that takes the buffer
// past its capacity flushes every pending message, in insertion order, as
// one request and reports that request's outcome. Non-blocking requests
// report StatusDispatched; blocking ones report StatusSent with a *Response,
// or a *errors.ResponseStatusError when the status is not 200.
func (e *Endpoint) Send(ctx context.Context, msg *message.Message) (pathway.Result, error) {
	if msg == nil {
		return pathway.Result{}, errspkg.ErrMessageRequired
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return pathway.Result{}, errspkg.ErrPathwayClosed
	}
	if !e.Buffering() {
		e.inflight.Add(1)
		e.mu.Unlock()
		body, err := msg.Marshal()
		if err != nil {
			e.inflight.Done()
			return pathway.Result{}, err
		}
		return e.deliver(ctx, body, ContentTypeJSON, 1)
	}

	e.buffer = append(e.buffer, msg.Clone())
	if pending := len(e.buffer); pending <= e.bufferSize {
		e.mu.Unlock()
		e.logger.Trace("Buffered message", logging.LogFields{"pending": pending})
		return pathway.Result{Status: pathway.StatusBuffered}, nil
	}
	batch := e.buffer
	e.buffer = nil
	e.inflight.Add(1)
	e.mu.Unlock()

	return e.flush(ctx, batch)
}

// Close flushes any buffered messages exactly once and waits for in-flight
// requests. Later sends fail with errors.ErrPathwayClosed; later calls to
// Close are no-ops.
func (e *Endpoint) Close(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	batch := e.buffer
	e.buffer = nil
	if len(batch) > 0 {
		e.inflight.Add(1)
	}
	e.mu.Unlock()

	var flushErr error
	if len(batch) > 0 {
		e.logger.Debug("Flushing buffered messages on close", logging.LogFields{"count": len(batch)})
		_, flushErr = e.flush(ctx, batch)
	}

	done := make(chan struct{})
	go func() {
		e.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return flushErr
	case <-ctx.Done():
		return errors.Join(flushErr, ctx.Err())
	}
}

// flush sends batch as one newline-delimited request. The caller has
// already registered the request with inflight.
func (e *Endpoint) flush(ctx context.Context, batch []*message.Message) (pathway.Result, error) {
	body, err := jsoncodec.MarshalLines(batch)
	if err != nil {
		e.inflight.Done()
		return pathway.Result{}, err
	}
	e.logger.Debug("Flushing buffer", logging.LogFields{"count": len(batch), "body_bytes": len(body)})
	return e.deliver(ctx, body, ContentTypeNDJSON, len(batch))
}

// deliver issues one request and marks it done in inflight.
func (e *Endpoint) deliver(ctx context.Context, body []byte, contentType string, count int) (pathway.Result, error) {
	req, err := e.newRequest(body, contentType, count)
	if err != nil {
		e.inflight.Done()
		return pathway.Result{}, err
	}

	if !e.blocking {
		ctx = context.WithoutCancel(ctx)
		go func() {
			defer e.inflight.Done()
			if _, err := e.do(ctx, req); err != nil {
				e.logger.Error("HTTP delivery failed", err, logging.LogFields{"count": count})
			}
		}()
		return pathway.Result{Status: pathway.StatusDispatched}, nil
	}

	defer e.inflight.Done()
	resp, err := e.do(ctx, req)
	if err != nil {
		return pathway.Result{}, err
	}
	return pathway.Result{Status: pathway.StatusSent, Response: resp}, nil
}

func (e *Endpoint) newRequest(body []byte, contentType string, count int) (*nethttp.Request, error) {
	msg := wmmessage.NewMessage(ids.NewDeliveryID(), body)
	md := metadata.New(metadata.KeyContentType, contentType)
	if count > 1 || contentType == ContentTypeNDJSON {
		md = md.With(metadata.KeyBatchSize, strconv.Itoa(count))
	}
	msg.Metadata = metadata.ToWatermill(md)

	req, err := MarshalRequestFunc(e.url, msg)
	if err != nil {
		return nil, &errspkg.DeliveryError{Pathway: deliveryPathway, Op: "marshal", Cause: err}
	}
	e.headers.ApplyHeaders(req.Header)
	req.Header.Set("Content-Type", contentType)
	return req, nil
}

func (e *Endpoint) do(ctx context.Context, req *nethttp.Request) (*Response, error) {
	resp, err := e.client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, &errspkg.DeliveryError{Pathway: deliveryPathway, Op: req.Method, Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errspkg.DeliveryError{Pathway: deliveryPathway, Op: "read response", Cause: err}
	}
	if resp.StatusCode != nethttp.StatusOK {
		return nil, &errspkg.ResponseStatusError{URL: e.url, StatusCode: resp.StatusCode}
	}
	e.logger.Trace("HTTP delivery succeeded", logging.LogFields{"status": resp.StatusCode})
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

// Capabilities returns the capabilities of this pathway.
func Capabilities() pathway.Capabilities {
	return pathway.HTTPCapabilities
}
