// Package jetstream provides a pathway that persists messages in a NATS
// JetStream stream.
package jetstream

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	errspkg "github.com/drblury/mozdef/internal/runtime/errors"
	"github.com/drblury/mozdef/internal/runtime/ids"
	"github.com/drblury/mozdef/internal/runtime/logging"
	"github.com/drblury/mozdef/internal/runtime/message"
	"github.com/drblury/mozdef/internal/runtime/metadata"
	"github.com/drblury/mozdef/pathway"
)

// PathwayName is the name used to register this pathway.
const PathwayName = "nats-jetstream"

const (
	// DefaultStreamName is the stream created when none is configured.
	DefaultStreamName = "MOZDEF"

	// DefaultMaxAge bounds how long events are retained.
	DefaultMaxAge = 7 * 24 * time.Hour
)

// JetStream is the part of nats.JetStreamContext the pathway uses.
type JetStream interface {
	AddStream(cfg *nats.StreamConfig, opts ...nats.JSOpt) (*nats.StreamInfo, error)
	UpdateStream(cfg *nats.StreamConfig, opts ...nats.JSOpt) (*nats.StreamInfo, error)
	PublishMsg(m *nats.Msg, opts ...nats.PubOpt) (*nats.PubAck, error)
}

// ConnectFunc allows overriding the connection for testing. The returned
// function closes the connection.
var ConnectFunc = func(url string, opts ...nats.Option) (JetStream, func(), error) {
	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, nil, err
	}
	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	return js, conn.Close, nil
}

// Config holds JetStream-specific settings.
type Config struct {
	URL   string
	Topic string

	// StreamName defaults to DefaultStreamName.
	StreamName string

	// Replicas is the number of stream replicas (for clustering).
	Replicas int

	// RetentionPolicy: "limits" (default), "interest", or "workqueue"
	RetentionPolicy string
}

func (c Config) withDefaults() Config {
	if c.StreamName == "" {
		c.StreamName = DefaultStreamName
	}
	if c.Replicas <= 0 {
		c.Replicas = 1
	}
	return c
}

// Stream publishes each message to <stream>.<topic> and waits for the
// server's acknowledgement.
type Stream struct {
	js      JetStream
	closeFn func()
	config  Config
	logger  logging.ServiceLogger

	mu     sync.Mutex
	closed bool
}

// Register adds the JetStream pathway to the default registry.
func Register() {
	pathway.RegisterWithCapabilities(PathwayName, Build, pathway.JetStreamCapabilities)
}

func init() {
	Register()
}

// Build creates a JetStream pathway from configuration.
func Build(ctx context.Context, cfg pathway.Config, logger logging.ServiceLogger) (pathway.Pathway, error) {
	s, err := New(Config{URL: cfg.GetNATSURL(), Topic: cfg.GetBrokerTopic()}, logger)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// New connects to the server and makes sure the stream exists.
func New(cfg Config, logger logging.ServiceLogger) (*Stream, error) {
	if cfg.URL == "" {
		return nil, errspkg.ErrURLRequired
	}
	if cfg.Topic == "" {
		return nil, errspkg.ErrTopicRequired
	}
	cfg = cfg.withDefaults()

	js, closeFn, err := ConnectFunc(cfg.URL, nats.Name("mozdef"))
	if err != nil {
		return nil, &errspkg.DeliveryError{Pathway: PathwayName, Op: "connect", Cause: err}
	}

	s := &Stream{
		js:      js,
		closeFn: closeFn,
		config:  cfg,
		logger:  logging.OrNop(logger).With(logging.LogFields{"pathway": PathwayName}),
	}
	if err := s.ensureStream(); err != nil {
		s.logger.Error("JetStream stream unavailable", err, logging.LogFields{"stream": cfg.StreamName})
		if closeFn != nil {
			closeFn()
		}
		return nil, &errspkg.ConfigurationError{Key: "nats_stream", Reason: "unable to create or update stream " + cfg.StreamName, Cause: err}
	}
	return s, nil
}

// ensureStream creates the stream, or updates it when it already exists.
func (s *Stream) ensureStream() error {
	streamCfg := &nats.StreamConfig{
		Name:     s.config.StreamName,
		Subjects: []string{s.config.StreamName + ".>"},
		MaxAge:   DefaultMaxAge,
		Replicas: s.config.Replicas,
	}

	switch s.config.RetentionPolicy {
	case "interest":
		streamCfg.Retention = nats.InterestPolicy
	case "workqueue":
		streamCfg.Retention = nats.WorkQueuePolicy
	default:
		streamCfg.Retention = nats.LimitsPolicy
	}

	_, addErr := s.js.AddStream(streamCfg)
	if addErr == nil {
		return nil
	}
	if _, err := s.js.UpdateStream(streamCfg); err != nil {
		return errors.Join(addErr, err)
	}
	s.logger.Debug("JetStream stream updated", logging.LogFields{"stream": s.config.StreamName})
	return nil
}

func (s *Stream) Name() string { return PathwayName }

// Subject returns the subject messages are published to.
func (s *Stream) Subject() string {
	return s.config.StreamName + "." + s.config.Topic
}

// Send publishes the compact message JSON. The delivery id doubles as the
// JetStream message id, so a retried publish is de-duplicated by the server.
// Response is the server's *nats.PubAck.
func (s *Stream) Send(ctx context.Context, msg *message.Message) (pathway.Result, error) {
	if msg == nil {
		return pathway.Result{}, errspkg.ErrMessageRequired
	}
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return pathway.Result{}, errspkg.ErrPathwayClosed
	}

	body, err := msg.Marshal()
	if err != nil {
		return pathway.Result{}, err
	}
	if err := pathway.CheckSize(body, pathway.JetStreamCapabilities.MaxMessageSize); err != nil {
		return pathway.Result{}, err
	}

	id := ids.NewDeliveryID()
	header := nats.Header{}
	for k, v := range metadata.New(metadata.KeyDeliveryID, id, metadata.KeyContentType, "application/json") {
		header.Set(k, v)
	}

	ack, err := s.js.PublishMsg(&nats.Msg{
		Subject: s.Subject(),
		Data:    body,
		Header:  header,
	}, nats.MsgId(id), nats.Context(ctx))
	if err != nil {
		return pathway.Result{}, &errspkg.DeliveryError{Pathway: PathwayName, Op: "publish", Cause: err}
	}

	s.logger.Debug("Message stored", logging.LogFields{"subject": s.Subject(), "delivery_id": id})
	return pathway.Result{Status: pathway.StatusSent, Response: ack}, nil
}

// Close closes the connection. Later calls are no-ops.
func (s *Stream) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// Capabilities returns the capabilities of this pathway.
func Capabilities() pathway.Capabilities {
	return pathway.JetStreamCapabilities
}
