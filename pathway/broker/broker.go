// Package broker delivers messages by publishing their JSON body to a topic
// on any Watermill publisher. The channel, kafka, rabbitmq and nats pathways
// are thin builders around it.
package broker

import (
	"context"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"

	errspkg "github.com/drblury/mozdef/internal/runtime/errors"
	"github.com/drblury/mozdef/internal/runtime/ids"
	"github.com/drblury/mozdef/internal/runtime/logging"
	mozmessage "github.com/drblury/mozdef/internal/runtime/message"
	"github.com/drblury/mozdef/internal/runtime/metadata"
	"github.com/drblury/mozdef/pathway"
)

// ContentType is set on every published message.
const ContentType = "application/json"

// Option customises a Broker.
type Option func(*Broker)

// WithName sets the pathway name reported by Name and used in errors.
func WithName(name string) Option {
	return func(b *Broker) { b.name = name }
}

// WithCapabilities sets the capabilities, including the body size limit.
func WithCapabilities(caps pathway.Capabilities) Option {
	return func(b *Broker) { b.caps = caps }
}

// WithMetadata adds metadata to every published message.
func WithMetadata(md map[string]string) Option {
	return func(b *Broker) { b.metadata = b.metadata.Merge(md) }
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger logging.ServiceLogger) Option {
	return func(b *Broker) { b.logger = logger }
}

// Broker publishes messages to one topic.
type Broker struct {
	name      string
	topic     string
	publisher message.Publisher
	caps      pathway.Capabilities
	metadata  metadata.Metadata
	logger    logging.ServiceLogger

	mu     sync.Mutex
	closed bool
}

// New returns a pathway publishing to topic. The publisher is owned by the
// pathway and closed by Close.
func New(publisher message.Publisher, topic string, opts ...Option) (*Broker, error) {
	if publisher == nil {
		return nil, errspkg.ErrPublisherRequired
	}
	if topic == "" {
		return nil, errspkg.ErrTopicRequired
	}
	b := &Broker{
		name:      "broker",
		topic:     topic,
		publisher: publisher,
		metadata:  metadata.Metadata{},
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.caps.Name == "" {
		b.caps.Name = b.name
	}
	b.logger = logging.OrNop(b.logger).With(logging.LogFields{"pathway": b.name, "topic": topic})
	return b, nil
}

func (b *Broker) Name() string { return b.name }

// Topic returns the topic messages are published to.
func (b *Broker) Topic() string { return b.topic }

// Capabilities returns the capabilities given at construction.
func (b *Broker) Capabilities() pathway.Capabilities { return b.caps }

// Send publishes the compact JSON body of msg. Bodies over the size limit
// fail before the publisher is called. Response is the delivery id.
func (b *Broker) Send(ctx context.Context, msg *mozmessage.Message) (pathway.Result, error) {
	if msg == nil {
		return pathway.Result{}, errspkg.ErrMessageRequired
	}
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return pathway.Result{}, errspkg.ErrPathwayClosed
	}

	body, err := msg.Marshal()
	if err != nil {
		return pathway.Result{}, err
	}
	if b.caps.HasSizeLimit() {
		if err := pathway.CheckSize(body, b.caps.MaxMessageSize); err != nil {
			return pathway.Result{}, err
		}
	}

	id := ids.NewDeliveryID()
	wm := message.NewMessage(id, body)
	wm.Metadata = metadata.ToWatermill(b.metadata.Merge(metadata.New(
		metadata.KeyDeliveryID, id,
		metadata.KeyContentType, ContentType,
	)))
	wm.SetContext(ctx)

	if err := b.publisher.Publish(b.topic, wm); err != nil {
		b.logger.Error("Publish failed", err, logging.LogFields{"delivery_id": id})
		return pathway.Result{}, &errspkg.DeliveryError{Pathway: b.name, Op: "publish", Cause: err}
	}
	b.logger.Trace("Published message", logging.LogFields{"delivery_id": id, "body_bytes": len(body)})
	return pathway.Result{Status: pathway.StatusSent, Response: id}, nil
}

// Close closes the publisher once.
func (b *Broker) Close(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()
	return b.publisher.Close()
}
