// Package nats provides a pathway that publishes messages to a NATS Core
// subject.
package nats

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	nc "github.com/nats-io/nats.go"

	errspkg "github.com/drblury/mozdef/internal/runtime/errors"
	"github.com/drblury/mozdef/internal/runtime/logging"
	"github.com/drblury/mozdef/pathway"
	"github.com/drblury/mozdef/pathway/broker"
)

// PathwayName is the name used to register this pathway.
const PathwayName = "nats"

// ClientName identifies the connection to the NATS server.
const ClientName = "mozdef"

const reconnectWait = 2 * time.Second

// PublisherFactory allows overriding the publisher creation for testing.
var PublisherFactory = func(cfg nats.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return nats.NewPublisher(cfg, logger)
}

// Register adds the NATS pathway to the default registry.
func Register() {
	pathway.RegisterWithCapabilities(PathwayName, Build, pathway.NATSCapabilities)
}

func init() {
	Register()
}

// Build creates a NATS pathway from configuration.
func Build(ctx context.Context, cfg pathway.Config, logger logging.ServiceLogger) (pathway.Pathway, error) {
	b, err := New(cfg.GetNATSURL(), cfg.GetBrokerTopic(), logger)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// New returns a pathway publishing to the subject named topic.
func New(url, topic string, logger logging.ServiceLogger, opts ...broker.Option) (*broker.Broker, error) {
	if url == "" {
		return nil, errspkg.ErrURLRequired
	}

	publisher, err := PublisherFactory(
		nats.PublisherConfig{
			URL: url,
			NatsOptions: []nc.Option{
				nc.Name(ClientName),
				nc.ReconnectWait(reconnectWait),
			},
			Marshaler: &nats.NATSMarshaler{},
			JetStream: nats.JetStreamConfig{Disabled: true},
		},
		logging.NewWatermillAdapter(logger),
	)
	if err != nil {
		return nil, &errspkg.DeliveryError{Pathway: PathwayName, Op: "connect", Cause: err}
	}

	opts = append([]broker.Option{
		broker.WithName(PathwayName),
		broker.WithCapabilities(pathway.NATSCapabilities),
		broker.WithLogger(logger),
	}, opts...)
	b, err := broker.New(publisher, topic, opts...)
	if err != nil {
		_ = publisher.Close()
		return nil, err
	}
	return b, nil
}

// Capabilities returns the capabilities of this pathway.
func Capabilities() pathway.Capabilities {
	return pathway.NATSCapabilities
}
