// Package rabbitmq provides a pathway that publishes messages to a RabbitMQ
// exchange over AMQP.
package rabbitmq

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-amqp/v3/pkg/amqp"
	"github.com/ThreeDotsLabs/watermill/message"

	errspkg "github.com/drblury/mozdef/internal/runtime/errors"
	"github.com/drblury/mozdef/internal/runtime/logging"
	"github.com/drblury/mozdef/pathway"
	"github.com/drblury/mozdef/pathway/broker"
)

// PathwayName is the name used to register this pathway.
const PathwayName = "rabbitmq"

// ConnectionFactory allows overriding the connection creation for testing.
var ConnectionFactory = func(cfg amqp.ConnectionConfig, logger watermill.LoggerAdapter) (*amqp.ConnectionWrapper, error) {
	return amqp.NewConnection(cfg, logger)
}

// PublisherFactory allows overriding the publisher creation for testing.
var PublisherFactory = func(cfg amqp.Config, logger watermill.LoggerAdapter, conn *amqp.ConnectionWrapper) (message.Publisher, error) {
	return amqp.NewPublisherWithConnection(cfg, logger, conn)
}

// Register adds the RabbitMQ pathway to the default registry.
func Register() {
	pathway.RegisterWithCapabilities(PathwayName, Build, pathway.RabbitMQCapabilities)
}

func init() {
	Register()
}

// Build creates a RabbitMQ pathway from configuration.
func Build(ctx context.Context, cfg pathway.Config, logger logging.ServiceLogger) (pathway.Pathway, error) {
	b, err := New(cfg.GetRabbitMQURL(), cfg.GetBrokerTopic(), logger)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// New returns a pathway publishing to the durable exchange named topic.
func New(url, topic string, logger logging.ServiceLogger, opts ...broker.Option) (*broker.Broker, error) {
	if url == "" {
		return nil, errspkg.ErrURLRequired
	}
	wmLogger := logging.NewWatermillAdapter(logger)

	conn, err := ConnectionFactory(amqp.ConnectionConfig{
		AmqpURI:   url,
		TLSConfig: nil,
		Reconnect: amqp.DefaultReconnectConfig(),
	}, wmLogger)
	if err != nil {
		return nil, &errspkg.DeliveryError{Pathway: PathwayName, Op: "connect", Cause: err}
	}

	publisher, err := PublisherFactory(amqp.NewDurablePubSubConfig(url, amqp.GenerateQueueNameTopicName), wmLogger, conn)
	if err != nil {
		return nil, &errspkg.DeliveryError{Pathway: PathwayName, Op: "connect", Cause: err}
	}

	opts = append([]broker.Option{
		broker.WithName(PathwayName),
		broker.WithCapabilities(pathway.RabbitMQCapabilities),
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
	return pathway.RabbitMQCapabilities
}
