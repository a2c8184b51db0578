// Package kafka provides a pathway that publishes messages to a Kafka topic.
package kafka

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"

	errspkg "github.com/drblury/mozdef/internal/runtime/errors"
	"github.com/drblury/mozdef/internal/runtime/logging"
	"github.com/drblury/mozdef/pathway"
	"github.com/drblury/mozdef/pathway/broker"
)

// PathwayName is the name used to register this pathway.
const PathwayName = "kafka"

// PublisherFactory allows overriding the publisher creation for testing.
var PublisherFactory = func(cfg kafka.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return kafka.NewPublisher(cfg, logger)
}

// Register adds the Kafka pathway to the default registry.
func Register() {
	pathway.RegisterWithCapabilities(PathwayName, Build, pathway.KafkaCapabilities)
}

func init() {
	Register()
}

// Build creates a Kafka pathway from configuration.
func Build(ctx context.Context, cfg pathway.Config, logger logging.ServiceLogger) (pathway.Pathway, error) {
	b, err := New(cfg.GetKafkaBrokers(), cfg.GetBrokerTopic(), logger)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// New returns a pathway publishing to topic on the given brokers.
func New(brokers []string, topic string, logger logging.ServiceLogger, opts ...broker.Option) (*broker.Broker, error) {
	if len(brokers) == 0 {
		return nil, &errspkg.ConfigurationError{Key: "kafka_brokers", Reason: "at least one broker is required"}
	}

	publisher, err := PublisherFactory(
		kafka.PublisherConfig{
			Brokers:   brokers,
			Marshaler: kafka.DefaultMarshaler{},
		},
		logging.NewWatermillAdapter(logger),
	)
	if err != nil {
		return nil, &errspkg.DeliveryError{Pathway: PathwayName, Op: "connect", Cause: err}
	}

	opts = append([]broker.Option{
		broker.WithName(PathwayName),
		broker.WithCapabilities(pathway.KafkaCapabilities),
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
	return pathway.KafkaCapabilities
}
