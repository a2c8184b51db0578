// Package channel provides an in-memory Go channel pathway. It is useful for
// tests and for handing events to consumers inside the same process.
package channel

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/drblury/mozdef/internal/runtime/logging"
	"github.com/drblury/mozdef/pathway"
	"github.com/drblury/mozdef/pathway/broker"
)

// PathwayName is the name used to register this pathway.
const PathwayName = "channel"

// Factory allows overriding the channel creation for testing.
var Factory = func(cfg gochannel.Config, logger watermill.LoggerAdapter) *gochannel.GoChannel {
	return gochannel.NewGoChannel(cfg, logger)
}

func init() {
	Register()
}

// Register adds the channel pathway to the default registry.
func Register() {
	pathway.RegisterWithCapabilities(PathwayName, Build, pathway.ChannelCapabilities)
}

// Build creates a channel pathway publishing to the configured broker topic.
// Nothing can subscribe to a pathway built this way; use New to keep the
// subscriber side.
func Build(ctx context.Context, cfg pathway.Config, logger logging.ServiceLogger) (pathway.Pathway, error) {
	b, _, err := New(cfg.GetBrokerTopic(), logger)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// New returns a pathway publishing to topic together with the Go channel
// pub/sub it publishes on, so callers can subscribe to delivered messages.
func New(topic string, logger logging.ServiceLogger, opts ...broker.Option) (*broker.Broker, *gochannel.GoChannel, error) {
	pubSub := Factory(gochannel.Config{}, logging.NewWatermillAdapter(logger))

	opts = append([]broker.Option{
		broker.WithName(PathwayName),
		broker.WithCapabilities(pathway.ChannelCapabilities),
		broker.WithLogger(logger),
	}, opts...)

	b, err := broker.New(pubSub, topic, opts...)
	if err != nil {
		_ = pubSub.Close()
		return nil, nil, err
	}
	return b, pubSub, nil
}

// Capabilities returns the capabilities of this pathway.
func Capabilities() pathway.Capabilities {
	return pathway.ChannelCapabilities
}
