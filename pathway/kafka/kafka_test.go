package kafka

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errspkg "github.com/drblury/mozdef/internal/runtime/errors"
	mozmessage "github.com/drblury/mozdef/internal/runtime/message"
	"github.com/drblury/mozdef/pathway"
)

func TestRegister(t *testing.T) {
	original := pathway.DefaultRegistry
	defer func() { pathway.DefaultRegistry = original }()
	pathway.DefaultRegistry = pathway.NewRegistry()
	Register()

	caps := pathway.GetCapabilities(PathwayName)
	assert.Equal(t, "kafka", caps.Name)
	assert.Equal(t, 1048576, caps.MaxMessageSize)
	assert.Equal(t, pathway.KafkaCapabilities, Capabilities())
}

func TestBuild(t *testing.T) {
	originalFactory := PublisherFactory
	defer func() { PublisherFactory = originalFactory }()

	t.Run("publishes through the configured brokers", func(t *testing.T) {
		pub := &mockPublisher{}
		var got kafka.PublisherConfig
		PublisherFactory = func(cfg kafka.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
			got = cfg
			return pub, nil
		}

		p, err := Build(context.Background(), &mockConfig{topic: "mozdef.events", brokers: []string{"k1:9092", "k2:9092"}}, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"k1:9092", "k2:9092"}, got.Brokers)
		assert.IsType(t, kafka.DefaultMarshaler{}, got.Marshaler)

		msg := &mozmessage.Message{}
		msg.SetSummary("test")
		_, err = p.Send(context.Background(), msg)
		require.NoError(t, err)
		assert.Equal(t, 1, pub.published)
	})

	t.Run("requires brokers", func(t *testing.T) {
		_, err := Build(context.Background(), &mockConfig{topic: "mozdef.events"}, nil)
		var cfgErr *errspkg.ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "kafka_brokers", cfgErr.Key)
	})

	t.Run("factory failure", func(t *testing.T) {
		PublisherFactory = func(cfg kafka.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
			return nil, errors.New("kafka error")
		}
		_, err := Build(context.Background(), &mockConfig{topic: "t", brokers: []string{"k1:9092"}}, nil)
		assert.ErrorContains(t, err, "kafka error")
		assert.True(t, errspkg.IsDelivery(err))
	})

	t.Run("closes publisher when topic is missing", func(t *testing.T) {
		pub := &mockPublisher{}
		PublisherFactory = func(cfg kafka.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
			return pub, nil
		}
		_, err := Build(context.Background(), &mockConfig{brokers: []string{"k1:9092"}}, nil)
		assert.ErrorIs(t, err, errspkg.ErrTopicRequired)
		assert.Equal(t, 1, pub.closed)
	})
}

type mockConfig struct {
	topic   string
	brokers []string
	url     string
}

func (m *mockConfig) GetPathway() string                { return PathwayName }
func (m *mockConfig) GetConsolePrefix() string          { return "" }
func (m *mockConfig) GetProcessLogLevel() slog.Level    { return slog.LevelInfo }
func (m *mockConfig) GetAWSRegion() string              { return "" }
func (m *mockConfig) GetAWSAccountID() string           { return "" }
func (m *mockConfig) GetAWSAccessKeyID() string         { return "" }
func (m *mockConfig) GetAWSSecretAccessKey() string     { return "" }
func (m *mockConfig) GetAWSEndpoint() string            { return "" }
func (m *mockConfig) GetSQSQueueName() string           { return "" }
func (m *mockConfig) GetSNSTopic() string               { return "" }
func (m *mockConfig) GetHTTPURL() string                { return "" }
func (m *mockConfig) GetHTTPVerifyCert() bool           { return true }
func (m *mockConfig) GetHTTPBlocking() bool             { return false }
func (m *mockConfig) GetHTTPBufferSize() int            { return 1 }
func (m *mockConfig) GetHTTPHeaders() map[string]string { return nil }
func (m *mockConfig) GetBrokerTopic() string            { return m.topic }
func (m *mockConfig) GetKafkaBrokers() []string         { return m.brokers }
func (m *mockConfig) GetRabbitMQURL() string            { return m.url }
func (m *mockConfig) GetNATSURL() string                { return m.url }

type mockPublisher struct {
	published int
	closed    int
}

func (m *mockPublisher) Publish(topic string, messages ...*message.Message) error {
	m.published += len(messages)
	return nil
}

func (m *mockPublisher) Close() error {
	m.closed++
	return nil
}
