// Package pathway defines the delivery abstraction for MozDef messages.
// Each pathway implementation (console, processlog, aws, http, broker
// backends) lives in its own sub-package and registers a builder with the
// pathway registry.
package pathway

import (
	"context"
	"log/slog"

	"github.com/drblury/mozdef/internal/runtime/logging"
	"github.com/drblury/mozdef/internal/runtime/message"
)

// Status describes what a successful Send did with the message.
type Status string

const (
	// StatusSent means the message was delivered and the backend answered.
	StatusSent Status = "sent"
	// StatusBuffered means the message was queued in memory and has not
	// been transmitted yet.
	StatusBuffered Status = "buffered"
	// StatusDispatched means the request was issued without waiting for
	// the backend's answer.
	StatusDispatched Status = "dispatched"
)

// Result is the outcome of a successful Send. Response holds the backend's
// raw answer when there is one (an SQS or SNS output, an HTTP response) and
// true otherwise.
type Result struct {
	Status   Status
	Response any
}

// Buffered reports whether the message is still waiting to be transmitted.
func (r Result) Buffered() bool {
	return r.Status == StatusBuffered
}

// Pathway delivers messages to a single destination.
type Pathway interface {
	// Name returns the registry name of the pathway, used in logs and
	// metric labels.
	Name() string
	// Send serializes msg and delivers it.
	Send(ctx context.Context, msg *message.Message) (Result, error)
}

// Closer is implemented by pathways that hold resources or buffered
// messages. Close must be safe to call more than once.
type Closer interface {
	Close(ctx context.Context) error
}

// Builder creates a pathway from configuration.
type Builder func(ctx context.Context, cfg Config, logger logging.ServiceLogger) (Pathway, error)

// Config provides the configuration values needed by pathways. It lets
// pathways read only the keys they need without depending on the config
// package.
type Config interface {
	// GetPathway returns the pathway name.
	GetPathway() string

	// Console
	GetConsolePrefix() string

	// ProcessLog
	GetProcessLogLevel() slog.Level

	// AWS
	GetAWSRegion() string
	GetAWSAccountID() string
	GetAWSAccessKeyID() string
	GetAWSSecretAccessKey() string
	GetAWSEndpoint() string
	GetSQSQueueName() string
	GetSNSTopic() string

	// HTTP
	GetHTTPURL() string
	GetHTTPVerifyCert() bool
	GetHTTPBlocking() bool
	GetHTTPBufferSize() int
	GetHTTPHeaders() map[string]string

	// Brokers
	GetBrokerTopic() string
	GetKafkaBrokers() []string
	GetRabbitMQURL() string
	GetNATSURL() string
}

// CapabilitiesProvider is implemented by pathways that can report their
// capabilities.
type CapabilitiesProvider interface {
	Capabilities() Capabilities
}

// BufferReporter is implemented by pathways that hold messages in memory.
type BufferReporter interface {
	Pending() int
}
