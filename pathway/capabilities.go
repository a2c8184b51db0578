package pathway

// Capabilities describes what a pathway does with a message.
type Capabilities struct {
	// Name is the registry name of the pathway.
	Name string

	// MaxMessageSize is the largest serialized body in bytes the backend
	// accepts (0 = unlimited/unknown).
	MaxMessageSize int

	// SupportsBatching indicates several messages can travel in one request.
	SupportsBatching bool

	// SupportsHeaders indicates delivery metadata travels with the body.
	SupportsHeaders bool

	// Remote indicates the pathway leaves the process.
	Remote bool

	// MayBlock indicates Send can wait on external I/O.
	MayBlock bool
}

// HasSizeLimit reports whether bodies must be checked before sending.
func (c Capabilities) HasSizeLimit() bool {
	return c.MaxMessageSize > 0
}

// MaxAWSMessageSize is the SQS and SNS body limit.
const MaxAWSMessageSize = 262144

// Predefined capability sets for the built-in pathways.
var (
	ConsoleCapabilities = Capabilities{
		Name: "console",
	}

	ProcessLogCapabilities = Capabilities{
		Name: "log",
	}

	SQSCapabilities = Capabilities{
		Name:           "sqs",
		MaxMessageSize: MaxAWSMessageSize,
		Remote:         true,
		MayBlock:       true,
	}

	SNSCapabilities = Capabilities{
		Name:           "sns",
		MaxMessageSize: MaxAWSMessageSize,
		Remote:         true,
		MayBlock:       true,
	}

	HTTPCapabilities = Capabilities{
		Name:             "http",
		SupportsBatching: true,
		SupportsHeaders:  true,
		Remote:           true,
		MayBlock:         true,
	}

	ChannelCapabilities = Capabilities{
		Name:            "channel",
		SupportsHeaders: true,
	}

	KafkaCapabilities = Capabilities{
		Name:            "kafka",
		MaxMessageSize:  1048576, // Default 1MB
		SupportsHeaders: true,
		Remote:          true,
		MayBlock:        true,
	}

	RabbitMQCapabilities = Capabilities{
		Name:            "rabbitmq",
		SupportsHeaders: true,
		Remote:          true,
		MayBlock:        true,
	}

	NATSCapabilities = Capabilities{
		Name:            "nats",
		MaxMessageSize:  1048576, // Default 1MB
		SupportsHeaders: true,
		Remote:          true,
		MayBlock:        true,
	}

	JetStreamCapabilities = Capabilities{
		Name:            "nats-jetstream",
		MaxMessageSize:  1048576,
		SupportsHeaders: true,
		Remote:          true,
		MayBlock:        true,
	}
)

// GetCapabilities returns the capabilities for a pathway by name from the
// default registry. Unknown names yield a zero Capabilities with Name set.
func GetCapabilities(name string) Capabilities {
	return DefaultRegistry.GetCapabilities(name)
}
