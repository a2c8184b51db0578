// Package mozdef builds MozDef security event messages and delivers them to
// a pathway: stdout, the process log, an SQS queue, an SNS topic, an HTTP
// ingestion endpoint or a Watermill broker.
//
// A Message is created with NewMessage, which fills hostname, severity,
// category, process id, process name, tags, details and timestamp from
// options or defaults. Send checks it against a Validator before handing it
// to a Pathway; an invalid message never leaves the process.
//
// # Pathways
//
//   - console: indented JSON on stdout
//   - log: one-line JSON through log/slog (the default, at Warn)
//   - sqs, sns: compact JSON up to 256 KiB via aws-sdk-go-v2
//   - http: JSON POST, fire-and-forget by default, with optional batching
//   - channel, kafka, rabbitmq, nats: Watermill publishers
//
// Pathways that hold resources implement Closer. Use runs a function with
// such a pathway and closes it on every exit path, which is how a buffering
// HTTP pathway flushes its remaining messages exactly once.
//
// # Configuration
//
// LoadConfig reads MOZDEF_* environment variables (and a .env file), and
// NewSenderFromConfig builds the selected pathway from the registry. A
// Sender adds Prometheus metrics, an OpenTelemetry span and SendHooks
// around every send.
package mozdef
