/*
Package runtime provides the send orchestration behind the mozdef package.

# Package Structure

## Send (send.go)

Send validates a message and hands it to a pathway. Without options it uses
the base validator and the process log pathway at WARN.

## Sender (sender.go)

Sender is a long-lived Send with a fixed validator and pathway built from
configuration. Around every send it:
  - opens an OpenTelemetry producer span
  - runs SendHooks (OnSendStart, OnSendDone, OnSendError)
  - records Prometheus metrics by pathway, status and error kind

Close closes the pathway once, which flushes buffering pathways.

## Hooks (hooks.go)

Composable lifecycle callbacks, plus LoggingHooks and AlertingHooks.

# Sub-packages

  - config/: Environment and YAML configuration with validation
  - environment/: Host name, FQDN, process and clock accessors
  - errors/: Sentinel errors and error types
  - ids/: ULID generation for delivery IDs
  - jsoncodec/: JSON marshaling utilities
  - logging/: Logger interface and adapters
  - message/: The MozDef message model and its defaults
  - metadata/: Delivery metadata utilities
  - metrics/: Prometheus send metrics
  - validate/: The validator pipeline

# Usage Example

	cfg, err := mozdef.LoadConfig()
	if err != nil {
		return err
	}

	sender, err := mozdef.NewSenderFromConfig(ctx, cfg, logger, mozdef.SenderDependencies{})
	if err != nil {
		return err
	}
	defer sender.Close(ctx)

	msg, err := mozdef.NewMessage("failed login", "auth service", mozdef.WithSeverity("WARNING"))
	if err != nil {
		return err
	}
	_, err = sender.Send(ctx, msg)
*/
package runtime
