package runtime

import (
	"context"
	"time"

	"github.com/drblury/mozdef/internal/runtime/logging"
	"github.com/drblury/mozdef/pathway"
)

// SendContext describes a single send to hooks.
type SendContext struct {
	// Pathway is the name of the pathway the message is handed to.
	Pathway string
	// Summary, Severity and Category are copied from the message.
	Summary  string
	Severity string
	Category string
	// Context is the context of the send, carrying the tracing span.
	Context context.Context
	// StartedAt is when the send started.
	StartedAt time.Time
	// Duration is how long the send took (only set in OnSendDone and OnSendError).
	Duration time.Duration
	// Status is the pathway result status (only set in OnSendDone).
	Status pathway.Status
}

// SendHooks defines callbacks for send lifecycle events.
// All hooks are optional - nil hooks are simply not called.
type SendHooks struct {
	// OnSendStart is called before the message is validated.
	OnSendStart func(ctx SendContext)

	// OnSendDone is called when the pathway accepted the message.
	OnSendDone func(ctx SendContext)

	// OnSendError is called when validation or delivery failed.
	OnSendError func(ctx SendContext, err error)
}

// Merge combines two SendHooks, creating a new SendHooks that calls both.
// The hooks from 'other' are called after the hooks from 'h'.
func (h SendHooks) Merge(other SendHooks) SendHooks {
	return SendHooks{
		OnSendStart: chainHooks(h.OnSendStart, other.OnSendStart),
		OnSendDone:  chainHooks(h.OnSendDone, other.OnSendDone),
		OnSendError: chainErrorHooks(h.OnSendError, other.OnSendError),
	}
}

func chainHooks(a, b func(SendContext)) func(SendContext) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx SendContext) {
		a(ctx)
		b(ctx)
	}
}

func chainErrorHooks(a, b func(SendContext, error)) func(SendContext, error) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx SendContext, err error) {
		a(ctx, err)
		b(ctx, err)
	}
}

// LoggingHooks returns pre-built hooks that log send outcomes.
func LoggingHooks(logger logging.ServiceLogger) SendHooks {
	logger = logging.OrNop(logger)
	return SendHooks{
		OnSendDone: func(ctx SendContext) {
			logger.Debug("Message sent", logging.LogFields{
				"pathway":     ctx.Pathway,
				"status":      string(ctx.Status),
				"summary":     ctx.Summary,
				"duration_ms": ctx.Duration.Milliseconds(),
			})
		},
		OnSendError: func(ctx SendContext, err error) {
			logger.Error("Message send failed", err, logging.LogFields{
				"pathway":     ctx.Pathway,
				"summary":     ctx.Summary,
				"duration_ms": ctx.Duration.Milliseconds(),
			})
		},
	}
}

// AlertingHooks returns pre-built hooks that call alertFunc on failed sends.
func AlertingHooks(alertFunc func(ctx SendContext, err error)) SendHooks {
	return SendHooks{
		OnSendError: alertFunc,
	}
}
