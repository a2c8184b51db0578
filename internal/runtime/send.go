package runtime

import (
	"context"
	"log/slog"

	"github.com/drblury/mozdef/internal/runtime/message"
	"github.com/drblury/mozdef/internal/runtime/validate"
	"github.com/drblury/mozdef/pathway"
	"github.com/drblury/mozdef/pathway/processlog"
)

// DefaultPathwayLevel is the level the default process log pathway uses.
const DefaultPathwayLevel = slog.LevelWarn

// SendOption customises a single Send call.
type SendOption func(*sendOptions)

type sendOptions struct {
	validator *validate.Validator
	pathway   pathway.Pathway
}

// WithValidator replaces the default validator.
func WithValidator(v *validate.Validator) SendOption {
	return func(o *sendOptions) { o.validator = v }
}

// WithPathway replaces the default process log pathway.
func WithPathway(p pathway.Pathway) SendOption {
	return func(o *sendOptions) { o.pathway = p }
}

// DefaultPathway returns the pathway Send uses when none is given: the
// process log at DefaultPathwayLevel.
func DefaultPathway() pathway.Pathway {
	return processlog.New(processlog.WithLevel(DefaultPathwayLevel))
}

// Send validates msg and hands it to a pathway. Validation always runs
// first, so an invalid message never reaches the pathway. The pathway's
// result and error are returned unchanged.
func Send(ctx context.Context, msg *message.Message, opts ...SendOption) (pathway.Result, error) {
	o := sendOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.validator == nil {
		o.validator = validate.New()
	}
	if o.pathway == nil {
		o.pathway = DefaultPathway()
	}

	if err := o.validator.Validate(msg); err != nil {
		return pathway.Result{}, err
	}
	return o.pathway.Send(ctx, msg)
}
