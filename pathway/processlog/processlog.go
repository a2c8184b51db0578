// Package processlog provides a pathway that emits messages through the
// process logger as single-line JSON.
package processlog

import (
	"context"
	"log/slog"

	errspkg "github.com/drblury/mozdef/internal/runtime/errors"
	"github.com/drblury/mozdef/internal/runtime/logging"
	"github.com/drblury/mozdef/internal/runtime/message"
	"github.com/drblury/mozdef/pathway"
)

// PathwayName is the name used to register this pathway.
const PathwayName = "log"

// ProcessLog writes compact JSON to a slog.Logger at a fixed level.
type ProcessLog struct {
	logger *slog.Logger
	level  slog.Level
}

// Option customises a ProcessLog.
type Option func(*ProcessLog)

// WithLevel sets the level messages are logged at. The default is Info.
func WithLevel(level slog.Level) Option {
	return func(p *ProcessLog) { p.level = level }
}

// WithLogger replaces slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *ProcessLog) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func init() {
	Register()
}

// Register adds the process log pathway to the default registry.
func Register() {
	pathway.RegisterWithCapabilities(PathwayName, Build, pathway.ProcessLogCapabilities)
}

// Build creates a process log pathway from configuration.
func Build(ctx context.Context, cfg pathway.Config, logger logging.ServiceLogger) (pathway.Pathway, error) {
	return New(WithLevel(cfg.GetProcessLogLevel())), nil
}

// New returns a pathway logging through slog.Default() at Info.
func New(opts ...Option) *ProcessLog {
	p := &ProcessLog{logger: slog.Default(), level: slog.LevelInfo}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *ProcessLog) Name() string { return PathwayName }

// Level returns the level messages are emitted at.
func (p *ProcessLog) Level() slog.Level { return p.level }

// Send logs the compact message JSON as the record message. It succeeds once
// the record is handed to the logger.
func (p *ProcessLog) Send(ctx context.Context, msg *message.Message) (pathway.Result, error) {
	if msg == nil {
		return pathway.Result{}, errspkg.ErrMessageRequired
	}
	body, err := msg.Marshal()
	if err != nil {
		return pathway.Result{}, err
	}
	p.logger.Log(ctx, p.level, string(body))
	return pathway.Result{Status: pathway.StatusSent, Response: true}, nil
}

// Capabilities returns the capabilities of this pathway.
func Capabilities() pathway.Capabilities {
	return pathway.ProcessLogCapabilities
}
