// Package console provides a pathway that pretty-prints messages to stdout.
package console

import (
	"context"
	"fmt"
	"io"
	"os"

	errspkg "github.com/drblury/mozdef/internal/runtime/errors"
	"github.com/drblury/mozdef/internal/runtime/logging"
	"github.com/drblury/mozdef/internal/runtime/message"
	"github.com/drblury/mozdef/pathway"
)

// PathwayName is the name used to register this pathway.
const PathwayName = "console"

// Indent is the indentation used for each nesting level.
const Indent = "    "

// Option customises a Console.
type Option func(*Console)

// WithPrefix prints prefix on its own line before every message.
func WithPrefix(prefix string) Option {
	return func(c *Console) { c.prefix = prefix }
}

// WithWriter replaces os.Stdout.
func WithWriter(w io.Writer) Option {
	return func(c *Console) { c.out = w }
}

// Console writes indented JSON to a writer.
type Console struct {
	out    io.Writer
	prefix string
}

func init() {
	Register()
}

// Register adds the console pathway to the default registry.
func Register() {
	pathway.RegisterWithCapabilities(PathwayName, Build, pathway.ConsoleCapabilities)
}

// Build creates a console pathway from configuration.
func Build(ctx context.Context, cfg pathway.Config, logger logging.ServiceLogger) (pathway.Pathway, error) {
	return New(WithPrefix(cfg.GetConsolePrefix())), nil
}

// New returns a console pathway writing to os.Stdout.
func New(opts ...Option) *Console {
	c := &Console{out: os.Stdout}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Console) Name() string { return PathwayName }

// Send writes the optional prefix line followed by the indented message.
func (c *Console) Send(ctx context.Context, msg *message.Message) (pathway.Result, error) {
	if msg == nil {
		return pathway.Result{}, errspkg.ErrMessageRequired
	}
	body, err := msg.MarshalIndent("", Indent)
	if err != nil {
		return pathway.Result{}, err
	}
	if c.prefix != "" {
		if _, err := fmt.Fprintln(c.out, c.prefix); err != nil {
			return pathway.Result{}, err
		}
	}
	if _, err := fmt.Fprintln(c.out, string(body)); err != nil {
		return pathway.Result{}, err
	}
	return pathway.Result{Status: pathway.StatusSent, Response: true}, nil
}

// Capabilities returns the capabilities of this pathway.
func Capabilities() pathway.Capabilities {
	return pathway.ConsoleCapabilities
}
