package runtime

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	configpkg "github.com/drblury/mozdef/internal/runtime/config"
	errspkg "github.com/drblury/mozdef/internal/runtime/errors"
	loggingpkg "github.com/drblury/mozdef/internal/runtime/logging"
	"github.com/drblury/mozdef/internal/runtime/message"
	metricspkg "github.com/drblury/mozdef/internal/runtime/metrics"
	"github.com/drblury/mozdef/internal/runtime/validate"
	"github.com/drblury/mozdef/pathway"
	// Register the built-in pathways for NewSenderFromConfig.
	_ "github.com/drblury/mozdef/pathway/pathways"
)

// TracerName names the tracer used for send spans.
const TracerName = "github.com/drblury/mozdef"

// SenderDependencies holds the optional collaborators of a Sender.
// Leave fields nil to use the defaults.
type SenderDependencies struct {
	Validator *validate.Validator // Defaults to validate.New().
	Pathway   pathway.Pathway     // Defaults to DefaultPathway().
	Metrics   *metricspkg.SendMetrics
	Hooks     SendHooks
	Tracer    trace.Tracer // Defaults to the global OpenTelemetry tracer.
}

// Sender is a long-lived Send with a fixed validator and pathway. It records
// metrics, opens a tracing span and runs hooks around every send.
type Sender struct {
	Logger loggingpkg.ServiceLogger

	validator *validate.Validator
	pathway   pathway.Pathway
	metrics   *metricspkg.SendMetrics
	hooks     SendHooks
	tracer    trace.Tracer

	closeOnce sync.Once
	closeErr  error
}

// NewSender constructs a Sender from deps.
func NewSender(log loggingpkg.ServiceLogger, deps SenderDependencies) *Sender {
	s := &Sender{
		Logger:    loggingpkg.OrNop(log),
		validator: deps.Validator,
		pathway:   deps.Pathway,
		metrics:   deps.Metrics,
		hooks:     deps.Hooks,
		tracer:    deps.Tracer,
	}
	if s.validator == nil {
		s.validator = validate.New()
	}
	if s.pathway == nil {
		s.pathway = DefaultPathway()
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(TracerName)
	}
	return s
}

// NewSenderFromConfig builds the configured pathway and returns a Sender
// for it. deps.Pathway, when set, wins over conf.Pathway; an empty
// conf.Pathway means DefaultPathway. Metrics are
// registered with the default Prometheus registerer when conf enables them
// and deps carries none. log is filtered at conf's log level for the sender
// and the pathway it builds.
func NewSenderFromConfig(ctx context.Context, conf *configpkg.Config, log loggingpkg.ServiceLogger, deps SenderDependencies) (*Sender, error) {
	if err := configpkg.ValidateConfig(conf); err != nil {
		return nil, err
	}
	log = loggingpkg.WithLevel(log, conf.GetLogLevel())
	log.Info("Creating sender", loggingpkg.LogFields{
		"pathway": conf.Pathway,
		"config":  conf,
	})

	if deps.Pathway == nil && conf.Pathway != "" {
		p, err := pathway.Build(ctx, conf, log)
		if err != nil {
			return nil, err
		}
		deps.Pathway = p
	}
	if deps.Metrics == nil && conf.GetMetricsEnabled() {
		m := metricspkg.New(nil)
		if err := m.Register(); err != nil {
			return nil, err
		}
		deps.Metrics = m
	}
	return NewSender(log, deps), nil
}

// Pathway returns the pathway messages are sent through.
func (s *Sender) Pathway() pathway.Pathway { return s.pathway }

// Validator returns the validator run before every send.
func (s *Sender) Validator() *validate.Validator { return s.validator }

// Metrics returns the metrics collector, or nil.
func (s *Sender) Metrics() *metricspkg.SendMetrics { return s.metrics }

// Send validates msg and hands it to the pathway, like the package-level
// Send.
func (s *Sender) Send(ctx context.Context, msg *message.Message) (pathway.Result, error) {
	name := s.pathway.Name()
	ctx, span := s.tracer.Start(ctx, "mozdef.Send",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(attribute.String("mozdef.pathway", name)),
	)
	defer span.End()

	sc := SendContext{
		Pathway:   name,
		Context:   ctx,
		StartedAt: time.Now(),
	}
	if msg != nil {
		sc.Summary = msg.Summary()
		sc.Severity = msg.Severity()
		sc.Category = msg.Category()
		span.SetAttributes(
			attribute.String("mozdef.severity", sc.Severity),
			attribute.String("mozdef.category", sc.Category),
		)
	}
	if s.hooks.OnSendStart != nil {
		s.hooks.OnSendStart(sc)
	}

	res, err := Send(ctx, msg, WithValidator(s.validator), WithPathway(s.pathway))
	sc.Duration = time.Since(sc.StartedAt)

	if err != nil {
		kind := errspkg.Kind(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, kind)
		if s.metrics != nil {
			s.metrics.RecordError(name, kind, err, sc.Duration)
		}
		if s.hooks.OnSendError != nil {
			s.hooks.OnSendError(sc, err)
		}
		return res, err
	}

	sc.Status = res.Status
	span.SetAttributes(attribute.String("mozdef.status", string(res.Status)))
	if s.metrics != nil {
		s.metrics.RecordSend(name, string(res.Status), bodySize(msg), sc.Duration)
		if br, ok := s.pathway.(pathway.BufferReporter); ok {
			s.metrics.SetBuffered(name, br.Pending())
		}
	}
	if s.hooks.OnSendDone != nil {
		s.hooks.OnSendDone(sc)
	}
	return res, nil
}

// Close closes the pathway when it holds resources. It runs once; later
// calls return the first result.
func (s *Sender) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		closer, ok := s.pathway.(pathway.Closer)
		if !ok {
			return
		}
		s.Logger.Debug("Closing pathway", loggingpkg.LogFields{"pathway": s.pathway.Name()})
		s.closeErr = closer.Close(ctx)
		if s.metrics != nil {
			if br, ok := s.pathway.(pathway.BufferReporter); ok {
				s.metrics.SetBuffered(s.pathway.Name(), br.Pending())
			}
		}
	})
	return s.closeErr
}

func bodySize(msg *message.Message) int {
	body, err := msg.Marshal()
	if err != nil {
		return 0
	}
	return len(body)
}
