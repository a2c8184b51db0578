package runtime

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	configpkg "github.com/drblury/mozdef/internal/runtime/config"
	errspkg "github.com/drblury/mozdef/internal/runtime/errors"
	loggingpkg "github.com/drblury/mozdef/internal/runtime/logging"
	metricspkg "github.com/drblury/mozdef/internal/runtime/metrics"
	"github.com/drblury/mozdef/internal/runtime/validate"
	"github.com/drblury/mozdef/pathway"
	"github.com/drblury/mozdef/pathway/console"
)

func newTestMetrics(t *testing.T) (*metricspkg.SendMetrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metricspkg.New(reg)
	require.NoError(t, m.Register())
	return m, reg
}

func TestNewSender_Defaults(t *testing.T) {
	s := NewSender(nil, SenderDependencies{})
	assert.Equal(t, "log", s.Pathway().Name())
	assert.Equal(t, validate.New().Len(), s.Validator().Len())
	assert.Nil(t, s.Metrics())
	assert.NotNil(t, s.Logger)
}

func TestSender_RecordsMetricsPerOutcome(t *testing.T) {
	m, reg := newTestMetrics(t)
	p := newRecordingPathway()
	s := NewSender(nil, SenderDependencies{Pathway: p, Metrics: m})
	ctx := context.Background()

	_, err := s.Send(ctx, validMessage())
	require.NoError(t, err)
	_, err = s.Send(ctx, validMessage())
	require.NoError(t, err)

	invalid := validMessage()
	invalid.SetSeverity("LOUD")
	_, err = s.Send(ctx, invalid)
	require.Error(t, err)

	pm := m.GetPathwayMetrics("mock")
	require.NotNil(t, pm)
	assert.Equal(t, uint64(2), pm.Sent)
	assert.Equal(t, uint64(1), pm.Failed)
	assert.Contains(t, pm.LastError, "severity LOUD is not allowed")
	assert.Positive(t, pm.BytesSent)

	count, err := testutil.GatherAndCount(reg, "mozdef_pathway_sends_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one series for sent and one for failed")

	count, err = testutil.GatherAndCount(reg, "mozdef_pathway_errors_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSender_BufferedGauge(t *testing.T) {
	m, reg := newTestMetrics(t)
	p := newRecordingPathway()
	p.result = pathway.Result{Status: pathway.StatusBuffered}
	p.pending = 3
	s := NewSender(nil, SenderDependencies{Pathway: p, Metrics: m})

	res, err := s.Send(context.Background(), validMessage())
	require.NoError(t, err)
	assert.True(t, res.Buffered())
	assert.Equal(t, uint64(1), m.GetPathwayMetrics("mock").Buffered)

	count, err := testutil.GatherAndCount(reg, "mozdef_pathway_buffered_messages")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSender_Hooks(t *testing.T) {
	var events []string
	var doneCtx SendContext
	var failure error
	hooks := SendHooks{
		OnSendStart: func(ctx SendContext) { events = append(events, "start:"+ctx.Summary) },
		OnSendDone: func(ctx SendContext) {
			events = append(events, "done")
			doneCtx = ctx
		},
		OnSendError: func(ctx SendContext, err error) {
			events = append(events, "error")
			failure = err
		},
	}

	p := newRecordingPathway()
	s := NewSender(nil, SenderDependencies{Pathway: p, Hooks: hooks, Tracer: noop.NewTracerProvider().Tracer("test")})

	_, err := s.Send(context.Background(), validMessage())
	require.NoError(t, err)
	assert.Equal(t, "mock", doneCtx.Pathway)
	assert.Equal(t, pathway.StatusSent, doneCtx.Status)
	assert.Equal(t, "WARNING", doneCtx.Severity)
	assert.Equal(t, "authentication", doneCtx.Category)
	assert.False(t, doneCtx.StartedAt.IsZero())
	assert.NotNil(t, doneCtx.Context)

	boom := errors.New("boom")
	p.err = boom
	_, err = s.Send(context.Background(), validMessage())
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, failure, boom)

	assert.Equal(t, []string{
		"start:failed login for root", "done",
		"start:failed login for root", "error",
	}, events)
}

func TestSender_ValidationFailureSkipsPathway(t *testing.T) {
	var failure error
	p := newRecordingPathway()
	s := NewSender(nil, SenderDependencies{
		Pathway:   p,
		Validator: validate.New(validate.RequireTag("sshd")),
		Hooks:     SendHooks{OnSendError: func(_ SendContext, err error) { failure = err }},
	})

	_, err := s.Send(context.Background(), validMessage())
	assert.True(t, errspkg.IsValidation(err))
	assert.Equal(t, err, failure)
	assert.Empty(t, p.sent)
}

func TestSender_CloseOnce(t *testing.T) {
	p := newRecordingPathway()
	s := NewSender(nil, SenderDependencies{Pathway: p})

	require.NoError(t, s.Close(context.Background()))
	require.NoError(t, s.Close(context.Background()))
	assert.Equal(t, 1, p.closed)

	plain := NewSender(nil, SenderDependencies{Pathway: console.New()})
	assert.NoError(t, plain.Close(context.Background()))
}

func TestNewSenderFromConfig(t *testing.T) {
	ctx := context.Background()

	t.Run("builds the configured pathway", func(t *testing.T) {
		var buf bytes.Buffer
		conf := &configpkg.Config{Pathway: "console", ConsolePrefix: "mozdef:"}
		s, err := NewSenderFromConfig(ctx, conf, nil, SenderDependencies{})
		require.NoError(t, err)
		assert.Equal(t, "console", s.Pathway().Name())

		s = NewSender(nil, SenderDependencies{Pathway: console.New(console.WithWriter(&buf), console.WithPrefix("mozdef:"))})
		_, err = s.Send(ctx, validMessage())
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("mozdef:\n{")))
	})

	t.Run("empty pathway uses the default", func(t *testing.T) {
		s, err := NewSenderFromConfig(ctx, &configpkg.Config{}, nil, SenderDependencies{})
		require.NoError(t, err)
		assert.Equal(t, "log", s.Pathway().Name())
	})

	t.Run("explicit pathway wins", func(t *testing.T) {
		p := newRecordingPathway()
		s, err := NewSenderFromConfig(ctx, &configpkg.Config{Pathway: "console"}, nil, SenderDependencies{Pathway: p})
		require.NoError(t, err)
		assert.Same(t, p, s.Pathway())
	})

	t.Run("unknown pathway", func(t *testing.T) {
		_, err := NewSenderFromConfig(ctx, &configpkg.Config{Pathway: "carrier-pigeon"}, nil, SenderDependencies{})
		assert.ErrorIs(t, err, errspkg.ErrUnknownPathway)
	})

	t.Run("invalid config", func(t *testing.T) {
		_, err := NewSenderFromConfig(ctx, &configpkg.Config{Pathway: "sqs"}, nil, SenderDependencies{})
		assert.ErrorContains(t, err, "sqs: queue name is required")

		_, err = NewSenderFromConfig(ctx, nil, nil, SenderDependencies{})
		assert.Error(t, err)
	})

	t.Run("log level filters library diagnostics", func(t *testing.T) {
		var buf bytes.Buffer
		sink := loggingpkg.NewSlogServiceLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

		s, err := NewSenderFromConfig(ctx, &configpkg.Config{Pathway: "console", LogLevel: "info"}, sink, SenderDependencies{})
		require.NoError(t, err)
		s.Logger.Debug("buffer state", nil)
		assert.Contains(t, buf.String(), "Creating sender")
		assert.NotContains(t, buf.String(), "buffer state")

		buf.Reset()
		s, err = NewSenderFromConfig(ctx, &configpkg.Config{Pathway: "console", LogLevel: "debug"}, sink, SenderDependencies{})
		require.NoError(t, err)
		s.Logger.Debug("buffer state", nil)
		assert.Contains(t, buf.String(), "buffer state")

		buf.Reset()
		_, err = NewSenderFromConfig(ctx, &configpkg.Config{Pathway: "console", LogLevel: "error"}, sink, SenderDependencies{})
		require.NoError(t, err)
		assert.Empty(t, buf.String())
	})

	t.Run("metrics from config", func(t *testing.T) {
		m, _ := newTestMetrics(t)
		s, err := NewSenderFromConfig(ctx, &configpkg.Config{Pathway: "log", MetricsEnabled: true}, nil, SenderDependencies{Metrics: m})
		require.NoError(t, err)
		assert.Same(t, m, s.Metrics())
	})
}
