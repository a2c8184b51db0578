package console

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errspkg "github.com/drblury/mozdef/internal/runtime/errors"
	"github.com/drblury/mozdef/internal/runtime/message"
	"github.com/drblury/mozdef/pathway"
)

func testMessage() *message.Message {
	msg := &message.Message{}
	msg.SetSummary("user login")
	msg.SetSeverity("INFO")
	msg.SetDetails(message.Details{"user": "alice"})
	return msg
}

func TestRegister(t *testing.T) {
	original := pathway.DefaultRegistry
	defer func() { pathway.DefaultRegistry = original }()
	pathway.DefaultRegistry = pathway.NewRegistry()
	Register()

	assert.True(t, pathway.DefaultRegistry.Has(PathwayName))
	caps := pathway.GetCapabilities(PathwayName)
	assert.Equal(t, "console", caps.Name)
	assert.False(t, caps.Remote)
}

func TestCapabilities(t *testing.T) {
	assert.Equal(t, pathway.ConsoleCapabilities, Capabilities())
}

func TestSend(t *testing.T) {
	t.Run("writes indented JSON", func(t *testing.T) {
		var buf bytes.Buffer
		c := New(WithWriter(&buf))

		res, err := c.Send(context.Background(), testMessage())
		require.NoError(t, err)
		assert.Equal(t, pathway.StatusSent, res.Status)
		assert.Equal(t, true, res.Response)

		out := buf.String()
		assert.Contains(t, out, "\n    \"summary\": \"user login\"")
		assert.Contains(t, out, "\n        \"user\": \"alice\"")
		assert.True(t, strings.HasPrefix(out, "{"))
		assert.True(t, strings.HasSuffix(out, "}\n"))
	})

	t.Run("prefix precedes message", func(t *testing.T) {
		var buf bytes.Buffer
		c := New(WithWriter(&buf), WithPrefix("MOZDEF EVENT"))

		_, err := c.Send(context.Background(), testMessage())
		require.NoError(t, err)

		out := buf.String()
		require.True(t, strings.HasPrefix(out, "MOZDEF EVENT\n{"), out)
		assert.Less(t, strings.Index(out, "MOZDEF EVENT"), strings.Index(out, "user login"))
	})

	t.Run("nil message", func(t *testing.T) {
		_, err := New(WithWriter(&bytes.Buffer{})).Send(context.Background(), nil)
		assert.ErrorIs(t, err, errspkg.ErrMessageRequired)
	})

	t.Run("writer failure is returned", func(t *testing.T) {
		_, err := New(WithWriter(failingWriter{})).Send(context.Background(), testMessage())
		assert.EqualError(t, err, "disk full")
	})
}

func TestBuild(t *testing.T) {
	p, err := Build(context.Background(), &mockConfig{prefix: "P"}, nil)
	require.NoError(t, err)
	require.IsType(t, &Console{}, p)
	assert.Equal(t, "P", p.(*Console).prefix)
	assert.Equal(t, PathwayName, p.Name())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

type mockConfig struct {
	prefix string
}

func (m *mockConfig) GetPathway() string                { return PathwayName }
func (m *mockConfig) GetConsolePrefix() string          { return m.prefix }
func (m *mockConfig) GetProcessLogLevel() slog.Level    { return slog.LevelInfo }
func (m *mockConfig) GetAWSRegion() string              { return "" }
func (m *mockConfig) GetAWSAccountID() string           { return "" }
func (m *mockConfig) GetAWSAccessKeyID() string         { return "" }
func (m *mockConfig) GetAWSSecretAccessKey() string     { return "" }
func (m *mockConfig) GetAWSEndpoint() string            { return "" }
func (m *mockConfig) GetSQSQueueName() string           { return "" }
func (m *mockConfig) GetSNSTopic() string               { return "" }
func (m *mockConfig) GetHTTPURL() string                { return "" }
func (m *mockConfig) GetHTTPVerifyCert() bool           { return true }
func (m *mockConfig) GetHTTPBlocking() bool             { return false }
func (m *mockConfig) GetHTTPBufferSize() int            { return 1 }
func (m *mockConfig) GetHTTPHeaders() map[string]string { return nil }
func (m *mockConfig) GetBrokerTopic() string            { return "" }
func (m *mockConfig) GetKafkaBrokers() []string         { return nil }
func (m *mockConfig) GetRabbitMQURL() string            { return "" }
func (m *mockConfig) GetNATSURL() string                { return "" }
