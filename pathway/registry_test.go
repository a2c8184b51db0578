package pathway

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errspkg "github.com/drblury/mozdef/internal/runtime/errors"
	"github.com/drblury/mozdef/internal/runtime/logging"
)

func mockBuilder(name string) Builder {
	return func(ctx context.Context, cfg Config, logger logging.ServiceLogger) (Pathway, error) {
		return &mockPathway{name: name}, nil
	}
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()
	assert.NotNil(t, reg)
	assert.NotNil(t, reg.builders)
	assert.NotNil(t, reg.capabilities)
	assert.Empty(t, reg.Names())
}

func TestRegistry_Register(t *testing.T) {
	reg := NewRegistry()
	reg.Register("test-pathway", mockBuilder("test-pathway"))

	assert.True(t, reg.Has("test-pathway"))
	assert.Contains(t, reg.Names(), "test-pathway")
}

func TestRegistry_RegisterWithCapabilities(t *testing.T) {
	reg := NewRegistry()
	caps := Capabilities{Name: "test-pathway", MaxMessageSize: 10, Remote: true}
	reg.RegisterWithCapabilities("test-pathway", mockBuilder("test-pathway"), caps)

	assert.True(t, reg.Has("test-pathway"))
	retrieved := reg.GetCapabilities("test-pathway")
	assert.Equal(t, caps, retrieved)
}

func TestRegistry_GetCapabilities_Unknown(t *testing.T) {
	reg := NewRegistry()
	caps := reg.GetCapabilities("unknown")
	assert.Equal(t, "unknown", caps.Name)
	assert.False(t, caps.HasSizeLimit())
}

func TestRegistry_Build(t *testing.T) {
	reg := NewRegistry()
	reg.Register("b", mockBuilder("b"))
	reg.Register("a", mockBuilder("a"))

	t.Run("builds by name", func(t *testing.T) {
		p, err := reg.Build(context.Background(), &mockConfig{pathway: "a"}, nil)
		require.NoError(t, err)
		assert.Equal(t, "a", p.Name())
	})

	t.Run("unknown pathway", func(t *testing.T) {
		_, err := reg.Build(context.Background(), &mockConfig{pathway: "missing"}, logging.Nop())
		require.Error(t, err)
		assert.True(t, errors.Is(err, errspkg.ErrUnknownPathway))
		assert.Contains(t, err.Error(), `"missing"`)
		assert.Contains(t, err.Error(), "[a b]")
	})

	t.Run("nil config", func(t *testing.T) {
		_, err := reg.Build(context.Background(), nil, nil)
		assert.ErrorIs(t, err, errspkg.ErrConfigRequired)
	})

	t.Run("builder error is returned", func(t *testing.T) {
		reg.Register("broken", func(ctx context.Context, cfg Config, logger logging.ServiceLogger) (Pathway, error) {
			return nil, errors.New("builder failed")
		})
		_, err := reg.Build(context.Background(), &mockConfig{pathway: "broken"}, nil)
		assert.EqualError(t, err, "builder failed")
	})
}

func TestDefaultRegistryHelpers(t *testing.T) {
	original := DefaultRegistry
	defer func() { DefaultRegistry = original }()
	DefaultRegistry = NewRegistry()

	RegisterWithCapabilities("x", mockBuilder("x"), Capabilities{Name: "x", Remote: true})
	Register("y", mockBuilder("y"))

	assert.True(t, GetCapabilities("x").Remote)
	assert.Equal(t, []string{"x", "y"}, DefaultRegistry.Names())

	p, err := Build(context.Background(), &mockConfig{pathway: "y"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "y", p.Name())
}
