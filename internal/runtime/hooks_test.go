package runtime

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/drblury/mozdef/internal/runtime/logging"
)

func TestSendHooks_Merge(t *testing.T) {
	var calls []string
	first := SendHooks{
		OnSendStart: func(SendContext) { calls = append(calls, "first.start") },
		OnSendError: func(SendContext, error) { calls = append(calls, "first.error") },
	}
	second := SendHooks{
		OnSendStart: func(SendContext) { calls = append(calls, "second.start") },
		OnSendDone:  func(SendContext) { calls = append(calls, "second.done") },
	}

	merged := first.Merge(second)
	merged.OnSendStart(SendContext{})
	merged.OnSendDone(SendContext{})
	merged.OnSendError(SendContext{}, errors.New("boom"))

	assert.Equal(t, []string{"first.start", "second.start", "second.done", "first.error"}, calls)
}

func TestSendHooks_MergeEmpty(t *testing.T) {
	merged := SendHooks{}.Merge(SendHooks{})
	assert.Nil(t, merged.OnSendStart)
	assert.Nil(t, merged.OnSendDone)
	assert.Nil(t, merged.OnSendError)
}

func TestLoggingHooks(t *testing.T) {
	hooks := LoggingHooks(nil)
	assert.Nil(t, hooks.OnSendStart)
	assert.NotPanics(t, func() {
		hooks.OnSendDone(SendContext{Pathway: "console"})
		hooks.OnSendError(SendContext{Pathway: "console"}, errors.New("boom"))
	})

	hooks = LoggingHooks(logging.Nop())
	assert.NotNil(t, hooks.OnSendDone)
}

func TestAlertingHooks(t *testing.T) {
	var alerted error
	hooks := AlertingHooks(func(ctx SendContext, err error) { alerted = err })
	assert.Nil(t, hooks.OnSendDone)

	boom := errors.New("boom")
	hooks.OnSendError(SendContext{}, boom)
	assert.Equal(t, boom, alerted)
}
