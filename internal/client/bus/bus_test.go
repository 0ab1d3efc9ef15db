package bus

import (
	"io"
	"log/slog"
	"testing"

	"github.com/dmitrijs2005/linkstash/internal/logging"
	"github.com/stretchr/testify/assert"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestNotify_RegistrationOrder(t *testing.T) {
	t.Parallel()

	b := New(testLogger())
	var order []int
	b.Subscribe(func() { order = append(order, 1) })
	b.Subscribe(func() { order = append(order, 2) })
	b.Subscribe(func() { order = append(order, 3) })

	b.Notify()

	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestNotify_PanickingListenerIsIsolated(t *testing.T) {
	t.Parallel()

	b := New(testLogger())
	var after bool
	b.Subscribe(func() { panic("boom") })
	b.Subscribe(func() { after = true })

	assert.NotPanics(t, func() { b.Notify() })
	assert.True(t, after, "listener after the panicking one must still run")
}

func TestUnsubscribe(t *testing.T) {
	t.Parallel()

	b := New(testLogger())
	var calls int
	unsub := b.Subscribe(func() { calls++ })
	b.Subscribe(func() {})

	b.Notify()
	unsub()
	b.Notify()

	assert.Equal(t, 1, calls)

	// Second unsubscribe is harmless.
	assert.NotPanics(t, unsub)
}

func TestNotify_NoListeners(t *testing.T) {
	t.Parallel()

	b := New(testLogger())
	assert.NotPanics(t, b.Notify)
}
