// Package bus implements the in-process change notification mechanism that
// decouples mutation producers from consumers. No payload is carried:
// listeners re-read current state through the repositories.
package bus

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/linkstash/internal/logging"
)

type listener struct {
	id int
	fn func()
}

// Bus fans a change signal out to subscribers in registration order.
type Bus struct {
	log logging.Logger

	mu        sync.Mutex
	nextID    int
	listeners []listener
}

func New(log logging.Logger) *Bus {
	return &Bus{log: log}
}

// Subscribe registers fn and returns a closure that removes it again.
// Unsubscribing twice is harmless.
func (b *Bus) Subscribe(fn func()) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.listeners = append(b.listeners, listener{id: id, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, l := range b.listeners {
			if l.id == id {
				b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
				return
			}
		}
	}
}

// Notify invokes every listener synchronously, in registration order.
// A panicking listener is isolated so the rest still run.
func (b *Bus) Notify() {
	b.mu.Lock()
	snapshot := make([]listener, len(b.listeners))
	copy(snapshot, b.listeners)
	b.mu.Unlock()

	for _, l := range snapshot {
		b.invoke(l.fn)
	}
}

func (b *Bus) invoke(fn func()) {
	defer func() {
		if p := recover(); p != nil {
			b.log.Error(context.Background(), "change listener panicked", "panic", p)
		}
	}()
	fn()
}
