// Package session bridges authentication state to the sync engine. It
// caches the current owner identifier, schedules one reconciliation pass
// shortly after a sign-in, and erases the whole local cache on sign-out so
// the device returns to a clean guest state.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/linkstash/internal/client/bus"
	"github.com/dmitrijs2005/linkstash/internal/common"
	"github.com/dmitrijs2005/linkstash/internal/logging"
)

// SyncRunner runs one reconciliation pass.
type SyncRunner interface {
	Run(ctx context.Context) error
}

// CacheEraser drops every local partition.
type CacheEraser interface {
	EraseAll(ctx context.Context) error
}

// Tracker holds the cached owner identity. It is the single OwnerSource the
// repositories and the engine consult.
type Tracker struct {
	eraser CacheEraser
	bus    *bus.Bus
	log    logging.Logger
	delay  time.Duration

	mu     sync.Mutex
	owner  string
	runner SyncRunner
	timer  *time.Timer
}

func New(eraser CacheEraser, b *bus.Bus, log logging.Logger, delay time.Duration) *Tracker {
	return &Tracker{eraser: eraser, bus: b, log: log, delay: delay}
}

// BindRunner attaches the reconciliation engine. Separate from New because
// the engine itself needs the tracker as its owner source.
func (t *Tracker) BindRunner(r SyncRunner) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.runner = r
}

// Owner returns the cached owner identifier, or "" in guest mode.
func (t *Tracker) Owner() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.owner
}

// SetSession records an authentication state transition. A token refresh
// reporting the same owner is a no-op. Sign-in schedules a single
// reconciliation pass after the settle delay; sign-out (or a direct switch
// to a different owner) erases the local cache first.
func (t *Tracker) SetSession(ctx context.Context, ownerID string) {
	t.mu.Lock()
	prev := t.owner
	t.owner = ownerID
	runner := t.runner
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.mu.Unlock()

	if prev == ownerID {
		return
	}

	if prev != "" {
		if err := t.eraser.EraseAll(ctx); err != nil {
			t.log.Error(ctx, "erasing local cache failed", "error", err)
		}
		t.bus.Notify()
	}

	if ownerID != "" && runner != nil {
		t.scheduleSync(runner)
	}
}

func (t *Tracker) scheduleSync(runner SyncRunner) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timer = time.AfterFunc(t.delay, func() {
		err := runner.Run(context.Background())
		if err != nil && !errors.Is(err, common.ErrNotSignedIn) && !errors.Is(err, common.ErrSyncInProgress) {
			t.log.Warn(context.Background(), "post-sign-in sync failed", "error", err)
		}
	})
}
