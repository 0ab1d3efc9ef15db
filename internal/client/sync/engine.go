// Package sync implements the reconciliation engine: the pull-merge-push
// cycle that brings the local cache and the remote entity sets for one
// owner into agreement.
//
// Per kind, run independently: fetch the full remote set, load the full
// local set (tombstones included), push every entity the remote side has
// never seen, then persist remote ∪ local-only as the new local state.
// Remote copies win outright for identities present on both sides; the
// write-through path and the next pass cover anything newer locally.
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/linkstash/internal/client/bus"
	"github.com/dmitrijs2005/linkstash/internal/client/models"
	"github.com/dmitrijs2005/linkstash/internal/client/repositories/links"
	"github.com/dmitrijs2005/linkstash/internal/client/store"
	"github.com/dmitrijs2005/linkstash/internal/common"
	"github.com/dmitrijs2005/linkstash/internal/logging"
)

// Status is the engine's externally visible phase.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusSyncing Status = "syncing"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// State is the shared sync status: phase, a human-readable message, and the
// time of the last successful run. Observable through the notification bus.
type State struct {
	Status   Status
	Message  string
	LastSync time.Time
}

// OwnerSource reports the currently authenticated owner.
type OwnerSource interface {
	Owner() string
}

// Remote is the slice of the gateway the engine needs.
type Remote interface {
	Upsert(ctx context.Context, kind store.Kind, entity any) error
	QueryAll(ctx context.Context, kind store.Kind) ([]json.RawMessage, error)
}

// Engine reconciles all three partitions against the remote backend.
type Engine struct {
	links      *store.Partition[models.Link]
	categories *store.Partition[models.Category]
	notes      *store.Partition[models.Note]
	remote     Remote
	bus        *bus.Bus
	owner      OwnerSource
	log        logging.Logger

	inFlight atomic.Bool
	mu       sync.Mutex
	state    State
}

func New(s *store.Store, b *bus.Bus, remote Remote, owner OwnerSource, log logging.Logger) *Engine {
	return &Engine{
		links:      links.NewPartition(s),
		categories: store.NewPartition[models.Category](s, store.KindCategories),
		notes:      store.NewPartition[models.Note](s, store.KindNotes),
		remote:     remote,
		bus:        b,
		owner:      owner,
		log:        log,
		state:      State{Status: StatusIdle},
	}
}

// State returns a copy of the current sync status.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) setState(status Status, message string, markSuccess bool) {
	e.mu.Lock()
	e.state.Status = status
	e.state.Message = message
	if markSuccess {
		e.state.LastSync = time.Now().UTC()
	}
	e.mu.Unlock()
	e.bus.Notify()
}

// Run executes one full reconciliation pass. Without a known owner it is a
// recoverable no-op reported as "not signed in". Overlapping invocations
// are rejected with common.ErrSyncInProgress.
func (e *Engine) Run(ctx context.Context) error {
	ownerID := e.owner.Owner()
	if ownerID == "" {
		e.setState(StatusIdle, "not signed in", false)
		return common.ErrNotSignedIn
	}

	if !e.inFlight.CompareAndSwap(false, true) {
		return common.ErrSyncInProgress
	}
	defer e.inFlight.Store(false)

	e.setState(StatusSyncing, "syncing", false)

	var pulled, pushed int
	var firstErr error

	tally := func(p, ps int, err error) {
		pulled += p
		pushed += ps
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	tally(reconcile(ctx, e, e.links, ownerID, (*models.Link).StampOwner))
	tally(reconcile(ctx, e, e.categories, ownerID, (*models.Category).StampOwner))
	tally(reconcile(ctx, e, e.notes, ownerID, (*models.Note).StampOwner))

	if firstErr != nil {
		e.log.Error(ctx, "sync finished with errors", "error", firstErr)
		e.setState(StatusError, firstErr.Error(), false)
		return firstErr
	}

	msg := fmt.Sprintf("pulled %d, pushed %d", pulled, pushed)
	e.log.Info(ctx, "sync finished", "pulled", pulled, "pushed", pushed)
	e.setState(StatusSuccess, msg, true)
	return nil
}

// reconcile runs the merge algorithm for one kind. A fetch or decode
// failure aborts the pass for this kind only and leaves its local state
// untouched. Push failures are logged and retried on the next pass: the
// entity stays in the composed state either way.
func reconcile[T models.Record](ctx context.Context, e *Engine, part *store.Partition[T], ownerID string, stamp func(*T, string)) (int, int, error) {
	kind := part.Kind()

	raw, err := e.remote.QueryAll(ctx, kind)
	if err != nil {
		return 0, 0, fmt.Errorf("fetch %s: %w", kind, err)
	}

	remote := make([]T, 0, len(raw))
	remoteIDs := make(map[string]struct{}, len(raw))
	for _, data := range raw {
		var item T
		if err := json.Unmarshal(data, &item); err != nil {
			return 0, 0, fmt.Errorf("decode %s: %w", kind, err)
		}
		remote = append(remote, item)
		remoteIDs[item.RecordID()] = struct{}{}
	}

	local := part.Load(ctx)
	var localOnly []T
	for i := range local {
		switch local[i].RecordOwner() {
		case "":
			// Guest-mode entities are adopted by the signing-in owner.
			stamp(&local[i], ownerID)
		case ownerID:
		default:
			// Leftovers from another owner never survive a merge.
			continue
		}
		if _, ok := remoteIDs[local[i].RecordID()]; !ok {
			localOnly = append(localOnly, local[i])
		}
	}

	pushed := 0
	for _, item := range localOnly {
		if err := e.remote.Upsert(ctx, kind, part.Sanitize(item)); err != nil {
			e.log.Warn(ctx, "push failed, entity stays local-only", "kind", kind, "id", item.RecordID(), "error", err)
			continue
		}
		pushed++
	}

	part.Save(ctx, append(remote, localOnly...))
	return len(remote), pushed, nil
}
