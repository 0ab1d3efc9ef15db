package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/linkstash/internal/client/bus"
	"github.com/dmitrijs2005/linkstash/internal/client/models"
	"github.com/dmitrijs2005/linkstash/internal/client/store"
	"github.com/dmitrijs2005/linkstash/internal/common"
	"github.com/dmitrijs2005/linkstash/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

// fakeGateway is an in-memory remote shared between engines, so two-device
// scenarios can run against the same backend state.
type fakeGateway struct {
	mu       sync.Mutex
	data     map[store.Kind]map[string]json.RawMessage
	failKind map[store.Kind]error
	failPush map[string]error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		data:     make(map[store.Kind]map[string]json.RawMessage),
		failKind: make(map[store.Kind]error),
		failPush: make(map[string]error),
	}
}

func (g *fakeGateway) Upsert(ctx context.Context, kind store.Kind, entity any) error {
	data, err := json.Marshal(entity)
	if err != nil {
		return err
	}
	var probe struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failPush[probe.ID]; err != nil {
		return err
	}
	if g.data[kind] == nil {
		g.data[kind] = make(map[string]json.RawMessage)
	}
	g.data[kind][probe.ID] = data
	return nil
}

func (g *fakeGateway) QueryAll(ctx context.Context, kind store.Kind) ([]json.RawMessage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failKind[kind]; err != nil {
		return nil, err
	}
	rows := make([]json.RawMessage, 0, len(g.data[kind]))
	for _, data := range g.data[kind] {
		rows = append(rows, data)
	}
	return rows, nil
}

func (g *fakeGateway) put(t *testing.T, kind store.Kind, entity any) {
	t.Helper()
	require.NoError(t, g.Upsert(context.Background(), kind, entity))
}

type fakeOwner struct{ id string }

func (f *fakeOwner) Owner() string { return f.id }

type fixture struct {
	engine *Engine
	store  *store.Store
	links  *store.Partition[models.Link]
	notes  *store.Partition[models.Note]
	owner  *fakeOwner
}

func newFixture(t *testing.T, name string, gw *fakeGateway, ownerID string) *fixture {
	t.Helper()
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	s, err := store.Open(context.Background(), "file:"+t.Name()+name+"?mode=memory&cache=shared", log)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	owner := &fakeOwner{id: ownerID}
	e := New(s, bus.New(log), gw, owner, log)
	return &fixture{
		engine: e,
		store:  s,
		links:  store.NewPartition[models.Link](s, store.KindLinks),
		notes:  store.NewPartition[models.Note](s, store.KindNotes),
		owner:  owner,
	}
}

func link(id, owner, name string, updated time.Time) models.Link {
	return models.Link{
		Meta: models.Meta{ID: id, UserID: owner, CreatedAt: updated, UpdatedAt: updated},
		URL:  "https://" + id + ".example",
		Name: name,
		Type: models.LinkTypeWeb,
	}
}

func TestRun_NotSignedIn(t *testing.T) {
	f := newFixture(t, "a", newFakeGateway(), "")

	err := f.engine.Run(context.Background())

	assert.ErrorIs(t, err, common.ErrNotSignedIn)
	state := f.engine.State()
	assert.Equal(t, StatusIdle, state.Status)
	assert.Equal(t, "not signed in", state.Message)
}

func TestRun_RemoteCopyWinsForSharedIdentity(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	gw := newFakeGateway()
	f := newFixture(t, "a", gw, "u1")

	gw.put(t, store.KindLinks, link("l1", "u1", "remote", now))
	f.links.Save(ctx, []models.Link{link("l1", "u1", "local-and-newer", now.Add(time.Hour))})

	require.NoError(t, f.engine.Run(ctx))

	got := f.links.Load(ctx)
	require.Len(t, got, 1)
	assert.Equal(t, "remote", got[0].Name, "remote wins outright during reconciliation")
}

func TestRun_LocalOnlyEntitiesArePushedAndKept(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	gw := newFakeGateway()
	f := newFixture(t, "a", gw, "u1")

	gw.put(t, store.KindLinks, link("remote-1", "u1", "remote", now))
	f.links.Save(ctx, []models.Link{link("local-1", "u1", "mine", now)})

	require.NoError(t, f.engine.Run(ctx))

	got := f.links.Load(ctx)
	assert.Len(t, got, 2)

	gw.mu.Lock()
	_, pushed := gw.data[store.KindLinks]["local-1"]
	gw.mu.Unlock()
	assert.True(t, pushed)

	state := f.engine.State()
	assert.Equal(t, StatusSuccess, state.Status)
	assert.Equal(t, "pulled 1, pushed 1", state.Message)
	assert.False(t, state.LastSync.IsZero())
}

func TestRun_GuestEntitiesAreAdopted(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	gw := newFakeGateway()
	f := newFixture(t, "a", gw, "u1")

	f.links.Save(ctx, []models.Link{link("guest-1", "", "made offline", now)})

	require.NoError(t, f.engine.Run(ctx))

	got := f.links.Load(ctx)
	require.Len(t, got, 1)
	assert.Equal(t, "u1", got[0].UserID)

	gw.mu.Lock()
	data := gw.data[store.KindLinks]["guest-1"]
	gw.mu.Unlock()
	var pushed models.Link
	require.NoError(t, json.Unmarshal(data, &pushed))
	assert.Equal(t, "u1", pushed.UserID)
}

func TestRun_ForeignOwnerEntitiesDropped(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	gw := newFakeGateway()
	f := newFixture(t, "a", gw, "u1")

	f.links.Save(ctx, []models.Link{
		link("mine", "u1", "keep", now),
		link("theirs", "u2", "drop", now),
	})

	require.NoError(t, f.engine.Run(ctx))

	got := f.links.Load(ctx)
	require.Len(t, got, 1)
	assert.Equal(t, "mine", got[0].ID)

	gw.mu.Lock()
	_, leaked := gw.data[store.KindLinks]["theirs"]
	gw.mu.Unlock()
	assert.False(t, leaked, "foreign entities must never be pushed")
}

func TestRun_RemoteTombstonePropagates(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	gw := newFakeGateway()
	f := newFixture(t, "a", gw, "u1")

	dead := link("l1", "u1", "deleted elsewhere", now.Add(time.Minute))
	dead.IsDeleted = true
	gw.put(t, store.KindLinks, dead)
	f.links.Save(ctx, []models.Link{link("l1", "u1", "still live here", now)})

	require.NoError(t, f.engine.Run(ctx))

	got := f.links.Load(ctx)
	require.Len(t, got, 1)
	assert.True(t, got[0].IsDeleted)
}

func TestRun_FetchFailureLeavesKindUntouched(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	gw := newFakeGateway()
	f := newFixture(t, "a", gw, "u1")

	gw.failKind[store.KindLinks] = fmt.Errorf("backend down")
	f.links.Save(ctx, []models.Link{link("l1", "u1", "local", now)})
	f.notes.Save(ctx, []models.Note{{Meta: models.Meta{ID: "n1", UserID: "u1", UpdatedAt: now}, Title: "note"}})

	err := f.engine.Run(ctx)
	require.Error(t, err)

	// Failed kind: untouched. Healthy kind: still reconciled and pushed.
	assert.Len(t, f.links.Load(ctx), 1)
	gw.mu.Lock()
	_, notePushed := gw.data[store.KindNotes]["n1"]
	gw.mu.Unlock()
	assert.True(t, notePushed)

	state := f.engine.State()
	assert.Equal(t, StatusError, state.Status)
	assert.Contains(t, state.Message, "fetch links")
	assert.True(t, state.LastSync.IsZero())
}

func TestRun_PushFailureKeepsEntityLocally(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	gw := newFakeGateway()
	f := newFixture(t, "a", gw, "u1")

	gw.failPush["l1"] = errors.New("rejected")
	f.links.Save(ctx, []models.Link{link("l1", "u1", "local", now)})

	require.NoError(t, f.engine.Run(ctx), "push failures are not fatal")

	assert.Len(t, f.links.Load(ctx), 1)
	assert.Equal(t, "pulled 0, pushed 0", f.engine.State().Message)
}

func TestRun_OverlappingRunsRejected(t *testing.T) {
	f := newFixture(t, "a", newFakeGateway(), "u1")

	f.engine.inFlight.Store(true)
	err := f.engine.Run(context.Background())
	assert.ErrorIs(t, err, common.ErrSyncInProgress)
}

func TestRun_TwoDevicesConverge(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	gw := newFakeGateway()

	deviceA := newFixture(t, "a", gw, "u1")
	deviceB := newFixture(t, "b", gw, "u1")

	deviceA.links.Save(ctx, []models.Link{link("from-a", "u1", "a", now)})
	deviceB.links.Save(ctx, []models.Link{link("from-b", "u1", "b", now)})

	require.NoError(t, deviceA.engine.Run(ctx))
	require.NoError(t, deviceB.engine.Run(ctx))
	require.NoError(t, deviceA.engine.Run(ctx))

	idsOf := func(items []models.Link) map[string]bool {
		ids := make(map[string]bool, len(items))
		for _, l := range items {
			ids[l.ID] = true
		}
		return ids
	}

	a := idsOf(deviceA.links.Load(ctx))
	b := idsOf(deviceB.links.Load(ctx))
	assert.Equal(t, a, b)
	assert.True(t, a["from-a"] && a["from-b"])
}
