// Package notes implements the typed repository for free-form notes.
// Notes carry no manual ordering, so there is no reorder operation.
package notes

import (
	"context"
	"sort"
	"time"

	"github.com/dmitrijs2005/linkstash/internal/client/bus"
	"github.com/dmitrijs2005/linkstash/internal/client/models"
	"github.com/dmitrijs2005/linkstash/internal/client/store"
	"github.com/dmitrijs2005/linkstash/internal/logging"
	"github.com/google/uuid"
)

type Syncer interface {
	Upsert(ctx context.Context, kind store.Kind, entity any) error
}

type OwnerSource interface {
	Owner() string
}

type Repository struct {
	part   *store.Partition[models.Note]
	bus    *bus.Bus
	remote Syncer
	owner  OwnerSource
	log    logging.Logger
	now    func() time.Time
}

func New(s *store.Store, b *bus.Bus, remote Syncer, owner OwnerSource, log logging.Logger) *Repository {
	part := store.NewPartition[models.Note](s, store.KindNotes)
	return &Repository{part: part, bus: b, remote: remote, owner: owner, log: log, now: time.Now}
}

// Get returns non-deleted notes, most recently updated first.
func (r *Repository) Get(ctx context.Context) []models.Note {
	all := r.part.Load(ctx)
	visible := make([]models.Note, 0, len(all))
	for _, n := range all {
		if !n.IsDeleted {
			visible = append(visible, n)
		}
	}
	sort.SliceStable(visible, func(i, j int) bool {
		return visible[i].UpdatedAt.After(visible[j].UpdatedAt)
	})
	return visible
}

func (r *Repository) GetAll(ctx context.Context) []models.Note {
	return r.part.Load(ctx)
}

func (r *Repository) Add(ctx context.Context, title, body string) models.Note {
	all := r.part.Load(ctx)
	now := r.now().UTC()

	note := models.Note{
		Meta: models.Meta{
			ID:        uuid.NewString(),
			CreatedAt: now,
			UpdatedAt: now,
			UserID:    r.owner.Owner(),
		},
		Title: title,
		Body:  body,
	}

	r.part.Save(ctx, append(all, note))
	r.bus.Notify()
	r.writeThrough(note)
	return note
}

func (r *Repository) Update(ctx context.Context, id string, patch models.NotePatch) {
	all := r.part.Load(ctx)
	for i := range all {
		if all[i].ID != id {
			continue
		}
		patch.Apply(&all[i])
		all[i].Touch(r.now().UTC())
		r.part.Save(ctx, all)
		r.bus.Notify()
		r.writeThrough(all[i])
		return
	}
}

func (r *Repository) Delete(ctx context.Context, id string) {
	all := r.part.Load(ctx)
	for i := range all {
		if all[i].ID != id || all[i].IsDeleted {
			continue
		}
		all[i].IsDeleted = true
		all[i].Touch(r.now().UTC())
		r.part.Save(ctx, all)
		r.bus.Notify()
		r.writeThrough(all[i])
		return
	}
}

func (r *Repository) writeThrough(n models.Note) {
	if r.owner.Owner() == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := r.remote.Upsert(ctx, store.KindNotes, n); err != nil {
			r.log.Warn(ctx, "note upsert not mirrored, will retry on next sync", "id", n.ID, "error", err)
		}
	}()
}
