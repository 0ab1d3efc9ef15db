// Package categories implements the typed repository for link categories.
package categories

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

// LinkDetacher nulls the weak category reference on links. Implemented by
// the links repository; deleting a category must not cascade.
type LinkDetacher interface {
	DetachCategory(ctx context.Context, categoryID string)
}

type Repository struct {
	part   *store.Partition[models.Category]
	bus    *bus.Bus
	remote Syncer
	owner  OwnerSource
	links  LinkDetacher
	log    logging.Logger
	now    func() time.Time
}

type AddParams struct {
	Name    string
	Type    models.LinkType
	Subtype models.LinkSubtype
	Color   string
}

func New(s *store.Store, b *bus.Bus, remote Syncer, owner OwnerSource, links LinkDetacher, log logging.Logger) *Repository {
	part := store.NewPartition[models.Category](s, store.KindCategories)
	return &Repository{part: part, bus: b, remote: remote, owner: owner, links: links, log: log, now: time.Now}
}

// Get returns non-deleted categories, pinned first, then by position.
func (r *Repository) Get(ctx context.Context) []models.Category {
	all := r.part.Load(ctx)
	visible := make([]models.Category, 0, len(all))
	for _, c := range all {
		if c.IsDeleted {
			continue
		}
		if c.Subtype == "" {
			c.Subtype = models.SubtypeNone
		}
		visible = append(visible, c)
	}
	sort.SliceStable(visible, func(i, j int) bool {
		if visible[i].IsPinned != visible[j].IsPinned {
			return visible[i].IsPinned
		}
		return visible[i].Position < visible[j].Position
	})
	return visible
}

func (r *Repository) GetAll(ctx context.Context) []models.Category {
	return r.part.Load(ctx)
}

func (r *Repository) Add(ctx context.Context, p AddParams) models.Category {
	all := r.part.Load(ctx)
	now := r.now().UTC()

	subtype := p.Subtype
	if subtype == "" {
		subtype = models.SubtypeNone
	}

	cat := models.Category{
		Meta: models.Meta{
			ID:        uuid.NewString(),
			CreatedAt: now,
			UpdatedAt: now,
			UserID:    r.owner.Owner(),
		},
		Name:     p.Name,
		Type:     p.Type,
		Subtype:  subtype,
		Color:    p.Color,
		Position: nextPosition(all, p.Type, subtype),
	}

	r.part.Save(ctx, append(all, cat))
	r.bus.Notify()
	r.writeThrough(cat)
	return cat
}

func (r *Repository) Update(ctx context.Context, id string, patch models.CategoryPatch) {
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

// Delete tombstones the category and detaches every link that referenced
// it, so lookups never dangle.
func (r *Repository) Delete(ctx context.Context, id string) {
	all := r.part.Load(ctx)
	for i := range all {
		if all[i].ID != id || all[i].IsDeleted {
			continue
		}
		all[i].IsDeleted = true
		all[i].Touch(r.now().UTC())
		r.part.Save(ctx, all)
		r.links.DetachCategory(ctx, id)
		r.bus.Notify()
		r.writeThrough(all[i])
		return
	}
}

func (r *Repository) Reorder(ctx context.Context, orderedIDs []string) {
	all := r.part.Load(ctx)
	index := make(map[string]int, len(orderedIDs))
	for i, id := range orderedIDs {
		index[id] = i
	}

	var changed []models.Category
	for i := range all {
		pos, ok := index[all[i].ID]
		if !ok || all[i].Position == pos {
			continue
		}
		all[i].Position = pos
		all[i].Touch(r.now().UTC())
		changed = append(changed, all[i])
	}
	if len(changed) == 0 {
		return
	}

	r.part.Save(ctx, all)
	r.bus.Notify()
	for _, c := range changed {
		r.writeThrough(c)
	}
}

func (r *Repository) writeThrough(c models.Category) {
	if r.owner.Owner() == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := r.remote.Upsert(ctx, store.KindCategories, c); err != nil {
			r.log.Warn(ctx, "category upsert not mirrored, will retry on next sync", "id", c.ID, "error", err)
		}
	}()
}

func nextPosition(all []models.Category, t models.LinkType, st models.LinkSubtype) int {
	next := 0
	for _, c := range all {
		if c.IsDeleted || c.Type != t || c.Subtype != st {
			continue
		}
		if c.Position >= next {
			next = c.Position + 1
		}
	}
	return next
}
