// Package links implements the typed repository for bookmark links.
package links

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

// Syncer mirrors one local entity to the remote side. Failures are the
// caller's to log; they never fail the local mutation.
type Syncer interface {
	Upsert(ctx context.Context, kind store.Kind, entity any) error
}

// OwnerSource reports the currently authenticated owner, or "" when the
// device is in guest mode.
type OwnerSource interface {
	Owner() string
}

// Repository is the mutation and query surface for links. All mutations are
// write-through: the local store is updated synchronously, subscribers are
// notified, and a remote upsert is attempted in the background when an
// owner is known.
type Repository struct {
	part   *store.Partition[models.Link]
	bus    *bus.Bus
	remote Syncer
	owner  OwnerSource
	log    logging.Logger
	now    func() time.Time
}

// AddParams carries the caller-supplied fields for a new link.
type AddParams struct {
	URL        string
	Name       string
	Type       models.LinkType
	Subtype    models.LinkSubtype
	CategoryID string
	Notes      string
	FileName   string
	FileURL    string
	FileData   []byte
}

func New(s *store.Store, b *bus.Bus, remote Syncer, owner OwnerSource, log logging.Logger) *Repository {
	return &Repository{part: NewPartition(s), bus: b, remote: remote, owner: owner, log: log, now: time.Now}
}

// NewPartition returns the links partition with the file-payload stripper
// installed, so the cache never holds large blobs on disk.
func NewPartition(s *store.Store) *store.Partition[models.Link] {
	return store.NewPartition[models.Link](s, store.KindLinks).WithSanitizer(models.Link.Sanitized)
}

// Get returns the non-deleted projection: pinned links first, then by
// position. Legacy entities missing newer optional fields come back with
// their zero-value defaults.
func (r *Repository) Get(ctx context.Context) []models.Link {
	all := r.part.Load(ctx)
	visible := make([]models.Link, 0, len(all))
	for _, l := range all {
		if l.IsDeleted {
			continue
		}
		if l.Subtype == "" {
			l.Subtype = models.SubtypeNone
		}
		visible = append(visible, l)
	}
	sort.SliceStable(visible, func(i, j int) bool {
		if visible[i].IsPinned != visible[j].IsPinned {
			return visible[i].IsPinned
		}
		return visible[i].Position < visible[j].Position
	})
	return visible
}

// GetAll returns the raw partition content, tombstones included.
func (r *Repository) GetAll(ctx context.Context) []models.Link {
	return r.part.Load(ctx)
}

// Add assigns identity and timestamps, appends the link to the end of its
// type/subtype/category group, persists, notifies, and write-through syncs.
func (r *Repository) Add(ctx context.Context, p AddParams) models.Link {
	all := r.part.Load(ctx)
	now := r.now().UTC()

	subtype := p.Subtype
	if subtype == "" {
		subtype = models.SubtypeNone
	}

	link := models.Link{
		Meta: models.Meta{
			ID:        uuid.NewString(),
			CreatedAt: now,
			UpdatedAt: now,
			UserID:    r.owner.Owner(),
		},
		URL:        p.URL,
		Name:       p.Name,
		Type:       p.Type,
		Subtype:    subtype,
		CategoryID: p.CategoryID,
		Position:   nextPosition(all, p.Type, subtype, p.CategoryID),
		Notes:      p.Notes,
		FileName:   p.FileName,
		FileURL:    p.FileURL,
		FileData:   p.FileData,
	}

	r.part.Save(ctx, append(all, link))
	r.bus.Notify()
	r.writeThrough(link)
	return link
}

// Update applies the patch to the link with the given id and bumps
// updated_at. Unknown ids are a no-op.
func (r *Repository) Update(ctx context.Context, id string, patch models.LinkPatch) {
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

// Delete tombstones the link. The tombstone is itself synced as an upsert
// so the remote side converges to a soft-deleted row too.
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

// Reorder assigns position = index for each id in the given order. Only
// links whose position actually changed get a new updated_at and a sync.
func (r *Repository) Reorder(ctx context.Context, orderedIDs []string) {
	all := r.part.Load(ctx)
	index := make(map[string]int, len(orderedIDs))
	for i, id := range orderedIDs {
		index[id] = i
	}

	var changed []models.Link
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
	for _, l := range changed {
		r.writeThrough(l)
	}
}

// DetachCategory nulls the weak category reference on every link pointing
// at the deleted category.
func (r *Repository) DetachCategory(ctx context.Context, categoryID string) {
	all := r.part.Load(ctx)
	var changed []models.Link
	for i := range all {
		if all[i].CategoryID != categoryID || all[i].IsDeleted {
			continue
		}
		all[i].CategoryID = ""
		all[i].Touch(r.now().UTC())
		changed = append(changed, all[i])
	}
	if len(changed) == 0 {
		return
	}

	r.part.Save(ctx, all)
	r.bus.Notify()
	for _, l := range changed {
		r.writeThrough(l)
	}
}

// Merge folds an externally supplied list (e.g. a file import) into the
// partition under the recency tie-break law.
func (r *Repository) Merge(ctx context.Context, incoming []models.Link) {
	all := r.part.Load(ctx)
	merged := models.MergeByRecency(all, incoming)
	r.part.Save(ctx, merged)
	r.bus.Notify()
	if r.owner.Owner() != "" {
		for _, l := range incoming {
			r.writeThrough(l)
		}
	}
}

// writeThrough mirrors one link to the remote side without blocking the
// mutation. Skipped entirely in guest mode: an entity without an owner
// never participates in reconciliation.
func (r *Repository) writeThrough(l models.Link) {
	if r.owner.Owner() == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := r.remote.Upsert(ctx, store.KindLinks, l.Sanitized()); err != nil {
			r.log.Warn(ctx, "link upsert not mirrored, will retry on next sync", "id", l.ID, "error", err)
		}
	}()
}

func nextPosition(all []models.Link, t models.LinkType, st models.LinkSubtype, categoryID string) int {
	next := 0
	for _, l := range all {
		if l.IsDeleted || l.Type != t || l.Subtype != st || l.CategoryID != categoryID {
			continue
		}
		if l.Position >= next {
			next = l.Position + 1
		}
	}
	return next
}
