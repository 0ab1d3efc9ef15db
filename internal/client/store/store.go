// Package store implements the durable local cache: one logical partition
// per entity kind, backed by SQLite, fronted by an in-memory copy.
//
// The in-memory copy is authoritative for the lifetime of the process: a
// failed disk write is logged and swallowed, and subsequent loads keep
// serving the in-memory state. Corrupt persisted rows are skipped on load
// rather than surfaced, so bad state can never brick a consumer.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/linkstash/internal/client/migrations"
	"github.com/dmitrijs2005/linkstash/internal/dbx"
	"github.com/dmitrijs2005/linkstash/internal/logging"
	"github.com/pressly/goose/v3"
)

// Kind names a partition of the local cache.
type Kind string

const (
	KindLinks      Kind = "links"
	KindCategories Kind = "categories"
	KindNotes      Kind = "notes"
)

// Kinds returns all partitions in a fixed order.
func Kinds() []Kind {
	return []Kind{KindLinks, KindCategories, KindNotes}
}

// Valid reports whether k names a known partition.
func (k Kind) Valid() bool {
	switch k {
	case KindLinks, KindCategories, KindNotes:
		return true
	}
	return false
}

type row struct {
	id   string
	data []byte
}

// Store is the shared persistence layer beneath all partitions.
type Store struct {
	db  *sql.DB
	log logging.Logger

	mu    sync.Mutex
	cache map[Kind][]row
}

// Open opens (creating if necessary) the SQLite cache at dsn and applies
// pending migrations.
func Open(ctx context.Context, dsn string, log logging.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	return &Store{db: db, log: log, cache: make(map[Kind][]row)}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// loadLocked returns the cached rows for kind, reading them from disk on
// first access. Rows that cannot be read are skipped.
func (s *Store) loadLocked(ctx context.Context, kind Kind) []row {
	if rows, ok := s.cache[kind]; ok {
		return rows
	}

	var loaded []row
	dbRows, err := s.db.QueryContext(ctx, `SELECT id, data FROM entities WHERE kind = ?`, string(kind))
	if err != nil {
		s.log.Warn(ctx, "loading partition failed, treating as empty", "kind", kind, "error", err)
		s.cache[kind] = nil
		return nil
	}
	defer dbRows.Close()

	for dbRows.Next() {
		var r row
		if err := dbRows.Scan(&r.id, &r.data); err != nil {
			s.log.Warn(ctx, "skipping unreadable row", "kind", kind, "error", err)
			continue
		}
		loaded = append(loaded, r)
	}
	if err := dbRows.Err(); err != nil {
		s.log.Warn(ctx, "partition scan interrupted", "kind", kind, "error", err)
	}

	s.cache[kind] = loaded
	return loaded
}

// saveLocked replaces the partition both in memory and on disk. The disk
// write is transactional; its failure is logged and does not roll back the
// in-memory copy.
func (s *Store) saveLocked(ctx context.Context, kind Kind, rows []row) {
	s.cache[kind] = rows

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM entities WHERE kind = ?`, string(kind)); err != nil {
			return err
		}
		for _, r := range rows {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO entities (kind, id, data) VALUES (?, ?, ?)`,
				string(kind), r.id, r.data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.log.Error(ctx, "persisting partition failed, in-memory state kept", "kind", kind, "error", err)
	}
}

// Erase drops one partition from memory and disk.
func (s *Store) Erase(ctx context.Context, kind Kind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache[kind] = nil
	if _, err := s.db.ExecContext(ctx, `DELETE FROM entities WHERE kind = ?`, string(kind)); err != nil {
		return fmt.Errorf("erase %s: %w", kind, err)
	}
	return nil
}

// EraseAll drops every partition. Used on sign-out so a second user on the
// same device never sees the previous user's cached data.
func (s *Store) EraseAll(ctx context.Context) error {
	for _, kind := range Kinds() {
		if err := s.Erase(ctx, kind); err != nil {
			return err
		}
	}
	return nil
}

// Partition is a typed view over one kind. The optional sanitize hook runs
// on every item before serialization; links use it to strip embedded file
// payloads so the cache never holds large blobs on disk.
type Partition[T any] struct {
	store    *Store
	kind     Kind
	sanitize func(T) T
}

func NewPartition[T any](s *Store, kind Kind) *Partition[T] {
	return &Partition[T]{store: s, kind: kind}
}

// WithSanitizer returns the partition with a pre-persist hook installed.
func (p *Partition[T]) WithSanitizer(fn func(T) T) *Partition[T] {
	p.sanitize = fn
	return p
}

func (p *Partition[T]) Kind() Kind { return p.kind }

// Sanitize applies the partition's pre-persist hook to one item. Callers
// that put entities on the wire use it so pushed copies match persisted ones.
func (p *Partition[T]) Sanitize(item T) T {
	if p.sanitize != nil {
		return p.sanitize(item)
	}
	return item
}

// Load returns every entity in the partition, tombstones included.
// Corrupt entries are skipped.
func (p *Partition[T]) Load(ctx context.Context) []T {
	p.store.mu.Lock()
	defer p.store.mu.Unlock()

	rows := p.store.loadLocked(ctx, p.kind)
	items := make([]T, 0, len(rows))
	for _, r := range rows {
		var item T
		if err := json.Unmarshal(r.data, &item); err != nil {
			p.store.log.Warn(ctx, "skipping corrupt entity", "kind", p.kind, "id", r.id, "error", err)
			continue
		}
		items = append(items, item)
	}
	return items
}

// Save replaces the full partition content. Serialization failures and disk
// failures are logged, never returned; the in-memory state always reflects
// the requested collection.
func (p *Partition[T]) Save(ctx context.Context, items []T) {
	rows := make([]row, 0, len(items))
	for _, item := range items {
		if p.sanitize != nil {
			item = p.sanitize(item)
		}
		data, err := json.Marshal(item)
		if err != nil {
			p.store.log.Error(ctx, "serializing entity failed, entity dropped from persist", "kind", p.kind, "error", err)
			continue
		}
		rows = append(rows, row{id: entityID(data), data: data})
	}

	p.store.mu.Lock()
	defer p.store.mu.Unlock()
	p.store.saveLocked(ctx, p.kind, rows)
}

// entityID extracts the identity from a serialized entity.
func entityID(data []byte) string {
	var probe struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(data, &probe)
	return probe.ID
}
