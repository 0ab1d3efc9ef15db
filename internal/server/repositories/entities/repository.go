// Package entities provides the PostgreSQL-backed, owner-scoped entity
// store the sync protocol runs against.
package entities

import (
	"context"

	"github.com/dmitrijs2005/linkstash/internal/server/models"
)

// Repository describes entity persistence.
type Repository interface {
	// Upsert inserts or replaces an entity by id. A row owned by a
	// different user is never touched: the guard yields
	// common.ErrOwnerConflict instead.
	Upsert(ctx context.Context, entity *models.Entity) error

	// SelectAll returns every entity of one kind owned by userID,
	// tombstones included.
	SelectAll(ctx context.Context, userID, kind string) ([]*models.Entity, error)
}
