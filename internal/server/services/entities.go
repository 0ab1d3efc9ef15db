package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/linkstash/internal/server/models"
	"github.com/dmitrijs2005/linkstash/internal/server/repositories/repomanager"
)

// EntityService stores and serves the per-user entity documents the
// clients sync. The server never interprets the document body beyond the
// identity and recency fields it indexes.
type EntityService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewEntityService(db *sql.DB, m repomanager.RepositoryManager) *EntityService {
	return &EntityService{db: db, repomanager: m}
}

// entityProbe is the subset of the client document the server indexes.
type entityProbe struct {
	ID        string    `json:"id"`
	UpdatedAt time.Time `json:"updated_at"`
	IsDeleted bool      `json:"is_deleted"`
}

// Upsert stores one entity document for userID. The id inside the document
// must match the one addressed by the caller. Rows owned by another user
// yield common.ErrOwnerConflict from the repository.
func (s *EntityService) Upsert(ctx context.Context, userID, kind, id string, data json.RawMessage) error {
	var probe entityProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("invalid entity document: %w", err)
	}
	if probe.ID == "" || probe.ID != id {
		return fmt.Errorf("entity id mismatch")
	}

	entity := &models.Entity{
		ID:        probe.ID,
		UserID:    userID,
		Kind:      kind,
		Data:      data,
		UpdatedAt: probe.UpdatedAt,
		IsDeleted: probe.IsDeleted,
	}
	repo := s.repomanager.Entities(s.db)
	return repo.Upsert(ctx, entity)
}

// SelectAll returns the full documents of every entity of one kind owned
// by userID, tombstones included.
func (s *EntityService) SelectAll(ctx context.Context, userID, kind string) ([]json.RawMessage, error) {
	repo := s.repomanager.Entities(s.db)
	rows, err := repo.SelectAll(ctx, userID, kind)
	if err != nil {
		return nil, err
	}

	result := make([]json.RawMessage, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.Data)
	}
	return result, nil
}
