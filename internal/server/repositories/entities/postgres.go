package entities

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/linkstash/internal/common"
	"github.com/dmitrijs2005/linkstash/internal/dbx"
	"github.com/dmitrijs2005/linkstash/internal/server/models"
)

// PostgresRepository implements Repository over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Upsert replaces the row by id. The WHERE guard on the conflict branch
// means a colliding id owned by someone else updates zero rows, which is
// reported as an owner conflict rather than silently overwriting.
func (r *PostgresRepository) Upsert(ctx context.Context, entity *models.Entity) error {
	query := `
		INSERT INTO entities (id, user_id, kind, data, updated_at, is_deleted)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id)
		DO UPDATE SET
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at,
			is_deleted = EXCLUDED.is_deleted
			WHERE entities.user_id = EXCLUDED.user_id;
	`
	res, err := r.db.ExecContext(ctx, query,
		entity.ID, entity.UserID, entity.Kind, entity.Data, entity.UpdatedAt, entity.IsDeleted)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrOwnerConflict
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

func (r *PostgresRepository) SelectAll(ctx context.Context, userID, kind string) ([]*models.Entity, error) {
	query := `SELECT id, user_id, kind, data, updated_at, is_deleted FROM entities
		WHERE user_id = $1 AND kind = $2`
	rows, err := r.db.QueryContext(ctx, query, userID, kind)
	if err != nil {
		return nil, fmt.Errorf("select entities: %w", err)
	}
	defer rows.Close()

	var result []*models.Entity
	for rows.Next() {
		var item models.Entity
		if err := rows.Scan(&item.ID, &item.UserID, &item.Kind, &item.Data, &item.UpdatedAt, &item.IsDeleted); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
