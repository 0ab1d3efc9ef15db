package entities

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/linkstash/internal/common"
	"github.com/dmitrijs2005/linkstash/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEntity() *models.Entity {
	return &models.Entity{
		ID:        "l1",
		UserID:    "u1",
		Kind:      "links",
		Data:      json.RawMessage(`{"id":"l1"}`),
		UpdatedAt: time.Now().UTC(),
		IsDeleted: false,
	}
}

func TestUpsert_OneRowAffected(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO entities").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewPostgresRepository(db)
	assert.NoError(t, repo.Upsert(context.Background(), testEntity()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsert_ZeroRowsIsOwnerConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO entities").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewPostgresRepository(db)
	err = repo.Upsert(context.Background(), testEntity())
	assert.ErrorIs(t, err, common.ErrOwnerConflict)
}

func TestUpsert_ExecError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO entities").
		WillReturnError(errors.New("db down"))

	repo := NewPostgresRepository(db)
	assert.Error(t, repo.Upsert(context.Background(), testEntity()))
}

func TestSelectAll(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "user_id", "kind", "data", "updated_at", "is_deleted"}).
		AddRow("l1", "u1", "links", []byte(`{"id":"l1"}`), now, false).
		AddRow("l2", "u1", "links", []byte(`{"id":"l2"}`), now, true)

	mock.ExpectQuery("SELECT id, user_id, kind, data, updated_at, is_deleted FROM entities").
		WithArgs("u1", "links").
		WillReturnRows(rows)

	repo := NewPostgresRepository(db)
	got, err := repo.SelectAll(context.Background(), "u1", "links")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "l1", got[0].ID)
	assert.True(t, got[1].IsDeleted)
}
