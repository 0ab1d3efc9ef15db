// Package repomanager hands out repositories bound to a *sql.DB or an
// open transaction, so services can run several repositories inside one
// dbx.WithTx scope.
package repomanager

import (
	"github.com/dmitrijs2005/linkstash/internal/dbx"
	"github.com/dmitrijs2005/linkstash/internal/server/repositories/entities"
	"github.com/dmitrijs2005/linkstash/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/linkstash/internal/server/repositories/users"
)

// RepositoryManager builds repositories over the given executor.
type RepositoryManager interface {
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Entities(db dbx.DBTX) entities.Repository
}

// PostgresRepositoryManager is the production implementation.
type PostgresRepositoryManager struct{}

func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	return refreshtokens.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Entities(db dbx.DBTX) entities.Repository {
	return entities.NewPostgresRepository(db)
}
