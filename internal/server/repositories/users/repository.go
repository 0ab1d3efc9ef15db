// Package users provides the PostgreSQL-backed account repository.
package users

import (
	"context"

	"github.com/dmitrijs2005/linkstash/internal/server/models"
)

// Repository describes account persistence.
type Repository interface {
	// Create inserts a new account. A duplicate username yields
	// common.ErrorLoginAlreadyExists.
	Create(ctx context.Context, user *models.User) error

	// GetByUsername returns the account, or common.ErrorNotFound.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}
