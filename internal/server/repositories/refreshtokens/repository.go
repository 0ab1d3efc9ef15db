// Package refreshtokens persists rotating refresh tokens.
package refreshtokens

import (
	"context"

	"github.com/dmitrijs2005/linkstash/internal/server/models"
)

// Repository describes refresh token persistence. Tokens are single-use:
// a successful refresh deletes the old row and inserts a new one.
type Repository interface {
	Add(ctx context.Context, token *models.RefreshToken) error

	// Get returns the token row, or common.ErrorNotFound.
	Get(ctx context.Context, token string) (*models.RefreshToken, error)

	Delete(ctx context.Context, token string) error
}
