// Package remote binds the client to the backend's per-entity upsert/query
// interface. Errors returned here are downgraded to logged warnings by the
// callers: the local mutation has already succeeded, the entity is simply
// not mirrored yet.
package remote

import (
	"context"
	"encoding/json"

	"github.com/dmitrijs2005/linkstash/internal/client/store"
)

// Gateway is everything the repositories, the reconciliation engine and the
// CLI need from the backend.
type Gateway interface {
	// Register creates an account.
	Register(ctx context.Context, username, password string) error

	// Login authenticates and returns the owner identifier.
	Login(ctx context.Context, username, password string) (string, error)

	// Logout drops the cached token pair.
	Logout()

	// Upsert mirrors one entity, keyed by its identity.
	Upsert(ctx context.Context, kind store.Kind, entity any) error

	// QueryAll returns the full remote set for the authenticated owner,
	// tombstones included, without pagination.
	QueryAll(ctx context.Context, kind store.Kind) ([]json.RawMessage, error)

	// UploadFile stores a binary payload out of band and returns a
	// resolvable URL for it.
	UploadFile(ctx context.Context, name string, data []byte) (string, error)

	// Ping probes backend reachability.
	Ping(ctx context.Context) error
}
