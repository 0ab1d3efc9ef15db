// Package common defines shared constants and sentinel errors used across
// client and server layers of LinkStash. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// ErrOwnerConflict is returned when an upsert would touch a row that
	// belongs to a different owner.
	ErrOwnerConflict = errors.New("owner conflict")

	// ErrNotSignedIn marks sync attempts made without a known owner.
	// It is a recoverable no-op, not a failure.
	ErrNotSignedIn = errors.New("not signed in")

	// ErrSyncInProgress is returned when a reconciliation pass is requested
	// while another one is still running.
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrFileTooLarge is returned when a file-backed link exceeds the
	// upload size ceiling.
	ErrFileTooLarge = errors.New("file too large")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	ErrorLoginAlreadyExists   = errors.New("login already exists")
	ErrorInvalidLoginPassword = errors.New("invalid login/password")
)
