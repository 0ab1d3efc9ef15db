// Package models defines server-side persistence models.
package models

import (
	"encoding/json"
	"time"
)

// User is an account row. Passwords are stored as bcrypt hashes only.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// RefreshToken is a persisted, rotating refresh token.
type RefreshToken struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}

// Entity is one owner-scoped entity row. Data holds the client's full JSON
// document; ID, Kind, UpdatedAt and IsDeleted are indexed copies of the
// fields the sync queries need.
type Entity struct {
	ID        string
	UserID    string
	Kind      string
	Data      json.RawMessage
	UpdatedAt time.Time
	IsDeleted bool
}
