// Package models defines the client-side entity kinds (links, categories,
// notes), their shared record shape, and the typed patch structs used for
// partial updates.
package models

import "time"

// LinkType classifies a link or category.
type LinkType string

const (
	LinkTypeWeb      LinkType = "web"
	LinkTypeVideo    LinkType = "video"
	LinkTypeDocument LinkType = "document"
)

// LinkSubtype further classifies video links. It is None for everything else.
type LinkSubtype string

const (
	SubtypeNone      LinkSubtype = "none"
	SubtypeYouTube   LinkSubtype = "youtube"
	SubtypeInstagram LinkSubtype = "instagram"
	SubtypeAI        LinkSubtype = "ai"
	SubtypeOther     LinkSubtype = "other"
)

// Meta carries the fields every entity kind shares. Identity is assigned
// client-side at creation and is never reassigned; it is the sole join key
// between the local and remote representation of the same logical entity.
type Meta struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	IsDeleted bool      `json:"is_deleted"`
	UserID    string    `json:"user_id,omitempty"`
}

func (m Meta) RecordID() string      { return m.ID }
func (m Meta) ModifiedAt() time.Time { return m.UpdatedAt }
func (m Meta) Tombstoned() bool      { return m.IsDeleted }
func (m Meta) RecordOwner() string   { return m.UserID }

// Touch bumps UpdatedAt. Every mutation, the soft-delete transition
// included, goes through here so the timestamp never moves backwards.
func (m *Meta) Touch(now time.Time) {
	if now.After(m.UpdatedAt) {
		m.UpdatedAt = now
	}
}

// StampOwner retroactively assigns an owner to an entity created before a
// session was available.
func (m *Meta) StampOwner(userID string) { m.UserID = userID }

// Record is the read-only view of Meta that merge and reconciliation code
// operates on. All three entity kinds satisfy it by embedding Meta.
type Record interface {
	RecordID() string
	ModifiedAt() time.Time
	Tombstoned() bool
	RecordOwner() string
}

// Link is a saved bookmark. A link either wraps a pasted URL or represents
// an uploaded file (FileName/FileURL set). FileData holds the raw payload in
// memory only; the store strips it before persisting.
type Link struct {
	Meta
	URL        string      `json:"url"`
	Name       string      `json:"name"`
	Type       LinkType    `json:"type"`
	Subtype    LinkSubtype `json:"subtype"`
	CategoryID string      `json:"category_id,omitempty"`
	Position   int         `json:"position"`
	IsPinned   bool        `json:"is_pinned"`
	Notes      string      `json:"notes,omitempty"`
	FileName   string      `json:"file_name,omitempty"`
	FileURL    string      `json:"file_url,omitempty"`
	FileData   []byte      `json:"file_data,omitempty"`
}

// Sanitized returns a copy safe for persistence and the wire: the embedded
// binary payload is dropped, only the out-of-band FileURL reference is kept.
func (l Link) Sanitized() Link {
	l.FileData = nil
	return l
}

// DisplayName falls back to the URL when no label was given.
func (l Link) DisplayName() string {
	if l.Name != "" {
		return l.Name
	}
	return l.URL
}

// Category groups links. CategoryID on Link is a weak reference: deleting a
// category detaches its links instead of cascading.
type Category struct {
	Meta
	Name     string      `json:"name"`
	Type     LinkType    `json:"type"`
	Subtype  LinkSubtype `json:"subtype"`
	Color    string      `json:"color,omitempty"`
	Position int         `json:"position"`
	IsPinned bool        `json:"is_pinned"`
}

// Note is a free-form text record. Body may contain rich-text markup,
// which is opaque to the engine.
type Note struct {
	Meta
	Title string `json:"title"`
	Body  string `json:"body"`
}

// LinkPatch lists the link fields that are mutable after creation.
// Nil fields are left untouched.
type LinkPatch struct {
	URL        *string
	Name       *string
	Type       *LinkType
	Subtype    *LinkSubtype
	CategoryID *string
	IsPinned   *bool
	Notes      *string
	FileName   *string
	FileURL    *string
}

func (p LinkPatch) Apply(l *Link) {
	if p.URL != nil {
		l.URL = *p.URL
	}
	if p.Name != nil {
		l.Name = *p.Name
	}
	if p.Type != nil {
		l.Type = *p.Type
	}
	if p.Subtype != nil {
		l.Subtype = *p.Subtype
	}
	if p.CategoryID != nil {
		l.CategoryID = *p.CategoryID
	}
	if p.IsPinned != nil {
		l.IsPinned = *p.IsPinned
	}
	if p.Notes != nil {
		l.Notes = *p.Notes
	}
	if p.FileName != nil {
		l.FileName = *p.FileName
	}
	if p.FileURL != nil {
		l.FileURL = *p.FileURL
	}
}

// CategoryPatch lists the category fields that are mutable after creation.
type CategoryPatch struct {
	Name     *string
	Type     *LinkType
	Subtype  *LinkSubtype
	Color    *string
	IsPinned *bool
}

func (p CategoryPatch) Apply(c *Category) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Type != nil {
		c.Type = *p.Type
	}
	if p.Subtype != nil {
		c.Subtype = *p.Subtype
	}
	if p.Color != nil {
		c.Color = *p.Color
	}
	if p.IsPinned != nil {
		c.IsPinned = *p.IsPinned
	}
}

// NotePatch lists the note fields that are mutable after creation.
type NotePatch struct {
	Title *string
	Body  *string
}

func (p NotePatch) Apply(n *Note) {
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Body != nil {
		n.Body = *p.Body
	}
}
