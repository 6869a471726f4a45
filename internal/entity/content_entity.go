package entity

import (
	"time"

	"github.com/google/uuid"
)

// Content is one rich-text field owner: a page, article, post or comment.
// Markdown is the field value; State keeps the editor tree as Lexical JSON.
type Content struct {
	Id            uuid.UUID
	Entity        string
	Title         string
	Markdown      string
	State         []byte
	Version       int
	LastSessionId *uuid.UUID
	CreatedAt     time.Time
	UpdatedAt     *time.Time
	DeletedAt     *time.Time
	IsDeleted     bool
}

// AcceptsRevision reports whether a change made by sessionId at version is
// newer than what this row already holds.
func (c *Content) AcceptsRevision(sessionId uuid.UUID, version int) bool {
	if c.LastSessionId == nil || *c.LastSessionId != sessionId {
		return true
	}
	return version > c.Version
}
