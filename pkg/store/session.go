// Package store holds the in-memory shapes the host keeps between requests.
package store

import (
	"sync"
	"time"

	"content-editor-be/pkg/editor"

	"github.com/google/uuid"
)

// EditorSession is one mounted editor bound to a content row. The Composer is
// not safe for concurrent use, so every access goes through Do.
type EditorSession struct {
	ID        uuid.UUID
	ContentID uuid.UUID
	Entity    string
	OpenedAt  time.Time

	// LastError is set by the composer's error hook. Read and reset it only inside Do.
	LastError error

	mu       sync.Mutex
	composer *editor.Composer
	closed   bool
}

func NewEditorSession(contentID uuid.UUID, entityName string, composer *editor.Composer) *EditorSession {
	return &EditorSession{
		ID:        uuid.New(),
		ContentID: contentID,
		Entity:    entityName,
		OpenedAt:  time.Now(),
		composer:  composer,
	}
}

// Do runs fn with exclusive access to the composer. It reports false once the
// session is closed.
func (s *EditorSession) Do(fn func(c *editor.Composer)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	fn(s.composer)
	return true
}

// Close unmounts the editor. Later calls are no-ops.
func (s *EditorSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.composer.Close()
}
