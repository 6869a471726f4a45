package memory

import (
	"testing"
	"time"

	"content-editor-be/pkg/editor"
	"content-editor-be/pkg/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRepositorySaveGetDelete(t *testing.T) {
	repo := NewSessionRepository(time.Minute)
	s := store.NewEditorSession(uuid.New(), "pages", editor.NewComposer(editor.WithMarkdown("hello")))

	repo.Save(s)
	got, ok := repo.Get(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)
	assert.Equal(t, 1, repo.Count())

	repo.Delete(s.ID)
	_, ok = repo.Get(s.ID)
	assert.False(t, ok)
	assert.False(t, s.Do(func(*editor.Composer) {}), "deleting closes the session")
}

func TestSessionRepositoryExpiry(t *testing.T) {
	repo := NewSessionRepository(20 * time.Millisecond)
	s := store.NewEditorSession(uuid.New(), "posts", editor.NewComposer())
	repo.Save(s)

	assert.Eventually(t, func() bool {
		_, ok := repo.Get(s.ID)
		return !ok
	}, 2*time.Second, 10*time.Millisecond)
}
