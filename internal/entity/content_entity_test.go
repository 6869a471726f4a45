package entity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestContentAcceptsRevision(t *testing.T) {
	session := uuid.New()
	stored := &Content{Version: 3, LastSessionId: &session}

	tests := []struct {
		name    string
		content *Content
		session uuid.UUID
		version int
		want    bool
	}{
		{name: "never edited", content: &Content{}, session: session, version: 1, want: true},
		{name: "newer version", content: stored, session: session, version: 4, want: true},
		{name: "same version", content: stored, session: session, version: 3, want: false},
		{name: "stale version", content: stored, session: session, version: 1, want: false},
		{name: "other session", content: stored, session: uuid.New(), version: 1, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.content.AcceptsRevision(tt.session, tt.version))
		})
	}
}
