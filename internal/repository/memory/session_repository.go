package memory

import (
	"time"

	"content-editor-be/pkg/store"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps mounted editors. An idle session expires after ttl
// and is closed on eviction.
type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository(ttl time.Duration) *SessionRepository {
	c := cache.New(ttl, ttl/6+time.Second)
	c.OnEvicted(func(_ string, x interface{}) {
		if s, ok := x.(*store.EditorSession); ok {
			s.Close()
		}
	})
	return &SessionRepository{
		cache: c,
	}
}

func (r *SessionRepository) Save(session *store.EditorSession) {
	r.cache.Set(session.ID.String(), session, cache.DefaultExpiration)
}

// Get returns the session and slides its expiration.
func (r *SessionRepository) Get(sessionID uuid.UUID) (*store.EditorSession, bool) {
	key := sessionID.String()
	if x, found := r.cache.Get(key); found {
		s := x.(*store.EditorSession)
		r.cache.Set(key, s, cache.DefaultExpiration)
		return s, true
	}
	return nil, false
}

func (r *SessionRepository) Delete(sessionID uuid.UUID) {
	r.cache.Delete(sessionID.String())
}

func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}
