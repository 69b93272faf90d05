// Package session provides conversation memory stores.
package session

import (
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/0xcro3dile/ledgerchat-go/internal/domain/entities"
)

// Defaults match an idle chat tab being forgotten after an hour.
const (
	DefaultTTL             = 1 * time.Hour
	DefaultCleanupInterval = 10 * time.Minute
)

// CacheStore implements ports.SessionStore on an expiring in-process cache.
// Conversations are copied on the way in and out, so callers never share
// slices with the store; concurrent turns on one session are last-writer-wins.
type CacheStore struct {
	cache *cache.Cache
}

// NewCacheStore creates a store whose sessions expire after ttl of inactivity.
func NewCacheStore(ttl, cleanupInterval time.Duration) *CacheStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}
	return &CacheStore{
		cache: cache.New(ttl, cleanupInterval),
	}
}

// Save stores conv and restarts its expiry.
func (s *CacheStore) Save(conv *entities.Conversation) {
	s.cache.Set(conv.ID, conv.Clone(), cache.DefaultExpiration)
}

// Get returns a copy of the session's conversation.
func (s *CacheStore) Get(sessionID string) (*entities.Conversation, bool) {
	if x, found := s.cache.Get(sessionID); found {
		return x.(*entities.Conversation).Clone(), true
	}
	return nil, false
}

// Delete forgets a session.
func (s *CacheStore) Delete(sessionID string) {
	s.cache.Delete(sessionID)
}
