package redis

import (
	"context"
	"errors"
	"time"

	"github.com/alem-hub/reboot-profile/internal/domain/session"
)

// SessionStore keeps sessions under session:{id} with the session's
// remaining lifetime as key TTL.
type SessionStore struct {
	cache *Cache
	now   func() time.Time
}

// NewSessionStore creates a session store backed by cache.
func NewSessionStore(cache *Cache) *SessionStore {
	return &SessionStore{cache: cache, now: time.Now}
}

var _ session.Store = (*SessionStore)(nil)

func sessionKey(id string) string {
	return PrefixSession + id
}

// Save stores s. Sessions already past their expiry are deleted instead.
func (s *SessionStore) Save(ctx context.Context, sess *session.Session) error {
	ttl := sess.TTL(s.now())
	if ttl <= 0 {
		return s.cache.Delete(ctx, sessionKey(sess.ID))
	}
	return s.cache.Set(ctx, sessionKey(sess.ID), sess, ttl)
}

// Get loads a session by id.
func (s *SessionStore) Get(ctx context.Context, id string) (*session.Session, error) {
	if id == "" {
		return nil, session.ErrSessionNotFound
	}

	var sess session.Session
	if err := s.cache.Get(ctx, sessionKey(id), &sess); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, session.ErrSessionNotFound
		}
		return nil, err
	}
	return &sess, nil
}

// Delete removes a session.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return s.cache.Delete(ctx, sessionKey(id))
}

// PurgeExpired is a no-op: Redis expires the keys itself.
func (s *SessionStore) PurgeExpired(context.Context, time.Time) (int, error) {
	return 0, nil
}
