package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapStore struct {
	mu       sync.Mutex
	sessions map[string]Session
}

func newMapStore() *mapStore {
	return &mapStore{sessions: make(map[string]Session)}
}

func (s *mapStore) Save(_ context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = *sess
	return nil
}

func (s *mapStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &sess, nil
}

func (s *mapStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *mapStore) PurgeExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, sess := range s.sessions {
		if sess.Expired(now) {
			delete(s.sessions, id)
			n++
		}
	}
	return n, nil
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestManager_BeginAndCheck(t *testing.T) {
	store := newMapStore()
	clk := &clock{t: testNow}
	m := NewManager(store, nil, WithClock(clk.now))

	raw := signToken(t, jwt.MapClaims{"sub": "12", "exp": testNow.Add(time.Hour).Unix()})
	s, err := m.Begin(context.Background(), raw, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(12), s.UserID)
	assert.Equal(t, "alice", s.Login)
	assert.NotEmpty(t, s.ID)

	clk.t = testNow.Add(10 * time.Minute)
	got, err := m.Check(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, clk.t, got.LastSeenAt)
}

func TestManager_BeginRejectsMalformedToken(t *testing.T) {
	m := NewManager(newMapStore(), nil, WithClock(func() time.Time { return testNow }))

	_, err := m.Begin(context.Background(), "not-a-jwt", "bob")
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestManager_CheckExpiredDeletesSession(t *testing.T) {
	store := newMapStore()
	clk := &clock{t: testNow}
	var reasons []ExpiryReason
	m := NewManager(store, nil, WithClock(clk.now), WithExpiryHook(func(r ExpiryReason) { reasons = append(reasons, r) }))

	raw := signToken(t, jwt.MapClaims{"sub": "12", "exp": testNow.Add(time.Minute).Unix()})
	s, err := m.Begin(context.Background(), raw, "alice")
	require.NoError(t, err)

	clk.t = testNow.Add(2 * time.Minute)
	_, err = m.Check(context.Background(), s.ID)
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, []ExpiryReason{ReasonTokenExpired}, reasons)

	_, err = store.Get(context.Background(), s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManager_CheckCorruptedTokenClearsSession(t *testing.T) {
	store := newMapStore()
	m := NewManager(store, nil, WithClock(func() time.Time { return testNow }))
	require.NoError(t, store.Save(context.Background(), &Session{ID: "s1", Token: "broken", ExpiresAt: testNow.Add(time.Hour)}))

	_, err := m.Check(context.Background(), "s1")
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Empty(t, store.sessions)
}

func TestManager_CheckUnknownSession(t *testing.T) {
	m := NewManager(newMapStore(), nil)

	_, err := m.Check(context.Background(), "")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = m.Check(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManager_EndIsIdempotent(t *testing.T) {
	m := NewManager(newMapStore(), nil)

	assert.NoError(t, m.End(context.Background(), "missing"))
	assert.NoError(t, m.End(context.Background(), ""))
}

func TestManager_InvalidateAndPurge(t *testing.T) {
	store := newMapStore()
	clk := &clock{t: testNow}
	m := NewManager(store, nil, WithClock(clk.now))

	noExp := signToken(t, jwt.MapClaims{"sub": "5"})
	s1, err := m.Begin(context.Background(), noExp, "a")
	require.NoError(t, err)
	assert.Equal(t, testNow.Add(DefaultSessionTTL), s1.ExpiresAt)

	s2, err := m.Begin(context.Background(), noExp, "b")
	require.NoError(t, err)

	assert.ErrorIs(t, m.Invalidate(context.Background(), s2.ID), ErrSessionExpired)

	clk.t = testNow.Add(DefaultSessionTTL + time.Second)
	n, err := m.Purge(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
