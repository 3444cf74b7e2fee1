package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/reboot-profile/internal/domain/session"
)

// offlineCache never reaches a server; only code paths that return before
// talking to Redis are exercised.
func offlineCache(t *testing.T) *Cache {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 10 * time.Millisecond})
	t.Cleanup(func() { _ = client.Close() })
	return NewCacheFromClient(client)
}

func TestConfig_Addr(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "localhost:6379", cfg.Addr())

	cfg.Host, cfg.Port = "cache", 6380
	assert.Equal(t, "cache:6380", cfg.Addr())
}

func TestCache_EmptyKey(t *testing.T) {
	c := offlineCache(t)

	assert.ErrorIs(t, c.Set(context.Background(), "", "v", time.Minute), ErrCacheKeyEmpty)
	assert.ErrorIs(t, c.Get(context.Background(), "", new(string)), ErrCacheKeyEmpty)
	assert.NoError(t, c.Delete(context.Background()))
}

func TestSessionStore_Key(t *testing.T) {
	assert.Equal(t, "session:abc", sessionKey("abc"))
}

func TestSessionStore_EmptyID(t *testing.T) {
	store := NewSessionStore(offlineCache(t))

	_, err := store.Get(context.Background(), "")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
	assert.NoError(t, store.Delete(context.Background(), ""))

	n, err := store.PurgeExpired(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)
}
