package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/reboot-profile/internal/domain/session"
)

func TestSessionStore_SaveGetDelete(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	s := &session.Session{ID: "abc", UserID: 7, Login: "alice", ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, store.Save(ctx, s))

	got, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.UserID)

	// returned sessions are copies
	got.Login = "mallory"
	again, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "alice", again.Login)

	require.NoError(t, store.Delete(ctx, "abc"))
	_, err = store.Get(ctx, "abc")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)

	assert.NoError(t, store.Delete(ctx, "missing"))
}

func TestSessionStore_PurgeExpired(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(ctx, &session.Session{ID: "old", ExpiresAt: now.Add(-time.Minute)}))
	require.NoError(t, store.Save(ctx, &session.Session{ID: "live", ExpiresAt: now.Add(time.Minute)}))

	n, err := store.PurgeExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, store.Len())

	_, err = store.Get(ctx, "live")
	assert.NoError(t, err)
}
