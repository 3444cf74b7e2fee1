package security

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/reboot-profile/internal/domain/session"
	"github.com/alem-hub/reboot-profile/internal/infrastructure/persistence/memory"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestNewTokenCipher(t *testing.T) {
	c, err := NewTokenCipher("")
	require.NoError(t, err)
	assert.False(t, c.Enabled())

	_, err = NewTokenCipher("short")
	assert.ErrorIs(t, err, ErrSecretTooShort)

	c, err = NewTokenCipher(testSecret)
	require.NoError(t, err)
	assert.True(t, c.Enabled())
}

func TestTokenCipher_SealOpen(t *testing.T) {
	c, err := NewTokenCipher(testSecret)
	require.NoError(t, err)

	sealed, err := c.Seal("header.payload.sig")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sealed, sealedPrefix))
	assert.NotContains(t, sealed, "payload")

	again, err := c.Seal("header.payload.sig")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonce is random")

	plain, err := c.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "header.payload.sig", plain)
}

func TestTokenCipher_PassThrough(t *testing.T) {
	var disabled *TokenCipher
	out, err := disabled.Seal("a.b.c")
	require.NoError(t, err)
	assert.Equal(t, "a.b.c", out)

	c, err := NewTokenCipher(testSecret)
	require.NoError(t, err)

	empty, err := c.Seal("")
	require.NoError(t, err)
	assert.Empty(t, empty)

	legacy, err := c.Open("a.b.c")
	require.NoError(t, err)
	assert.Equal(t, "a.b.c", legacy, "unprefixed values are stored plain")
}

func TestTokenCipher_Tampered(t *testing.T) {
	c, err := NewTokenCipher(testSecret)
	require.NoError(t, err)
	other, err := NewTokenCipher("another-secret-of-enough-length")
	require.NoError(t, err)

	sealed, err := c.Seal("a.b.c")
	require.NoError(t, err)

	_, err = other.Open(sealed)
	assert.ErrorIs(t, err, ErrDecryptionFailed)

	_, err = c.Open(sealedPrefix + "!!!")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)

	_, err = c.Open(sealedPrefix + "AAAA")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestSealedStore(t *testing.T) {
	ctx := context.Background()
	c, err := NewTokenCipher(testSecret)
	require.NoError(t, err)

	inner := memory.NewSessionStore()
	store := NewSealedStore(inner, c)

	s := &session.Session{ID: "s1", Token: "a.b.c"}
	require.NoError(t, store.Save(ctx, s))
	assert.Equal(t, "a.b.c", s.Token, "caller's session is not modified")

	raw, err := inner.Get(ctx, "s1")
	require.NoError(t, err)
	assert.NotEqual(t, "a.b.c", raw.Token)

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "a.b.c", got.Token)

	require.NoError(t, store.Delete(ctx, "s1"))
	_, err = store.Get(ctx, "s1")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestNewSealedStore_Disabled(t *testing.T) {
	inner := memory.NewSessionStore()
	assert.Same(t, inner, NewSealedStore(inner, nil))
}
