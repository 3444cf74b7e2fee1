package session

import (
	"encoding/base64"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return raw
}

func TestCleanToken(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "a.b.c", "a.b.c"},
		{"json string", `"a.b.c"`, "a.b.c"},
		{"single quotes and spaces", "  'a.b.c'\n", "a.b.c"},
		{"empty", `""`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanToken(tt.in))
		})
	}
}

func TestParseToken_Valid(t *testing.T) {
	raw := signToken(t, jwt.MapClaims{"sub": "1234", "exp": testNow.Add(time.Hour).Unix()})

	tok, err := ParseToken(`"`+raw+`"`, testNow)

	require.NoError(t, err)
	assert.Equal(t, raw, tok.Raw)
	assert.Equal(t, int64(1234), tok.UserID)
	assert.True(t, tok.HasExpiry)
	assert.Equal(t, testNow.Add(time.Hour), tok.ExpiresAt.UTC())
}

func TestParseToken_Errors(t *testing.T) {
	expired := signToken(t, jwt.MapClaims{"sub": "1", "exp": testNow.Add(-time.Minute).Unix()})

	_, err := ParseToken("  ", testNow)
	assert.ErrorIs(t, err, ErrTokenEmpty)

	_, err = ParseToken("only.two", testNow)
	assert.ErrorIs(t, err, ErrTokenMalformed)

	_, err = ParseToken("a.b.c.d", testNow)
	assert.ErrorIs(t, err, ErrTokenMalformed)

	_, err = ParseToken("a.!!!.c", testNow)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrTokenExpired)

	tok, err := ParseToken(expired, testNow)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.Equal(t, int64(1), tok.UserID)
}

func TestParseToken_DecodesPayloadOnly(t *testing.T) {
	seg := func(v string) string { return base64.URLEncoding.EncodeToString([]byte(v)) }
	payload := seg(`{"sub":"42","exp":` + strconv.FormatInt(testNow.Add(time.Hour).Unix(), 10) + `}`)
	require.True(t, strings.HasSuffix(payload, "="), "fixture keeps its padding")

	tests := []struct {
		name   string
		header string
	}{
		{"no alg", seg(`{"typ":"JWT"}`)},
		{"unknown alg", seg(`{"alg":"XYZ"}`)},
		{"garbage header", "!!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok, err := ParseToken(tt.header+"."+payload+".sig", testNow)
			require.NoError(t, err)
			assert.Equal(t, int64(42), tok.UserID)
			assert.True(t, tok.HasExpiry)
		})
	}
}

func TestParseToken_NoExpiry(t *testing.T) {
	raw := signToken(t, jwt.MapClaims{"userId": 77})

	tok, err := ParseToken(raw, testNow)

	require.NoError(t, err)
	assert.False(t, tok.HasExpiry)
	assert.True(t, tok.Valid(testNow.AddDate(10, 0, 0)))
}

func TestToken_ValidAtBoundary(t *testing.T) {
	tok := Token{HasExpiry: true, ExpiresAt: testNow}

	assert.True(t, tok.Valid(testNow))
	assert.True(t, tok.Valid(testNow.Add(500*time.Millisecond)))
	assert.False(t, tok.Valid(testNow.Add(time.Second)))
}

func TestUserIDFromClaims(t *testing.T) {
	tests := []struct {
		name   string
		claims map[string]any
		want   int64
	}{
		{"sub string", map[string]any{"sub": "42"}, 42},
		{"userId number", map[string]any{"userId": float64(7)}, 7},
		{"id before user_id", map[string]any{"id": float64(3), "user_id": float64(4)}, 3},
		{"user_id", map[string]any{"user_id": "9"}, 9},
		{"non numeric sub falls through", map[string]any{"sub": "abc", "user_id": float64(5)}, 5},
		{
			"hasura claims",
			map[string]any{hasuraClaimsKey: map[string]any{"x-hasura-user-id": "1500"}},
			1500,
		},
		{"absent", map[string]any{"role": "user"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserIDFromClaims(tt.claims))
		})
	}
}
