package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DefaultSessionTTL applies when the platform token carries no exp claim.
const DefaultSessionTTL = 24 * time.Hour

// Session is one signed-in browser or CLI profile.
type Session struct {
	ID         string    `json:"id"`
	UserID     int64     `json:"user_id"`
	Login      string    `json:"login"`
	Token      string    `json:"token"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

// NewSession creates a session for a parsed token.
func NewSession(tok Token, login string, now time.Time) *Session {
	expires := now.Add(DefaultSessionTTL)
	if tok.HasExpiry {
		expires = tok.ExpiresAt
	}
	return &Session{
		ID:         uuid.NewString(),
		UserID:     tok.UserID,
		Login:      login,
		Token:      tok.Raw,
		CreatedAt:  now,
		ExpiresAt:  expires,
		LastSeenAt: now,
	}
}

// Expired reports whether the session is past its expiry.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// TTL returns the remaining lifetime, never negative.
func (s *Session) TTL(now time.Time) time.Duration {
	d := s.ExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Store persists sessions. Get returns ErrSessionNotFound for unknown ids.
// Delete of a missing session is not an error.
type Store interface {
	Save(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
	PurgeExpired(ctx context.Context, now time.Time) (int, error)
}
