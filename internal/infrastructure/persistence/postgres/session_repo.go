package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alem-hub/reboot-profile/internal/domain/session"
)

// SessionRepository stores dashboard sessions in PostgreSQL.
type SessionRepository struct {
	db Querier
}

// NewSessionRepository creates a repository on top of conn.
func NewSessionRepository(db Querier) *SessionRepository {
	return &SessionRepository{db: db}
}

var _ session.Store = (*SessionRepository)(nil)

const upsertSessionSQL = `
INSERT INTO dashboard_sessions (id, user_id, login, token, created_at, expires_at, last_seen_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
    user_id = EXCLUDED.user_id,
    login = EXCLUDED.login,
    token = EXCLUDED.token,
    expires_at = EXCLUDED.expires_at,
    last_seen_at = EXCLUDED.last_seen_at
`

// Save inserts or updates a session.
func (r *SessionRepository) Save(ctx context.Context, s *session.Session) error {
	_, err := r.db.Exec(ctx, upsertSessionSQL,
		s.ID, s.UserID, s.Login, s.Token, s.CreatedAt, s.ExpiresAt, s.LastSeenAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: save session: %w", err)
	}
	return nil
}

// sessionKey normalises a cookie value to the uuid primary key. ok is false
// for values that cannot name a stored session.
func sessionKey(id string) (key string, ok bool) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}

// Get loads a session by id. Ids that are not uuids are reported as not found.
func (r *SessionRepository) Get(ctx context.Context, id string) (*session.Session, error) {
	key, ok := sessionKey(id)
	if !ok {
		return nil, session.ErrSessionNotFound
	}

	var s session.Session
	err := r.db.QueryRow(ctx, `
		SELECT id::text, user_id, login, token, created_at, expires_at, last_seen_at
		FROM dashboard_sessions
		WHERE id = $1
	`, key).Scan(&s.ID, &s.UserID, &s.Login, &s.Token, &s.CreatedAt, &s.ExpiresAt, &s.LastSeenAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, session.ErrSessionNotFound
		}
		return nil, fmt.Errorf("postgres: get session: %w", err)
	}
	return &s, nil
}

// Delete removes a session. Missing sessions are ignored.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	key, ok := sessionKey(id)
	if !ok {
		return nil
	}
	if _, err := r.db.Exec(ctx, `DELETE FROM dashboard_sessions WHERE id = $1`, key); err != nil {
		return fmt.Errorf("postgres: delete session: %w", err)
	}
	return nil
}

// PurgeExpired deletes sessions whose expiry is before now.
func (r *SessionRepository) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM dashboard_sessions WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("postgres: purge sessions: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
