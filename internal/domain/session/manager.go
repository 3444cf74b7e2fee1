package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alem-hub/reboot-profile/pkg/logger"
)

// ExpiryReason labels why a session was ended without the user asking.
type ExpiryReason string

const (
	ReasonTokenExpired   ExpiryReason = "token_expired"
	ReasonTokenMalformed ExpiryReason = "token_malformed"
	ReasonRejected       ExpiryReason = "rejected_by_platform"
)

// Manager checks, starts and ends sessions.
type Manager struct {
	store    Store
	logger   *slog.Logger
	now      func() time.Time
	onExpire func(ExpiryReason)
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithClock overrides the time source.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// WithExpiryHook registers a callback for forced logouts.
func WithExpiryHook(fn func(ExpiryReason)) ManagerOption {
	return func(m *Manager) { m.onExpire = fn }
}

// NewManager creates a Manager backed by store.
func NewManager(store Store, log *slog.Logger, opts ...ManagerOption) *Manager {
	if log == nil {
		log = slog.Default()
	}
	m := &Manager{
		store:  store,
		logger: log.With(logger.Component("session_manager")),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Now returns the manager's current time.
func (m *Manager) Now() time.Time {
	return m.now()
}

// Begin validates a freshly issued token and stores a new session for it.
func (m *Manager) Begin(ctx context.Context, rawToken, login string) (*Session, error) {
	now := m.now()
	tok, err := ParseToken(rawToken, now)
	if err != nil {
		return nil, err
	}

	s := NewSession(tok, login, now)
	if err := m.store.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	m.logger.Info("session started",
		logger.SessionID(s.ID),
		logger.UserID(s.UserID),
		slog.Time("expires_at", s.ExpiresAt),
	)
	return s, nil
}

// Check loads a session and re-validates its token. A session whose token has
// expired or is structurally invalid is deleted and ErrSessionExpired returned.
func (m *Manager) Check(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}

	s, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := m.now()
	if _, err := ParseToken(s.Token, now); err != nil {
		reason := ReasonTokenMalformed
		if errors.Is(err, ErrTokenExpired) {
			reason = ReasonTokenExpired
		}
		return nil, m.expire(ctx, s.ID, reason)
	}
	if s.Expired(now) {
		return nil, m.expire(ctx, s.ID, ReasonTokenExpired)
	}

	s.LastSeenAt = now
	if err := m.store.Save(ctx, s); err != nil {
		m.logger.Warn("failed to touch session", logger.SessionID(s.ID), logger.Err(err))
	}
	return s, nil
}

// Update persists changes to an existing session, e.g. a resolved user id.
func (m *Manager) Update(ctx context.Context, s *Session) error {
	return m.store.Save(ctx, s)
}

// Invalidate ends a session the platform refused to serve.
func (m *Manager) Invalidate(ctx context.Context, id string) error {
	return m.expire(ctx, id, ReasonRejected)
}

// End deletes the session. Ending an unknown session is not an error.
func (m *Manager) End(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := m.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	m.logger.Info("session ended", logger.SessionID(id))
	return nil
}

// Purge removes expired sessions from the store.
func (m *Manager) Purge(ctx context.Context) (int, error) {
	return m.store.PurgeExpired(ctx, m.now())
}

func (m *Manager) expire(ctx context.Context, id string, reason ExpiryReason) error {
	if err := m.store.Delete(ctx, id); err != nil {
		m.logger.Error("failed to delete expired session", logger.SessionID(id), logger.Err(err))
	}
	if m.onExpire != nil {
		m.onExpire(reason)
	}
	m.logger.Info("session expired", logger.SessionID(id), slog.String("reason", string(reason)))
	return ErrSessionExpired
}

