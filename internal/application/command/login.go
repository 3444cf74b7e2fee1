// Package command contains write operations (CQRS - Commands).
// Commands change session state: signing in and signing out.
package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alem-hub/reboot-profile/internal/domain/session"
	"github.com/alem-hub/reboot-profile/internal/domain/shared"
	"github.com/alem-hub/reboot-profile/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// LOGIN COMMAND
// Exchanges platform credentials for a bearer token and opens a session.
// ══════════════════════════════════════════════════════════════════════════════

// Login errors carry the message shown on the login form.
var (
	ErrMissingCredentials = shared.NewDomainError("login", "Validate", shared.ErrValidation,
		"Please enter both username/email and password")

	ErrInvalidCredentials = shared.NewDomainError("login", "SignIn", shared.ErrUnauthorized,
		"Invalid username/email or password. Please try again.")
)

// LoginCommand contains the credentials typed by the user.
type LoginCommand struct {
	// Identifier is a platform login or email address.
	Identifier string

	// Password is sent once to the signin endpoint and never stored.
	Password string
}

// Validate checks that both fields are filled in.
func (c LoginCommand) Validate() error {
	if strings.TrimSpace(c.Identifier) == "" || c.Password == "" {
		return ErrMissingCredentials
	}
	return nil
}

// LoginResult contains the opened session.
type LoginResult struct {
	Session *session.Session
}

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES (Interfaces)
// ══════════════════════════════════════════════════════════════════════════════

// Authenticator exchanges credentials for a platform token.
type Authenticator interface {
	SignIn(ctx context.Context, identifier, password string) (string, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// LoginHandler handles the LoginCommand.
type LoginHandler struct {
	auth     Authenticator
	sessions *session.Manager
	logger   *slog.Logger
}

// NewLoginHandler creates a new LoginHandler.
func NewLoginHandler(auth Authenticator, sessions *session.Manager, log *slog.Logger) *LoginHandler {
	if log == nil {
		log = slog.Default()
	}
	return &LoginHandler{auth: auth, sessions: sessions, logger: log.With(logger.Component("login"))}
}

// Handle signs in and starts a session.
func (h *LoginHandler) Handle(ctx context.Context, cmd LoginCommand) (*LoginResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	identifier := strings.TrimSpace(cmd.Identifier)

	token, err := h.auth.SignIn(ctx, identifier, cmd.Password)
	if err != nil {
		if shared.IsUnauthorized(err) {
			h.logger.Info("login rejected", logger.Login(identifier))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	s, err := h.sessions.Begin(ctx, token, identifier)
	if err != nil {
		if errors.Is(err, session.ErrTokenExpired) || errors.Is(err, session.ErrTokenMalformed) || errors.Is(err, session.ErrTokenEmpty) {
			h.logger.Warn("platform issued an unusable token", logger.Login(identifier), logger.Err(err))
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	h.logger.Info("login succeeded",
		logger.Login(identifier),
		logger.UserID(s.UserID),
	)
	return &LoginResult{Session: s}, nil
}
