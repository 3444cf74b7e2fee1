package command

import (
	"context"

	"github.com/alem-hub/reboot-profile/internal/domain/session"
)

// ══════════════════════════════════════════════════════════════════════════════
// LOGOUT COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// LogoutCommand identifies the session to close.
type LogoutCommand struct {
	SessionID string
}

// LogoutHandler handles the LogoutCommand.
type LogoutHandler struct {
	sessions *session.Manager
}

// NewLogoutHandler creates a new LogoutHandler.
func NewLogoutHandler(sessions *session.Manager) *LogoutHandler {
	return &LogoutHandler{sessions: sessions}
}

// Handle deletes the session. Logging out twice is not an error.
func (h *LogoutHandler) Handle(ctx context.Context, cmd LogoutCommand) error {
	return h.sessions.End(ctx, cmd.SessionID)
}
