package session

import "github.com/alem-hub/reboot-profile/internal/domain/shared"

// Session domain errors.
var (
	ErrTokenEmpty      = shared.NewDomainError("session", "ParseToken", shared.ErrEmptyValue, "token is empty")
	ErrTokenMalformed  = shared.NewDomainError("session", "ParseToken", shared.ErrInvalidFormat, "token is malformed")
	ErrTokenExpired    = shared.NewDomainError("session", "ParseToken", shared.ErrExpired, "token has expired")
	ErrSessionNotFound = shared.NewDomainError("session", "Get", shared.ErrNotFound, "session not found")
	ErrSessionExpired  = shared.NewDomainError("session", "Check", shared.ErrExpired, "session has expired")
)

// ExpiredMessage is shown to users whose session ended because of token expiry.
const ExpiredMessage = "Your session has expired. Please login again."
