package platform

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alem-hub/reboot-profile/internal/domain/shared"
)

// Client errors.
var (
	// ErrInvalidCredentials is returned when signin rejects the identifier/password pair.
	ErrInvalidCredentials = shared.NewDomainError("platform", "SignIn", shared.ErrUnauthorized, "invalid credentials")

	// ErrEmptyToken is returned when signin succeeds but carries no token.
	ErrEmptyToken = shared.NewDomainError("platform", "SignIn", shared.ErrEmptyValue, "signin returned no token")

	// ErrUnauthenticated is returned when the platform refuses the bearer token.
	ErrUnauthenticated = shared.NewDomainError("platform", "Query", shared.ErrUnauthorized, "token rejected by platform")

	// ErrCircuitOpen is returned while the breaker is refusing calls.
	ErrCircuitOpen = shared.NewDomainError("platform", "Request", shared.ErrServiceUnavailable, "platform circuit breaker is open")
)

// HTTPError is a non-2xx response from the platform.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	if body == "" {
		return fmt.Sprintf("platform: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("platform: HTTP %d: %s", e.StatusCode, body)
}

// Is maps status codes onto the shared error kinds.
func (e *HTTPError) Is(target error) bool {
	switch target {
	case ErrUnauthenticated, shared.ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case shared.ErrServiceUnavailable:
		return e.StatusCode >= 500
	case shared.ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	}
	return false
}

// GraphQLError is an application-level error reported in the GraphQL response body.
type GraphQLError struct {
	Message string
	Code    string
	Errors  []GraphQLErrorDTO
}

func (e *GraphQLError) Error() string {
	return "platform: graphql: " + e.Message
}

// Is classifies token problems as ErrUnauthenticated.
func (e *GraphQLError) Is(target error) bool {
	if target != ErrUnauthenticated && target != shared.ErrUnauthorized {
		return false
	}
	return isAuthMessage(e.Message) || e.Code == "invalid-jwt"
}

func isAuthMessage(msg string) bool {
	lower := strings.ToLower(msg)
	for _, marker := range []string{"jwt", "expired", "unauthorized", "session expired"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// RateLimitError is returned on HTTP 429.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("platform: rate limited, retry after %s", e.RetryAfter)
}

// Is matches shared.ErrRateLimited.
func (e *RateLimitError) Is(target error) bool {
	return target == shared.ErrRateLimited
}

// IsAuthError reports whether err means the caller must sign in again.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrUnauthenticated) || errors.Is(err, ErrInvalidCredentials)
}
