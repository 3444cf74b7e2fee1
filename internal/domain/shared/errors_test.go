package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Is(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := WrapError("platform", "Query", ErrServiceUnavailable, "platform unreachable", cause)

	assert.ErrorIs(t, err, ErrServiceUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsExternalService(err))
	assert.True(t, IsRetryable(err))
	assert.False(t, IsNotFound(err))
	assert.Equal(t, "platform.Query: platform unreachable: dial tcp: refused", err.Error())
}

func TestDomainError_SentinelIdentity(t *testing.T) {
	a := NewDomainError("session", "Check", ErrExpired, "session expired")
	b := NewDomainError("session", "Check", ErrExpired, "session expired")

	wrapped := fmt.Errorf("load dashboard: %w", a)

	assert.ErrorIs(t, wrapped, a)
	assert.ErrorIs(t, wrapped, ErrExpired)
	assert.NotErrorIs(t, wrapped, b)
}

func TestIsExternalService(t *testing.T) {
	timedOut := NewDomainError("platform", "Request", ErrTimeout, "platform timed out")
	assert.True(t, IsExternalService(fmt.Errorf("fetch xp: %w", timedOut)))
	assert.False(t, IsExternalService(NewDomainError("session", "Parse", ErrInvalidFormat, "bad token")))
}

func TestIsUnauthorized(t *testing.T) {
	rejected := NewDomainError("platform", "Query", ErrUnauthorized, "token rejected")
	assert.True(t, IsUnauthorized(fmt.Errorf("fetch xp: %w", rejected)))
	assert.False(t, IsUnauthorized(ErrServiceUnavailable))
}
