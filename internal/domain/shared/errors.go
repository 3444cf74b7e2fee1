// Package shared holds the error kinds every domain package reports with.
package shared

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	ErrNotFound = errors.New("not found")
	ErrExpired  = errors.New("expired")

	ErrValidation    = errors.New("validation error")
	ErrEmptyValue    = errors.New("empty value")
	ErrInvalidFormat = errors.New("invalid format")

	ErrUnauthorized = errors.New("unauthorized")

	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("timeout")
	ErrRateLimited        = errors.New("rate limited")
)

var transientKinds = []error{ErrServiceUnavailable, ErrTimeout, ErrRateLimited}

// DomainError records where a failure happened and what kind it is.
//
// Error renders as "domain.Op: message[: cause]".
type DomainError struct {
	Domain  string
	Op      string
	Kind    error
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	s := e.Domain + "." + e.Op + ": " + e.Message
	if e.Err != nil {
		s = fmt.Sprintf("%s: %v", s, e.Err)
	}
	return s
}

// Unwrap exposes the cause, falling back to the kind.
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is matches the same *DomainError pointer, the kind, or anything the cause
// matches.
func (e *DomainError) Is(target error) bool {
	if de, ok := target.(*DomainError); ok {
		return e == de
	}
	return (e.Kind != nil && errors.Is(e.Kind, target)) ||
		(e.Err != nil && errors.Is(e.Err, target))
}

func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{Domain: domain, Op: op, Kind: kind, Message: message}
}

// WrapError is NewDomainError with a cause.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	de := NewDomainError(domain, op, kind, message)
	de.Err = err
	return de
}

func isAny(err error, kinds []error) bool {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return true
		}
	}
	return false
}

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

func IsUnauthorized(err error) bool { return errors.Is(err, ErrUnauthorized) }

// IsExternalService reports a failure of the platform or another upstream.
func IsExternalService(err error) bool { return isAny(err, transientKinds) }

// IsRetryable reports failures worth another attempt. Every upstream kind
// is currently transient.
func IsRetryable(err error) bool { return isAny(err, transientKinds) }
