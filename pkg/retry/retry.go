// Package retry runs an operation again after transient failures, backing off
// exponentially with jitter. The platform client wraps every GraphQL and
// signin round trip in a Retrier.
package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MARKERS
// ══════════════════════════════════════════════════════════════════════════════

type verdict int

const (
	retry verdict = iota + 1
	stop
)

// markedError tags an error with a retry verdict.
type markedError struct {
	err     error
	verdict verdict
}

func (e *markedError) Error() string { return e.err.Error() }
func (e *markedError) Unwrap() error { return e.err }

func mark(err error, v verdict) error {
	if err == nil {
		return nil
	}
	return &markedError{err: err, verdict: v}
}

func verdictOf(err error) verdict {
	var m *markedError
	if errors.As(err, &m) {
		return m.verdict
	}
	return 0
}

// Retryable marks err as worth another attempt.
func Retryable(err error) error { return mark(err, retry) }

// Permanent marks err as final; Do returns it unwrapped without retrying.
func Permanent(err error) error { return mark(err, stop) }

// IsRetryable reports whether err was marked with Retryable.
func IsRetryable(err error) bool { return verdictOf(err) == retry }

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool { return verdictOf(err) == stop }

// unmark strips a marker added by this package.
func unmark(err error) error {
	var m *markedError
	if errors.As(err, &m) && m == err {
		return m.err
	}
	return err
}

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config holds retry settings.
type Config struct {
	// MaxAttempts counts the first call. Default 3.
	MaxAttempts int

	// InitialDelay before the second attempt. Default 100ms.
	InitialDelay time.Duration

	// MaxDelay caps a single back-off. Default 30s.
	MaxDelay time.Duration

	// Multiplier grows the delay per attempt. Default 2.
	Multiplier float64

	// JitterFactor spreads each delay by ±factor. Default 0.1.
	JitterFactor float64

	// RetryIf decides whether an error is transient. When nil only errors
	// marked Retryable are retried.
	RetryIf func(error) bool

	// OnRetry runs before each back-off sleep.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultConfig returns the default settings.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     30 * time.Second,
		Multiplier:   2,
		JitterFactor: 0.1,
	}
}

// Option adjusts a Config. Out-of-range values are ignored.
type Option func(*Config)

func WithMaxAttempts(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxAttempts = n
		}
	}
}

func WithInitialDelay(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.InitialDelay = d
		}
	}
}

func WithMaxDelay(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.MaxDelay = d
		}
	}
}

func WithMultiplier(m float64) Option {
	return func(c *Config) {
		if m >= 1 {
			c.Multiplier = m
		}
	}
}

func WithJitter(j float64) Option {
	return func(c *Config) {
		if j >= 0 && j <= 1 {
			c.JitterFactor = j
		}
	}
}

func WithRetryIf(fn func(error) bool) Option {
	return func(c *Config) { c.RetryIf = fn }
}

func WithOnRetry(fn func(attempt int, err error, delay time.Duration)) Option {
	return func(c *Config) { c.OnRetry = fn }
}

// ══════════════════════════════════════════════════════════════════════════════
// RETRIER
// ══════════════════════════════════════════════════════════════════════════════

// Retrier runs operations under one Config. It is safe for concurrent use.
type Retrier struct {
	config Config
}

// New creates a Retrier from DefaultConfig plus opts.
func New(opts ...Option) *Retrier {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Retrier{config: cfg}
}

func (r *Retrier) transient(err error) bool {
	if r.config.RetryIf != nil {
		return r.config.RetryIf(err)
	}
	return IsRetryable(err)
}

// Do calls operation until it succeeds, fails permanently, runs out of
// attempts or ctx is done. Markers added by this package are stripped from
// the returned error.
func (r *Retrier) Do(ctx context.Context, operation func(ctx context.Context) error) error {
	var last error

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			if last != nil {
				return unmark(last)
			}
			return err
		}

		err := operation(ctx)
		switch {
		case err == nil:
			return nil
		case IsPermanent(err), !r.transient(err), attempt >= r.config.MaxAttempts:
			return unmark(err)
		}
		last = err

		delay := r.calculateDelay(attempt)
		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return unmark(last)
		case <-timer.C:
		}
	}
}

// calculateDelay returns InitialDelay·Multiplier^(attempt-1), capped at
// MaxDelay, spread by the jitter factor.
func (r *Retrier) calculateDelay(attempt int) time.Duration {
	d := float64(r.config.InitialDelay)
	for i := 1; i < attempt && d < float64(r.config.MaxDelay); i++ {
		d *= r.config.Multiplier
	}
	d = min(d, float64(r.config.MaxDelay))

	if j := r.config.JitterFactor; j > 0 {
		d += d * j * (rand.Float64()*2 - 1)
	}
	return time.Duration(max(d, 0))
}

// Do runs operation with a one-off Retrier.
func Do(ctx context.Context, operation func(ctx context.Context) error, opts ...Option) error {
	return New(opts...).Do(ctx, operation)
}

// DoWithData is Do for operations that return a value.
func DoWithData[T any](ctx context.Context, operation func(ctx context.Context) (T, error), opts ...Option) (T, error) {
	var result T
	err := New(opts...).Do(ctx, func(ctx context.Context) error {
		v, err := operation(ctx)
		if err == nil {
			result = v
		}
		return err
	})
	return result, err
}
