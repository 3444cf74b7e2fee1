package platform

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ══════════════════════════════════════════════════════════════════════════════
// RATE LIMITER
// ══════════════════════════════════════════════════════════════════════════════

// RateLimiterConfig contains configuration for the client-side rate limiter.
type RateLimiterConfig struct {
	// RequestsPerSecond is the maximum sustained request rate.
	RequestsPerSecond float64

	// BurstSize is the number of requests allowed back to back.
	// A dashboard load fans out nine queries at once.
	BurstSize int

	// WaitTimeout is the maximum time to wait for a token.
	WaitTimeout time.Duration

	// RetryAfter is the pause applied on HTTP 429 without a Retry-After header.
	RetryAfter time.Duration
}

// DefaultRateLimiterConfig returns defaults sized for a handful of concurrent users.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerSecond: 10,
		BurstSize:         20,
		WaitTimeout:       10 * time.Second,
		RetryAfter:        30 * time.Second,
	}
}

// RateLimiter throttles outgoing platform requests and honours 429 back-off.
type RateLimiter struct {
	limiter     *rate.Limiter
	waitTimeout time.Duration
	retryAfter  time.Duration

	mu          sync.Mutex
	pausedUntil time.Time
}

// NewRateLimiter creates a limiter from config.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	limit := rate.Inf
	if config.RequestsPerSecond > 0 {
		limit = rate.Limit(config.RequestsPerSecond)
	}
	burst := config.BurstSize
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limiter:     rate.NewLimiter(limit, burst),
		waitTimeout: config.WaitTimeout,
		retryAfter:  config.RetryAfter,
	}
}

// Wait blocks until a request may be sent or the context ends.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if pause := rl.pauseRemaining(); pause > 0 {
		timer := time.NewTimer(pause)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	if rl.waitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rl.waitTimeout)
		defer cancel()
	}
	if err := rl.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}

// RecordRateLimitHit pauses all requests after the platform answered 429.
func (rl *RateLimiter) RecordRateLimitHit(retryAfter time.Duration) {
	if retryAfter <= 0 {
		retryAfter = rl.retryAfter
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	until := time.Now().Add(retryAfter)
	if until.After(rl.pausedUntil) {
		rl.pausedUntil = until
	}
}

func (rl *RateLimiter) pauseRemaining() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return time.Until(rl.pausedUntil)
}
