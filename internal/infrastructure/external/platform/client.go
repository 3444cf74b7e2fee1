// Package platform implements the client for the 01-edu learning platform
// (learn.reboot01.com): credential signin and the Hasura GraphQL endpoint.
package platform

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"github.com/alem-hub/reboot-profile/internal/domain/shared"
	"github.com/alem-hub/reboot-profile/internal/infrastructure/metrics"
	"github.com/alem-hub/reboot-profile/pkg/logger"
	"github.com/alem-hub/reboot-profile/pkg/retry"
)

// Platform endpoints.
const (
	DefaultBaseURL = "https://learn.reboot01.com"
	SigninPath     = "/api/auth/signin"
	GraphQLPath    = "/api/graphql-engine/v1/graphql"

	maxResponseBytes = 16 << 20
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// BreakerConfig configures the circuit breaker around platform calls.
type BreakerConfig struct {
	// MaxRequests allowed through while half-open.
	MaxRequests uint32

	// Interval after which closed-state counts are cleared.
	Interval time.Duration

	// Timeout before an open breaker lets a trial request through.
	Timeout time.Duration

	// MinRequests before the failure ratio is considered.
	MinRequests uint32

	// FailureRatio that trips the breaker.
	FailureRatio float64
}

// DefaultBreakerConfig returns the default breaker settings.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:  3,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		MinRequests:  10,
		FailureRatio: 0.6,
	}
}

// ClientConfig contains configuration for the platform client.
type ClientConfig struct {
	// BaseURL is the platform origin, e.g. https://learn.reboot01.com
	BaseURL string

	// Timeout is the HTTP request timeout
	Timeout time.Duration

	// RateLimiter for outgoing requests
	RateLimiter RateLimiterConfig

	// Breaker for fault tolerance
	Breaker BreakerConfig

	// MaxAttempts per GraphQL query, including the first
	MaxAttempts int

	// RetryDelay is the initial back-off between attempts
	RetryDelay time.Duration

	// AuditLimit caps the audit list query. Status buckets are counted over
	// this list, so it must cover every audit a student has.
	AuditLimit int

	// UserAgent sent with every request
	UserAgent string

	// Logger for structured logging
	Logger *slog.Logger
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(baseURL string) ClientConfig {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return ClientConfig{
		BaseURL:     baseURL,
		Timeout:     15 * time.Second,
		RateLimiter: DefaultRateLimiterConfig(),
		Breaker:     DefaultBreakerConfig(),
		MaxAttempts: 3,
		RetryDelay:  300 * time.Millisecond,
		AuditLimit:  DefaultAuditLimit,
		UserAgent:   "reboot-profile/1.0",
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client talks to the learning platform.
type Client struct {
	config      ClientConfig
	httpClient  *http.Client
	logger      *slog.Logger
	rateLimiter *RateLimiter
	breaker     *gobreaker.CircuitBreaker[struct{}]
	retrier     *retry.Retrier
	mapper      *Mapper
}

// NewClient creates a new platform client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}

	c := &Client{
		config:      config,
		httpClient:  &http.Client{Timeout: config.Timeout},
		logger:      config.Logger.With(logger.Component("platform_client")),
		rateLimiter: NewRateLimiter(config.RateLimiter),
		mapper:      NewMapper(),
	}
	c.breaker = c.newBreaker(config.Breaker)
	c.retrier = retry.New(
		retry.WithMaxAttempts(config.MaxAttempts),
		retry.WithInitialDelay(config.RetryDelay),
		retry.WithMaxDelay(5*time.Second),
		retry.WithJitter(0.2),
		retry.WithRetryIf(shared.IsRetryable),
		retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			c.logger.Warn("retrying platform request",
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay),
				logger.Err(err),
			)
		}),
	)
	return c
}

func (c *Client) newBreaker(cfg BreakerConfig) *gobreaker.CircuitBreaker[struct{}] {
	const name = "platform"
	metrics.SetCircuitBreakerState(name, 0)

	return gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			metrics.SetCircuitBreakerState(name, breakerStateValue(to))
		},
		// Only outages count against the breaker; a rejected token or a bad
		// query says nothing about platform health.
		IsSuccessful: func(err error) bool {
			return err == nil || !shared.IsRetryable(err)
		},
	})
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// Healthy reports ErrCircuitOpen while the breaker refuses calls.
func (c *Client) Healthy(_ context.Context) error {
	if c.breaker.State() == gobreaker.StateOpen {
		return ErrCircuitOpen
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// AUTHENTICATION
// ══════════════════════════════════════════════════════════════════════════════

// SignIn exchanges an identifier (username or email) and password for a JWT.
// The returned token may still carry quotes; callers clean it.
func (c *Client) SignIn(ctx context.Context, identifier, password string) (string, error) {
	var token string
	err := c.execute(ctx, "signin", func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+SigninPath, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		credentials := base64.StdEncoding.EncodeToString([]byte(identifier + ":" + password))
		req.Header.Set("Authorization", "Basic "+credentials)
		req.Header.Set("Accept", "application/json")

		status, body, err := c.send(ctx, req)
		if err != nil {
			return err
		}
		switch {
		case status == http.StatusUnauthorized || status == http.StatusForbidden:
			return ErrInvalidCredentials
		case status < 200 || status > 299:
			return &HTTPError{StatusCode: status, Body: string(body)}
		}

		token, err = parseSigninBody(body)
		return err
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// parseSigninBody accepts a JSON string, an object with token/access_token,
// or a bare token.
func parseSigninBody(body []byte) (string, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return "", ErrEmptyToken
	}

	var token string
	switch trimmed[0] {
	case '"':
		if err := json.Unmarshal(trimmed, &token); err != nil {
			return "", fmt.Errorf("decode signin response: %w", err)
		}
	case '{':
		var obj signinObject
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return "", fmt.Errorf("decode signin response: %w", err)
		}
		token = obj.Token
		if token == "" {
			token = obj.AccessToken
		}
	default:
		token = string(trimmed)
	}

	if strings.TrimSpace(token) == "" {
		return "", ErrEmptyToken
	}
	return token, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// GRAPHQL
// ══════════════════════════════════════════════════════════════════════════════

// Query runs a GraphQL document with the bearer token and decodes data into out.
func (c *Client) Query(ctx context.Context, token, operation, document string, variables map[string]any, out any) error {
	payload, err := json.Marshal(GraphQLRequest{Query: document, Variables: variables})
	if err != nil {
		return fmt.Errorf("marshal graphql request: %w", err)
	}

	return c.execute(ctx, operation, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+GraphQLPath, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		status, body, err := c.send(ctx, req)
		if err != nil {
			return err
		}
		if status < 200 || status > 299 {
			return &HTTPError{StatusCode: status, Body: string(body)}
		}

		var resp GraphQLResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return shared.WrapError("platform", "Query", shared.ErrInvalidFormat, "malformed graphql response", err)
		}
		if len(resp.Errors) > 0 {
			return &GraphQLError{
				Message: resp.Errors[0].Message,
				Code:    resp.Errors[0].Extensions.Code,
				Errors:  resp.Errors,
			}
		}
		if out == nil || len(resp.Data) == 0 {
			return nil
		}
		if err := json.Unmarshal(resp.Data, out); err != nil {
			return shared.WrapError("platform", "Query", shared.ErrInvalidFormat, "unexpected graphql data shape", err)
		}
		return nil
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// HTTP REQUEST HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// execute runs attempt through the breaker, the retrier and the rate limiter,
// and records metrics for the whole call.
func (c *Client) execute(ctx context.Context, operation string, attempt func(ctx context.Context) error) error {
	start := time.Now()

	_, err := c.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, c.retrier.Do(ctx, func(ctx context.Context) error {
			if err := c.rateLimiter.Wait(ctx); err != nil {
				return retry.Permanent(err)
			}
			err := attempt(ctx)
			var rl *RateLimitError
			if errors.As(err, &rl) {
				c.rateLimiter.RecordRateLimitHit(rl.RetryAfter)
			}
			return err
		})
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = fmt.Errorf("%w: %w", ErrCircuitOpen, err)
	}

	metrics.RecordPlatformRequest(operation, outcome(err), time.Since(start))
	if err != nil && !IsAuthError(err) {
		c.logger.Warn("platform request failed",
			logger.Operation(operation),
			logger.Latency(time.Since(start)),
			logger.Err(err),
		)
	}
	return err
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case IsAuthError(err):
		return metrics.OutcomeDenied
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeError
	}
}

// send performs one HTTP exchange. Transport failures and 429 come back as
// retryable errors; every other status is left to the caller.
func (c *Client) send(ctx context.Context, req *http.Request) (int, []byte, error) {
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, nil, ctx.Err()
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return 0, nil, shared.WrapError("platform", "Request", shared.ErrTimeout, "platform timed out", err)
		}
		return 0, nil, shared.WrapError("platform", "Request", shared.ErrServiceUnavailable, "platform unreachable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, shared.WrapError("platform", "Request", shared.ErrServiceUnavailable, "read response", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		var retryAfter time.Duration
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if seconds, err := strconv.Atoi(ra); err == nil {
				retryAfter = time.Duration(seconds) * time.Second
			}
		}
		return 0, nil, &RateLimitError{RetryAfter: retryAfter}
	}

	return resp.StatusCode, body, nil
}
