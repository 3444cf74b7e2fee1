// Package http serves the profile dashboard: login and logout pages, the
// dashboard page with its SVG charts, and a JSON view of the same data.
package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alem-hub/reboot-profile/internal/application/command"
	"github.com/alem-hub/reboot-profile/internal/application/query"
	"github.com/alem-hub/reboot-profile/internal/infrastructure/metrics"
	"github.com/alem-hub/reboot-profile/internal/interface/http/handlers"
	"github.com/alem-hub/reboot-profile/pkg/logger"
	"github.com/alem-hub/reboot-profile/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// SERVER CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config controls the listener, the session cookie and the per-IP limits.
// Zero rate limits disable limiting.
type Config struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int

	// AllowedOrigins turns on CORS for /api/v1.
	AllowedOrigins []string

	RateLimitPerMinute      int
	LoginRateLimitPerMinute int

	EnableMetrics bool

	CookieName string
	// CookieSecure should be set when served over TLS.
	CookieSecure bool

	Version string
}

func DefaultConfig() Config {
	return Config{
		Host:                    "0.0.0.0",
		Port:                    8080,
		ReadTimeout:             15 * time.Second,
		WriteTimeout:            30 * time.Second,
		IdleTimeout:             time.Minute,
		MaxHeaderBytes:          1 << 20,
		RateLimitPerMinute:      120,
		LoginRateLimitPerMinute: 10,
		EnableMetrics:           true,
		CookieName:              "reboot_session",
		Version:                 "dev",
	}
}

// Address is the listen address.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// LoginService opens a session from credentials.
type LoginService interface {
	Handle(ctx context.Context, cmd command.LoginCommand) (*command.LoginResult, error)
}

// LogoutService ends a session.
type LogoutService interface {
	Handle(ctx context.Context, cmd command.LogoutCommand) error
}

// DashboardService assembles the dashboard of a session.
type DashboardService interface {
	Handle(ctx context.Context, q query.GetDashboardQuery) (*query.Dashboard, error)
}

// Dependencies are the services behind the handlers.
type Dependencies struct {
	Login     LoginService
	Logout    LogoutService
	Dashboard DashboardService

	// Health is optional; without it /health only reports uptime.
	Health handlers.HealthChecker

	// Location is the campus timezone used for chart axes.
	Location *time.Location

	Logger *slog.Logger
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER
// ══════════════════════════════════════════════════════════════════════════════

// Server serves the dashboard pages and the JSON API.
type Server struct {
	config     Config
	deps       Dependencies
	router     chi.Router
	httpServer *http.Server
	logger     *slog.Logger

	mu        sync.RWMutex
	running   bool
	startedAt time.Time
}

// NewServer builds the router. Missing optional dependencies get defaults.
func NewServer(config Config, deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Location == nil {
		deps.Location = timeutil.Campus()
	}
	if config.CookieName == "" {
		config.CookieName = DefaultConfig().CookieName
	}

	s := &Server{
		config:    config,
		deps:      deps,
		logger:    deps.Logger.With(logger.Component("http")),
		startedAt: time.Now(),
	}
	s.router = s.routes()
	s.httpServer = &http.Server{
		Addr:           config.Address(),
		Handler:        s.router,
		ReadTimeout:    config.ReadTimeout,
		WriteTimeout:   config.WriteTimeout,
		IdleTimeout:    config.IdleTimeout,
		MaxHeaderBytes: config.MaxHeaderBytes,
	}
	return s
}

// ══════════════════════════════════════════════════════════════════════════════
// ROUTING
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(handlers.RequestID(s.logger))
	r.Use(handlers.Recover)
	r.Use(handlers.Observe(metrics.RecordHTTPRequest))
	r.Use(handlers.SecurityHeaders)
	if s.config.RateLimitPerMinute > 0 {
		r.Use(httprate.LimitByIP(s.config.RateLimitPerMinute, time.Minute))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Health & Metrics
	// ─────────────────────────────────────────────────────────────────────────
	r.Get("/health", s.handleHealth)
	if s.config.EnableMetrics {
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Pages
	// ─────────────────────────────────────────────────────────────────────────
	r.Group(func(r chi.Router) {
		r.Use(handlers.NoCache)

		r.Get("/login", s.handleLoginPage)
		if s.config.LoginRateLimitPerMinute > 0 {
			r.With(httprate.LimitByIP(s.config.LoginRateLimitPerMinute, time.Minute)).Post("/login", s.handleLogin)
		} else {
			r.Post("/login", s.handleLogin)
		}
		r.Post("/logout", s.handleLogout)
		r.Get("/", s.handleDashboard)
		r.Get("/charts/{name}.svg", s.handleChart)
	})

	// ─────────────────────────────────────────────────────────────────────────
	// API v1
	// ─────────────────────────────────────────────────────────────────────────
	r.Route("/api/v1", func(r chi.Router) {
		if len(s.config.AllowedOrigins) > 0 {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins:   s.config.AllowedOrigins,
				AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
				AllowedHeaders:   []string{"Content-Type", handlers.RequestIDHeader},
				ExposedHeaders:   []string{handlers.RequestIDHeader},
				AllowCredentials: true,
				MaxAge:           300,
			}))
		}
		r.Use(handlers.NoCache)
		r.Get("/dashboard", s.handleDashboardJSON)
	})

	return r
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

var errAlreadyRunning = errors.New("http: server already running")

// Start blocks serving requests. It returns nil after Shutdown.
func (s *Server) Start() error {
	if err := s.markRunning(true); err != nil {
		return err
	}
	s.logger.Info("listening", slog.String("address", s.config.Address()))

	if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http: serve: %w", err)
	}
	return nil
}

// StartAsync runs Start in the background. The channel yields Start's error,
// if any, and is then closed.
func (s *Server) StartAsync() <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		if err := s.Start(); err != nil {
			done <- err
		}
	}()
	return done
}

// Shutdown drains in-flight requests until ctx expires. Calling it on a
// server that is not running does nothing.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.markRunning(false) != nil {
		return nil
	}
	s.logger.Info("draining connections")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) markRunning(running bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running == running {
		return errAlreadyRunning
	}
	s.running = running
	if running {
		s.startedAt = time.Now()
	}
	return nil
}

// Uptime is measured from construction or the latest Start.
func (s *Server) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Since(s.startedAt)
}

func (s *Server) Address() string {
	return s.config.Address()
}
