// Package app wires configuration into the platform client, the session
// store and the command and query handlers shared by both binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alem-hub/reboot-profile/config"
	"github.com/alem-hub/reboot-profile/internal/application/command"
	"github.com/alem-hub/reboot-profile/internal/application/query"
	"github.com/alem-hub/reboot-profile/internal/domain/session"
	"github.com/alem-hub/reboot-profile/internal/infrastructure/external/platform"
	"github.com/alem-hub/reboot-profile/internal/infrastructure/metrics"
	"github.com/alem-hub/reboot-profile/internal/infrastructure/persistence/memory"
	"github.com/alem-hub/reboot-profile/internal/infrastructure/persistence/postgres"
	"github.com/alem-hub/reboot-profile/internal/infrastructure/persistence/redis"
	"github.com/alem-hub/reboot-profile/internal/infrastructure/security"
	"github.com/alem-hub/reboot-profile/internal/interface/http/handlers"
	"github.com/alem-hub/reboot-profile/pkg/logger"
)

// healthCheckTimeout bounds each /health check.
const healthCheckTimeout = 3 * time.Second

// App holds the assembled services.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Platform  *platform.Client
	Sessions  *session.Manager
	Login     *command.LoginHandler
	Logout    *command.LogoutHandler
	Dashboard *query.GetDashboardHandler
	Health    *handlers.CompositeHealthChecker

	closers []func()
}

// NewLogger builds the process logger from the observability settings.
func NewLogger(cfg *config.Config) *slog.Logger {
	opts := logger.DefaultOptions()
	opts.Level = cfg.Observability.LogLevel
	opts.Format = logger.Format(cfg.Observability.LogFormat)
	opts.Caller = cfg.IsDevelopment()
	return logger.New(opts).With(
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
	)
}

// PlatformClientConfig maps the platform section onto the client configuration.
func PlatformClientConfig(cfg *config.Config, log *slog.Logger) platform.ClientConfig {
	pc := platform.DefaultClientConfig(cfg.Platform.BaseURL)
	pc.Timeout = cfg.Platform.Timeout
	pc.RateLimiter.RequestsPerSecond = cfg.Platform.RequestsPerSecond
	pc.RateLimiter.BurstSize = cfg.Platform.Burst
	pc.MaxAttempts = cfg.Platform.MaxAttempts
	pc.RetryDelay = cfg.Platform.RetryDelay
	pc.Breaker.Timeout = cfg.Platform.BreakerTimeout
	pc.Breaker.MinRequests = cfg.Platform.BreakerMinRequests
	pc.Breaker.FailureRatio = cfg.Platform.BreakerFailureRatio
	pc.AuditLimit = cfg.Platform.AuditLimit
	pc.UserAgent = fmt.Sprintf("%s/%s", cfg.App.Name, cfg.App.Version)
	pc.Logger = log
	return pc
}

// ══════════════════════════════════════════════════════════════════════════════
// SESSION STORE
// ══════════════════════════════════════════════════════════════════════════════

// Store is an opened session store together with its health check.
type Store struct {
	session.Store

	// Ping is nil for in-process stores.
	Ping  handlers.Pinger
	Close func()
}

// OpenStore connects the backend named by session.store and seals tokens
// when a token secret is configured.
func OpenStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Store, error) {
	var (
		inner session.Store
		ping  handlers.Pinger
	)
	closeFn := func() {}

	switch cfg.Session.Store {
	case config.StoreMemory:
		inner = memory.NewSessionStore()

	case config.StoreRedis:
		rc := redis.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		}
		cache, err := redis.NewCache(rc)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		inner = redis.NewSessionStore(cache)
		ping = cache
		closeFn = func() { _ = cache.Close() }
		log.Info("redis session store connected", slog.String("addr", rc.Addr()))

	case config.StorePostgres:
		pool := postgres.DefaultPoolConfig()
		pool.MaxConns = cfg.Database.MaxConns
		pool.MinConns = cfg.Database.MinConns
		pool.MaxConnLifetime = cfg.Database.ConnMaxLifetime
		pool.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime

		conn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL, pool)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if cfg.Database.MigrateOnStart {
			if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
				conn.Close()
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
		inner = postgres.NewSessionRepository(conn)
		ping = conn
		closeFn = conn.Close
		log.Info("postgres session store connected")

	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.Session.Store)
	}

	cipher, err := security.NewTokenCipher(cfg.Security.TokenSecret)
	if err != nil {
		closeFn()
		return nil, fmt.Errorf("token cipher: %w", err)
	}
	if cipher.Enabled() {
		log.Info("session tokens are encrypted at rest")
	}

	return &Store{
		Store: security.NewSealedStore(inner, cipher),
		Ping:  ping,
		Close: closeFn,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ASSEMBLY
// ══════════════════════════════════════════════════════════════════════════════

// New assembles the services on top of an opened store. The returned App
// owns store and closes it in Close.
func New(cfg *config.Config, store *Store, log *slog.Logger) *App {
	client := platform.NewClient(PlatformClientConfig(cfg, log))

	sessions := session.NewManager(store, log, session.WithExpiryHook(func(reason session.ExpiryReason) {
		metrics.RecordSessionExpiration(string(reason))
	}))

	dashCfg := query.DefaultGetDashboardConfig()
	dashCfg.Location = cfg.App.Location
	dashCfg.TopSkills = cfg.Platform.TopSkills
	dashCfg.TopProjects = cfg.Platform.TopProjects
	dashCfg.OnPanelError = func(panel query.Panel, _ error) {
		metrics.RecordPanelError(string(panel))
	}

	health := handlers.NewCompositeHealthChecker(cfg.App.Version)
	health.SetTimeout(healthCheckTimeout)
	health.AddCheck("platform", handlers.NewUpstreamCheck(client))
	if store.Ping != nil {
		health.AddCheck("session_store", handlers.NewPingCheck(store.Ping))
	}

	a := &App{
		Config:    cfg,
		Logger:    log,
		Platform:  client,
		Sessions:  sessions,
		Login:     command.NewLoginHandler(client, sessions, log),
		Logout:    command.NewLogoutHandler(sessions),
		Dashboard: query.NewGetDashboardHandler(sessions, client, dashCfg, log),
		Health:    health,
	}
	if store.Close != nil {
		a.closers = append(a.closers, store.Close)
	}
	return a
}

// RunPurger removes expired sessions every interval until ctx is done.
func (a *App) RunPurger(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.purge(ctx)
		}
	}
}

func (a *App) purge(ctx context.Context) {
	n, err := a.Sessions.Purge(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			a.Logger.Warn("session purge failed", logger.Err(err))
		}
		return
	}
	metrics.RecordSessionsPurged(n)
	if n > 0 {
		a.Logger.Info("expired sessions purged", slog.Int("count", n))
	}
}

// Close releases the store connections.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
