// Package main is the entry point of the reboot01 profile dashboard server.
//
// The server signs students in against learn.reboot01.com, keeps their
// session and renders XP, audit, project and skill charts from the
// platform's GraphQL API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alem-hub/reboot-profile/config"
	"github.com/alem-hub/reboot-profile/internal/app"
	httpserver "github.com/alem-hub/reboot-profile/internal/interface/http"
	"github.com/alem-hub/reboot-profile/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := app.NewLogger(cfg)
	log.Info("starting profile dashboard",
		slog.String("env", string(cfg.App.Environment)),
		slog.String("platform", cfg.Platform.BaseURL),
		slog.String("session_store", cfg.Session.Store),
		slog.String("timezone", cfg.App.Location.String()),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. SESSION STORE
	// ─────────────────────────────────────────────────────────────────────────
	store, err := app.OpenStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. SERVICES
	// ─────────────────────────────────────────────────────────────────────────
	a := app.New(cfg, store, log)
	defer a.Close()

	go a.RunPurger(ctx, cfg.Session.PurgeInterval)

	// ─────────────────────────────────────────────────────────────────────────
	// 5. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	srvCfg := httpserver.DefaultConfig()
	srvCfg.Host = cfg.HTTP.Host
	srvCfg.Port = cfg.HTTP.Port
	srvCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	srvCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	srvCfg.IdleTimeout = cfg.HTTP.IdleTimeout
	srvCfg.AllowedOrigins = cfg.HTTP.AllowedOrigins
	srvCfg.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	srvCfg.LoginRateLimitPerMinute = cfg.HTTP.LoginRateLimitPerMinute
	srvCfg.EnableMetrics = cfg.HTTP.EnableMetrics
	srvCfg.CookieName = cfg.HTTP.CookieName
	srvCfg.CookieSecure = cfg.HTTP.CookieSecure
	srvCfg.Version = cfg.App.Version

	server := httpserver.NewServer(srvCfg, httpserver.Dependencies{
		Login:     a.Login,
		Logout:    a.Logout,
		Dashboard: a.Dashboard,
		Health:    a.Health,
		Location:  cfg.App.Location,
		Logger:    log,
	})
	errCh := server.StartAsync()

	log.Info("profile dashboard is running", slog.String("address", server.Address()))

	// ─────────────────────────────────────────────────────────────────────────
	// 6. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	select {
	case <-ctx.Done():
		log.Info("received shutdown signal")
	case err := <-errCh:
		if err != nil {
			log.Error("http server stopped", logger.Err(err))
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("error during shutdown", logger.Err(err))
		return err
	}

	log.Info("profile dashboard stopped gracefully")
	return nil
}
