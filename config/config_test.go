package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points CONFIG_PATH at a missing-free temp dir so a stray
// config.yaml in the package dir never leaks into a test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(ConfigPathEnvVar, "")
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://learn.reboot01.com", cfg.Platform.BaseURL)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, StoreMemory, cfg.Session.Store)
	assert.Equal(t, "reboot_session", cfg.HTTP.CookieName)
	assert.Equal(t, 15*time.Second, cfg.Platform.Timeout)
	assert.Equal(t, "info", cfg.Observability.LogLevel)
	assert.Empty(t, cfg.HTTP.AllowedOrigins)
	require.NotNil(t, cfg.App.Location)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTPAddress())
	assert.Equal(t, 1000, cfg.Platform.AuditLimit)
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("PLATFORM_BASE_URL", "https://learn.example.com")
	t.Setenv("PLATFORM_TIMEOUT", "5s")
	t.Setenv("PLATFORM_BREAKER_FAILURE_RATIO", "0.5")
	t.Setenv("HTTP_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("HTTP_COOKIE_SECURE", "true")
	t.Setenv("LOG_FORMAT", "console")
	t.Setenv("PLATFORM_AUDIT_LIMIT", "2000")
	t.Setenv("UNRELATED_VARIABLE", "ignored")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, "https://learn.example.com", cfg.Platform.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Platform.Timeout)
	assert.InDelta(t, 0.5, cfg.Platform.BreakerFailureRatio, 1e-9)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.HTTP.AllowedOrigins)
	assert.True(t, cfg.HTTP.CookieSecure)
	assert.Equal(t, "console", cfg.Observability.LogFormat)
	assert.Equal(t, 2000, cfg.Platform.AuditLimit)
}

func TestLoad_File(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "profile.yaml")
	yaml := `
app:
  timezone: UTC
platform:
  audit_limit: 100
session:
  store: redis
  purge_interval: 1m
redis:
  host: cache.internal
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "UTC", cfg.App.Location.String())
	assert.Equal(t, 100, cfg.Platform.AuditLimit)
	assert.Equal(t, StoreRedis, cfg.Session.Store)
	assert.Equal(t, time.Minute, cfg.Session.PurgeInterval)
	assert.Equal(t, "cache.internal", cfg.Redis.Host)
	// untouched keys keep their defaults
	assert.Equal(t, 6379, cfg.Redis.Port)
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http:\n  port: 7000\n"), 0o600))
	t.Setenv("HTTP_PORT", "7001")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7001, cfg.HTTP.Port)
}

func TestLoad_MissingFile(t *testing.T) {
	isolate(t)
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config file")
}

func TestLoad_BadTimezone(t *testing.T) {
	isolate(t)
	t.Setenv("APP_TIMEZONE", "Mars/Olympus_Mons")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "app timezone")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "unknown store",
			mutate: func(c *Config) { c.Session.Store = "sqlite" },
			want:   "Session.Store",
		},
		{
			name:   "postgres without url",
			mutate: func(c *Config) { c.Session.Store = StorePostgres },
			want:   "DATABASE_URL is required",
		},
		{
			name:   "redis without host",
			mutate: func(c *Config) { c.Session.Store = StoreRedis; c.Redis.Host = "" },
			want:   "REDIS_HOST is required",
		},
		{
			name:   "short token secret",
			mutate: func(c *Config) { c.Security.TokenSecret = "short" },
			want:   "at least 16 characters",
		},
		{
			name:   "bad base url",
			mutate: func(c *Config) { c.Platform.BaseURL = "not a url" },
			want:   "Platform.BaseURL",
		},
		{
			name:   "failure ratio above one",
			mutate: func(c *Config) { c.Platform.BreakerFailureRatio = 1.5 },
			want:   "Platform.BreakerFailureRatio",
		},
		{
			name:   "pool min above max",
			mutate: func(c *Config) { c.Database.MinConns = 10 },
			want:   "DB_MIN_CONNS",
		},
		{
			name: "production needs secure cookie",
			mutate: func(c *Config) {
				c.App.Environment = EnvProduction
			},
			want: "HTTP_COOKIE_SECURE",
		},
		{
			name: "production persistent store needs secret",
			mutate: func(c *Config) {
				c.App.Environment = EnvProduction
				c.HTTP.CookieSecure = true
				c.Session.Store = StorePostgres
				c.Database.URL = "postgres://localhost/profile"
			},
			want: "SECURITY_TOKEN_SECRET is required",
		},
		{
			name:   "bad log level",
			mutate: func(c *Config) { c.Observability.LogLevel = "verbose" },
			want:   "Observability.LogLevel",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_Production(t *testing.T) {
	cfg := Default()
	cfg.App.Environment = EnvProduction
	cfg.HTTP.CookieSecure = true
	cfg.Session.Store = StorePostgres
	cfg.Database.URL = "postgres://localhost/profile"
	cfg.Security.TokenSecret = "0123456789abcdef0123"

	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.IsProduction())
}
