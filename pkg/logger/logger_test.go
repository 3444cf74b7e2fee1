package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Level: "debug", Format: FormatJSON})

	log.Info("dashboard loaded", UserID(42), Operation("load"), Err(errors.New("boom")))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "dashboard loaded", entry["message"])
	assert.EqualValues(t, 42, entry["user_id"])
	assert.Equal(t, "load", entry["operation"])
	assert.Equal(t, "boom", entry["error"])
}

func TestNew_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Level: "warn"})

	log.Info("hidden")
	assert.Zero(t, buf.Len())

	log.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestWithGroupAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Level: "info"}).
		With(Component("http")).
		WithGroup("req").
		With(slog.String("method", "GET")).
		WithGroup("chart")

	log.Info("served", slog.String("name", "xp"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "http", entry["component"], "attrs added before a group stay ungrouped")
	assert.Equal(t, "GET", entry["req.method"])
	assert.Equal(t, "xp", entry["req.chart.name"])
	assert.NotContains(t, entry, "req.component")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("nonsense"))
}

func TestContextRoundTrip(t *testing.T) {
	log := Nop()
	ctx := WithContext(context.Background(), log)
	assert.Same(t, log, FromContext(ctx))
	assert.NotNil(t, FromContext(context.Background()))
}

func TestSessionIDIsShortened(t *testing.T) {
	attr := SessionID("0123456789abcdef")
	assert.Equal(t, "01234567", attr.Value.String())
}
