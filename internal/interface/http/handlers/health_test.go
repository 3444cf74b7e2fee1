package handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompositeHealthChecker_NoChecks(t *testing.T) {
	status := NewCompositeHealthChecker("1.0.0").Check(context.Background())

	assert.True(t, status.Healthy)
	assert.Equal(t, "No health checks registered", status.Message)
	assert.Equal(t, "1.0.0", status.Version)
}

func TestCompositeHealthChecker_ReportsFailuresSorted(t *testing.T) {
	c := NewCompositeHealthChecker("dev")
	c.AddCheck("session_store", func(context.Context) error { return errors.New("dial refused") })
	c.AddCheck("platform", func(context.Context) error { return errors.New("breaker open") })
	c.AddCheck("cache", func(context.Context) error { return nil })

	status := c.Check(context.Background())

	assert.False(t, status.Healthy)
	assert.Equal(t, "Some checks failed: platform, session_store", status.Message)
	require.Len(t, status.Checks, 3)
	assert.True(t, status.Checks["cache"].Healthy)
	assert.Equal(t, "OK", status.Checks["cache"].Message)
	assert.Equal(t, "dial refused", status.Checks["session_store"].Message)
}

func TestCompositeHealthChecker_Timeout(t *testing.T) {
	c := NewCompositeHealthChecker("dev")
	c.SetTimeout(20 * time.Millisecond)
	c.AddCheck("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	status := c.Check(context.Background())

	assert.False(t, status.Healthy)
	assert.Equal(t, context.DeadlineExceeded.Error(), status.Checks["slow"].Message)
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestNewPingCheck(t *testing.T) {
	down := errors.New("down")
	check := NewPingCheck(pingFunc(func(context.Context) error { return down }))
	assert.ErrorIs(t, check(context.Background()), down)
}
