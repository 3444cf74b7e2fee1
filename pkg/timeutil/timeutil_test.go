package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLocation(t *testing.T) {
	loc, err := LoadLocation("")
	require.NoError(t, err)
	assert.NotNil(t, loc)

	utc, err := LoadLocation("UTC")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, utc)

	_, err = LoadLocation("Not/AZone")
	assert.Error(t, err)
}

func TestStartOfDay_UsesLocation(t *testing.T) {
	zone := time.FixedZone("campus", 3*60*60)
	// 22:30 UTC on Mar 1 is 01:30 on Mar 2 in the campus zone.
	ts := time.Date(2024, 3, 1, 22, 30, 0, 0, time.UTC)

	got := StartOfDay(ts, zone)

	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, zone), got)
}

func TestWindows(t *testing.T) {
	zone := time.FixedZone("campus", 3*60*60)
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, zone)

	today := Today(now, zone)
	assert.True(t, today.Contains(time.Date(2024, 3, 10, 0, 0, 0, 0, zone)))
	assert.True(t, today.Contains(now))
	assert.False(t, today.Contains(time.Date(2024, 3, 9, 23, 59, 0, 0, zone)))

	week := LastWeek(now, zone)
	assert.True(t, week.Contains(time.Date(2024, 3, 3, 0, 0, 0, 0, zone)))
	assert.False(t, week.Contains(time.Date(2024, 3, 2, 23, 59, 0, 0, zone)))
	assert.True(t, week.Contains(now.Add(time.Hour)), "open-ended")
	assert.True(t, today.Contains(now.Add(30*time.Second)), "clock skew")

	bounded := Window{From: now, To: now.Add(time.Hour)}
	assert.True(t, bounded.Contains(now))
	assert.False(t, bounded.Contains(now.Add(time.Hour)))
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{30 * time.Second, "30s"},
		{5 * time.Minute, "5m"},
		{2 * time.Hour, "2h"},
		{2*time.Hour + 15*time.Minute, "2h 15m"},
		{49 * time.Hour, "2d 1h"},
		{-3 * time.Minute, "3m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.in))
	}
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "-", FormatDate(time.Time{}, time.UTC))
	assert.Equal(t, "Mar 2, 2024", FormatDate(time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC), time.UTC))
}
