// Package timeutil provides campus-timezone helpers.
// Reboot01 is in Bahrain (UTC+3, no DST); the zone is configurable so the
// same binary can serve another campus.
package timeutil

import (
	"fmt"
	"time"
)

// DefaultZoneName is the IANA name of the default campus zone.
const DefaultZoneName = "Asia/Bahrain"

// bahrainFallback is used when the tz database is not available in the image.
var bahrainFallback = time.FixedZone(DefaultZoneName, 3*60*60)

// LoadLocation resolves a zone name. An empty name resolves to the campus default.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultZoneName
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		if name == DefaultZoneName {
			return bahrainFallback, nil
		}
		return nil, fmt.Errorf("timeutil: load location %q: %w", name, err)
	}
	return loc, nil
}

// Campus returns the default campus location, never nil.
func Campus() *time.Location {
	loc, _ := LoadLocation(DefaultZoneName)
	return loc
}

// StartOfDay returns local midnight of t's day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// Window is the half-open interval [From, To). A zero To leaves it open-ended.
type Window struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	if t.Before(w.From) {
		return false
	}
	return w.To.IsZero() || t.Before(w.To)
}

// Today starts at local midnight and has no end, so rows stamped slightly
// ahead of the local clock still count.
func Today(now time.Time, loc *time.Location) Window {
	return Window{From: StartOfDay(now, loc)}
}

// LastWeek starts at local midnight seven days ago and has no end.
func LastWeek(now time.Time, loc *time.Location) Window {
	return Window{From: StartOfDay(now, loc).AddDate(0, 0, -7)}
}

// FormatDate formats a date the way the dashboard shows it (e.g. "Jan 2, 2006").
func FormatDate(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(loc).Format("Jan 2, 2006")
}

// FormatShortDate formats a chart axis label (e.g. "Jan 2").
func FormatShortDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("Jan 2")
}

// FormatDuration renders a duration in a compact human form.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		h := int(d.Hours())
		m := int(d.Minutes()) % 60
		if m == 0 {
			return fmt.Sprintf("%dh", h)
		}
		return fmt.Sprintf("%dh %dm", h, m)
	default:
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		if h == 0 {
			return fmt.Sprintf("%dd", days)
		}
		return fmt.Sprintf("%dd %dh", days, h)
	}
}
