// Package metrics exposes Prometheus collectors for reboot-profile.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels shared by the counters below.
const (
	OutcomeSuccess  = "success"
	OutcomeError    = "error"
	OutcomeRejected = "rejected"
	OutcomeDenied   = "denied"
)

var (
	// Platform client
	PlatformRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reboot_profile_platform_requests_total",
			Help: "Requests sent to the learning platform by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	PlatformRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reboot_profile_platform_request_duration_seconds",
			Help:    "Latency of learning platform requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reboot_profile_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Sessions
	Logins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reboot_profile_logins_total",
			Help: "Login attempts by outcome",
		},
		[]string{"outcome"},
	)

	SessionExpirations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reboot_profile_session_expirations_total",
			Help: "Sessions ended without the user asking, by reason",
		},
		[]string{"reason"},
	)

	SessionsPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reboot_profile_sessions_purged_total",
			Help: "Expired sessions removed by the background purge",
		},
	)

	// Dashboard
	DashboardLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reboot_profile_dashboard_loads_total",
			Help: "Dashboard assemblies by outcome",
		},
		[]string{"outcome"},
	)

	PanelErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reboot_profile_panel_errors_total",
			Help: "Dashboard panels that failed to load",
		},
		[]string{"panel"},
	)

	// HTTP
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reboot_profile_http_requests_total",
			Help: "HTTP requests served by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reboot_profile_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// RecordPlatformRequest records one platform call.
func RecordPlatformRequest(operation, outcome string, duration time.Duration) {
	PlatformRequests.WithLabelValues(operation, outcome).Inc()
	PlatformRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordLogin records a login attempt.
func RecordLogin(outcome string) {
	Logins.WithLabelValues(outcome).Inc()
}

// RecordSessionExpiration records a forced logout.
func RecordSessionExpiration(reason string) {
	SessionExpirations.WithLabelValues(reason).Inc()
}

// RecordSessionsPurged adds n purged sessions.
func RecordSessionsPurged(n int) {
	if n > 0 {
		SessionsPurged.Add(float64(n))
	}
}

// RecordDashboardLoad records a dashboard assembly.
func RecordDashboardLoad(err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	DashboardLoads.WithLabelValues(outcome).Inc()
}

// RecordPanelError records a failed dashboard panel.
func RecordPanelError(panel string) {
	PanelErrors.WithLabelValues(panel).Inc()
}

// RecordHTTPRequest records a served HTTP request.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// SetCircuitBreakerState publishes a breaker state as 0, 1 or 2.
func SetCircuitBreakerState(name string, state float64) {
	CircuitBreakerState.WithLabelValues(name).Set(state)
}
