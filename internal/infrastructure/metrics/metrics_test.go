package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordPlatformRequest(t *testing.T) {
	before := testutil.ToFloat64(PlatformRequests.WithLabelValues("xp_transactions", OutcomeSuccess))

	RecordPlatformRequest("xp_transactions", OutcomeSuccess, 20*time.Millisecond)

	after := testutil.ToFloat64(PlatformRequests.WithLabelValues("xp_transactions", OutcomeSuccess))
	assert.Equal(t, before+1, after)
}

func TestRecordDashboardLoad(t *testing.T) {
	okBefore := testutil.ToFloat64(DashboardLoads.WithLabelValues(OutcomeSuccess))
	errBefore := testutil.ToFloat64(DashboardLoads.WithLabelValues(OutcomeError))

	RecordDashboardLoad(nil)
	RecordDashboardLoad(errors.New("boom"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(DashboardLoads.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(DashboardLoads.WithLabelValues(OutcomeError)))
}

func TestRecordSessionsPurged_IgnoresZero(t *testing.T) {
	before := testutil.ToFloat64(SessionsPurged)

	RecordSessionsPurged(0)
	RecordSessionsPurged(3)

	assert.Equal(t, before+3, testutil.ToFloat64(SessionsPurged))
}

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequests.WithLabelValues("GET", "/", "200"))

	RecordHTTPRequest("GET", "/", 200, time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(HTTPRequests.WithLabelValues("GET", "/", "200")))
}

func TestSetCircuitBreakerState(t *testing.T) {
	SetCircuitBreakerState("platform", 2)
	assert.Equal(t, 2.0, testutil.ToFloat64(CircuitBreakerState.WithLabelValues("platform")))
}
