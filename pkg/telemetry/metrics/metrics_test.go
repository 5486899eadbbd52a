package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpcgate/rpcgate/pkg/config"
)

func testCollector(t *testing.T) *Collector {
	t.Helper()
	return NewCollector(&config.MetricsConfig{
		Enabled:         true,
		Namespace:       "test",
		DurationBuckets: []float64{0.01, 0.1, 1},
	}, prometheus.NewRegistry())
}

func TestCollector_RecordProxyRequest(t *testing.T) {
	c := testCollector(t)

	c.RecordProxyRequest(OutcomeForwarded, 20*time.Millisecond)
	c.RecordProxyRequest(OutcomeForwarded, 30*time.Millisecond)
	c.RecordProxyRequest(OutcomeRateLimited, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.proxy.requestsTotal.WithLabelValues(OutcomeForwarded)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.proxy.requestsTotal.WithLabelValues(OutcomeRateLimited)))
}

func TestCollector_RecordBackendRequest(t *testing.T) {
	c := testCollector(t)

	c.RecordBackendRequest("node-1:8545", 200, time.Millisecond)
	c.RecordBackendRequest("node-1:8545", 503, time.Millisecond)
	c.RecordBackendRequest("node-1:8545", 0, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.backend.requestsTotal.WithLabelValues("node-1:8545", "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.backend.requestsTotal.WithLabelValues("node-1:8545", "5xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.backend.requestsTotal.WithLabelValues("node-1:8545", "error")))
}

func TestCollector_RecordTrackingFlush(t *testing.T) {
	c := testCollector(t)

	c.RecordTrackingFlush(3, nil)
	c.RecordTrackingFlush(2, errors.New("store down"))
	c.SetTrackingQueueDepth(7)
	c.RecordAccessLogEntries(4)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.tracking.flushesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.tracking.failuresTotal))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.tracking.changesTotal))
	assert.Equal(t, 7.0, testutil.ToFloat64(c.tracking.queueDepth))
	assert.Equal(t, 4.0, testutil.ToFloat64(c.tracking.accessLogEntries))
}

func TestCollector_NilAndDisabledAreNoops(t *testing.T) {
	var nilCollector *Collector
	nilCollector.RecordProxyRequest(OutcomeError, time.Second)
	nilCollector.RecordRateLimitDecision("global", DecisionBlocked)

	disabled := NewCollector(&config.MetricsConfig{Enabled: false}, prometheus.NewRegistry())
	disabled.RecordRateLimitDecision("global", DecisionBlocked)
	assert.Zero(t, testutil.ToFloat64(disabled.ratelimit.decisionsTotal.WithLabelValues("global", DecisionBlocked)))
}

func TestCardinalityLimiter(t *testing.T) {
	cl := NewCardinalityLimiter(2)

	assert.True(t, cl.Allow("a"))
	assert.True(t, cl.Allow("b"))
	assert.True(t, cl.Allow("a"))
	assert.False(t, cl.Allow("c"))
	assert.Equal(t, 2, cl.Count())
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", StatusClass(200))
	assert.Equal(t, "4xx", StatusClass(429))
	assert.Equal(t, "error", StatusClass(0))
}

func TestCollector_Handler(t *testing.T) {
	c := testCollector(t)
	c.RecordRateLimitDecision("method", DecisionAllowed)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `test_ratelimit_decisions_total{decision="allowed",scope="method"} 1`)
}
