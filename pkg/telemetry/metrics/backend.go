package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rpcgate/rpcgate/pkg/config"
)

// BackendMetrics tracks calls to backend JSON-RPC servers.
//
// Metrics:
//   - rpcgate_backend_requests_total{backend,status_class}
//   - rpcgate_backend_request_duration_seconds{backend}
type BackendMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewBackendMetrics creates and registers backend metrics.
func NewBackendMetrics(cfg *config.MetricsConfig, registry prometheus.Registerer) *BackendMetrics {
	bm := &BackendMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "backend",
				Name:      "requests_total",
				Help:      "Total number of backend requests by status class",
			},
			[]string{"backend", "status_class"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "backend",
				Name:      "request_duration_seconds",
				Help:      "Duration of backend round trips in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"backend"},
		),
	}

	registry.MustRegister(bm.requestsTotal, bm.requestDuration)
	return bm
}

// Record records one backend round trip.
func (bm *BackendMetrics) Record(backend string, status int, duration time.Duration) {
	bm.requestsTotal.WithLabelValues(backend, StatusClass(status)).Inc()
	bm.requestDuration.WithLabelValues(backend).Observe(duration.Seconds())
}

// StatusClass maps an HTTP status to "2xx".."5xx", or "error" for 0.
func StatusClass(status int) string {
	if status < 100 || status > 599 {
		return "error"
	}
	return strconv.Itoa(status/100) + "xx"
}
