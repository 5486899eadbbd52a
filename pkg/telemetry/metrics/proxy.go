package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rpcgate/rpcgate/pkg/config"
)

// ProxyMetrics tracks inbound JSON-RPC requests.
//
// Metrics:
//   - rpcgate_proxy_requests_total{outcome}
//   - rpcgate_proxy_request_duration_seconds{outcome}
type ProxyMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewProxyMetrics creates and registers proxy metrics.
func NewProxyMetrics(cfg *config.MetricsConfig, registry prometheus.Registerer) *ProxyMetrics {
	pm := &ProxyMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "proxy",
				Name:      "requests_total",
				Help:      "Total number of JSON-RPC requests by outcome",
			},
			[]string{"outcome"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "proxy",
				Name:      "request_duration_seconds",
				Help:      "End-to-end duration of JSON-RPC requests in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"outcome"},
		),
	}

	registry.MustRegister(pm.requestsTotal, pm.requestDuration)
	return pm
}

// Record records one request.
func (pm *ProxyMetrics) Record(outcome string, duration time.Duration) {
	pm.requestsTotal.WithLabelValues(outcome).Inc()
	pm.requestDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}
