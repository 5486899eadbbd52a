package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rpcgate/rpcgate/pkg/config"
)

// RateLimitMetrics tracks admission decisions.
//
// Metrics:
//   - rpcgate_ratelimit_decisions_total{scope,decision}
type RateLimitMetrics struct {
	decisionsTotal *prometheus.CounterVec
}

// NewRateLimitMetrics creates and registers rate limit metrics.
func NewRateLimitMetrics(cfg *config.MetricsConfig, registry prometheus.Registerer) *RateLimitMetrics {
	rm := &RateLimitMetrics{
		decisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "ratelimit",
				Name:      "decisions_total",
				Help:      "Rate limiter decisions by scope",
			},
			[]string{"scope", "decision"},
		),
	}

	registry.MustRegister(rm.decisionsTotal)
	return rm
}

// Record records one decision.
func (rm *RateLimitMetrics) Record(scope, decision string) {
	rm.decisionsTotal.WithLabelValues(scope, decision).Inc()
}
