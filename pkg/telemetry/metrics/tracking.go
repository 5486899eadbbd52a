package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rpcgate/rpcgate/pkg/config"
)

// TrackingMetrics tracks the batched background writers: call tracking and
// the access log.
//
// Metrics:
//   - rpcgate_tracking_flushes_total
//   - rpcgate_tracking_flush_failures_total
//   - rpcgate_tracking_changes_total
//   - rpcgate_tracking_queue_depth
//   - rpcgate_access_log_entries_total
type TrackingMetrics struct {
	flushesTotal     prometheus.Counter
	failuresTotal    prometheus.Counter
	changesTotal     prometheus.Counter
	queueDepth       prometheus.Gauge
	accessLogEntries prometheus.Counter
}

// NewTrackingMetrics creates and registers tracking metrics.
func NewTrackingMetrics(cfg *config.MetricsConfig, registry prometheus.Registerer) *TrackingMetrics {
	tm := &TrackingMetrics{
		flushesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "tracking",
			Name:      "flushes_total",
			Help:      "Call tracking batches written to the repository",
		}),
		failuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "tracking",
			Name:      "flush_failures_total",
			Help:      "Call tracking batches dropped after a failed write",
		}),
		changesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "tracking",
			Name:      "changes_total",
			Help:      "Per (ip, method) deltas successfully persisted",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: "tracking",
			Name:      "queue_depth",
			Help:      "Call outcomes waiting for the next flush",
		}),
		accessLogEntries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "access_log",
			Name:      "entries_total",
			Help:      "Access log entries written",
		}),
	}

	registry.MustRegister(tm.flushesTotal, tm.failuresTotal, tm.changesTotal, tm.queueDepth, tm.accessLogEntries)
	return tm
}

// RecordFlush records the result of one flush.
func (tm *TrackingMetrics) RecordFlush(changes int, err error) {
	if err != nil {
		tm.failuresTotal.Inc()
		return
	}
	tm.flushesTotal.Inc()
	tm.changesTotal.Add(float64(changes))
}
