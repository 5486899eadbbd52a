package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/rpcgate/rpcgate/pkg/config"
)

// Request outcomes recorded by RecordProxyRequest.
const (
	OutcomeForwarded   = "forwarded"
	OutcomeRateLimited = "rate_limited"
	OutcomeRejected    = "rejected"
	OutcomeError       = "error"
)

// Rate limiter decisions recorded by RecordRateLimitDecision.
const (
	DecisionAllowed       = "allowed"
	DecisionBlocked       = "blocked"
	DecisionBlockedCached = "blocked_cached"
)

// Collector is the entry point for all metrics of the proxy.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	proxy     *ProxyMetrics
	backend   *BackendMetrics
	ratelimit *RateLimitMetrics
	tracking  *TrackingMetrics

	backendLabels *CardinalityLimiter
}

// NewCollector creates a collector registered with registry. A nil registry
// gets a fresh one with the Go runtime and process collectors attached.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if len(cfg.DurationBuckets) == 0 {
		cfg.DurationBuckets = config.DefaultDurationBuckets
	}

	return &Collector{
		config:        cfg,
		registry:      registry,
		proxy:         NewProxyMetrics(cfg, registry),
		backend:       NewBackendMetrics(cfg, registry),
		ratelimit:     NewRateLimitMetrics(cfg, registry),
		tracking:      NewTrackingMetrics(cfg, registry),
		backendLabels: NewCardinalityLimiter(256),
	}
}

// Registry returns the registry backing the collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

// RecordProxyRequest records the outcome and latency of one inbound request.
func (c *Collector) RecordProxyRequest(outcome string, duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.proxy.Record(outcome, duration)
}

// RecordBackendRequest records one backend round trip. A status of 0 means the
// request failed before a response was received.
func (c *Collector) RecordBackendRequest(backend string, status int, duration time.Duration) {
	if !c.enabled() {
		return
	}
	if !c.backendLabels.Allow(backend) {
		backend = "other"
	}
	c.backend.Record(backend, status, duration)
}

// RecordRateLimitDecision records a limiter decision for scope ("global" or
// "method").
func (c *Collector) RecordRateLimitDecision(scope, decision string) {
	if !c.enabled() {
		return
	}
	c.ratelimit.Record(scope, decision)
}

// RecordTrackingFlush records one call tracking flush of n changes.
func (c *Collector) RecordTrackingFlush(changes int, err error) {
	if !c.enabled() {
		return
	}
	c.tracking.RecordFlush(changes, err)
}

// SetTrackingQueueDepth reports the number of outcomes waiting to be flushed.
func (c *Collector) SetTrackingQueueDepth(n int) {
	if !c.enabled() {
		return
	}
	c.tracking.queueDepth.Set(float64(n))
}

// RecordAccessLogEntries records n access log lines written.
func (c *Collector) RecordAccessLogEntries(n int) {
	if !c.enabled() {
		return
	}
	c.tracking.accessLogEntries.Add(float64(n))
}

// CardinalityLimiter caps the number of distinct label values accepted.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether value is already known or there is room for it.
func (cl *CardinalityLimiter) Allow(value string) bool {
	cl.mu.RLock()
	_, exists := cl.current[value]
	cl.mu.RUnlock()
	if exists {
		return true
	}

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[value]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}
	cl.current[value] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
