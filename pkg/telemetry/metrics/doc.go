// Package metrics exposes Prometheus metrics for the proxy.
//
// A Collector owns its own registry and groups metric families by subsystem:
// proxy requests, backend calls, rate limiting, call tracking and access
// logging. All recording methods are safe on a nil or disabled Collector, so
// components can be constructed without metrics in tests.
//
// JSON-RPC method names are never used as label values: they are chosen by
// callers and would make label cardinality unbounded. Backend labels are
// bounded by configuration; a CardinalityLimiter still guards them.
//
// # Endpoint
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	router.Handle("/metrics", collector.Handler())
package metrics
