// Package telemetry groups the observability packages of rpcgate.
//
// # Components
//
//   - logging: slog setup, request ID propagation and the access log sink
//   - metrics: Prometheus collectors for proxy outcomes, backend calls, rate
//     limiter decisions and call tracking flushes
//   - tracing: OpenTelemetry tracer with OTLP gRPC export and W3C propagation
//   - health: liveness and readiness endpoints
//
// # Usage
//
//	logger, level, err := logging.New(cfg.Telemetry.Logging, os.Stdout)
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version)
//
//	ctx, span := tracer.Start(ctx, "backend.call")
//	defer span.End()
//
// All metric recorders are no-ops on a nil or disabled collector, so
// components accept a nil *metrics.Collector in tests.
package telemetry
