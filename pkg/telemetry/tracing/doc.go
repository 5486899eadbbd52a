// Package tracing wires OpenTelemetry distributed tracing.
//
// When enabled, spans are exported over OTLP/gRPC and the W3C Trace Context
// and Baggage propagators are installed globally. The server middleware
// extracts an inbound traceparent; the forward stage starts a client span per
// backend call and injects the context into the outbound headers, so backend
// spans join the caller's trace.
//
// When disabled, New returns a tracer backed by a noop provider and the global
// propagator is left untouched.
//
// # Sampling
//
//	telemetry:
//	  tracing:
//	    enabled: true
//	    endpoint: otel-collector:4317
//	    insecure: true
//	    sampler: ratio
//	    sample_ratio: 0.1
//
// Every sampler is wrapped in ParentBased, so an upstream sampling decision
// always wins.
package tracing
