package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for JSON-RPC spans, following the OpenTelemetry RPC
// semantic conventions where one exists.
const (
	AttrRPCSystem      = attribute.Key("rpc.system")
	AttrRPCMethod      = attribute.Key("rpc.method")
	AttrClientAddress  = attribute.Key("client.address")
	AttrServerAddress  = attribute.Key("server.address")
	AttrHTTPStatusCode = attribute.Key("http.response.status_code")
)

// SetBackendAttributes annotates a backend call span.
func SetBackendAttributes(span trace.Span, method, clientIP, backend string) {
	span.SetAttributes(
		AttrRPCSystem.String("jsonrpc"),
		AttrRPCMethod.String(method),
		AttrClientAddress.String(clientIP),
		AttrServerAddress.String(backend),
	)
}

// SetStatusCode records the backend HTTP status on span.
func SetStatusCode(span trace.Span, status int) {
	span.SetAttributes(AttrHTTPStatusCode.Int(status))
}
