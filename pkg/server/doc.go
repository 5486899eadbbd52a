// Package server provides the HTTP listener of rpcgate.
//
// NewRouter mounts the JSON-RPC endpoint, the call statistics API, the
// health endpoints and the metrics endpoint on a chi router behind the common
// middleware: request IDs, trace context extraction, request logging and
// panic recovery. Server owns the net/http server lifecycle, optionally with
// TLS.
package server
