// Package jsonrpc provides the JSON-RPC 2.0 envelope types used by the proxy.
//
// Requests are never executed here. ParseRequest extracts just enough of the
// envelope (version, method, id) for admission control and error correlation,
// and keeps the raw body so it can be forwarded byte for byte.
//
// # Error codes
//
// The standard JSON-RPC 2.0 codes are exported as constants:
//
//	CodeParseError     = -32700
//	CodeInvalidRequest = -32600
//	CodeMethodNotFound = -32601
//	CodeInvalidParams  = -32602
//	CodeInternalError  = -32603
package jsonrpc
