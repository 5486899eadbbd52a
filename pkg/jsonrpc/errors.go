package jsonrpc

import (
	"errors"
	"fmt"
)

// Version is the only protocol version accepted by the proxy.
const Version = "2.0"

// Standard JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

var (
	// ErrParse is returned when the body is not valid JSON.
	ErrParse = errors.New("parse error")

	// ErrBatchUnsupported is returned for top-level JSON arrays.
	ErrBatchUnsupported = errors.New("batch requests are not supported")

	// ErrInvalidRequest is returned when the body is valid JSON but not a
	// valid request object.
	ErrInvalidRequest = errors.New("invalid request")
)

// InvalidRequestError describes which part of a request object is malformed.
type InvalidRequestError struct {
	// Field is the offending envelope member ("method", "id", ...).
	Field string

	// Reason is a short human-readable explanation.
	Reason string
}

func (e *InvalidRequestError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid request: %s", e.Reason)
	}
	return fmt.Sprintf("invalid request: %s %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidRequest) hold for every InvalidRequestError.
func (e *InvalidRequestError) Is(target error) bool {
	return target == ErrInvalidRequest
}

// UnsupportedVersionError is returned when the "jsonrpc" member is missing or
// not equal to "2.0".
type UnsupportedVersionError struct {
	// Version is the version string as sent, empty when the member is absent.
	Version string

	// Raw is the raw JSON of the member, empty when absent.
	Raw string

	// ID is the raw JSON id of the offending request, nil when absent.
	ID []byte
}

func (e *UnsupportedVersionError) Error() string {
	if e.Raw == "" {
		return "Unsupported JSON-RPC version: missing"
	}
	return fmt.Sprintf("Unsupported JSON-RPC version: %s", e.Version)
}
