package jsonrpc

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// Request is a parsed JSON-RPC 2.0 request envelope.
//
// Only the members the proxy acts on are decoded. Params stays raw and Raw
// holds the complete body as received.
type Request struct {
	// JSONRPC is always "2.0" for a successfully parsed request.
	JSONRPC string

	// Method is the invoked method name.
	Method string

	// ID is the raw JSON request id (string, number or null). It is nil for
	// notifications, i.e. when the member is absent.
	ID json.RawMessage

	// Params is the raw JSON of the "params" member, nil when absent.
	Params json.RawMessage

	// Raw is the full envelope.
	Raw []byte
}

// IsNotification reports whether the request carries no id.
func (r *Request) IsNotification() bool {
	return r.ID == nil
}

// ParseRequest validates body as a single JSON-RPC 2.0 request object.
//
// It returns ErrParse for invalid JSON, ErrBatchUnsupported for arrays,
// *UnsupportedVersionError when "jsonrpc" is not "2.0" and
// *InvalidRequestError for any other structural problem.
func ParseRequest(body []byte) (*Request, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrParse
	}

	root := gjson.ParseBytes(body)
	if root.IsArray() {
		return nil, ErrBatchUnsupported
	}
	if !root.IsObject() {
		return nil, &InvalidRequestError{Reason: "request must be a JSON object"}
	}

	id := root.Get("id")
	if id.Exists() {
		switch id.Type {
		case gjson.String, gjson.Number, gjson.Null:
		default:
			return nil, &InvalidRequestError{Field: "id", Reason: "must be a string, number or null"}
		}
	}

	version := root.Get("jsonrpc")
	if version.Type != gjson.String || version.Str != Version {
		verr := &UnsupportedVersionError{Raw: version.Raw}
		if version.Exists() {
			verr.Version = version.String()
		}
		if id.Exists() {
			verr.ID = []byte(id.Raw)
		}
		return nil, verr
	}

	method := root.Get("method")
	if !method.Exists() {
		return nil, &InvalidRequestError{Field: "method", Reason: "is required"}
	}
	if method.Type != gjson.String {
		return nil, &InvalidRequestError{Field: "method", Reason: "must be a string"}
	}

	req := &Request{
		JSONRPC: Version,
		Method:  method.Str,
		Raw:     body,
	}
	if id.Exists() {
		req.ID = json.RawMessage(id.Raw)
	}
	if params := root.Get("params"); params.Exists() {
		req.Params = json.RawMessage(params.Raw)
	}
	return req, nil
}
