package proxy

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rpcgate/rpcgate/pkg/jsonrpc"
)

// PublicError is an error that is reported to the caller as a JSON-RPC
// error envelope.
type PublicError struct {
	HTTPStatus int
	Code       int
	Message    string
	Data       any

	// ID is the raw id of the offending request, nil when unknown.
	ID json.RawMessage

	Err error
}

func (e *PublicError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%d %s", e.Code, e.Message)
}

func (e *PublicError) Unwrap() error {
	return e.Err
}

// Envelope returns the JSON-RPC response for the error.
func (e *PublicError) Envelope() *jsonrpc.Response {
	return jsonrpc.NewErrorResponse(e.ID, e.Code, e.Message, e.Data)
}

// NewBodyTooLargeError reports a request body over the configured limit.
func NewBodyTooLargeError(limit int64) *PublicError {
	return &PublicError{
		HTTPStatus: http.StatusRequestEntityTooLarge,
		Code:       jsonrpc.CodeInvalidRequest,
		Message:    "request body too large",
		Data:       map[string]int64{"limit": limit},
	}
}

// FromParseError maps an error returned by jsonrpc.ParseRequest to a public
// error. It returns nil for errors it does not recognize.
func FromParseError(err error) *PublicError {
	var versionErr *jsonrpc.UnsupportedVersionError
	switch {
	case errors.As(err, &versionErr):
		var data any
		if versionErr.Raw != "" {
			data = map[string]json.RawMessage{"version": json.RawMessage(versionErr.Raw)}
		}
		return &PublicError{
			HTTPStatus: http.StatusBadRequest,
			Code:       jsonrpc.CodeInvalidRequest,
			Message:    versionErr.Error(),
			Data:       data,
			ID:         versionErr.ID,
			Err:        err,
		}
	case errors.Is(err, jsonrpc.ErrParse):
		return &PublicError{
			HTTPStatus: http.StatusBadRequest,
			Code:       jsonrpc.CodeParseError,
			Message:    "Parse error",
			Err:        err,
		}
	case errors.Is(err, jsonrpc.ErrBatchUnsupported):
		return &PublicError{
			HTTPStatus: http.StatusBadRequest,
			Code:       jsonrpc.CodeInvalidRequest,
			Message:    jsonrpc.ErrBatchUnsupported.Error(),
			Err:        err,
		}
	case errors.Is(err, jsonrpc.ErrInvalidRequest):
		return &PublicError{
			HTTPStatus: http.StatusBadRequest,
			Code:       jsonrpc.CodeInvalidRequest,
			Message:    "Invalid Request",
			Err:        err,
		}
	}
	return nil
}

// WriteError renders err on w. Public errors become JSON-RPC envelopes, all
// other errors a bare 500.
func WriteError(w http.ResponseWriter, err error) {
	var pub *PublicError
	if !errors.As(err, &pub) {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	body, mErr := json.Marshal(pub.Envelope())
	if mErr != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(pub.HTTPStatus)
	_, _ = w.Write(body)
}
