package jsonrpc

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequest_Valid(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		method string
		id     string
		params string
	}{
		{
			name:   "numeric id",
			body:   `{"jsonrpc":"2.0","method":"foo","id":1}`,
			method: "foo",
			id:     "1",
		},
		{
			name:   "string id with params",
			body:   `{"jsonrpc":"2.0","method":"eth_call","params":[{"to":"0x0"},"latest"],"id":"abc"}`,
			method: "eth_call",
			id:     `"abc"`,
			params: `[{"to":"0x0"},"latest"]`,
		},
		{
			name:   "null id",
			body:   `{"jsonrpc":"2.0","method":"foo","id":null}`,
			method: "foo",
			id:     "null",
		},
		{
			name:   "notification",
			body:   `{"jsonrpc":"2.0","method":"notify"}`,
			method: "notify",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ParseRequest([]byte(tt.body))
			require.NoError(t, err)

			assert.Equal(t, Version, req.JSONRPC)
			assert.Equal(t, tt.method, req.Method)
			assert.Equal(t, tt.body, string(req.Raw))
			if tt.id == "" {
				assert.True(t, req.IsNotification())
			} else {
				assert.Equal(t, tt.id, string(req.ID))
			}
			if tt.params != "" {
				assert.JSONEq(t, tt.params, string(req.Params))
			}
		})
	}
}

func TestParseRequest_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		target error
	}{
		{name: "not json", body: `{"jsonrpc":`, target: ErrParse},
		{name: "empty body", body: ``, target: ErrParse},
		{name: "batch", body: `[{"jsonrpc":"2.0","method":"foo","id":1}]`, target: ErrBatchUnsupported},
		{name: "scalar", body: `42`, target: ErrInvalidRequest},
		{name: "missing method", body: `{"jsonrpc":"2.0","id":1}`, target: ErrInvalidRequest},
		{name: "numeric method", body: `{"jsonrpc":"2.0","method":7,"id":1}`, target: ErrInvalidRequest},
		{name: "object id", body: `{"jsonrpc":"2.0","method":"foo","id":{}}`, target: ErrInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRequest([]byte(tt.body))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target), "got %v", err)
		})
	}
}

func TestParseRequest_UnsupportedVersion(t *testing.T) {
	_, err := ParseRequest([]byte(`{"jsonrpc":"1.0","method":"foo"}`))

	var verr *UnsupportedVersionError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "1.0", verr.Version)
	assert.Equal(t, `"1.0"`, verr.Raw)
	assert.Nil(t, verr.ID)
	assert.Equal(t, "Unsupported JSON-RPC version: 1.0", verr.Error())
}

func TestParseRequest_MissingVersionKeepsID(t *testing.T) {
	_, err := ParseRequest([]byte(`{"method":"foo","id":"x1"}`))

	var verr *UnsupportedVersionError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, verr.Raw)
	assert.Equal(t, `"x1"`, string(verr.ID))
	assert.Contains(t, verr.Error(), "missing")
}

func TestNewErrorResponse_NullID(t *testing.T) {
	data, err := json.Marshal(NewErrorResponse(nil, CodeInvalidRequest, "Invalid Request", nil))
	require.NoError(t, err)

	assert.JSONEq(t, `{"jsonrpc":"2.0","error":{"code":-32600,"message":"Invalid Request"},"id":null}`, string(data))
}

func TestNewErrorResponse_WithData(t *testing.T) {
	resp := NewErrorResponse(json.RawMessage(`7`), CodeInvalidRequest, "bad", map[string]any{"version": "1.0"})
	data, err := json.Marshal(resp)
	require.NoError(t, err)

	assert.JSONEq(t, `{"jsonrpc":"2.0","error":{"code":-32600,"message":"bad","data":{"version":"1.0"}},"id":7}`, string(data))
}
