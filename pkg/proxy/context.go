package proxy

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rpcgate/rpcgate/pkg/jsonrpc"
)

// ErrAlreadyForwarded is returned when a backend response is stored on a
// context that already holds one.
var ErrAlreadyForwarded = errors.New("request already forwarded")

// BackendResponse is the fully buffered response of a backend.
type BackendResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte

	// Backend is the target that produced the response.
	Backend string
}

// ForwardHook runs after the backend response is stored on the context.
type ForwardHook func(ctx context.Context, rc *RequestContext)

// RequestContext is the mutable state of one proxied request. It is owned by
// the goroutine serving the request and is not safe for concurrent use.
type RequestContext struct {
	// CallerIP is the resolved client address.
	CallerIP string

	Request *http.Request
	Writer  http.ResponseWriter

	// Body is the raw request body.
	Body []byte

	// RPC is set once the body has been parsed.
	RPC *jsonrpc.Request

	// Response is set once the request has been forwarded.
	Response *BackendResponse

	ReceivedAt time.Time

	hooks     []ForwardHook
	responded bool
	status    int
}

// NewRequestContext creates the context for one request.
func NewRequestContext(w http.ResponseWriter, r *http.Request, body []byte) *RequestContext {
	return &RequestContext{
		Request:    r,
		Writer:     w,
		Body:       body,
		ReceivedAt: time.Now(),
	}
}

// Method returns the JSON-RPC method, or "" before parsing.
func (rc *RequestContext) Method() string {
	if rc.RPC == nil {
		return ""
	}
	return rc.RPC.Method
}

// ID returns the raw JSON-RPC id, or nil when unknown.
func (rc *RequestContext) ID() []byte {
	if rc.RPC == nil {
		return nil
	}
	return rc.RPC.ID
}

// OnForwarded registers a hook to run once the backend response is stored.
// Hooks run in registration order.
func (rc *RequestContext) OnForwarded(hook ForwardHook) {
	rc.hooks = append(rc.hooks, hook)
}

// SetResponse stores the backend response and runs the forward hooks.
func (rc *RequestContext) SetResponse(ctx context.Context, resp *BackendResponse) error {
	if rc.Response != nil {
		return ErrAlreadyForwarded
	}
	rc.Response = resp
	for _, hook := range rc.hooks {
		hook(ctx, rc)
	}
	return nil
}

// Respond writes a response directly to the caller. Stages that call it must
// stop the chain.
func (rc *RequestContext) Respond(status int, header http.Header, body []byte) {
	if rc.responded {
		return
	}
	rc.responded = true
	rc.status = status

	h := rc.Writer.Header()
	for k, vv := range header {
		for _, v := range vv {
			h.Add(k, v)
		}
	}
	rc.Writer.WriteHeader(status)
	if len(body) > 0 {
		_, _ = rc.Writer.Write(body)
	}
}

// Responded reports whether a response has been written.
func (rc *RequestContext) Responded() bool {
	return rc.responded
}

// Status returns the status of the written response, 0 if none.
func (rc *RequestContext) Status() int {
	return rc.status
}
