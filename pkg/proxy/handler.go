package proxy

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/rpcgate/rpcgate/pkg/telemetry/metrics"
)

// hopHeaders are not copied from the backend response.
var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// Handler adapts a Chain to net/http.
type Handler struct {
	chain        *Chain
	maxBodyBytes int64
	metrics      *metrics.Collector
	logger       *slog.Logger
}

// HandlerOptions configures a Handler.
type HandlerOptions struct {
	// MaxBodyBytes limits the request body. Zero means unlimited.
	MaxBodyBytes int64

	Metrics *metrics.Collector
	Logger  *slog.Logger
}

// NewHandler creates a handler running chain for every request.
func NewHandler(chain *Chain, opts HandlerOptions) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		chain:        chain,
		maxBodyBytes: opts.MaxBodyBytes,
		metrics:      opts.Metrics,
		logger:       logger.With("component", "proxy"),
	}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	body, err := h.readBody(w, r)
	if err != nil {
		h.fail(r.Context(), w, err)
		h.metrics.RecordProxyRequest(outcomeOf(err), time.Since(start))
		return
	}

	rc := NewRequestContext(w, r, body)

	// A disconnecting client must not abort store or backend calls that are
	// already under way.
	ctx := context.WithoutCancel(r.Context())

	if err := h.chain.Run(ctx, rc); err != nil {
		h.fail(ctx, w, err)
		h.metrics.RecordProxyRequest(outcomeOf(err), time.Since(start))
		return
	}

	switch {
	case rc.Responded():
		outcome := metrics.OutcomeRejected
		if rc.Status() == http.StatusTooManyRequests {
			outcome = metrics.OutcomeRateLimited
		}
		h.metrics.RecordProxyRequest(outcome, time.Since(start))
	case rc.Response != nil:
		writeBackendResponse(w, rc.Response)
		h.metrics.RecordProxyRequest(metrics.OutcomeForwarded, time.Since(start))
	default:
		h.fail(ctx, w, errors.New("chain finished without a response"))
		h.metrics.RecordProxyRequest(metrics.OutcomeError, time.Since(start))
	}
}

func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	reader := r.Body
	if h.maxBodyBytes > 0 {
		reader = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, NewBodyTooLargeError(tooLarge.Limit)
		}
		return nil, err
	}
	return body, nil
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, err error) {
	var pub *PublicError
	if errors.As(err, &pub) {
		h.logger.DebugContext(ctx, "request rejected", "error", err)
	} else {
		h.logger.ErrorContext(ctx, "request failed", "error", err)
	}
	WriteError(w, err)
}

func outcomeOf(err error) string {
	var pub *PublicError
	if errors.As(err, &pub) {
		return metrics.OutcomeRejected
	}
	return metrics.OutcomeError
}

func writeBackendResponse(w http.ResponseWriter, resp *BackendResponse) {
	h := w.Header()
	for k, vv := range resp.Header {
		h[k] = append([]string(nil), vv...)
	}
	for _, k := range hopHeaders {
		h.Del(k)
	}
	h.Del("Content-Length")

	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(resp.Body)
}
