package stages

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/rpcgate/rpcgate/pkg/config"
	"github.com/rpcgate/rpcgate/pkg/proxy"
	"github.com/rpcgate/rpcgate/pkg/routing"
	"github.com/rpcgate/rpcgate/pkg/telemetry/metrics"
	"github.com/rpcgate/rpcgate/pkg/telemetry/tracing"
)

// NewBackendClient creates the HTTP client shared by all backend calls.
func NewBackendClient(cfg config.BackendsConfig) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = cfg.MaxIdleConnsPerHost
	transport.IdleConnTimeout = cfg.IdleConnTimeout

	return &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
		// Redirects are the caller's business.
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// ForwardOptions configures the forward stage.
type ForwardOptions struct {
	Client  *http.Client
	Tracer  *tracing.Tracer
	Metrics *metrics.Collector
	Logger  *slog.Logger
}

// Forward sends the request to the next backend in round-robin order and
// stores the buffered response on the request context. There is one attempt
// per request.
type Forward struct {
	proxy.NoDrain
	selector *routing.RoundRobin
	client   *http.Client
	tracer   *tracing.Tracer
	metrics  *metrics.Collector
	logger   *slog.Logger
}

// NewForward creates the forward stage.
func NewForward(selector *routing.RoundRobin, opts ForwardOptions) *Forward {
	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Forward{
		selector: selector,
		client:   client,
		tracer:   opts.Tracer,
		metrics:  opts.Metrics,
		logger:   logger.With("component", NameForward),
	}
}

func (*Forward) Name() string { return NameForward }

// Terminal implements proxy.TerminalStage.
func (*Forward) Terminal() bool { return true }

// Process implements proxy.Stage.
func (s *Forward) Process(ctx context.Context, rc *proxy.RequestContext) (bool, error) {
	if rc.Response != nil {
		return false, proxy.ErrAlreadyForwarded
	}

	target := s.selector.Next()

	var span trace.Span
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, "jsonrpc.forward", trace.WithSpanKind(trace.SpanKindClient))
		defer span.End()
		tracing.SetBackendAttributes(span, rc.Method(), rc.CallerIP, target.Name())
	}

	start := time.Now()
	resp, err := s.do(ctx, rc, target)
	if span != nil {
		tracing.SetStatus(span, err)
	}
	if err != nil {
		s.metrics.RecordBackendRequest(target.Name(), 0, time.Since(start))
		return false, fmt.Errorf("backend %s: %w", target.Name(), err)
	}

	s.metrics.RecordBackendRequest(target.Name(), resp.StatusCode, time.Since(start))
	if span != nil {
		tracing.SetStatusCode(span, resp.StatusCode)
	}
	s.logger.DebugContext(ctx, "forwarded",
		"backend", target.Name(),
		"method", rc.Method(),
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if err := rc.SetResponse(ctx, resp); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Forward) do(ctx context.Context, rc *proxy.RequestContext, target routing.Target) (*proxy.BackendResponse, error) {
	in := rc.Request

	out, err := http.NewRequestWithContext(ctx, in.Method, target.String(), bytes.NewReader(rc.Body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	out.Header = in.Header.Clone()
	out.Host = target.Host()
	out.Header.Set("Connection", "keep-alive")
	if out.Header.Get(proxy.HeaderForwardedFor) == "" {
		out.Header.Set(proxy.HeaderForwardedFor, rc.CallerIP)
	}
	out.Header.Del("Content-Length")
	tracing.Inject(ctx, out.Header)

	resp, err := s.client.Do(out)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return &proxy.BackendResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       body,
		Backend:    target.Name(),
	}, nil
}
