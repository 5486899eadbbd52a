package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/rpcgate/rpcgate/pkg/config"
)

func TestNew_NilConfig(t *testing.T) {
	_, err := New(nil, "test")
	require.Error(t, err)
}

func TestNew_Disabled(t *testing.T) {
	tr, err := New(&config.TracingConfig{Enabled: false}, "test")
	require.NoError(t, err)

	assert.False(t, tr.Enabled())
	ctx, span := tr.Start(context.Background(), "noop")
	defer span.End()
	assert.False(t, span.SpanContext().IsValid())
	assert.Empty(t, TraceID(ctx))
	require.NoError(t, tr.Shutdown(context.Background()))
}

func TestNew_EnabledWithoutCollector(t *testing.T) {
	tr, err := New(&config.TracingConfig{
		Enabled:     true,
		Endpoint:    "127.0.0.1:4317",
		Insecure:    true,
		Timeout:     time.Second,
		Sampler:     SamplerAlways,
		ServiceName: "rpcgate-test",
	}, "test")
	require.NoError(t, err)
	assert.True(t, tr.Enabled())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = tr.Shutdown(ctx)
}

func TestCreateSampler(t *testing.T) {
	for _, s := range []string{SamplerAlways, SamplerNever, SamplerRatio} {
		_, err := createSampler(s, 0.5)
		assert.NoError(t, err, s)
	}

	_, err := createSampler(SamplerRatio, 1.5)
	assert.Error(t, err)

	_, err = createSampler("sometimes", 0)
	assert.Error(t, err)
}

func TestInjectExtract_RoundTrip(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	defer otel.SetTextMapPropagator(prev)

	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(tracetest.NewSpanRecorder()))
	ctx, span := provider.Tracer("test").Start(context.Background(), "outer")
	defer span.End()

	headers := http.Header{}
	Inject(ctx, headers)
	require.NotEmpty(t, headers.Get("traceparent"))

	extracted := Extract(context.Background(), headers)
	assert.Equal(t, TraceID(ctx), TraceID(extracted))
}

func TestHTTPMiddleware_SetsTraceHeader(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	defer otel.SetTextMapPropagator(prev)

	var seen string
	h := HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = TraceID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", seen)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", rec.Header().Get("X-Trace-ID"))
}

func TestSetStatus(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	_, span := provider.Tracer("test").Start(context.Background(), "failing")
	SetStatus(span, errors.New("boom"))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "boom", ended[0].Status().Description)
}
