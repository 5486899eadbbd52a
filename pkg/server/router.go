package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rpcgate/rpcgate/pkg/telemetry/health"
	"github.com/rpcgate/rpcgate/pkg/telemetry/tracing"
)

// Routes collects the handlers mounted by NewRouter. Nil handlers are not
// mounted.
type Routes struct {
	ProxyPath string
	Proxy     http.Handler

	CallTrackingPath string
	CallTracking     http.Handler

	Health *health.Checker

	MetricsPath string
	Metrics     http.Handler
}

// NewRouter builds the HTTP router.
func NewRouter(routes Routes, logger *slog.Logger) chi.Router {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "http")

	r := chi.NewRouter()
	r.Use(Recovery(logger))
	r.Use(RequestID)
	r.Use(tracing.HTTPMiddleware)
	r.Use(Logging(logger))

	if routes.Health != nil {
		r.Get("/health", routes.Health.LivenessHandler())
		r.Get("/ready", routes.Health.ReadinessHandler())
	}
	if routes.Metrics != nil {
		r.Method(http.MethodGet, routes.MetricsPath, routes.Metrics)
	}
	if routes.CallTracking != nil {
		r.Mount(routes.CallTrackingPath, routes.CallTracking)
	}
	if routes.Proxy != nil {
		r.Handle(routes.ProxyPath, routes.Proxy)
	}

	return r
}
