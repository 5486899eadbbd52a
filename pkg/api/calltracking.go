package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/rpcgate/rpcgate/pkg/tracking"
)

// CallTracking exposes a tracking.Repository over HTTP.
type CallTracking struct {
	repo   tracking.Repository
	logger *slog.Logger
}

// NewCallTracking creates the call statistics API.
func NewCallTracking(repo tracking.Repository, logger *slog.Logger) *CallTracking {
	if logger == nil {
		logger = slog.Default()
	}
	return &CallTracking{repo: repo, logger: logger.With("component", "call_tracking_api")}
}

// Routes returns a router to be mounted at the API base path.
func (a *CallTracking) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{ip}", a.getByIP)
	r.Get("/{ip}/{method}", a.getByIPAndMethod)
	r.Delete("/{ip}", a.deleteByIP)
	return r
}

func (a *CallTracking) getByIP(w http.ResponseWriter, r *http.Request) {
	ip := param(r, "ip")

	calls, err := a.repo.FindByIP(r.Context(), ip)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, calls)
}

func (a *CallTracking) getByIPAndMethod(w http.ResponseWriter, r *http.Request) {
	ip, method := param(r, "ip"), param(r, "method")

	call, err := a.repo.FindByIPAndMethod(r.Context(), ip, method)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, call)
}

func (a *CallTracking) deleteByIP(w http.ResponseWriter, r *http.Request) {
	ip := param(r, "ip")

	deleted, err := a.repo.DeleteByIP(r.Context(), ip)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if !deleted {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *CallTracking) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, tracking.ErrNotFound) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	a.logger.ErrorContext(r.Context(), "call statistics request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	w.WriteHeader(http.StatusInternalServerError)
}

// param returns the decoded URL parameter. Method names may contain
// characters that arrive percent-encoded.
func param(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
