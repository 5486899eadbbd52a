package stages

import (
	"context"
	"net/http"
	"time"

	"github.com/rpcgate/rpcgate/pkg/proxy"
	"github.com/rpcgate/rpcgate/pkg/tracking"
)

// CallTracking reports the backend outcome of every forwarded request to
// the aggregator. Only HTTP 200 counts as a successful call.
type CallTracking struct {
	aggregator   *tracking.Aggregator
	drainTimeout time.Duration
}

// NewCallTracking creates the call tracking stage.
func NewCallTracking(aggregator *tracking.Aggregator, drainTimeout time.Duration) *CallTracking {
	return &CallTracking{aggregator: aggregator, drainTimeout: drainTimeout}
}

func (*CallTracking) Name() string { return NameCallTracking }

// Process implements proxy.Stage.
func (s *CallTracking) Process(_ context.Context, rc *proxy.RequestContext) (bool, error) {
	rc.OnForwarded(s.record)
	return true, nil
}

func (s *CallTracking) record(_ context.Context, rc *proxy.RequestContext) {
	s.aggregator.Record(tracking.Outcome{
		IP:      rc.CallerIP,
		Method:  rc.Method(),
		Success: rc.Response.StatusCode == http.StatusOK,
	})
}

// Drain implements proxy.Drainer.
func (s *CallTracking) Drain(ctx context.Context) <-chan struct{} {
	return proxy.PollDrain(ctx, s.aggregator.InFlight, proxy.DefaultDrainPollInterval, s.drainTimeout)
}
