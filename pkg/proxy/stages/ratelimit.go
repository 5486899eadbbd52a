package stages

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/rpcgate/rpcgate/pkg/limits/ratelimit"
	"github.com/rpcgate/rpcgate/pkg/proxy"
	"github.com/rpcgate/rpcgate/pkg/telemetry/metrics"
)

// Metric scopes of the two limiters.
const (
	ScopeIP       = "ip"
	ScopeMethodIP = "method_ip"
)

// GlobalRateLimit limits requests per caller IP.
type GlobalRateLimit struct {
	proxy.NoDrain
	limiter *ratelimit.WindowLimiter
	rule    ratelimit.Rule
	metrics *metrics.Collector
}

// NewGlobalRateLimit creates the per-IP limit stage.
func NewGlobalRateLimit(limiter *ratelimit.WindowLimiter, rule ratelimit.Rule, m *metrics.Collector) (*GlobalRateLimit, error) {
	if err := rule.Validate(); err != nil {
		return nil, fmt.Errorf("global rate limit: %w", err)
	}
	return &GlobalRateLimit{limiter: limiter, rule: rule, metrics: m}, nil
}

func (*GlobalRateLimit) Name() string { return NameGlobalRateLimit }

// Process implements proxy.Stage.
func (s *GlobalRateLimit) Process(ctx context.Context, rc *proxy.RequestContext) (bool, error) {
	decision, err := s.limiter.Allow(ctx, rc.CallerIP, s.rule)
	if err != nil {
		return false, fmt.Errorf("rate limit %s: %w", rc.CallerIP, err)
	}
	return admit(rc, decision, ScopeIP, s.metrics), nil
}

// MethodRateLimit limits requests per (method, caller IP). Methods without
// a rule are not limited.
type MethodRateLimit struct {
	proxy.NoDrain
	limiter *ratelimit.WindowLimiter
	rules   map[string]ratelimit.Rule
	metrics *metrics.Collector
}

// NewMethodRateLimit creates the per-method limit stage.
func NewMethodRateLimit(limiter *ratelimit.WindowLimiter, rules map[string]ratelimit.Rule, m *metrics.Collector) (*MethodRateLimit, error) {
	copied := make(map[string]ratelimit.Rule, len(rules))
	for method, rule := range rules {
		if err := rule.Validate(); err != nil {
			return nil, fmt.Errorf("method %q: %w", method, err)
		}
		copied[method] = rule
	}
	return &MethodRateLimit{limiter: limiter, rules: copied, metrics: m}, nil
}

func (*MethodRateLimit) Name() string { return NameMethodRateLimit }

// Process implements proxy.Stage.
func (s *MethodRateLimit) Process(ctx context.Context, rc *proxy.RequestContext) (bool, error) {
	method := rc.Method()
	rule, ok := s.rules[method]
	if !ok {
		return true, nil
	}

	key := method + ":" + rc.CallerIP
	decision, err := s.limiter.Allow(ctx, key, rule)
	if err != nil {
		return false, fmt.Errorf("rate limit %s: %w", key, err)
	}
	return admit(rc, decision, ScopeMethodIP, s.metrics), nil
}

// admit records the decision and writes the 429 response for rejections.
func admit(rc *proxy.RequestContext, d ratelimit.Decision, scope string, m *metrics.Collector) bool {
	switch {
	case d.Allowed:
		m.RecordRateLimitDecision(scope, metrics.DecisionAllowed)
		return true
	case d.Cached:
		m.RecordRateLimitDecision(scope, metrics.DecisionBlockedCached)
	default:
		m.RecordRateLimitDecision(scope, metrics.DecisionBlocked)
	}

	var header http.Header
	if d.RetryAfter > 0 {
		header = http.Header{}
		header.Set("Retry-After", strconv.Itoa(int(math.Ceil(d.RetryAfter.Seconds()))))
	}
	rc.Respond(http.StatusTooManyRequests, header, nil)
	return false
}
