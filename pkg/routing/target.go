package routing

import (
	"fmt"
	"net/url"
)

// Target is one backend.
type Target struct {
	// URL is the full endpoint requests are sent to.
	URL *url.URL
}

// Name returns the label used for the target in logs and metrics.
func (t Target) Name() string {
	return t.URL.Host
}

// Host returns the value the Host header is rewritten to.
func (t Target) Host() string {
	return t.URL.Host
}

func (t Target) String() string {
	return t.URL.String()
}

// ParseTargets parses backend URLs. Only absolute http and https URLs with
// a host are accepted.
func ParseTargets(raw []string) ([]Target, error) {
	if len(raw) == 0 {
		return nil, ErrNoTargets
	}

	targets := make([]Target, 0, len(raw))
	for i, s := range raw {
		u, err := url.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("backend %d: %w", i, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return nil, fmt.Errorf("backend %d: unsupported scheme %q", i, u.Scheme)
		}
		if u.Host == "" {
			return nil, fmt.Errorf("backend %d: missing host in %q", i, s)
		}
		targets = append(targets, Target{URL: u})
	}
	return targets, nil
}
