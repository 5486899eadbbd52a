package ratelimit

import (
	"fmt"
	"time"
)

// Rule is a fixed-window limit.
type Rule struct {
	// Requests is the number of requests admitted per window.
	Requests int64

	// Window is the window length.
	Window time.Duration
}

// Validate checks that the rule can be enforced.
func (r Rule) Validate() error {
	if r.Requests <= 0 {
		return fmt.Errorf("requests must be positive, got %d", r.Requests)
	}
	if r.Window <= 0 {
		return fmt.Errorf("window must be positive, got %s", r.Window)
	}
	return nil
}

// Decision is the result of a rate limit check.
type Decision struct {
	// Allowed indicates if the request is permitted.
	Allowed bool

	// Count is the counter value after this request. It is zero when the
	// decision came from the local cache.
	Count int64

	// RetryAfter is how long until the window resets, zero when unknown.
	RetryAfter time.Duration

	// Cached is set when the request was rejected from the local cache.
	Cached bool
}
