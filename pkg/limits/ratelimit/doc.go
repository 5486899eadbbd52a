// Package ratelimit implements fixed-window rate limiting backed by a shared
// counter store.
//
// # Algorithm
//
// Each limited key maps to a counter in the store. Allow increments the
// counter and reads its remaining lifetime in one round trip. The first
// increment of a window also sets the expiry. Once the count exceeds the
// rule, the key is recorded in a local BlockedCache until the counter
// expires, so further requests from the same key are rejected without
// touching the store.
//
//	limiter, _ := ratelimit.NewWindowLimiter(store, "rtlmt", 5000)
//	decision, err := limiter.Allow(ctx, "1.2.3.4", ratelimit.Rule{Requests: 100, Window: time.Minute})
//	if err == nil && !decision.Allowed {
//	    // reject, retry after decision.RetryAfter
//	}
//
// The limit is best effort across instances: the increment and the expiry
// are separate commands, and every instance keeps its own blocked cache.
//
// # Sweeping
//
// Expired blocked entries are evicted lazily on lookup. A Sweeper evicts
// them on a cron schedule so idle keys do not hold cache capacity.
package ratelimit
