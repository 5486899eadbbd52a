package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/rpcgate/rpcgate/pkg/limits/storage"
)

// Key prefixes of the two limiter scopes.
const (
	PrefixIP       = "rtlmt"
	PrefixMethodIP = "rtlmt-mtd"
)

// WindowLimiter enforces fixed-window rules for one scope.
type WindowLimiter struct {
	store  storage.CounterStore
	cache  *BlockedCache
	prefix string

	now func() time.Time
}

// NewWindowLimiter creates a limiter for the scope identified by prefix. The
// local blocked cache holds at most cacheSize keys.
func NewWindowLimiter(store storage.CounterStore, prefix string, cacheSize int) (*WindowLimiter, error) {
	if store == nil {
		return nil, fmt.Errorf("counter store is required")
	}
	cache, err := NewBlockedCache(cacheSize)
	if err != nil {
		return nil, err
	}
	return &WindowLimiter{
		store:  store,
		cache:  cache,
		prefix: prefix,
		now:    time.Now,
	}, nil
}

// Cache returns the limiter's blocked cache.
func (l *WindowLimiter) Cache() *BlockedCache {
	return l.cache
}

// Prefix returns the scope prefix.
func (l *WindowLimiter) Prefix() string {
	return l.prefix
}

// StoreKey returns the counter key used for key.
func (l *WindowLimiter) StoreKey(key string) string {
	return l.prefix + ":" + key
}

// Allow counts one request for key against rule.
//
// Store errors are returned as is; the caller decides how to fail.
func (l *WindowLimiter) Allow(ctx context.Context, key string, rule Rule) (Decision, error) {
	now := l.now()
	if until, blocked := l.cache.Blocked(key, now); blocked {
		return Decision{RetryAfter: until.Sub(now), Cached: true}, nil
	}

	storeKey := l.StoreKey(key)
	count, ttl, err := l.store.IncrementWithTTL(ctx, storeKey)
	if err != nil {
		return Decision{}, err
	}

	if count == 1 {
		if err := l.store.Expire(ctx, storeKey, rule.Window); err != nil {
			return Decision{}, err
		}
	}

	if count > rule.Requests {
		decision := Decision{Count: count}
		// A counter without expiry is never cached locally: caching it
		// would block the key for good.
		if ttl > 0 {
			l.cache.Block(key, now.Add(ttl))
			decision.RetryAfter = ttl
		}
		return decision, nil
	}

	return Decision{Allowed: true, Count: count}, nil
}
