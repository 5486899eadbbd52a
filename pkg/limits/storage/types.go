package storage

import (
	"context"
	"time"
)

// NoExpiry is the ttl reported for a counter that exists without expiry.
const NoExpiry time.Duration = -1

// CounterStore is a store of expiring integer counters.
// Implementations must be thread-safe.
type CounterStore interface {
	// IncrementWithTTL increments key by one, creating it at 1 when missing,
	// and returns the new value together with the remaining time to live.
	// A ttl <= 0 means the counter has no expiry.
	IncrementWithTTL(ctx context.Context, key string) (count int64, ttl time.Duration, err error)

	// Expire sets the time to live of key.
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
