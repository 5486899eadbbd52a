package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rpcgate/rpcgate/pkg/config"
)

// NewRedisClient creates a go-redis client from configuration. The client is
// shared by the counter store and the call statistics repository.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
}

// RedisCounterStore implements CounterStore on Redis strings.
//
// The increment and the ttl lookup share one pipelined round trip. Expire is
// a separate command, so a counter created by a process that dies before
// calling it never expires; limiters tolerate this by only trusting positive
// ttls.
type RedisCounterStore struct {
	client redis.UniversalClient

	// owned is set when Close should close the client.
	owned bool
}

// NewRedisCounterStore wraps an existing client. Close does not close it.
func NewRedisCounterStore(client redis.UniversalClient) *RedisCounterStore {
	return &RedisCounterStore{client: client}
}

// NewRedisCounterStoreFromConfig creates a store with its own client.
func NewRedisCounterStoreFromConfig(cfg config.RedisConfig) *RedisCounterStore {
	return &RedisCounterStore{client: NewRedisClient(cfg), owned: true}
}

// IncrementWithTTL implements CounterStore.
func (s *RedisCounterStore) IncrementWithTTL(ctx context.Context, key string) (int64, time.Duration, error) {
	pipe := s.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pttl := pipe.PTTL(ctx, key)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, fmt.Errorf("incr %s: %w", key, err)
	}

	// PTTL reports -1 (no expiry) and -2 (missing) as raw durations.
	ttl := pttl.Val()
	if ttl < 0 {
		ttl = NoExpiry
	}
	return incr.Val(), ttl, nil
}

// Expire implements CounterStore.
func (s *RedisCounterStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := s.client.PExpire(ctx, key, ttl).Err(); err != nil {
		return fmt.Errorf("pexpire %s: %w", key, err)
	}
	return nil
}

// Ping implements CounterStore.
func (s *RedisCounterStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close implements CounterStore.
func (s *RedisCounterStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
}
