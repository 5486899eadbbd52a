package storage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newRedisStore(t *testing.T) (*RedisCounterStore, *miniredis.Miniredis) {
	t.Helper()
	m := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCounterStore(client), m
}

func TestRedisCounterStore_IncrementAndExpire(t *testing.T) {
	store, m := newRedisStore(t)
	ctx := context.Background()

	count, ttl, err := store.IncrementWithTTL(ctx, "rtlmt:1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, NoExpiry, ttl)

	require.NoError(t, store.Expire(ctx, "rtlmt:1.2.3.4", time.Minute))

	count, ttl, err = store.IncrementWithTTL(ctx, "rtlmt:1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Greater(t, ttl, 59*time.Second)
	assert.LessOrEqual(t, ttl, time.Minute)

	m.FastForward(time.Minute)

	count, _, err = store.IncrementWithTTL(ctx, "rtlmt:1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRedisCounterStore_Errors(t *testing.T) {
	store, m := newRedisStore(t)
	require.NoError(t, store.Ping(context.Background()))

	m.Close()

	_, _, err := store.IncrementWithTTL(context.Background(), "k")
	assert.Error(t, err)
	assert.Error(t, store.Ping(context.Background()))
	assert.NoError(t, store.Close())
}

func TestMemoryCounterStore_IncrementAndExpire(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	store := newMemoryCounterStore(time.Hour, clock.Now)
	defer store.Close()
	ctx := context.Background()

	count, ttl, err := store.IncrementWithTTL(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, NoExpiry, ttl)

	require.NoError(t, store.Expire(ctx, "k", time.Minute))
	clock.Advance(10 * time.Second)

	count, ttl, err = store.IncrementWithTTL(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Equal(t, 50*time.Second, ttl)

	clock.Advance(50 * time.Second)

	count, ttl, err = store.IncrementWithTTL(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, NoExpiry, ttl)
}

func TestMemoryCounterStore_Cleanup(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	store := newMemoryCounterStore(time.Hour, clock.Now)
	defer store.Close()
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		_, _, err := store.IncrementWithTTL(ctx, key)
		require.NoError(t, err)
	}
	require.NoError(t, store.Expire(ctx, "a", time.Second))
	require.NoError(t, store.Expire(ctx, "b", time.Second))
	require.NoError(t, store.Expire(ctx, "missing", time.Second))

	clock.Advance(time.Second)

	assert.Equal(t, 2, store.Cleanup())
	assert.Equal(t, 1, store.Size())
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}

func TestMemoryCounterStore_Concurrent(t *testing.T) {
	store := NewMemoryCounterStore(0)
	defer store.Close()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = store.IncrementWithTTL(context.Background(), "shared")
		}()
	}
	wg.Wait()

	count, _, err := store.IncrementWithTTL(context.Background(), "shared")
	require.NoError(t, err)
	assert.Equal(t, int64(51), count)
}
