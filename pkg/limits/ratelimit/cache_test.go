package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockedCache(t *testing.T) {
	c, err := NewBlockedCache(2)
	require.NoError(t, err)
	now := time.Unix(1_700_000_000, 0)

	c.Block("a", now.Add(time.Second))
	until, ok := c.Blocked("a", now)
	assert.True(t, ok)
	assert.Equal(t, now.Add(time.Second), until)

	_, ok = c.Blocked("a", now.Add(time.Second))
	assert.False(t, ok)
	assert.Zero(t, c.Len(), "expired entry is evicted on lookup")

	c.Block("a", now.Add(time.Second))
	c.Block("b", now.Add(time.Second))
	c.Block("c", now.Add(time.Second))
	assert.Equal(t, 2, c.Len())
	_, ok = c.Blocked("a", now)
	assert.False(t, ok, "least recently used entry is evicted")
}

func TestBlockedCache_ExpiryDoesNotDropFreshBlock(t *testing.T) {
	c, err := NewBlockedCache(16)
	require.NoError(t, err)

	now := time.Now()
	for i := 0; i < 500; i++ {
		c.Block("1.2.3.4", now.Add(-time.Second))

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.Blocked("1.2.3.4", now)
		}()
		go func() {
			defer wg.Done()
			c.Block("1.2.3.4", now.Add(time.Minute))
		}()
		wg.Wait()

		until, blocked := c.Blocked("1.2.3.4", now)
		require.True(t, blocked, "iteration %d", i)
		assert.Equal(t, now.Add(time.Minute), until)
	}
}

func TestSweeper(t *testing.T) {
	ip, err := NewBlockedCache(10)
	require.NoError(t, err)
	method, err := NewBlockedCache(10)
	require.NoError(t, err)

	now := time.Unix(1_700_000_000, 0)
	ip.Block("1.1.1.1", now.Add(-time.Second))
	ip.Block("2.2.2.2", now.Add(time.Minute))
	method.Block("eth_call:1.1.1.1", now)

	s, err := NewSweeper("@every 1h", nil, ip, method)
	require.NoError(t, err)
	s.now = func() time.Time { return now }

	assert.Equal(t, 2, s.Sweep())
	assert.Equal(t, 1, ip.Len())
	assert.Zero(t, method.Len())

	s.Start()
	s.Stop(context.Background())

	s.Purge()
	assert.Zero(t, ip.Len())
}

func TestNewSweeper_InvalidSchedule(t *testing.T) {
	_, err := NewSweeper("not a schedule", nil)
	assert.Error(t, err)
}
