package ratelimit

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// BlockedCache remembers keys that are over their limit and until when.
// It is bounded; the least recently used entries are evicted first.
type BlockedCache struct {
	// mu serializes writers so an expiry removal cannot drop a newer Block.
	mu      sync.Mutex
	entries *lru.Cache[string, time.Time]
}

// NewBlockedCache creates a cache holding at most size keys.
func NewBlockedCache(size int) (*BlockedCache, error) {
	entries, err := lru.New[string, time.Time](size)
	if err != nil {
		return nil, fmt.Errorf("create blocked cache: %w", err)
	}
	return &BlockedCache{entries: entries}, nil
}

// Blocked reports whether key is blocked at now and until when. An expired
// entry is evicted.
func (c *BlockedCache) Blocked(key string, now time.Time) (time.Time, bool) {
	until, ok := c.entries.Get(key)
	if !ok {
		return time.Time{}, false
	}
	if !until.After(now) {
		c.mu.Lock()
		defer c.mu.Unlock()
		if current, ok := c.entries.Peek(key); ok && current.After(now) {
			return current, true
		}
		c.entries.Remove(key)
		return time.Time{}, false
	}
	return until, true
}

// Block records key as blocked until the given time.
func (c *BlockedCache) Block(key string, until time.Time) {
	c.mu.Lock()
	c.entries.Add(key, until)
	c.mu.Unlock()
}

// Sweep evicts every entry expired at now and returns how many were evicted.
func (c *BlockedCache) Sweep(now time.Time) int {
	evicted := 0
	for _, key := range c.entries.Keys() {
		c.mu.Lock()
		until, ok := c.entries.Peek(key)
		if ok && !until.After(now) {
			c.entries.Remove(key)
			evicted++
		}
		c.mu.Unlock()
	}
	return evicted
}

// Purge removes all entries.
func (c *BlockedCache) Purge() {
	c.entries.Purge()
}

// Len returns the number of entries, expired ones included.
func (c *BlockedCache) Len() int {
	return c.entries.Len()
}
