package storage

import (
	"context"
	"sync"
	"time"
)

// DefaultCleanupInterval is how often the memory store drops expired counters.
const DefaultCleanupInterval = time.Minute

type counter struct {
	value     int64
	expiresAt time.Time
}

func (c *counter) expired(now time.Time) bool {
	return !c.expiresAt.IsZero() && !now.Before(c.expiresAt)
}

// MemoryCounterStore implements CounterStore in process memory.
//
// Counters are not shared between proxy instances and are lost on exit.
type MemoryCounterStore struct {
	mu       sync.Mutex
	counters map[string]*counter

	now func() time.Time

	done      chan struct{}
	closeOnce sync.Once
}

// NewMemoryCounterStore creates a memory store. A background goroutine drops
// expired counters every cleanupInterval; zero selects the default.
func NewMemoryCounterStore(cleanupInterval time.Duration) *MemoryCounterStore {
	return newMemoryCounterStore(cleanupInterval, time.Now)
}

func newMemoryCounterStore(cleanupInterval time.Duration, now func() time.Time) *MemoryCounterStore {
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}
	s := &MemoryCounterStore{
		counters: make(map[string]*counter),
		now:      now,
		done:     make(chan struct{}),
	}
	go s.cleanupLoop(cleanupInterval)
	return s
}

// IncrementWithTTL implements CounterStore.
func (s *MemoryCounterStore) IncrementWithTTL(_ context.Context, key string) (int64, time.Duration, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters[key]
	if !ok || c.expired(now) {
		c = &counter{}
		s.counters[key] = c
	}
	c.value++

	ttl := NoExpiry
	if !c.expiresAt.IsZero() {
		ttl = c.expiresAt.Sub(now)
	}
	return c.value, ttl, nil
}

// Expire implements CounterStore. Expiring a missing key is a no-op.
func (s *MemoryCounterStore) Expire(_ context.Context, key string, ttl time.Duration) error {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters[key]
	if !ok || c.expired(now) {
		return nil
	}
	c.expiresAt = now.Add(ttl)
	return nil
}

// Ping implements CounterStore.
func (s *MemoryCounterStore) Ping(context.Context) error {
	return nil
}

// Cleanup removes expired counters and returns how many were removed.
func (s *MemoryCounterStore) Cleanup() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, c := range s.counters {
		if c.expired(now) {
			delete(s.counters, key)
			removed++
		}
	}
	return removed
}

// Size returns the number of stored counters, expired ones included.
func (s *MemoryCounterStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.counters)
}

// Close stops the cleanup goroutine.
func (s *MemoryCounterStore) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}

func (s *MemoryCounterStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Cleanup()
		case <-s.done:
			return
		}
	}
}
