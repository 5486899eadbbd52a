package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper periodically evicts expired entries from blocked caches.
type Sweeper struct {
	cron   *cron.Cron
	caches []*BlockedCache
	logger *slog.Logger
	now    func() time.Time
}

// NewSweeper creates a sweeper running on schedule, a standard cron spec or
// a descriptor such as "@every 1m".
func NewSweeper(schedule string, logger *slog.Logger, caches ...*BlockedCache) (*Sweeper, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Sweeper{
		cron:   cron.New(),
		caches: caches,
		logger: logger.With("component", "ratelimit_sweeper"),
		now:    time.Now,
	}

	if _, err := s.cron.AddFunc(schedule, func() { s.Sweep() }); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start starts the schedule in the background.
func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop stops the schedule and waits for a running sweep to finish or for ctx
// to end.
func (s *Sweeper) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// Sweep runs one sweep over all caches and returns the number of evicted
// entries.
func (s *Sweeper) Sweep() int {
	now := s.now()
	total := 0
	for _, c := range s.caches {
		total += c.Sweep(now)
	}
	if total > 0 {
		s.logger.Debug("swept blocked keys", "evicted", total)
	}
	return total
}

// Purge removes every entry from all caches.
func (s *Sweeper) Purge() {
	for _, c := range s.caches {
		c.Purge()
	}
}
