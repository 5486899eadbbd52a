package routing

import (
	"sync/atomic"
)

// RoundRobin hands out targets in order.
//
// The cursor always holds the index of the next target and is advanced with
// compare-and-swap modulo the number of targets, so it never overflows.
type RoundRobin struct {
	targets []Target
	cursor  atomic.Int64
}

// NewRoundRobin creates a selector over targets.
func NewRoundRobin(targets []Target) (*RoundRobin, error) {
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}
	return &RoundRobin{targets: append([]Target(nil), targets...)}, nil
}

// Next returns the next target.
func (r *RoundRobin) Next() Target {
	n := int64(len(r.targets))
	for {
		current := r.cursor.Load()
		if r.cursor.CompareAndSwap(current, (current+1)%n) {
			return r.targets[current]
		}
	}
}

// Targets returns the configured targets in rotation order.
func (r *RoundRobin) Targets() []Target {
	return append([]Target(nil), r.targets...)
}

// Len returns the number of targets.
func (r *RoundRobin) Len() int {
	return len(r.targets)
}
