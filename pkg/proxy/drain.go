package proxy

import (
	"context"
	"time"
)

// DefaultDrainPollInterval is how often PollDrain samples the in-flight count.
const DefaultDrainPollInterval = 50 * time.Millisecond

// Drainer reports when a component has finished its pending work. The
// returned channel is closed once drained; it is never sent on.
type Drainer interface {
	Drain(ctx context.Context) <-chan struct{}
}

var closed = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Drained returns an already closed channel.
func Drained() <-chan struct{} {
	return closed
}

// NoDrain can be embedded by stages without background work.
type NoDrain struct{}

// Drain implements Drainer.
func (NoDrain) Drain(context.Context) <-chan struct{} {
	return Drained()
}

// PollDrain polls inFlight every interval and closes the returned channel
// once it reports zero or less, once timeout has elapsed, or once ctx is
// done, whichever comes first. A non-positive timeout means no deadline
// besides ctx.
func PollDrain(ctx context.Context, inFlight func() int64, interval, timeout time.Duration) <-chan struct{} {
	if interval <= 0 {
		interval = DefaultDrainPollInterval
	}

	done := make(chan struct{})
	go func() {
		defer close(done)

		if inFlight() <= 0 {
			return
		}

		var deadline <-chan time.Time
		if timeout > 0 {
			timer := time.NewTimer(timeout)
			defer timer.Stop()
			deadline = timer.C
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if inFlight() <= 0 {
					return
				}
			case <-deadline:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return done
}
