package batch

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Default settings.
const (
	DefaultInterval     = time.Second
	DefaultWriteTimeout = 5 * time.Second
)

// FlushFunc persists one batch.
type FlushFunc[T any] func(ctx context.Context, items []T) error

// Options configures a Batcher.
type Options struct {
	// Name identifies the batcher in logs.
	Name string

	// Interval between flushes. Default: 1 second.
	Interval time.Duration

	// WriteTimeout bounds a single flush. Default: 5 seconds.
	WriteTimeout time.Duration

	// OnFlush, when set, is called after every non-empty flush with the
	// batch size and the flush error.
	OnFlush func(items int, err error)

	// OnQueue, when set, is called with the queue depth after every change.
	OnQueue func(depth int)

	Logger *slog.Logger
}

// Batcher queues items and flushes them periodically.
type Batcher[T any] struct {
	flush FlushFunc[T]
	opts  Options

	mu    sync.Mutex
	queue []T

	inFlight atomic.Int64
	closed   atomic.Bool

	done      chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
	closeOnce sync.Once

	logger *slog.Logger
}

// New creates a batcher. Start must be called to begin periodic flushing.
func New[T any](flush FlushFunc[T], opts Options) *Batcher[T] {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Batcher[T]{
		flush:  flush,
		opts:   opts,
		done:   make(chan struct{}),
		logger: logger.With("component", opts.Name),
	}
}

// Start launches the flush loop. Calling it more than once has no effect.
func (b *Batcher[T]) Start() {
	b.startOnce.Do(func() {
		b.wg.Add(1)
		go b.loop()
	})
}

// Add queues an item. It reports false when the batcher is closed and the
// item was dropped.
func (b *Batcher[T]) Add(item T) bool {
	b.mu.Lock()
	if b.closed.Load() {
		b.mu.Unlock()
		b.logger.Warn("batcher closed, dropping item")
		return false
	}
	b.inFlight.Add(1)
	b.queue = append(b.queue, item)
	depth := len(b.queue)
	b.mu.Unlock()

	b.reportQueue(depth)
	return true
}

// InFlight returns the number of items added but not yet flushed.
func (b *Batcher[T]) InFlight() int64 {
	return b.inFlight.Load()
}

// Pending returns the number of queued items.
func (b *Batcher[T]) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// Flush writes everything queued so far and returns the flush error. An
// empty queue is not flushed.
func (b *Batcher[T]) Flush(ctx context.Context) error {
	b.mu.Lock()
	items := b.queue
	b.queue = nil
	b.mu.Unlock()

	if len(items) == 0 {
		return nil
	}
	b.reportQueue(0)

	ctx, cancel := context.WithTimeout(ctx, b.opts.WriteTimeout)
	defer cancel()

	err := b.flush(ctx, items)
	// Dropped items are no longer pending either.
	b.inFlight.Add(-int64(len(items)))

	if b.opts.OnFlush != nil {
		b.opts.OnFlush(len(items), err)
	}
	if err != nil {
		b.logger.Error("flush failed, batch dropped", "items", len(items), "error", err)
		return err
	}
	b.logger.Debug("batch flushed", "items", len(items))
	return nil
}

// Close stops the flush loop and flushes the remaining items. Every Add
// that returned true before or during Close is part of the final flush.
func (b *Batcher[T]) Close() error {
	var err error
	b.closeOnce.Do(func() {
		b.mu.Lock()
		b.closed.Store(true)
		b.mu.Unlock()
		close(b.done)
		b.wg.Wait()
		err = b.Flush(context.Background())
	})
	return err
}

func (b *Batcher[T]) loop() {
	defer b.wg.Done()

	ticker := time.NewTicker(b.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = b.Flush(context.Background())
		case <-b.done:
			return
		}
	}
}

func (b *Batcher[T]) reportQueue(depth int) {
	if b.opts.OnQueue != nil {
		b.opts.OnQueue(depth)
	}
}
