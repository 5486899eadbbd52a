package tracking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rpcgate/rpcgate/pkg/batch"
	"github.com/rpcgate/rpcgate/pkg/telemetry/metrics"
)

// AggregatorOptions configures an Aggregator.
type AggregatorOptions struct {
	// FlushInterval between repository writes. Default: 1 second.
	FlushInterval time.Duration

	Metrics *metrics.Collector
	Logger  *slog.Logger
}

// Aggregator batches outcomes and writes them to a Repository.
type Aggregator struct {
	repo    Repository
	batcher *batch.Batcher[Outcome]
	metrics *metrics.Collector
}

// NewAggregator creates an aggregator. Start must be called to begin
// flushing.
func NewAggregator(repo Repository, opts AggregatorOptions) *Aggregator {
	a := &Aggregator{
		repo:    repo,
		metrics: opts.Metrics,
	}
	a.batcher = batch.New(a.write, batch.Options{
		Name:     "call_tracking",
		Interval: opts.FlushInterval,
		Logger:   opts.Logger,
		OnQueue:  opts.Metrics.SetTrackingQueueDepth,
	})
	return a
}

// Start starts the flush loop.
func (a *Aggregator) Start() {
	a.batcher.Start()
}

// Record queues one outcome.
func (a *Aggregator) Record(o Outcome) {
	a.batcher.Add(o)
}

// InFlight returns the number of recorded outcomes not yet written.
func (a *Aggregator) InFlight() int64 {
	return a.batcher.InFlight()
}

// Flush writes the queued outcomes now.
func (a *Aggregator) Flush(ctx context.Context) error {
	return a.batcher.Flush(ctx)
}

// Close stops the flush loop after a final flush.
func (a *Aggregator) Close() error {
	return a.batcher.Close()
}

func (a *Aggregator) write(ctx context.Context, outcomes []Outcome) error {
	changes := Aggregate(outcomes)
	if len(changes) == 0 {
		return nil
	}

	err := a.repo.Increment(ctx, changes)
	a.metrics.RecordTrackingFlush(len(changes), err)
	if err != nil {
		return fmt.Errorf("increment %d call statistics: %w", len(changes), err)
	}
	return nil
}
