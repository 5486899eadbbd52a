package proxy

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Stage is one step of the request pipeline.
//
// Process returns proceed == false when the stage has written the response
// itself; the remaining stages are skipped.
type Stage interface {
	Name() string
	Process(ctx context.Context, rc *RequestContext) (proceed bool, err error)
	Drainer
}

// TerminalStage is a stage that can end a chain, i.e. one that produces the
// backend response.
type TerminalStage interface {
	Stage
	Terminal() bool
}

// ErrNoTerminalStage is returned by NewChain when the last stage does not
// produce a response.
var ErrNoTerminalStage = errors.New("last stage must be terminal")

// Chain runs stages in order. It is immutable and shared by all requests.
type Chain struct {
	stages []Stage
}

// NewChain builds a chain. The last stage must be terminal.
func NewChain(stages ...Stage) (*Chain, error) {
	if len(stages) == 0 {
		return nil, fmt.Errorf("empty chain: %w", ErrNoTerminalStage)
	}
	for i, s := range stages {
		if s == nil {
			return nil, fmt.Errorf("stage %d is nil", i)
		}
	}

	last, ok := stages[len(stages)-1].(TerminalStage)
	if !ok || !last.Terminal() {
		return nil, fmt.Errorf("stage %q: %w", stages[len(stages)-1].Name(), ErrNoTerminalStage)
	}

	return &Chain{stages: append([]Stage(nil), stages...)}, nil
}

// Stages returns the stages in execution order.
func (c *Chain) Stages() []Stage {
	return append([]Stage(nil), c.stages...)
}

// Run processes rc through every stage. It stops at the first error or at
// the first stage that responded on its own.
func (c *Chain) Run(ctx context.Context, rc *RequestContext) error {
	for _, s := range c.stages {
		proceed, err := s.Process(ctx, rc)
		if err != nil {
			return fmt.Errorf("%s: %w", s.Name(), err)
		}
		if !proceed {
			return nil
		}
	}
	return nil
}

// Drain waits for every stage to drain concurrently and returns the names
// of the stages still pending when ctx ended. Those drains are abandoned,
// not retried.
func (c *Chain) Drain(ctx context.Context) (abandoned []string) {
	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	for _, s := range c.stages {
		g.Go(func() error {
			drained := s.Drain(ctx)
			select {
			case <-drained:
				return nil
			case <-ctx.Done():
			}
			select {
			case <-drained:
			default:
				mu.Lock()
				abandoned = append(abandoned, s.Name())
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return abandoned
}
