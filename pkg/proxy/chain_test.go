package proxy

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStage struct {
	NoDrain
	name     string
	proceed  bool
	err      error
	calls    int
	terminal bool
	respond  int
}

func (s *fakeStage) Name() string { return s.name }

func (s *fakeStage) Terminal() bool { return s.terminal }

func (s *fakeStage) Process(ctx context.Context, rc *RequestContext) (bool, error) {
	s.calls++
	if s.respond != 0 {
		rc.Respond(s.respond, nil, nil)
	}
	if s.terminal && s.err == nil {
		return true, rc.SetResponse(ctx, &BackendResponse{StatusCode: http.StatusOK, Body: []byte(`{}`)})
	}
	return s.proceed, s.err
}

func newTestContext() *RequestContext {
	return NewRequestContext(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil), nil)
}

func TestNewChain_RequiresTerminalStage(t *testing.T) {
	_, err := NewChain()
	assert.ErrorIs(t, err, ErrNoTerminalStage)

	_, err = NewChain(&fakeStage{name: "a", proceed: true})
	assert.ErrorIs(t, err, ErrNoTerminalStage)

	_, err = NewChain(&fakeStage{name: "a"}, nil, &fakeStage{name: "fwd", terminal: true})
	assert.Error(t, err)

	c, err := NewChain(&fakeStage{name: "a", proceed: true}, &fakeStage{name: "fwd", terminal: true})
	require.NoError(t, err)
	assert.Len(t, c.Stages(), 2)
}

func TestChain_RunsStagesInOrder(t *testing.T) {
	first := &fakeStage{name: "first", proceed: true}
	last := &fakeStage{name: "forward", terminal: true}
	c, err := NewChain(first, last)
	require.NoError(t, err)

	rc := newTestContext()
	require.NoError(t, c.Run(context.Background(), rc))

	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, last.calls)
	assert.NotNil(t, rc.Response)
}

func TestChain_StopsOnShortCircuit(t *testing.T) {
	limiter := &fakeStage{name: "limit", respond: http.StatusTooManyRequests}
	last := &fakeStage{name: "forward", terminal: true}
	c, err := NewChain(limiter, last)
	require.NoError(t, err)

	rc := newTestContext()
	require.NoError(t, c.Run(context.Background(), rc))

	assert.Zero(t, last.calls)
	assert.True(t, rc.Responded())
	assert.Equal(t, http.StatusTooManyRequests, rc.Status())
}

func TestChain_StopsOnError(t *testing.T) {
	boom := errors.New("boom")
	failing := &fakeStage{name: "store", err: boom}
	last := &fakeStage{name: "forward", terminal: true}
	c, err := NewChain(failing, last)
	require.NoError(t, err)

	err = c.Run(context.Background(), newTestContext())
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "store")
	assert.Zero(t, last.calls)
}

func TestRequestContext_SecondForwardFails(t *testing.T) {
	rc := newTestContext()
	var hooked int
	rc.OnForwarded(func(context.Context, *RequestContext) { hooked++ })

	require.NoError(t, rc.SetResponse(context.Background(), &BackendResponse{StatusCode: 200}))
	assert.ErrorIs(t, rc.SetResponse(context.Background(), &BackendResponse{StatusCode: 200}), ErrAlreadyForwarded)
	assert.Equal(t, 1, hooked)
}

type slowStage struct {
	fakeStage
	pending atomic.Int64
}

func (s *slowStage) Drain(ctx context.Context) <-chan struct{} {
	return PollDrain(ctx, s.pending.Load, 5*time.Millisecond, time.Second)
}

func TestChain_DrainWaitsForAllStages(t *testing.T) {
	slow := &slowStage{fakeStage: fakeStage{name: "slow", proceed: true}}
	slow.pending.Store(1)
	c, err := NewChain(slow, &fakeStage{name: "forward", terminal: true})
	require.NoError(t, err)

	go func() {
		time.Sleep(20 * time.Millisecond)
		slow.pending.Store(0)
	}()

	start := time.Now()
	assert.Empty(t, c.Drain(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
}

func TestChain_DrainHonorsContext(t *testing.T) {
	slow := &slowStage{fakeStage: fakeStage{name: "slow", proceed: true}}
	slow.pending.Store(1)
	c, err := NewChain(slow, &fakeStage{name: "forward", terminal: true})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	done := make(chan struct{})
	go func() {
		_ = c.Drain(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("drain did not return after cancellation")
	}
}

type stuckStage struct {
	fakeStage
}

func (s *stuckStage) Drain(ctx context.Context) <-chan struct{} {
	return PollDrain(context.Background(), func() int64 { return 1 }, 5*time.Millisecond, 200*time.Millisecond)
}

func TestChain_DrainTimeoutIsNotAnError(t *testing.T) {
	stuck := &stuckStage{fakeStage: fakeStage{name: "stuck", proceed: true}}
	c, err := NewChain(stuck, &fakeStage{name: "forward", terminal: true})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	abandoned := c.Drain(ctx)
	assert.Equal(t, []string{"stuck"}, abandoned)
	assert.Less(t, time.Since(start), 180*time.Millisecond)
}
