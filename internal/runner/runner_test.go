package runner_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/quantfold/backtestctl/internal/core"
	"github.com/quantfold/backtestctl/internal/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	mu      sync.Mutex
	calls   int
	result  *core.RunResult
	err     error
	block   chan struct{} // if set, Submit blocks until closed
	lastCfg core.RunConfig
}

func (f *fakeGateway) SubmitBacktest(ctx context.Context, cfg core.RunConfig) (*core.RunResult, error) {
	f.mu.Lock()
	f.calls++
	f.lastCfg = cfg
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeGateway) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeStore struct {
	mu        sync.Mutex
	refreshes int
	err       error
}

func (f *fakeStore) Refresh(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	return f.err
}

func (f *fakeStore) refreshCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshes
}

func TestRunner_Submit_EmptyStrategy(t *testing.T) {
	gw := &fakeGateway{}
	store := &fakeStore{}
	r := runner.New(gw, store, nil)

	n := r.Submit(context.Background())

	assert.Equal(t, runner.LevelError, n.Level)
	assert.True(t, errors.Is(n.Err, core.ErrValidationFailed))
	assert.Equal(t, 0, gw.callCount(), "validation failure must not reach the gateway")
	assert.Equal(t, 0, store.refreshCount())
	assert.Equal(t, runner.StateIdle, r.State(), "machine returns to idle")
}

func TestRunner_Submit_InvalidDateRange(t *testing.T) {
	gw := &fakeGateway{}
	r := runner.New(gw, &fakeStore{}, nil)
	r.SetStrategy("s-1")
	r.SetDates("2024-01-01", "2023-01-01")

	n := r.Submit(context.Background())

	require.True(t, errors.Is(n.Err, core.ErrValidationFailed))
	assert.Contains(t, n.Message, "end date")
	assert.Equal(t, 0, gw.callCount())
}

func TestRunner_Submit_NonPositiveCapital(t *testing.T) {
	gw := &fakeGateway{}
	r := runner.New(gw, &fakeStore{}, nil)
	r.SetStrategy("s-1")
	r.SetInitialCapital(0)

	n := r.Submit(context.Background())

	require.True(t, errors.Is(n.Err, core.ErrValidationFailed))
	assert.Contains(t, n.Message, "capital")
	assert.Equal(t, 0, gw.callCount())
}

func TestRunner_Submit_Success(t *testing.T) {
	gw := &fakeGateway{result: &core.RunResult{
		BacktestID: "b-1",
		Metrics:    core.RunMetrics{TotalReturn: 12.5, TotalTrades: 8},
	}}
	store := &fakeStore{}
	r := runner.New(gw, store, nil)
	r.SetStrategy("s-1")

	n := r.Submit(context.Background())

	assert.Equal(t, runner.LevelInfo, n.Level)
	assert.Contains(t, n.Message, "12.5", "total return surfaced verbatim")
	assert.Contains(t, n.Message, "8", "trade count surfaced verbatim")
	assert.Equal(t, 1, store.refreshCount(), "store refreshed exactly once after success")
	require.NotNil(t, n.Result)
	assert.Equal(t, "b-1", n.Result.BacktestID)

	// Draft is preserved so the user can re-run with tweaks.
	assert.Equal(t, "s-1", r.Draft().StrategyID)
	assert.Equal(t, "AAPL", r.Draft().Symbol)
}

func TestRunner_Submit_ServerRejected(t *testing.T) {
	gw := &fakeGateway{err: core.Rejected("invalid date range")}
	store := &fakeStore{}
	r := runner.New(gw, store, nil)
	r.SetStrategy("s-1")

	n := r.Submit(context.Background())

	assert.Equal(t, runner.LevelError, n.Level)
	assert.Contains(t, n.Message, "invalid date range", "server detail surfaced verbatim")
	assert.Equal(t, 0, store.refreshCount(), "no refresh on failure")
}

func TestRunner_Submit_ServiceUnavailable(t *testing.T) {
	gw := &fakeGateway{err: core.WrapError(core.ErrServiceUnavailable, errors.New("dial tcp: refused"))}
	r := runner.New(gw, &fakeStore{}, nil)
	r.SetStrategy("s-1")

	n := r.Submit(context.Background())

	assert.Equal(t, runner.LevelError, n.Level)
	assert.False(t, strings.Contains(n.Message, "dial tcp"), "transport detail stays out of the notification")
	assert.NotEmpty(t, n.Message)
}

func TestRunner_Submit_BusyFlag(t *testing.T) {
	block := make(chan struct{})
	gw := &fakeGateway{
		result: &core.RunResult{BacktestID: "b-1"},
		block:  block,
	}
	r := runner.New(gw, &fakeStore{}, nil)
	r.SetStrategy("s-1")

	done := make(chan runner.Notification, 1)
	go func() { done <- r.Submit(context.Background()) }()

	// Wait until the first submission is in flight.
	for gw.callCount() == 0 {
		time.Sleep(time.Millisecond)
	}
	assert.True(t, r.Busy())

	second := r.Submit(context.Background())
	assert.True(t, errors.Is(second.Err, core.ErrSubmitBusy))
	assert.Equal(t, 1, gw.callCount(), "double submission is blocked while in flight")

	close(block)
	first := <-done
	assert.Equal(t, runner.LevelInfo, first.Level)
	assert.False(t, r.Busy())
}

func TestRunner_Submit_RefreshFailureKeepsSuccess(t *testing.T) {
	gw := &fakeGateway{result: &core.RunResult{
		BacktestID: "b-1",
		Metrics:    core.RunMetrics{TotalReturn: 1, TotalTrades: 1},
	}}
	store := &fakeStore{err: core.WrapError(core.ErrServiceUnavailable, errors.New("down"))}
	r := runner.New(gw, store, nil)
	r.SetStrategy("s-1")

	n := r.Submit(context.Background())

	assert.Equal(t, runner.LevelInfo, n.Level, "a failed refresh does not demote the run outcome")
	assert.Equal(t, 1, store.refreshCount())
}

func TestRunner_DraftMutation(t *testing.T) {
	r := runner.New(&fakeGateway{}, &fakeStore{}, nil)

	r.SetStrategy("s-9")
	r.SetSymbol("BTC-USD")
	r.SetDates("2022-06-01", "2022-12-31")
	r.SetInitialCapital(50000)

	d := r.Draft()
	assert.Equal(t, "s-9", d.StrategyID)
	assert.Equal(t, "BTC-USD", d.Symbol)
	assert.Equal(t, "2022-06-01", d.StartDate)
	assert.Equal(t, "2022-12-31", d.EndDate)
	assert.Equal(t, 50000.0, d.InitialCapital)
}
