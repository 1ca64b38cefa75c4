package scheduler_test

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matchday-hq/matchday/internal/scheduler"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// --- CycleRunner stub ---

type stubRunner struct {
	mu      sync.Mutex
	calls   int
	gotCtx  context.Context
	started chan struct{}
}

func newStubRunner() *stubRunner {
	return &stubRunner{started: make(chan struct{}, 16)}
}

func (r *stubRunner) RunCycle(ctx context.Context) {
	r.mu.Lock()
	r.calls++
	r.gotCtx = ctx
	r.mu.Unlock()
	select {
	case r.started <- struct{}{}:
	default:
	}
}

func (r *stubRunner) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func TestSchedulerRunsCyclesAtInterval(t *testing.T) {
	runner := newStubRunner()
	sched, err := scheduler.New(scheduler.Config{
		Engine:       runner,
		Logger:       newTestLogger(),
		PollInterval: 10 * time.Millisecond,
	})
	require.NoError(t, err)

	require.NoError(t, sched.Start(context.Background()))
	defer func() { _ = sched.Stop() }()

	// Wait for at least two cycles to fire.
	for i := 0; i < 2; i++ {
		select {
		case <-runner.started:
		case <-time.After(2 * time.Second):
			t.Fatal("detection cycle did not run")
		}
	}
	assert.GreaterOrEqual(t, runner.callCount(), 2)
}

func TestSchedulerCycleTimeoutBoundsContext(t *testing.T) {
	runner := newStubRunner()
	sched, err := scheduler.New(scheduler.Config{
		Engine:       runner,
		Logger:       newTestLogger(),
		PollInterval: 10 * time.Millisecond,
		CycleTimeout: 5 * time.Second,
	})
	require.NoError(t, err)

	require.NoError(t, sched.Start(context.Background()))
	defer func() { _ = sched.Stop() }()

	select {
	case <-runner.started:
	case <-time.After(2 * time.Second):
		t.Fatal("detection cycle did not run")
	}

	runner.mu.Lock()
	ctx := runner.gotCtx
	runner.mu.Unlock()
	_, hasDeadline := ctx.Deadline()
	assert.True(t, hasDeadline, "cycle context should carry the cycle timeout")
}

func TestSchedulerStopHaltsCycles(t *testing.T) {
	runner := newStubRunner()
	sched, err := scheduler.New(scheduler.Config{
		Engine:       runner,
		Logger:       newTestLogger(),
		PollInterval: 10 * time.Millisecond,
	})
	require.NoError(t, err)

	require.NoError(t, sched.Start(context.Background()))
	select {
	case <-runner.started:
	case <-time.After(2 * time.Second):
		t.Fatal("detection cycle did not run")
	}

	require.NoError(t, sched.Stop())
	after := runner.callCount()
	time.Sleep(50 * time.Millisecond)
	assert.LessOrEqual(t, runner.callCount(), after+1, "no new cycles after shutdown")
}
