package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnqueueRunsJobs(t *testing.T) {
	w := NewWorker(2)
	defer w.Shutdown()

	done := make(chan struct{})
	w.Enqueue("ok", func(ctx context.Context) error {
		close(done)
		return nil
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run")
	}

	require.Eventually(t, func() bool {
		return w.GetStats().CompletedJobs == 1
	}, 2*time.Second, 10*time.Millisecond)
	stats := w.GetStats()
	assert.Zero(t, stats.FailedJobs)
	assert.Contains(t, stats.LastRuns, "ok")
}

func TestFailuresAndPanicsAreCounted(t *testing.T) {
	w := NewWorker(1)
	defer w.Shutdown()

	w.Enqueue("fails", func(ctx context.Context) error {
		return errors.New("boom")
	})
	w.Enqueue("panics", func(ctx context.Context) error {
		panic("bad state")
	})

	require.Eventually(t, func() bool {
		return w.GetStats().FailedJobs == 2
	}, 2*time.Second, 10*time.Millisecond)

	stats := w.GetStats()
	assert.Equal(t, int64(2), stats.CompletedJobs)
	assert.Equal(t, "boom", stats.LastRuns["fails"].Error)
	assert.Contains(t, stats.LastRuns["panics"].Error, "bad state")
	assert.Zero(t, stats.ActiveJobs)
}

func TestScheduleEveryImmediate(t *testing.T) {
	w := NewWorker(1)

	var runs atomic.Int32
	w.ScheduleEveryImmediate("sweep", 20*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})

	require.Eventually(t, func() bool {
		return runs.Load() >= 3
	}, 2*time.Second, 5*time.Millisecond)

	w.Shutdown()
	after := runs.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, runs.Load())
}

func TestScheduleEveryWaitsForFirstInterval(t *testing.T) {
	w := NewWorker(1)
	defer w.Shutdown()

	var runs atomic.Int32
	w.ScheduleEvery("gauge", 200*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, runs.Load())

	require.Eventually(t, func() bool {
		return runs.Load() >= 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, w.GetStats().LastRuns, "gauge")
}
