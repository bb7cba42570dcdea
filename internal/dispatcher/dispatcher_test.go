// Package dispatcher contains tests for worker coordination.
package dispatcher

import (
	"context"
	"errors"
	"runtime"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/news-archive-dataset/internal/dataset"
	"github.com/JakeFAU/news-archive-dataset/internal/metrics"
)

func TestResolveWorkers(t *testing.T) {
	t.Parallel()

	n, err := ResolveWorkers(AllCPUs)
	require.NoError(t, err)
	assert.Equal(t, runtime.NumCPU(), n)

	n, err = ResolveWorkers(4)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	for _, bad := range []int{0, -2, -10} {
		_, err := ResolveWorkers(bad)
		assert.Error(t, err, "workers=%d", bad)
	}
}

func TestRunProcessesEveryItemOnce(t *testing.T) {
	t.Parallel()

	var (
		mu   sync.Mutex
		seen []int
	)
	tally := metrics.NewTally()
	factory := func(int) Handler[int] {
		return func(_ context.Context, item int) dataset.Outcome {
			mu.Lock()
			seen = append(seen, item)
			mu.Unlock()
			if item%2 == 0 {
				return dataset.OutcomeSucceeded
			}
			return dataset.OutcomeStructure
		}
	}

	err := Run(context.Background(), Config{Stage: "test-once", Workers: 4, Logger: zap.NewNop()},
		slices.Values([]int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}), factory, tally)
	require.NoError(t, err)

	sort.Ints(seen)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, seen)
	assert.Equal(t, int64(5), tally.Count("test-once", dataset.OutcomeSucceeded))
	assert.Equal(t, int64(5), tally.Count("test-once", dataset.OutcomeStructure))
}

func TestRunBuildsOneHandlerPerWorker(t *testing.T) {
	t.Parallel()

	var built atomic.Int32
	factory := func(int) Handler[string] {
		built.Add(1)
		return func(context.Context, string) dataset.Outcome { return dataset.OutcomeSucceeded }
	}
	require.NoError(t, Run(context.Background(), Config{Stage: "test-factory", Workers: 3},
		slices.Values([]string{"a", "b"}), factory, nil))
	assert.Equal(t, int32(3), built.Load())
}

func TestRunRecoversPanics(t *testing.T) {
	t.Parallel()

	tally := metrics.NewTally()
	factory := func(int) Handler[int] {
		return func(_ context.Context, item int) dataset.Outcome {
			if item == 2 {
				panic("boom")
			}
			return dataset.OutcomeSucceeded
		}
	}
	err := Run(context.Background(), Config{Stage: "test-panic", Workers: 1},
		slices.Values([]int{1, 2, 3}), factory, tally)
	require.NoError(t, err)
	assert.Equal(t, int64(2), tally.Count("test-panic", dataset.OutcomeSucceeded))
	assert.Equal(t, int64(1), tally.Count("test-panic", dataset.OutcomeUnknown))
}

func TestRunStopsDispatchOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{})
	var processed atomic.Int32
	factory := func(int) Handler[int] {
		return func(ctx context.Context, item int) dataset.Outcome {
			processed.Add(1)
			if item == 0 {
				close(started)
				<-ctx.Done()
				return dataset.Classify(ctx.Err())
			}
			return dataset.OutcomeSucceeded
		}
	}
	items := func(yield func(int) bool) {
		for i := 0; ; i++ {
			if !yield(i) {
				return
			}
		}
	}

	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, Config{Stage: "test-cancel", Workers: 1}, items, factory, nil)
	}()

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("worker did not start")
	}
	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop after context cancel")
	}
	assert.LessOrEqual(t, processed.Load(), int32(2))
}

func TestRunRejectsInvalidWorkers(t *testing.T) {
	t.Parallel()

	called := false
	factory := func(int) Handler[int] {
		called = true
		return nil
	}
	err := Run(context.Background(), Config{Stage: "test-invalid", Workers: 0}, slices.Values([]int{1}), factory, nil)
	require.Error(t, err)
	assert.False(t, called)
}
