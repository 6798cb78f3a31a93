package batch

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunAllPreservesOrder(t *testing.T) {
	e := NewExecutor(2)

	jobs := make([]func(context.Context) int, 10)
	for i := range jobs {
		v := i * 10
		jobs[i] = func(context.Context) int {
			// Later jobs finish first to make ordering bugs visible.
			time.Sleep(time.Duration(10-v/10) * time.Millisecond)
			return v
		}
	}

	results := RunAll(context.Background(), e, jobs)

	require.Len(t, results, 10)
	for i, r := range results {
		assert.Equal(t, i*10, r)
	}
}

func TestRunAllHonorsLimit(t *testing.T) {
	const limit = 3
	e := NewExecutor(limit)

	var inFlight, peak int64
	jobs := make([]func(context.Context) struct{}, 12)
	for i := range jobs {
		jobs[i] = func(context.Context) struct{} {
			n := atomic.AddInt64(&inFlight, 1)
			for {
				p := atomic.LoadInt64(&peak)
				if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt64(&inFlight, -1)
			return struct{}{}
		}
	}

	RunAll(context.Background(), e, jobs)

	assert.LessOrEqual(t, atomic.LoadInt64(&peak), int64(limit))
}

func TestRunAllIsolatesPanics(t *testing.T) {
	e := NewExecutor(2)

	jobs := []func(context.Context) int{
		func(context.Context) int { return 1 },
		func(context.Context) int { panic("boom") },
		func(context.Context) int { return 3 },
	}

	results := RunAll(context.Background(), e, jobs)

	require.Len(t, results, 3)
	assert.Equal(t, 1, results[0])
	assert.Equal(t, 0, results[1])
	assert.Equal(t, 3, results[2])
}

func TestRunAllStopsOnCancel(t *testing.T) {
	e := NewExecutor(1)
	ctx, cancel := context.WithCancel(context.Background())

	var started sync.WaitGroup
	started.Add(1)
	var once sync.Once

	jobs := make([]func(context.Context) bool, 5)
	jobs[0] = func(ctx context.Context) bool {
		once.Do(started.Done)
		<-ctx.Done()
		return true
	}
	for i := 1; i < 5; i++ {
		jobs[i] = func(context.Context) bool { return true }
	}

	go func() {
		started.Wait()
		cancel()
	}()

	results := RunAll(ctx, e, jobs)

	require.Len(t, results, 5)
	assert.True(t, results[0])
	// A release can race the cancellation inside semaphore.Acquire, letting at
	// most one queued job slip through before the loop sees the cancelled
	// context.
	ran := 0
	for i := 1; i < 5; i++ {
		if results[i] {
			ran++
		}
	}
	assert.LessOrEqual(t, ran, 1)
}

func TestNewExecutorClampsLimit(t *testing.T) {
	assert.Equal(t, 1, NewExecutor(0).Limit())
	assert.Equal(t, 1, NewExecutor(-3).Limit())
	assert.Equal(t, 4, NewExecutor(4).Limit())
}
