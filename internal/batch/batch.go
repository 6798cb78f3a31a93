package batch

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Executor bounds how many jobs run concurrently. The limiter is owned by the
// executor and injected where batches are run; there is no ambient global.
type Executor struct {
	sem   *semaphore.Weighted
	limit int
}

func NewExecutor(limit int) *Executor {
	if limit <= 0 {
		limit = 1
	}
	return &Executor{
		sem:   semaphore.NewWeighted(int64(limit)),
		limit: limit,
	}
}

// Limit returns the concurrency ceiling.
func (e *Executor) Limit() int {
	return e.limit
}

// RunAll executes every job with at most the executor's limit in flight and
// returns results in input order: results[i] is always the outcome of
// jobs[i], regardless of completion order. A panicking job contributes its
// zero value and does not disturb sibling jobs. When ctx is cancelled,
// jobs that have not acquired a slot are skipped (zero value) and running
// jobs see the cancelled context; completed results are preserved.
func RunAll[T any](ctx context.Context, e *Executor, jobs []func(context.Context) T) []T {
	results := make([]T, len(jobs))

	var wg sync.WaitGroup
	for i, job := range jobs {
		if ctx.Err() != nil {
			break
		}
		if err := e.sem.Acquire(ctx, 1); err != nil {
			break
		}

		wg.Add(1)
		go func(i int, job func(context.Context) T) {
			defer wg.Done()
			defer e.sem.Release(1)
			defer func() {
				// A panic is a per-job failure, not a batch failure.
				_ = recover()
			}()
			results[i] = job(ctx)
		}(i, job)
	}
	wg.Wait()

	return results
}
