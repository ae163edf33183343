package worker

import (
	"context"
	"time"
)

// Runner executes jobs through a worker pool in bounded batches with a fixed
// inter-batch delay. There is no adaptive backpressure; retry policy lives
// with the individual jobs.
type Runner struct {
	workers    int
	batchSize  int
	batchDelay time.Duration
}

// NewRunner creates a batch runner. A batchSize of zero or less disables
// batching and submits every job at once.
func NewRunner(workers, batchSize int, batchDelay time.Duration) *Runner {
	if workers <= 0 {
		workers = 1
	}
	return &Runner{
		workers:    workers,
		batchSize:  batchSize,
		batchDelay: batchDelay,
	}
}

// Run executes all jobs and returns their results. Order of results is not
// guaranteed within a batch; callers carry identity inside their Result.
func (r *Runner) Run(ctx context.Context, jobs []Job) []Result {
	if len(jobs) == 0 {
		return []Result{}
	}

	size := r.batchSize
	if size <= 0 {
		size = len(jobs)
	}

	results := make([]Result, 0, len(jobs))
	for start := 0; start < len(jobs); start += size {
		end := start + size
		if end > len(jobs) {
			end = len(jobs)
		}

		pool := NewPool(r.workers)
		pool.Start()
		for _, job := range jobs[start:end] {
			pool.Submit(job)
		}
		results = append(results, pool.Wait()...)

		if end < len(jobs) && r.batchDelay > 0 {
			select {
			case <-ctx.Done():
				return results
			case <-time.After(r.batchDelay):
			}
		}
	}

	return results
}
