package collab

import (
	"context"
	"time"

	"github.com/esgkit/factpanel/internal/model"
	"github.com/esgkit/factpanel/internal/worker"
)

// retrySleepFunc is the sleep function used between retries (injectable for tests)
var retrySleepFunc = time.Sleep

// Retrying wraps a Collaborator with per-operation rate limiting, a per-call
// timeout and bounded exponential-backoff retry on transient failures. A call
// that exceeds its timeout counts as transient; only an exhausted retry
// budget becomes a RateLimitError, which marks the owning group failed.
type Retrying struct {
	next       Collaborator
	limiter    *worker.Limiter
	maxRetries int
	timeout    time.Duration
}

// NewRetrying creates the retrying wrapper.
func NewRetrying(next Collaborator, limiter *worker.Limiter, maxRetries int, timeout time.Duration) *Retrying {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Retrying{
		next:       next,
		limiter:    limiter,
		maxRetries: maxRetries,
		timeout:    timeout,
	}
}

// do runs one operation through the limiter and retry loop.
func (r *Retrying) do(ctx context.Context, operation string, call func(ctx context.Context) error) error {
	var last error
	for attempt := 0; attempt < r.maxRetries; attempt++ {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx, operation); err != nil {
				return err
			}
		}

		callCtx := ctx
		cancel := func() {}
		if r.timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, r.timeout)
		}
		err := call(callCtx)
		cancel()

		if err == nil {
			return nil
		}
		last = err

		if !model.IsTransient(err) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt < r.maxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			retrySleepFunc(backoff)
		}
	}

	return &model.RateLimitError{Operation: operation, Attempts: r.maxRetries, Last: last}
}

// ExtractCandidates implements Collaborator.
func (r *Retrying) ExtractCandidates(ctx context.Context, req *ExtractCandidatesRequest) (*ExtractCandidatesResponse, error) {
	var resp *ExtractCandidatesResponse
	err := r.do(ctx, OpExtractCandidates, func(ctx context.Context) error {
		var callErr error
		resp, callErr = r.next.ExtractCandidates(ctx, req)
		return callErr
	})
	return resp, err
}

// ResolveLineage implements Collaborator.
func (r *Retrying) ResolveLineage(ctx context.Context, req *ResolveLineageRequest) (*ResolveLineageResponse, error) {
	var resp *ResolveLineageResponse
	err := r.do(ctx, OpResolveLineage, func(ctx context.Context) error {
		var callErr error
		resp, callErr = r.next.ResolveLineage(ctx, req)
		return callErr
	})
	return resp, err
}

// Verify implements Collaborator.
func (r *Retrying) Verify(ctx context.Context, req *VerifyRequest) (*VerifyResponse, error) {
	var resp *VerifyResponse
	err := r.do(ctx, OpVerify, func(ctx context.Context) error {
		var callErr error
		resp, callErr = r.next.Verify(ctx, req)
		return callErr
	})
	return resp, err
}

// StandardizeNames implements Collaborator.
func (r *Retrying) StandardizeNames(ctx context.Context, req *StandardizeNamesRequest) (*StandardizeNamesResponse, error) {
	var resp *StandardizeNamesResponse
	err := r.do(ctx, OpStandardizeNames, func(ctx context.Context) error {
		var callErr error
		resp, callErr = r.next.StandardizeNames(ctx, req)
		return callErr
	})
	return resp, err
}

// ParseYear implements Collaborator.
func (r *Retrying) ParseYear(ctx context.Context, req *ParseYearRequest) (*ParseYearResponse, error) {
	var resp *ParseYearResponse
	err := r.do(ctx, OpParseYear, func(ctx context.Context) error {
		var callErr error
		resp, callErr = r.next.ParseYear(ctx, req)
		return callErr
	})
	return resp, err
}
