package worker

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter implements per-operation rate limiting for collaborator calls.
// Each operation name gets its own token bucket.
type Limiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a new rate limiter.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}

	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  rate.Limit(requestsPerSecond),
		defaultBurst: burst,
	}
}

// Wait blocks until the operation's rate limit clears or ctx is done.
func (l *Limiter) Wait(ctx context.Context, operation string) error {
	return l.getLimiter(operation).Wait(ctx)
}

// Allow checks if a call is allowed without waiting.
func (l *Limiter) Allow(operation string) bool {
	return l.getLimiter(operation).Allow()
}

// getLimiter returns the rate limiter for an operation.
func (l *Limiter) getLimiter(operation string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[operation]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := l.limiters[operation]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters[operation] = limiter

	return limiter
}

// SetOperationRate sets a custom rate limit for a specific operation.
func (l *Limiter) SetOperationRate(operation string, requestsPerSecond float64, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if burst <= 0 {
		burst = l.defaultBurst
	}

	l.limiters[operation] = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

// WaitWithDelay waits for rate limit clearance and adds a fixed delay.
func (l *Limiter) WaitWithDelay(ctx context.Context, operation string, additionalDelay time.Duration) error {
	if err := l.Wait(ctx, operation); err != nil {
		return err
	}

	if additionalDelay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(additionalDelay):
		}
	}

	return nil
}
