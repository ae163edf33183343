package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "verify"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
	// A different operation has its own bucket
	if err := limiter.Wait(ctx, "parse_year"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

func TestLimiter_RateLimit(t *testing.T) {
	// 1 rps, burst 1
	limiter := NewLimiter(1, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "verify"); err != nil {
		t.Errorf("first wait failed: %v", err)
	}

	// Token consumed; immediate allow fails for the same operation
	if limiter.Allow("verify") {
		t.Errorf("expected allow to fail (exhausted tokens)")
	}

	// Other operations are unaffected
	if !limiter.Allow("parse_year") {
		t.Errorf("expected allow for a different operation")
	}
}

func TestLimiter_SetOperationRate(t *testing.T) {
	limiter := NewLimiter(10, 10) // fast default

	limiter.SetOperationRate("standardize_names", 0.1, 1) // very slow

	if !limiter.Allow("standardize_names") {
		t.Errorf("first call should pass on burst")
	}
	if limiter.Allow("standardize_names") {
		t.Errorf("second call should fail")
	}

	// Default-rate operations still fast
	if !limiter.Allow("verify") {
		t.Errorf("default-rate operation should pass")
	}
}

func TestLimiter_WaitWithDelay(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	start := time.Now()
	if err := limiter.WaitWithDelay(ctx, "verify", 50*time.Millisecond); err != nil {
		t.Fatalf("WaitWithDelay failed: %v", err)
	}
	if d := time.Since(start); d < 50*time.Millisecond {
		t.Errorf("expected delay >= 50ms, got %v", d)
	}
}
