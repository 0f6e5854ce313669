package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewRateLimiter_Defaults(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{})
	cfg := rl.Config()
	if cfg.Rate != 10 || cfg.Burst != 5 || cfg.MaxWait != time.Second {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestRateLimiter_Burst(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 1, Burst: 3})

	for i := 0; i < 3; i++ {
		if !rl.Allow() {
			t.Fatalf("Allow #%d = false, want true", i+1)
		}
	}
	if rl.Allow() {
		t.Error("Allow beyond burst = true, want false")
	}
}

func TestRateLimiter_ExecuteRejects(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.001, Burst: 1})
	ctx := context.Background()

	if err := rl.Execute(ctx, succeedOp); err != nil {
		t.Fatalf("first Execute = %v, want nil", err)
	}
	if err := rl.Execute(ctx, succeedOp); !errors.Is(err, ErrRateLimitExceeded) {
		t.Errorf("second Execute = %v, want ErrRateLimitExceeded", err)
	}
	if rl.Rejected() != 1 {
		t.Errorf("Rejected = %d, want 1", rl.Rejected())
	}
}

func TestRateLimiter_WaitGetsToken(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 100, Burst: 1, WaitOnLimit: true, MaxWait: time.Second})
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := rl.Execute(ctx, succeedOp); err != nil {
			t.Fatalf("Execute #%d = %v", i+1, err)
		}
	}
	if elapsed := time.Since(start); elapsed < 15*time.Millisecond {
		t.Errorf("3 calls at 100/s with burst 1 took %v, want >= 15ms", elapsed)
	}
}

func TestRateLimiter_WaitBeyondMaxWait(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.1, Burst: 1, WaitOnLimit: true, MaxWait: 10 * time.Millisecond})
	ctx := context.Background()

	_ = rl.Execute(ctx, succeedOp)
	if err := rl.Execute(ctx, succeedOp); !errors.Is(err, ErrRateLimitExceeded) {
		t.Errorf("Execute = %v, want ErrRateLimitExceeded", err)
	}
}

func TestRateLimiter_WaitCancelled(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 1, Burst: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := rl.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait = %v, want context.Canceled", err)
	}
}

func TestRateLimiter_Reset(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.001, Burst: 2})
	rl.Allow()
	rl.Allow()
	if rl.Tokens() >= 1 {
		t.Fatalf("Tokens = %v, want < 1", rl.Tokens())
	}
	rl.Reset()
	if rl.Tokens() < 2 {
		t.Errorf("Tokens after Reset = %v, want 2", rl.Tokens())
	}
}
