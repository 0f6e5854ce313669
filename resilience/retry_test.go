package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewRetry_Defaults(t *testing.T) {
	cfg := NewRetry(RetryConfig{}).Config()

	if cfg.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", cfg.MaxAttempts)
	}
	if cfg.InitialDelay != 500*time.Millisecond {
		t.Errorf("InitialDelay = %v, want 500ms", cfg.InitialDelay)
	}
	if cfg.MaxDelay != 30*time.Second {
		t.Errorf("MaxDelay = %v, want 30s", cfg.MaxDelay)
	}
	if cfg.Multiplier != 2.0 {
		t.Errorf("Multiplier = %v, want 2.0", cfg.Multiplier)
	}
	if cfg.RetryIf == nil {
		t.Error("RetryIf should default to IsRetryable")
	}
}

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	r := NewRetry(RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, Strategy: BackoffConstant})

	attempts := 0
	err := r.Execute(context.Background(), func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Errorf("Execute = %v, want nil", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRetry_ReturnsLastError(t *testing.T) {
	r := NewRetry(RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond})
	last := errors.New("second")

	attempts := 0
	err := r.Execute(context.Background(), func(context.Context) error {
		attempts++
		if attempts == 1 {
			return errors.New("first")
		}
		return last
	})
	if err != last {
		t.Errorf("Execute = %v, want %v", err, last)
	}
}

func TestRetry_StopsOnPermanentError(t *testing.T) {
	r := NewRetry(RetryConfig{MaxAttempts: 5, InitialDelay: time.Millisecond})

	attempts := 0
	err := r.Execute(context.Background(), func(context.Context) error {
		attempts++
		return statusErr{retryable: false}
	})
	if err == nil {
		t.Fatal("Execute should fail")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestRetry_OnRetryCallback(t *testing.T) {
	var delays []time.Duration
	r := NewRetry(RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			delays = append(delays, delay)
		},
	})

	_ = r.Execute(context.Background(), func(context.Context) error { return errors.New("x") })

	if len(delays) != 2 {
		t.Fatalf("OnRetry calls = %d, want 2", len(delays))
	}
	if delays[0] != time.Millisecond || delays[1] != 2*time.Millisecond {
		t.Errorf("delays = %v, want [1ms 2ms]", delays)
	}
}

func TestRetry_ContextCancelledDuringWait(t *testing.T) {
	r := NewRetry(RetryConfig{MaxAttempts: 3, InitialDelay: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())

	err := r.Execute(ctx, func(context.Context) error {
		cancel()
		return errors.New("fail")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Execute = %v, want context.Canceled", err)
	}
}

func TestRetry_Delay(t *testing.T) {
	tests := []struct {
		name     string
		config   RetryConfig
		attempts []int
		want     []time.Duration
	}{
		{
			name:     "exponential",
			config:   RetryConfig{InitialDelay: 500 * time.Millisecond},
			attempts: []int{1, 2, 3},
			want:     []time.Duration{500 * time.Millisecond, time.Second, 2 * time.Second},
		},
		{
			name:     "linear",
			config:   RetryConfig{InitialDelay: 100 * time.Millisecond, Strategy: BackoffLinear},
			attempts: []int{1, 2, 3},
			want:     []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond},
		},
		{
			name:     "constant",
			config:   RetryConfig{InitialDelay: 100 * time.Millisecond, Strategy: BackoffConstant},
			attempts: []int{1, 5},
			want:     []time.Duration{100 * time.Millisecond, 100 * time.Millisecond},
		},
		{
			name:     "capped",
			config:   RetryConfig{InitialDelay: time.Second, MaxDelay: 3 * time.Second},
			attempts: []int{3, 10},
			want:     []time.Duration{3 * time.Second, 3 * time.Second},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRetry(tt.config)
			for i, a := range tt.attempts {
				if got := r.Delay(a); got != tt.want[i] {
					t.Errorf("Delay(%d) = %v, want %v", a, got, tt.want[i])
				}
			}
		})
	}
}

func TestRetry_JitterBounds(t *testing.T) {
	r := NewRetry(RetryConfig{InitialDelay: 100 * time.Millisecond, Strategy: BackoffConstant, Jitter: true})
	for i := 0; i < 100; i++ {
		d := r.Delay(1)
		if d < 100*time.Millisecond || d >= 125*time.Millisecond {
			t.Fatalf("Delay with jitter = %v, want [100ms, 125ms)", d)
		}
	}
}

func TestParseBackoffStrategy(t *testing.T) {
	for name, want := range map[string]BackoffStrategy{
		"":            BackoffExponential,
		"exponential": BackoffExponential,
		"linear":      BackoffLinear,
		"constant":    BackoffConstant,
	} {
		got, err := ParseBackoffStrategy(name)
		if err != nil || got != want {
			t.Errorf("ParseBackoffStrategy(%q) = %v, %v; want %v", name, got, err, want)
		}
	}
	if _, err := ParseBackoffStrategy("fibonacci"); err == nil {
		t.Error("ParseBackoffStrategy(fibonacci) should fail")
	}
	if BackoffLinear.String() != "linear" {
		t.Errorf("BackoffLinear.String() = %q", BackoffLinear.String())
	}
}

func TestDo_ReturnsValue(t *testing.T) {
	r := NewRetry(RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond})

	calls := 0
	got, err := Do(context.Background(), r, func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})
	if err != nil || got != "ok" {
		t.Errorf("Do = %q, %v; want ok, nil", got, err)
	}
}
