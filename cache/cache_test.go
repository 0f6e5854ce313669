package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually advanced clock for expiry and LRU tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// TestCacheKey_Validation tests key validation rules.
func TestCacheKey_Validation(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr error
	}{
		{"empty key", "", ErrInvalidKey},
		{"valid key", "analysis:language:0123456789abcdef", nil},
		{"too long", strings.Repeat("x", MaxKeyLength+1), ErrKeyTooLong},
		{"contains newline", "key\nwith\nnewlines", ErrInvalidKey},
		{"contains carriage return", "key\rwith\rreturns", ErrInvalidKey},
		{"whitespace only", "   ", ErrInvalidKey},
		{"max length exactly", strings.Repeat("x", MaxKeyLength), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateKey(tt.key)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateKey(%q) = %v, want nil", tt.key, err)
				}
			} else {
				if err != tt.wantErr {
					t.Errorf("ValidateKey(%q) = %v, want %v", tt.key, err, tt.wantErr)
				}
			}
		})
	}
}

func TestEntry_ExpiredAndTTL(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	e := Entry{CreatedAt: now, ExpiresAt: now.Add(time.Minute)}

	if e.Expired(now) {
		t.Error("Expired(created) = true, want false")
	}
	if e.Expired(now.Add(time.Minute)) {
		t.Error("Expired(expiresAt) = true, want false")
	}
	if !e.Expired(now.Add(time.Minute + time.Nanosecond)) {
		t.Error("Expired(after expiresAt) = false, want true")
	}
	if got := e.TTL(now.Add(20 * time.Second)); got != 40*time.Second {
		t.Errorf("TTL = %v, want %v", got, 40*time.Second)
	}
	if got := e.TTL(now.Add(time.Hour)); got != 0 {
		t.Errorf("TTL after expiry = %v, want 0", got)
	}
}

func TestConfigurationError(t *testing.T) {
	err := &ConfigurationError{Field: "MaxEntries", Value: -1, Err: ErrInvalidCapacity}

	if !errors.Is(err, ErrInvalidCapacity) {
		t.Error("errors.Is(err, ErrInvalidCapacity) = false, want true")
	}
	want := "cache: invalid configuration MaxEntries=-1: cache: capacity must be a positive integer"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestHitRate(t *testing.T) {
	tests := []struct {
		hits, misses int64
		want         float64
	}{
		{0, 0, 0},
		{1, 0, 1},
		{0, 4, 0},
		{3, 1, 0.75},
	}
	for _, tt := range tests {
		if got := hitRate(tt.hits, tt.misses); got != tt.want {
			t.Errorf("hitRate(%d, %d) = %v, want %v", tt.hits, tt.misses, got, tt.want)
		}
	}
}

// TestStoreInterface_CompileCheck verifies the Store interface contract.
func TestStoreInterface_CompileCheck(t *testing.T) {
	var _ Store = (*MemoryStore)(nil)
	var _ Cache = (*MemoryStore)(nil)
	var _ Hasher = (*ContentHasher)(nil)
}

// TestCache_ContextCancellation verifies a cancelled context does not break
// in-memory operations.
func TestCache_ContextCancellation(t *testing.T) {
	store, err := NewMemoryStore(DefaultStoreConfig())
	if err != nil {
		t.Fatalf("NewMemoryStore failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := store.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set with cancelled ctx failed: %v", err)
	}
	if _, ok := store.Get(ctx, "k"); !ok {
		t.Error("Get with cancelled ctx should still hit")
	}
}
