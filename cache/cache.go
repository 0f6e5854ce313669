package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// Sentinel errors for cache operations.
var (
	ErrNilCache        = errors.New("cache: cache is nil")
	ErrInvalidKey      = errors.New("cache: key is invalid")
	ErrKeyTooLong      = errors.New("cache: key exceeds max length")
	ErrInvalidCapacity = errors.New("cache: capacity must be a positive integer")
	ErrInvalidTTL      = errors.New("cache: ttl configuration is invalid")
	ErrClosed          = errors.New("cache: store is closed")
)

// ConfigurationError reports an invalid store or policy configuration.
// It is returned at construction time and is never recovered from.
type ConfigurationError struct {
	Field string
	Value any
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("cache: invalid configuration %s=%v: %v", e.Field, e.Value, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Cache is the interface for caching serialized analysis results.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: methods should honor cancellation/deadlines where applicable.
// - Errors: Get should never error; it returns (nil, false) on miss.
type Cache interface {
	// Get retrieves a cached value. Returns (nil, false) on miss.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores a value with the given TTL. TTL=0 means no caching.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a cached value. Idempotent - no error on miss.
	Delete(ctx context.Context, key string) error
}

// Store is a Cache with entry metadata, bulk removal and statistics.
//
// Contract:
// - Lookup follows the same hit/miss bookkeeping as Get.
// - Remove, DeleteByPattern, Clear and SweepExpired return counts; a missing
//   key is never an error.
type Store interface {
	Cache

	Lookup(ctx context.Context, key string) (Entry, bool)
	Remove(ctx context.Context, key string) bool
	DeleteByPattern(ctx context.Context, match func(key string) bool) int
	Clear(ctx context.Context) int
	SweepExpired(ctx context.Context) int
	Entries(ctx context.Context, match func(key string) bool) []Entry
	Stats() Stats
}

// Entry is a snapshot of one cached value and its bookkeeping.
type Entry struct {
	Key            string    `json:"key"`
	Value          []byte    `json:"value"`
	CreatedAt      time.Time `json:"createdAt"`
	ExpiresAt      time.Time `json:"expiresAt"`
	LastAccessedAt time.Time `json:"lastAccessedAt"`
	AccessCount    int64     `json:"accessCount"`
	SizeBytes      int       `json:"sizeBytes"`
}

// Expired reports whether the entry is logically absent at now.
func (e Entry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// TTL returns the remaining lifetime at now, or zero once expired.
func (e Entry) TTL(now time.Time) time.Duration {
	if e.Expired(now) {
		return 0
	}
	return e.ExpiresAt.Sub(now)
}

// Stats is a point-in-time view of store counters.
type Stats struct {
	Hits        int64   `json:"hits"`
	Misses      int64   `json:"misses"`
	Saves       int64   `json:"saves"`
	Evictions   int64   `json:"evictions"`
	Expirations int64   `json:"expirations"`
	Size        int     `json:"size"`
	MaxEntries  int     `json:"maxEntries"`
	MemoryBytes int64   `json:"memoryBytes"`
	HitRate     float64 `json:"hitRate"`
}

func hitRate(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// ValidateKey checks if a key is valid for caching.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	// Reject keys with newlines or carriage returns
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}
