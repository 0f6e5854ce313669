package cache

import (
	"bytes"
	"context"
	"sync"
	"time"
)

// StoreConfig configures a MemoryStore.
type StoreConfig struct {
	// MaxEntries bounds the number of live entries. Required, must be > 0.
	MaxEntries int

	// Backing optionally persists entries. Nil keeps the store in memory only.
	Backing PersistentKV

	// OnBackingError is called when a write-through to Backing fails.
	// Persistence is best effort; the in-memory operation always succeeds.
	OnBackingError func(op string, key string, err error)

	// Now overrides the clock. Default: time.Now
	Now func() time.Time
}

// DefaultMaxEntries is the capacity used by DefaultStoreConfig.
const DefaultMaxEntries = 1000

// DefaultStoreConfig returns an in-memory configuration with DefaultMaxEntries.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{MaxEntries: DefaultMaxEntries}
}

// MemoryStore is an in-memory Store with TTL expiry and LRU eviction.
//
// A single mutex serializes every mutation, including the eviction decision
// in Set, so two concurrent inserts can never both evict for the same slot.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*Entry
	config  StoreConfig
	now     func() time.Time
	closed  bool

	hits        int64
	misses      int64
	saves       int64
	evictions   int64
	expirations int64
	memoryBytes int64
}

// NewMemoryStore creates a store. A non-positive MaxEntries is a
// ConfigurationError.
func NewMemoryStore(config StoreConfig) (*MemoryStore, error) {
	if config.MaxEntries <= 0 {
		return nil, &ConfigurationError{Field: "MaxEntries", Value: config.MaxEntries, Err: ErrInvalidCapacity}
	}
	now := config.Now
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		entries: make(map[string]*Entry, config.MaxEntries),
		config:  config,
		now:     now,
	}, nil
}

// Get retrieves a value from the store. Returns (nil, false) on miss or expiry.
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool) {
	entry, ok := s.Lookup(ctx, key)
	if !ok {
		return nil, false
	}
	return entry.Value, true
}

// Lookup returns a snapshot of the entry and records the access.
func (s *MemoryStore) Lookup(ctx context.Context, key string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		s.misses++
		return Entry{}, false
	}

	now := s.now()
	if entry.Expired(now) {
		s.removeLocked(key, entry)
		s.expirations++
		s.misses++
		s.backingDelete(ctx, key)
		return Entry{}, false
	}

	entry.LastAccessedAt = now
	entry.AccessCount++
	s.hits++
	return entry.snapshot(), true
}

// Set stores a copy of value with the given TTL. TTL<=0 means no caching.
// An existing entry under key is replaced with fresh timestamps.
func (s *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := ValidateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}

	now := s.now()
	var evicted []string
	if old, exists := s.entries[key]; exists {
		s.removeLocked(key, old)
	} else if len(s.entries) >= s.config.MaxEntries {
		evicted = s.makeRoomLocked(now)
	}

	entry := &Entry{
		Key:            key,
		Value:          bytes.Clone(value),
		CreatedAt:      now,
		ExpiresAt:      now.Add(ttl),
		LastAccessedAt: now,
		SizeBytes:      len(key) + len(value),
	}
	s.entries[key] = entry
	s.memoryBytes += int64(entry.SizeBytes)
	s.saves++
	snapshot := *entry
	s.mu.Unlock()

	for _, k := range evicted {
		s.backingDelete(ctx, k)
	}
	s.backingPut(ctx, snapshot)
	return nil
}

// makeRoomLocked frees one slot. Expired entries go first; if none are
// expired the least-recently-accessed entry is evicted, ties broken by the
// earliest CreatedAt. Returns every removed key.
func (s *MemoryStore) makeRoomLocked(now time.Time) []string {
	removed := s.sweepLocked(now)
	if len(s.entries) < s.config.MaxEntries {
		return removed
	}

	var victim *Entry
	for _, e := range s.entries {
		if victim == nil ||
			e.LastAccessedAt.Before(victim.LastAccessedAt) ||
			(e.LastAccessedAt.Equal(victim.LastAccessedAt) && e.CreatedAt.Before(victim.CreatedAt)) {
			victim = e
		}
	}
	if victim == nil {
		return removed
	}
	s.removeLocked(victim.Key, victim)
	s.evictions++
	return append(removed, victim.Key)
}

// Delete removes a value from the store. Idempotent - no error on miss.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.Remove(ctx, key)
	return nil
}

// Remove deletes key and reports whether it was present.
func (s *MemoryStore) Remove(ctx context.Context, key string) bool {
	s.mu.Lock()
	entry, ok := s.entries[key]
	if ok {
		s.removeLocked(key, entry)
	}
	s.mu.Unlock()

	if ok {
		s.backingDelete(ctx, key)
	}
	return ok
}

// DeleteByPattern removes every entry whose key satisfies match.
func (s *MemoryStore) DeleteByPattern(ctx context.Context, match func(key string) bool) int {
	if match == nil {
		return 0
	}

	s.mu.Lock()
	var removed []string
	for key, entry := range s.entries {
		if match(key) {
			s.removeLocked(key, entry)
			removed = append(removed, key)
		}
	}
	s.mu.Unlock()

	for _, key := range removed {
		s.backingDelete(ctx, key)
	}
	return len(removed)
}

// Clear drops every entry and returns how many were dropped. Counters are kept.
func (s *MemoryStore) Clear(ctx context.Context) int {
	s.mu.Lock()
	n := len(s.entries)
	s.entries = make(map[string]*Entry, s.config.MaxEntries)
	s.memoryBytes = 0
	s.mu.Unlock()

	if s.config.Backing != nil {
		if err := s.config.Backing.Clear(ctx); err != nil {
			s.reportBacking("clear", "", err)
		}
	}
	return n
}

// SweepExpired removes all expired entries and returns how many were removed.
func (s *MemoryStore) SweepExpired(ctx context.Context) int {
	s.mu.Lock()
	expired := s.sweepLocked(s.now())
	s.mu.Unlock()

	for _, key := range expired {
		s.backingDelete(ctx, key)
	}
	return len(expired)
}

func (s *MemoryStore) sweepLocked(now time.Time) []string {
	var expired []string
	for key, entry := range s.entries {
		if entry.Expired(now) {
			s.removeLocked(key, entry)
			expired = append(expired, key)
		}
	}
	s.expirations += int64(len(expired))
	return expired
}

// Entries returns snapshots of live entries matching match (all when nil).
// Access bookkeeping is not touched.
func (s *MemoryStore) Entries(_ context.Context, match func(key string) bool) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	out := make([]Entry, 0, len(s.entries))
	for key, entry := range s.entries {
		if entry.Expired(now) {
			continue
		}
		if match != nil && !match(key) {
			continue
		}
		out = append(out, entry.snapshot())
	}
	return out
}

// Len returns the number of stored entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Capacity returns MaxEntries.
func (s *MemoryStore) Capacity() int {
	return s.config.MaxEntries
}

// Stats returns a snapshot of the store counters.
func (s *MemoryStore) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		Hits:        s.hits,
		Misses:      s.misses,
		Saves:       s.saves,
		Evictions:   s.evictions,
		Expirations: s.expirations,
		Size:        len(s.entries),
		MaxEntries:  s.config.MaxEntries,
		MemoryBytes: s.memoryBytes,
		HitRate:     hitRate(s.hits, s.misses),
	}
}

// snapshot copies e so callers cannot reach the stored bytes.
func (e *Entry) snapshot() Entry {
	c := *e
	c.Value = bytes.Clone(e.Value)
	return c
}

func (s *MemoryStore) removeLocked(key string, entry *Entry) {
	delete(s.entries, key)
	s.memoryBytes -= int64(entry.SizeBytes)
}

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
