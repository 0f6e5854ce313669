package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// PersistentKV is a durable backing substrate for a MemoryStore.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Load returns entries that have not expired; order is unspecified.
// - Put replaces any entry with the same key.
// - Delete is idempotent.
type PersistentKV interface {
	Load(ctx context.Context) ([]Entry, error)
	Put(ctx context.Context, entry Entry) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Close() error
}

// Restore loads persisted entries into the store, keeping the most recently
// accessed ones when the backing holds more than MaxEntries.
// Existing in-memory entries with the same key are replaced.
func (s *MemoryStore) Restore(ctx context.Context) (int, error) {
	if s.config.Backing == nil {
		return 0, nil
	}

	loaded, err := s.config.Backing.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("cache: restore: %w", err)
	}

	sort.Slice(loaded, func(i, j int) bool {
		return loaded[i].LastAccessedAt.After(loaded[j].LastAccessedAt)
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	restored := 0
	for i := range loaded {
		e := loaded[i]
		if e.Expired(now) || ValidateKey(e.Key) != nil {
			continue
		}
		if old, ok := s.entries[e.Key]; ok {
			s.removeLocked(e.Key, old)
		} else if len(s.entries) >= s.config.MaxEntries {
			break
		}
		if e.SizeBytes == 0 {
			e.SizeBytes = len(e.Key) + len(e.Value)
		}
		s.entries[e.Key] = &e
		s.memoryBytes += int64(e.SizeBytes)
		restored++
	}
	return restored, nil
}

// Flush writes every live entry to the backing.
func (s *MemoryStore) Flush(ctx context.Context) error {
	if s.config.Backing == nil {
		return nil
	}

	var errs []error
	for _, e := range s.Entries(ctx, nil) {
		if err := s.config.Backing.Put(ctx, e); err != nil {
			errs = append(errs, fmt.Errorf("flush %q: %w", e.Key, err))
		}
	}
	return errors.Join(errs...)
}

// Close flushes and closes the backing. Further Set calls fail with ErrClosed.
func (s *MemoryStore) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	if s.config.Backing == nil {
		return nil
	}
	flushErr := s.Flush(ctx)
	closeErr := s.config.Backing.Close()
	return errors.Join(flushErr, closeErr)
}

func (s *MemoryStore) backingPut(ctx context.Context, e Entry) {
	if s.config.Backing == nil {
		return
	}
	if err := s.config.Backing.Put(ctx, e); err != nil {
		s.reportBacking("put", e.Key, err)
	}
}

func (s *MemoryStore) backingDelete(ctx context.Context, key string) {
	if s.config.Backing == nil {
		return
	}
	if err := s.config.Backing.Delete(ctx, key); err != nil {
		s.reportBacking("delete", key, err)
	}
}

func (s *MemoryStore) reportBacking(op, key string, err error) {
	if s.config.OnBackingError != nil {
		s.config.OnBackingError(op, key, err)
	}
}
