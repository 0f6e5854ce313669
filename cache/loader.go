package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"
)

// ForceRefreshOption is the option key that bypasses the cache read.
// The computed result is still written back.
const ForceRefreshOption = "forceRefresh"

// LoadFunc computes a value on cache miss. Returning cacheable=false keeps a
// successful but degraded value out of the cache.
type LoadFunc func(ctx context.Context) (value []byte, cacheable bool, err error)

// BypassRule determines whether the cache read should be skipped for a request.
// Returns true if the cached value must not be served.
type BypassRule func(analysisType string, options map[string]any) bool

// DefaultBypassRule skips the read when options carry forceRefresh=true.
func DefaultBypassRule(_ string, options map[string]any) bool {
	force, _ := options[ForceRefreshOption].(bool)
	return force
}

// LoadResult describes how a Loader satisfied a request.
type LoadResult struct {
	Key       Fingerprint
	Value     []byte
	FromCache bool
	// Shared is true when one computation was handed to several concurrent
	// callers for the same key. The caller whose LoadFunc ran also sees it.
	Shared bool
	Stored bool
	TTL    time.Duration
}

// Loader is a read-through cache in front of an expensive computation.
// Concurrent misses for the same key run the LoadFunc once. A caller that
// joined a computation cancelled by its initiator recomputes on its own context.
type Loader struct {
	store  Cache
	hasher Hasher
	policy TTLPolicy
	bypass BypassRule
	group  singleflight.Group
}

// NewLoader creates a read-through loader.
// If hasher is nil, a ContentHasher is used. If bypass is nil,
// DefaultBypassRule is used.
func NewLoader(store Cache, hasher Hasher, policy TTLPolicy, bypass BypassRule) (*Loader, error) {
	if store == nil {
		return nil, ErrNilCache
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if hasher == nil {
		hasher = NewContentHasher()
	}
	if bypass == nil {
		bypass = DefaultBypassRule
	}
	return &Loader{
		store:  store,
		hasher: hasher,
		policy: policy,
		bypass: bypass,
	}, nil
}

// Key returns the fingerprint the loader would use for a request.
func (l *Loader) Key(content any, analysisType string, options map[string]any) (Fingerprint, error) {
	return l.hasher.Fingerprint(content, analysisType, options)
}

// Load serves the request from cache or computes it with fn.
// On hit, fn is not called. On miss, the result of fn is cached with the
// policy TTL unless fn reports it as not cacheable.
// Errors are NOT cached.
func (l *Loader) Load(
	ctx context.Context,
	content any,
	analysisType string,
	options map[string]any,
	fn LoadFunc,
) (LoadResult, error) {
	key, err := l.hasher.Fingerprint(content, analysisType, options)
	if err != nil {
		return LoadResult{}, fmt.Errorf("cache: fingerprint: %w", err)
	}

	if !l.bypass(analysisType, options) {
		if cached, ok := l.store.Get(ctx, string(key)); ok {
			return LoadResult{Key: key, Value: cached, FromCache: true}, nil
		}
	}

	ttl := l.policy.TTLFor(content, analysisType, options)

	for {
		ran := false
		v, err, shared := l.group.Do(string(key), func() (any, error) {
			ran = true
			value, cacheable, err := fn(ctx)
			if err != nil {
				return nil, err
			}
			res := LoadResult{Key: key, Value: value}
			if cacheable && ttl > 0 {
				if err := l.store.Set(ctx, string(key), value, ttl); err == nil {
					res.Stored = true
					res.TTL = ttl
				}
			}
			return res, nil
		})
		if err != nil {
			// The computation belonged to another caller whose context ended.
			// That says nothing about this request, so it runs its own.
			if shared && !ran && ctx.Err() == nil && isContextError(err) {
				continue
			}
			return LoadResult{Key: key}, err
		}

		res := v.(LoadResult)
		res.Shared = shared
		return res, nil
	}
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
