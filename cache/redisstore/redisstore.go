// Package redisstore persists cache entries in Redis.
//
// Every entry is stored under its own key (Prefix + cache key) as a JSON
// record, with a Redis expiry equal to the entry's remaining lifetime, so
// Redis drops expired entries on its own.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonwraymond/marketlens/cache"
)

// DefaultPrefix namespaces entry keys.
const DefaultPrefix = "marketlens:cache:"

// scanBatch bounds SCAN pages and MGET/DEL batches.
const scanBatch = 256

// ErrClosed is returned by operations on a closed Store.
var ErrClosed = errors.New("redisstore: store is closed")

// Config configures the Redis connection.
type Config struct {
	Addr        string        `yaml:"addr" json:"addr"`
	Password    string        `yaml:"password" json:"password"`
	DB          int           `yaml:"db" json:"db"`
	Prefix      string        `yaml:"prefix" json:"prefix"`
	PoolSize    int           `yaml:"pool_size" json:"pool_size"`
	MaxRetries  int           `yaml:"max_retries" json:"max_retries"`
	DialTimeout time.Duration `yaml:"dial_timeout" json:"dial_timeout"`
}

// DefaultConfig returns a configuration for a local Redis.
func DefaultConfig() Config {
	return Config{
		Addr:        "localhost:6379",
		Prefix:      DefaultPrefix,
		PoolSize:    10,
		MaxRetries:  3,
		DialTimeout: 5 * time.Second,
	}
}

// record is the persisted form of an entry. Timestamps are epoch milliseconds.
type record struct {
	Key            string `json:"key"`
	Value          []byte `json:"value"`
	CreatedAt      int64  `json:"createdAt"`
	ExpiresAt      int64  `json:"expiresAt"`
	LastAccessedAt int64  `json:"lastAccessedAt"`
	AccessCount    int64  `json:"accessCount"`
	SizeBytes      int    `json:"sizeBytes"`
}

func toRecord(e cache.Entry) record {
	return record{
		Key:            e.Key,
		Value:          e.Value,
		CreatedAt:      e.CreatedAt.UnixMilli(),
		ExpiresAt:      e.ExpiresAt.UnixMilli(),
		LastAccessedAt: e.LastAccessedAt.UnixMilli(),
		AccessCount:    e.AccessCount,
		SizeBytes:      e.SizeBytes,
	}
}

func (r record) entry() cache.Entry {
	return cache.Entry{
		Key:            r.Key,
		Value:          r.Value,
		CreatedAt:      time.UnixMilli(r.CreatedAt),
		ExpiresAt:      time.UnixMilli(r.ExpiresAt),
		LastAccessedAt: time.UnixMilli(r.LastAccessedAt),
		AccessCount:    r.AccessCount,
		SizeBytes:      r.SizeBytes,
	}
}

// Store is a cache.PersistentKV backed by Redis.
type Store struct {
	client *redis.Client
	prefix string
	now    func() time.Time

	mu     sync.RWMutex
	closed bool
}

// New connects to Redis and verifies the connection with PING.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Addr == "" {
		return nil, &cache.ConfigurationError{Field: "redis.addr", Value: cfg.Addr, Err: errors.New("address is required")}
	}
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		PoolSize:    cfg.PoolSize,
		MaxRetries:  cfg.MaxRetries,
		DialTimeout: cfg.DialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redisstore: failed to connect to redis: %w", err)
	}

	return NewFromClient(client, cfg.Prefix), nil
}

// NewFromClient wraps an existing client. An empty prefix uses DefaultPrefix.
func NewFromClient(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix, now: time.Now}
}

// Ping checks the Redis connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.check(); err != nil {
		return err
	}
	return s.client.Ping(ctx).Err()
}

// Load returns every unexpired entry under the prefix.
func (s *Store) Load(ctx context.Context) ([]cache.Entry, error) {
	if err := s.check(); err != nil {
		return nil, err
	}

	keys, err := s.scan(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]cache.Entry, 0, len(keys))
	for start := 0; start < len(keys); start += scanBatch {
		end := min(start+scanBatch, len(keys))
		vals, err := s.client.MGet(ctx, keys[start:end]...).Result()
		if err != nil {
			return nil, fmt.Errorf("redisstore: mget: %w", err)
		}
		for _, v := range vals {
			raw, ok := v.(string)
			if !ok {
				// Expired or deleted between SCAN and MGET.
				continue
			}
			var r record
			if err := json.Unmarshal([]byte(raw), &r); err != nil {
				continue
			}
			e := r.entry()
			if e.Expired(now) {
				continue
			}
			out = append(out, e)
		}
	}
	return out, nil
}

// Put stores e with a Redis expiry equal to its remaining TTL. An already
// expired entry is deleted instead.
func (s *Store) Put(ctx context.Context, e cache.Entry) error {
	if err := s.check(); err != nil {
		return err
	}

	ttl := e.TTL(s.now())
	if ttl <= 0 {
		return s.Delete(ctx, e.Key)
	}

	data, err := json.Marshal(toRecord(e))
	if err != nil {
		return fmt.Errorf("redisstore: marshal %q: %w", e.Key, err)
	}
	if err := s.client.Set(ctx, s.prefix+e.Key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redisstore: set %q: %w", e.Key, err)
	}
	return nil
}

// Delete removes key. Idempotent.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.check(); err != nil {
		return err
	}
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redisstore: del %q: %w", key, err)
	}
	return nil
}

// Clear removes every entry under the prefix.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.check(); err != nil {
		return err
	}

	keys, err := s.scan(ctx)
	if err != nil {
		return err
	}
	for start := 0; start < len(keys); start += scanBatch {
		end := min(start+scanBatch, len(keys))
		if err := s.client.Del(ctx, keys[start:end]...).Err(); err != nil {
			return fmt.Errorf("redisstore: clear: %w", err)
		}
	}
	return nil
}

// Close closes the underlying client. Idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.client.Close()
}

func (s *Store) scan(ctx context.Context) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)
	for {
		page, next, err := s.client.Scan(ctx, cursor, s.prefix+"*", scanBatch).Result()
		if err != nil {
			return nil, fmt.Errorf("redisstore: scan: %w", err)
		}
		keys = append(keys, page...)
		if next == 0 {
			return keys, nil
		}
		cursor = next
	}
}

func (s *Store) check() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

var _ cache.PersistentKV = (*Store)(nil)
