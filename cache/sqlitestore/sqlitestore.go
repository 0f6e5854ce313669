// Package sqlitestore persists cache entries in a local SQLite database.
package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jonwraymond/marketlens/cache"
)

const createEntriesTable = `
CREATE TABLE IF NOT EXISTS cache_entries (
	key TEXT PRIMARY KEY,
	value BLOB NOT NULL,
	created_at INTEGER NOT NULL,
	expires_at INTEGER NOT NULL,
	last_accessed_at INTEGER NOT NULL,
	access_count INTEGER NOT NULL DEFAULT 0,
	size_bytes INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_cache_entries_expires_at ON cache_entries (expires_at);
`

// Store is a cache.PersistentKV backed by SQLite.
// Timestamps are stored as epoch milliseconds.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New opens (or creates) the database at dbPath.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createEntriesTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate cache db: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Load returns every unexpired row.
func (s *Store) Load(ctx context.Context) ([]cache.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value, created_at, expires_at, last_accessed_at, access_count, size_bytes
		 FROM cache_entries WHERE expires_at >= ?`,
		s.now().UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("cache load: %w", err)
	}
	defer rows.Close()

	var out []cache.Entry
	for rows.Next() {
		var (
			e                                  cache.Entry
			createdAt, expiresAt, lastAccessed int64
		)
		if err := rows.Scan(&e.Key, &e.Value, &createdAt, &expiresAt, &lastAccessed, &e.AccessCount, &e.SizeBytes); err != nil {
			return nil, fmt.Errorf("cache load: %w", err)
		}
		e.CreatedAt = time.UnixMilli(createdAt)
		e.ExpiresAt = time.UnixMilli(expiresAt)
		e.LastAccessedAt = time.UnixMilli(lastAccessed)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cache load: %w", err)
	}
	return out, nil
}

// Put inserts or replaces e.
func (s *Store) Put(ctx context.Context, e cache.Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO cache_entries
		 (key, value, created_at, expires_at, last_accessed_at, access_count, size_bytes)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Key, e.Value,
		e.CreatedAt.UnixMilli(), e.ExpiresAt.UnixMilli(), e.LastAccessedAt.UnixMilli(),
		e.AccessCount, e.SizeBytes,
	)
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

// Delete removes key. Idempotent.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

// Clear removes every row.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries`); err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}
	return nil
}

// PurgeExpired removes expired rows and returns how many were removed.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE expires_at < ?`, s.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("cache purge: %w", err)
	}
	return res.RowsAffected()
}

// Count returns the number of stored rows, expired ones included.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cache_entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("cache count: %w", err)
	}
	return n, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

var _ cache.PersistentKV = (*Store)(nil)
