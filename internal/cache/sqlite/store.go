// Package sqlite persists cache entries in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/JakeFAU/rider-enricher/internal/enricher"
)

// Store is a single-connection SQLite cache.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates the database file and schema when missing.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, now: time.Now}
	if err := s.init(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS rider_cache (
			key        TEXT PRIMARY KEY,
			payload    TEXT NOT NULL,
			expires_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_rider_cache_expires ON rider_cache(expires_at);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

// Get returns the unexpired entry for key.
func (s *Store) Get(ctx context.Context, key string) (enricher.CacheEntry, bool, error) {
	var (
		raw       string
		expiresAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, expires_at FROM rider_cache WHERE key = ? AND expires_at > ?`,
		key, s.now().UnixMilli(),
	).Scan(&raw, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return enricher.CacheEntry{}, false, nil
	}
	if err != nil {
		return enricher.CacheEntry{}, false, fmt.Errorf("reading cache entry %s: %w", key, err)
	}
	var payload enricher.Payload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return enricher.CacheEntry{}, false, fmt.Errorf("decoding cache entry %s: %w", key, err)
	}
	return enricher.CacheEntry{Key: key, Payload: payload, ExpiresAt: time.UnixMilli(expiresAt)}, true, nil
}

// Put upserts the entry.
func (s *Store) Put(ctx context.Context, key string, payload enricher.Payload, ttl time.Duration) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding cache entry %s: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO rider_cache (key, payload, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			payload = excluded.payload,
			expires_at = excluded.expires_at
	`, key, string(raw), s.now().Add(ttl).UnixMilli())
	if err != nil {
		return fmt.Errorf("upserting cache entry %s: %w", key, err)
	}
	return nil
}

// Purge deletes every entry.
func (s *Store) Purge(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM rider_cache`); err != nil {
		return fmt.Errorf("purging cache: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
