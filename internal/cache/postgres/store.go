// Package postgres shares cache entries through a Postgres table.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/rider-enricher/internal/enricher"
)

const defaultTable = "rider_cache"

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string        `mapstructure:"dsn"`
	Table           string        `mapstructure:"table"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

type querier interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Close()
}

// Store reads and upserts rows keyed by the normalized rider key.
type Store struct {
	pool  querier
	table string
	now   func() time.Time
}

// New connects a pool and creates the table when missing.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("cache.postgres.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	store, err := NewWithPool(pool, cfg.Table)
	if err != nil {
		pool.Close()
		return nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// NewWithPool constructs a store from an existing pool (primarily for testing).
func NewWithPool(pool querier, table string) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &Store{pool: pool, table: table, now: time.Now}, nil
}

// EnsureSchema creates the cache table.
func (s *Store) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	key        TEXT PRIMARY KEY,
	payload    JSONB NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL
)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create cache table: %w", err)
	}
	return nil
}

// Get returns the unexpired row for key.
func (s *Store) Get(ctx context.Context, key string) (enricher.CacheEntry, bool, error) {
	query := fmt.Sprintf(`SELECT payload, expires_at FROM %s WHERE key = $1 AND expires_at > $2`, s.table)
	var (
		raw       []byte
		expiresAt time.Time
	)
	err := s.pool.QueryRow(ctx, query, key, s.now()).Scan(&raw, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return enricher.CacheEntry{}, false, nil
	}
	if err != nil {
		return enricher.CacheEntry{}, false, fmt.Errorf("select cache entry: %w", err)
	}
	var payload enricher.Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return enricher.CacheEntry{}, false, fmt.Errorf("decode cache entry: %w", err)
	}
	return enricher.CacheEntry{Key: key, Payload: payload, ExpiresAt: expiresAt}, true, nil
}

// Put upserts the row.
func (s *Store) Put(ctx context.Context, key string, payload enricher.Payload, ttl time.Duration) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	query := fmt.Sprintf(`
INSERT INTO %s (key, payload, expires_at)
VALUES ($1, $2, $3)
ON CONFLICT (key) DO UPDATE SET
	payload = EXCLUDED.payload,
	expires_at = EXCLUDED.expires_at`, s.table)
	if _, err := s.pool.Exec(ctx, query, key, raw, s.now().Add(ttl)); err != nil {
		return fmt.Errorf("upsert cache entry: %w", err)
	}
	return nil
}

// Purge deletes every row.
func (s *Store) Purge(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s`, s.table)); err != nil {
		return fmt.Errorf("purge cache: %w", err)
	}
	return nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}
