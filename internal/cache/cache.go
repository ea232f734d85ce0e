// Package cache opens the configured rider cache backend.
package cache

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/JakeFAU/rider-enricher/internal/cache/fs"
	"github.com/JakeFAU/rider-enricher/internal/cache/memory"
	"github.com/JakeFAU/rider-enricher/internal/cache/postgres"
	"github.com/JakeFAU/rider-enricher/internal/cache/redis"
	"github.com/JakeFAU/rider-enricher/internal/cache/sqlite"
	"github.com/JakeFAU/rider-enricher/internal/enricher"
)

// Backend names.
const (
	BackendMemory   = "memory"
	BackendFS       = "fs"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Store is a cache backend with lifecycle and maintenance operations.
type Store interface {
	enricher.CacheStore
	Purge(ctx context.Context) error
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Backend    string          `mapstructure:"backend"`
	TTL        time.Duration   `mapstructure:"ttl"`
	Dir        string          `mapstructure:"dir"`
	SQLitePath string          `mapstructure:"sqlite_path"`
	Redis      redis.Config    `mapstructure:"redis"`
	Postgres   postgres.Config `mapstructure:"postgres"`
}

// Open constructs the configured backend.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		store Store
		err   error
	)
	switch cfg.Backend {
	case BackendMemory:
		store = memory.New()
	case BackendFS:
		store, err = wrap(fs.New(fs.Config{BaseDir: cfg.Dir}))
	case BackendSQLite, "":
		path := cfg.SQLitePath
		if path == "" {
			path = filepath.Join(cfg.Dir, "riders.db")
		}
		store, err = wrap(sqlite.Open(ctx, path))
	case BackendRedis:
		store, err = wrap(redis.New(ctx, cfg.Redis))
	case BackendPostgres:
		store, err = wrap(postgres.New(ctx, cfg.Postgres))
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s cache: %w", cfg.Backend, err)
	}
	return store, nil
}

// wrap keeps a failed constructor from yielding a non-nil interface around a
// nil pointer.
func wrap[S Store](s S, err error) (Store, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}
