// Package redis shares cache entries between hosts through Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/JakeFAU/rider-enricher/internal/enricher"
)

const defaultPrefix = "rider-enricher:"

// Config holds the Redis connection settings.
type Config struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
	Prefix   string `mapstructure:"prefix"`
}

// Store keeps one string value per key; Redis expires it after the TTL.
type Store struct {
	rdb    *goredis.Client
	prefix string
}

// New connects and pings the server.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Address == "" {
		cfg.Address = "localhost:6379"
	}
	if cfg.PoolSize == 0 {
		cfg.PoolSize = 10
	}
	if cfg.Prefix == "" {
		cfg.Prefix = defaultPrefix
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &Store{rdb: rdb, prefix: cfg.Prefix}, nil
}

// Get returns the entry for key. Expired keys are already gone.
func (s *Store) Get(ctx context.Context, key string) (enricher.CacheEntry, bool, error) {
	data, err := s.rdb.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return enricher.CacheEntry{}, false, nil
	}
	if err != nil {
		return enricher.CacheEntry{}, false, fmt.Errorf("failed to get cache entry: %w", err)
	}
	var entry enricher.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return enricher.CacheEntry{}, false, fmt.Errorf("failed to decode cache entry: %w", err)
	}
	return entry, true, nil
}

// Put stores the entry with an expiry of ttl.
func (s *Store) Put(ctx context.Context, key string, payload enricher.Payload, ttl time.Duration) error {
	data, err := json.Marshal(enricher.CacheEntry{Key: key, Payload: payload, ExpiresAt: time.Now().Add(ttl)})
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	if err := s.rdb.Set(ctx, s.prefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache entry: %w", err)
	}
	return nil
}

// Purge deletes every key under the configured prefix.
func (s *Store) Purge(ctx context.Context) error {
	iter := s.rdb.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			if err := s.rdb.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("failed to delete cache keys: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}
	if len(batch) > 0 {
		if err := s.rdb.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("failed to delete cache keys: %w", err)
		}
	}
	return nil
}

// Close closes the client.
func (s *Store) Close() error {
	return s.rdb.Close()
}
