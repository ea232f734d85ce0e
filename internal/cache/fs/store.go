// Package fs stores cache entries as JSON files in a local directory.
package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/JakeFAU/rider-enricher/internal/enricher"
)

const fileExt = ".json"

// Config captures the parameters for the file cache.
type Config struct {
	// BaseDir is the directory holding one file per key.
	BaseDir string `mapstructure:"dir" yaml:"dir"`
}

// Store reads and writes entries under BaseDir.
type Store struct {
	baseDir string
	now     func() time.Time
}

// New creates the directory if needed and checks it is writable.
func New(cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.BaseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}

	info, err := os.Stat(cfg.BaseDir)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat base directory: %w", err)
		}
		if mkErr := os.MkdirAll(cfg.BaseDir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("failed to create base directory: %w", mkErr)
		}
	} else if !info.IsDir() {
		return nil, fmt.Errorf("base directory path is not a directory")
	}

	testFile := filepath.Join(cfg.BaseDir, ".writable_test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return nil, fmt.Errorf("base directory is not writable: %w", err)
	}
	if err := os.Remove(testFile); err != nil {
		return nil, fmt.Errorf("failed to clean up test file: %w", err)
	}

	return &Store{baseDir: cfg.BaseDir, now: time.Now}, nil
}

// Get loads the entry for key. Missing, unreadable-as-JSON and expired files
// are misses; other I/O failures are returned.
func (s *Store) Get(_ context.Context, key string) (enricher.CacheEntry, bool, error) {
	path, err := s.path(key)
	if err != nil {
		return enricher.CacheEntry{}, false, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return enricher.CacheEntry{}, false, nil
	}
	if err != nil {
		return enricher.CacheEntry{}, false, fmt.Errorf("failed to read cache file: %w", err)
	}
	var entry enricher.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return enricher.CacheEntry{}, false, nil
	}
	if !s.now().Before(entry.ExpiresAt) {
		return enricher.CacheEntry{}, false, nil
	}
	return entry, true, nil
}

// Put writes the entry atomically via a temporary file and rename.
func (s *Store) Put(_ context.Context, key string, payload enricher.Payload, ttl time.Duration) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	data, err := json.Marshal(enricher.CacheEntry{Key: key, Payload: payload, ExpiresAt: s.now().Add(ttl)})
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	tmp, err := os.CreateTemp(s.baseDir, ".entry-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to close cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to move cache file into place: %w", err)
	}
	return nil
}

// Purge removes every entry file.
func (s *Store) Purge(_ context.Context) error {
	matches, err := filepath.Glob(filepath.Join(s.baseDir, "*"+fileExt))
	if err != nil {
		return fmt.Errorf("failed to list cache files: %w", err)
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", m, err)
		}
	}
	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

func (s *Store) path(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("key is required")
	}
	fullPath := filepath.Join(s.baseDir, key+fileExt)

	// Keys must resolve directly inside baseDir.
	if filepath.Dir(filepath.Clean(fullPath)) != filepath.Clean(s.baseDir) {
		return "", fmt.Errorf("path traversal detected")
	}
	return fullPath, nil
}
