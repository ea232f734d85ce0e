// Package memory keeps cache entries in process memory for tests and
// one-off runs.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/JakeFAU/rider-enricher/internal/enricher"
)

// Store is a mutex-guarded map of entries.
type Store struct {
	mu      sync.RWMutex
	entries map[string]enricher.CacheEntry
	now     func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		entries: make(map[string]enricher.CacheEntry),
		now:     time.Now,
	}
}

// Get returns the unexpired entry for key.
func (s *Store) Get(_ context.Context, key string) (enricher.CacheEntry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[key]
	if !ok || !s.now().Before(entry.ExpiresAt) {
		return enricher.CacheEntry{}, false, nil
	}
	return entry, true, nil
}

// Put stores payload under key until ttl elapses.
func (s *Store) Put(_ context.Context, key string, payload enricher.Payload, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = enricher.CacheEntry{Key: key, Payload: payload, ExpiresAt: s.now().Add(ttl)}
	return nil
}

// Purge drops every entry.
func (s *Store) Purge(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]enricher.CacheEntry)
	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
