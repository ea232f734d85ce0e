package enricher

import (
	"context"
	"time"
)

// Fetcher issues GET requests against the profile site.
type Fetcher interface {
	// Fetch retrieves a single URL. A non-success status is reported in
	// Page.StatusCode, not as an error.
	Fetch(ctx context.Context, url string) (Page, error)
	// FetchAll issues one request per task concurrently and delivers exactly
	// one Completion per task. The channel closes once every task completed.
	FetchAll(ctx context.Context, tasks []FetchTask) <-chan Completion
}

// Extractor turns a profile page into the requested datasets. Participations
// hold every upcoming race on the page; Apply narrows them to a run's races.
type Extractor interface {
	Extract(body []byte, flags Flags) (Extraction, error)
}

// CacheStore is the durable key to payload store. A miss covers both
// never-written and expired keys.
type CacheStore interface {
	Get(ctx context.Context, key string) (CacheEntry, bool, error)
	Put(ctx context.Context, key string, payload Payload, ttl time.Duration) error
}

// Normalizer derives the lookup key for a rider.
type Normalizer interface {
	Normalize(firstName, lastName string) string
}

// Pauser blocks for the inter-window cool-down.
type Pauser interface {
	Pause(ctx context.Context, delay time.Duration)
}

// Observer receives pipeline measurements.
type Observer interface {
	ObserveRider(outcome string)
	ObserveRequest(kind string, statusCode int)
	ObserveWindow(fetched bool, duration time.Duration)
}

// Rider outcomes reported to the Observer.
const (
	OutcomeCacheHit = "cache_hit"
	OutcomeFetched  = "fetched"
	OutcomeFallback = "fallback"
	OutcomeSkipped  = "skipped"
)

// Request kinds reported to the Observer.
const (
	RequestProfile         = "profile"
	RequestSearch          = "search"
	RequestFallbackProfile = "fallback_profile"
)

type nopObserver struct{}

func (nopObserver) ObserveRider(string)               {}
func (nopObserver) ObserveRequest(string, int)        {}
func (nopObserver) ObserveWindow(bool, time.Duration) {}
