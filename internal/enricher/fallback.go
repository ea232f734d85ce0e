package enricher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// ResolverConfig locates the search endpoint and profile pages.
type ResolverConfig struct {
	SearchURL      string
	ProfileBaseURL string
}

// Resolver recovers riders whose normalized key does not resolve to a
// profile by searching for them by name.
type Resolver struct {
	cfg       ResolverConfig
	fetcher   Fetcher
	extractor Extractor
	observer  Observer
	logger    *zap.Logger
}

// NewResolver constructs a Resolver.
func NewResolver(cfg ResolverConfig, fetcher Fetcher, extractor Extractor, observer Observer, logger *zap.Logger) *Resolver {
	if observer == nil {
		observer = nopObserver{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		cfg:       cfg,
		fetcher:   fetcher,
		extractor: extractor,
		observer:  observer,
		logger:    logger,
	}
}

// Resolve searches by full name, then by last name, and extracts the first
// match's profile. It returns the extracted payload and the profile URL.
// Any failure is final for this rider; nothing is retried.
func (r *Resolver) Resolve(ctx context.Context, rider Rider, opts Options) (Payload, string, error) {
	ids, err := r.search(ctx, rider.FullName())
	if err != nil {
		return Payload{}, "", err
	}
	if len(ids) == 0 {
		r.logger.Debug("full name search empty, retrying with last name",
			zap.String("rider", rider.FullName()))
		ids, err = r.search(ctx, rider.LastName)
		if err != nil {
			return Payload{}, "", err
		}
	}
	if len(ids) == 0 {
		return Payload{}, "", fmt.Errorf("search %q: %w", rider.FullName(), ErrRiderNotFound)
	}

	profileURL := JoinProfileURL(r.cfg.ProfileBaseURL, ids[0])
	page, err := r.fetcher.Fetch(ctx, profileURL)
	if err != nil {
		return Payload{}, profileURL, fmt.Errorf("fetch fallback profile: %w", err)
	}
	r.observer.ObserveRequest(RequestFallbackProfile, page.StatusCode)
	if page.StatusCode != http.StatusOK {
		return Payload{}, profileURL, &StatusError{URL: profileURL, StatusCode: page.StatusCode}
	}
	extraction, err := r.extractor.Extract(page.Body, opts.Flags)
	if err != nil {
		return Payload{}, profileURL, fmt.Errorf("extract fallback profile: %w", err)
	}
	if extraction.NotFound {
		return Payload{}, profileURL, fmt.Errorf("fallback profile %s: %w", profileURL, ErrRiderNotFound)
	}
	return extraction.Payload, profileURL, nil
}

func (r *Resolver) search(ctx context.Context, term string) ([]string, error) {
	searchURL, err := r.searchURL(term)
	if err != nil {
		return nil, err
	}
	page, err := r.fetcher.Fetch(ctx, searchURL)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", term, err)
	}
	r.observer.ObserveRequest(RequestSearch, page.StatusCode)
	if page.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: searchURL, StatusCode: page.StatusCode}
	}
	ids, err := parseSearchResults(page.Body)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", term, err)
	}
	return ids, nil
}

func (r *Resolver) searchURL(term string) (string, error) {
	u, err := url.Parse(r.cfg.SearchURL)
	if err != nil {
		return "", fmt.Errorf("parse search url: %w", err)
	}
	q := u.Query()
	q.Set("searchfrom", "")
	q.Set("term", term)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

type searchMatch struct {
	ID matchID `json:"id"`
}

// matchID accepts both string and numeric identifiers.
type matchID string

func (m *matchID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*m = matchID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*m = matchID(n.String())
	return nil
}

// parseSearchResults decodes the autocomplete response. A literal null or
// empty body means no matches.
func parseSearchResults(body []byte) ([]string, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var matches []searchMatch
	if err := json.Unmarshal(trimmed, &matches); err != nil {
		return nil, fmt.Errorf("decode search results: %w", err)
	}
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		if id := strings.TrimSpace(string(m.ID)); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// JoinProfileURL appends a rider identifier to the profile base URL.
func JoinProfileURL(base, id string) string {
	id = strings.TrimPrefix(id, "rider/")
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(id, "/")
}
