package enricher

import (
	"context"
	"sync"
	"time"
)

// fakeFetcher serves canned pages by URL and delivers FetchAll completions
// in reverse task order to exercise index-based correlation.
type fakeFetcher struct {
	mu       sync.Mutex
	pages    map[string]Page
	errs     map[string]error
	requests []string
	groups   [][]string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{pages: map[string]Page{}, errs: map[string]error{}}
}

func (f *fakeFetcher) serve(url string, status int, body string) {
	f.pages[url] = Page{URL: url, StatusCode: status, Body: []byte(body)}
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, url)
	if err, ok := f.errs[url]; ok {
		return Page{}, err
	}
	page, ok := f.pages[url]
	if !ok {
		return Page{URL: url, StatusCode: 404}, nil
	}
	return page, nil
}

func (f *fakeFetcher) FetchAll(ctx context.Context, tasks []FetchTask) <-chan Completion {
	out := make(chan Completion, len(tasks))
	urls := make([]string, 0, len(tasks))
	for _, t := range tasks {
		urls = append(urls, t.URL)
	}
	f.mu.Lock()
	f.groups = append(f.groups, urls)
	f.mu.Unlock()
	for i := len(tasks) - 1; i >= 0; i-- {
		page, err := f.Fetch(ctx, tasks[i].URL)
		out <- Completion{Task: tasks[i], Page: page, Err: err}
	}
	close(out)
	return out
}

func (f *fakeFetcher) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// fakeExtractor maps page bodies to extractions.
type fakeExtractor struct {
	results map[string]Extraction
	calls   int
}

func (f *fakeExtractor) Extract(body []byte, flags Flags) (Extraction, error) {
	f.calls++
	ext, ok := f.results[string(body)]
	if !ok {
		return Extraction{Payload: Payload{Fetched: flags}}, nil
	}
	if !ext.NotFound {
		ext.Payload.Fetched = flags
	}
	return ext, nil
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]CacheEntry
	puts    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]CacheEntry{}}
}

func (c *memoryCache) Get(_ context.Context, key string) (CacheEntry, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return e, ok, nil
}

func (c *memoryCache) Put(_ context.Context, key string, payload Payload, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.puts++
	c.entries[key] = CacheEntry{Key: key, Payload: payload, ExpiresAt: time.Unix(0, 0).Add(ttl)}
	return nil
}

type keyNormalizer struct{}

func (keyNormalizer) Normalize(first, last string) string {
	return first + "-" + last
}

type countingPauser struct {
	pauses []time.Duration
}

func (p *countingPauser) Pause(_ context.Context, d time.Duration) {
	p.pauses = append(p.pauses, d)
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes map[string]int
	requests map[string]int
	windows  []bool
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{outcomes: map[string]int{}, requests: map[string]int{}}
}

func (o *recordingObserver) ObserveRider(outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes[outcome]++
}

func (o *recordingObserver) ObserveRequest(kind string, _ int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.requests[kind]++
}

func (o *recordingObserver) ObserveWindow(fetched bool, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.windows = append(o.windows, fetched)
}
