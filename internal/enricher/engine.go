package enricher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Pipeline defaults.
const (
	DefaultCoolDown = 5 * time.Second
	DefaultTTL      = 24 * time.Hour
)

// Config controls the Engine.
type Config struct {
	ProfileBaseURL string
	WindowSize     int
	// CoolDown is the pause between a window that hit the network and the
	// next window.
	CoolDown time.Duration
	TTL      time.Duration
}

// Engine runs the cache-first, windowed enrichment pipeline.
type Engine struct {
	cfg        Config
	fetcher    Fetcher
	extractor  Extractor
	cache      CacheStore
	normalizer Normalizer
	resolver   *Resolver
	pauser     Pauser
	observer   Observer
	logger     *zap.Logger
}

// NewEngine wires an Engine. A nil pauser sleeps on a timer; a nil observer
// discards measurements.
func NewEngine(
	cfg Config,
	fetcher Fetcher,
	extractor Extractor,
	cache CacheStore,
	normalizer Normalizer,
	resolver *Resolver,
	pauser Pauser,
	observer Observer,
	logger *zap.Logger,
) *Engine {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = DefaultWindowSize
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if pauser == nil {
		pauser = NewTimerPauser()
	}
	if observer == nil {
		observer = nopObserver{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:        cfg,
		fetcher:    fetcher,
		extractor:  extractor,
		cache:      cache,
		normalizer: normalizer,
		resolver:   resolver,
		pauser:     pauser,
		observer:   observer,
		logger:     logger,
	}
}

// Run enriches riders and returns them in input order. The input slice is
// not modified. A non-200 profile response or a transport failure aborts
// the run; enrichment already written to the cache stays there.
func (e *Engine) Run(ctx context.Context, riders []Rider, opts Options) ([]Rider, error) {
	out := make([]Rider, len(riders))
	for i, r := range riders {
		out[i] = Rider{FirstName: r.FirstName, LastName: r.LastName, Fields: r.Fields.Clone()}
	}

	windows := Partition(len(out), e.cfg.WindowSize)
	for i, w := range windows {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("enrichment canceled: %w", err)
		}
		start := time.Now()
		fetched, err := e.runWindow(ctx, out, w, opts)
		e.observer.ObserveWindow(fetched, time.Since(start))
		if err != nil {
			return nil, fmt.Errorf("window %d: %w", w.Number, err)
		}
		if fetched && i < len(windows)-1 {
			e.logger.Debug("cooling down", zap.Int("window", w.Number), zap.Duration("delay", e.cfg.CoolDown))
			e.pauser.Pause(ctx, e.cfg.CoolDown)
		}
	}
	return out, nil
}

// runWindow resolves the window against the cache and fetches the misses as
// one concurrent group. It reports whether any request was issued.
func (e *Engine) runWindow(ctx context.Context, out []Rider, w Window, opts Options) (bool, error) {
	tasks := make([]FetchTask, 0, len(w.Indices))
	for _, idx := range w.Indices {
		rider := &out[idx]
		key := e.normalizer.Normalize(rider.FirstName, rider.LastName)
		entry, found := e.lookup(ctx, key)
		if found && entry.Payload.Fetched.Covers(opts.Flags) {
			Apply(rider, entry.Payload, opts)
			e.observer.ObserveRider(OutcomeCacheHit)
			e.logger.Debug("cache hit", zap.String("key", key))
			continue
		}
		task := FetchTask{Index: idx, Key: key, URL: JoinProfileURL(e.cfg.ProfileBaseURL, key)}
		if found {
			prev := entry
			task.Previous = &prev
		}
		tasks = append(tasks, task)
	}
	if len(tasks) == 0 {
		return false, nil
	}

	groupCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var fatal error
	for c := range e.fetcher.FetchAll(groupCtx, tasks) {
		if fatal != nil {
			continue
		}
		if err := e.complete(ctx, out, c, opts); err != nil {
			fatal = err
			cancel()
		}
	}
	return true, fatal
}

func (e *Engine) lookup(ctx context.Context, key string) (CacheEntry, bool) {
	entry, found, err := e.cache.Get(ctx, key)
	if err != nil {
		e.logger.Warn("cache read failed, treating as miss", zap.String("key", key), zap.Error(err))
		return CacheEntry{}, false
	}
	return entry, found
}

// complete handles one finished request. A returned error is fatal for the
// run; per-rider failures are logged and swallowed.
func (e *Engine) complete(ctx context.Context, out []Rider, c Completion, opts Options) error {
	task := c.Task
	if c.Err != nil {
		return fmt.Errorf("fetch %s: %w", task.URL, c.Err)
	}
	e.observer.ObserveRequest(RequestProfile, c.Page.StatusCode)
	if c.Page.StatusCode != http.StatusOK {
		e.logger.Error("non-success status, aborting run",
			zap.String("url", task.URL), zap.Int("status_code", c.Page.StatusCode))
		return &StatusError{URL: task.URL, StatusCode: c.Page.StatusCode}
	}

	rider := &out[task.Index]
	outcome := OutcomeFetched
	extraction, err := e.extractor.Extract(c.Page.Body, opts.Flags)
	if err != nil {
		e.skip(task, rider, err)
		return nil
	}
	payload := extraction.Payload
	if extraction.NotFound {
		if e.resolver == nil {
			e.skip(task, rider, ErrRiderNotFound)
			return nil
		}
		resolved, profileURL, err := e.resolver.Resolve(ctx, *rider, opts)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			e.skip(task, rider, err)
			return nil
		}
		e.logger.Info("fallback resolved", zap.String("key", task.Key), zap.String("url", profileURL))
		payload = resolved
		outcome = OutcomeFallback
	}

	payload.Fetched = opts.Flags
	if task.Previous != nil {
		payload = payload.Merge(task.Previous.Payload)
	}
	Apply(rider, payload, opts)
	if err := e.cache.Put(ctx, task.Key, payload, e.cfg.TTL); err != nil {
		e.logger.Warn("cache write failed", zap.String("key", task.Key), zap.Error(err))
	}
	e.observer.ObserveRider(outcome)
	e.logger.Info("fetched", zap.String("key", task.Key))
	return nil
}

func (e *Engine) skip(task FetchTask, rider *Rider, err error) {
	e.observer.ObserveRider(OutcomeSkipped)
	fields := []zap.Field{
		zap.String("key", task.Key),
		zap.String("url", task.URL),
		zap.String("rider", rider.FullName()),
		zap.Error(err),
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		fields = append(fields, zap.Int("status_code", statusErr.StatusCode))
	}
	e.logger.Warn("rider skipped", fields...)
}
