// Package collyfetcher implements the enrichment fetcher using gocolly.
package collyfetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/JakeFAU/rider-enricher/internal/enricher"
)

const (
	defaultTimeout = 15 * time.Second
	taskKey        = "enricher.task"
)

var errNoResponse = errors.New("collector finished without a response")

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
	// Parallelism caps in-flight requests across all groups.
	Parallelism int
	// Transport replaces the pooled default transport when set.
	Transport http.RoundTripper
}

// Fetcher implements enricher.Fetcher on top of an asynchronous Colly
// collector. Clones share the base collector's transport and limits.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
}

type collectorHooks interface {
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// New builds a Fetcher.
func New(cfg Config) (*Fetcher, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = enricher.DefaultWindowSize
	}
	c := colly.NewCollector(colly.Async(true), colly.AllowURLRevisit())
	// Non-2xx responses are delivered to OnResponse so callers see the status.
	c.ParseHTTPErrorResponse = true
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}
	transport := cfg.Transport
	if transport == nil {
		transport = newHTTPTransport()
	}
	c.WithTransport(transport)
	c.SetRequestTimeout(cfg.Timeout)
	if err := c.Limit(&colly.LimitRule{DomainGlob: "*", Parallelism: cfg.Parallelism}); err != nil {
		return nil, fmt.Errorf("colly limit rule: %w", err)
	}
	return &Fetcher{cfg: cfg, baseCollector: c}, nil
}

// Fetch executes a single GET and returns the page whatever its status.
// It runs a one-task group: completions are deduplicated by Index only within
// a group, so the zero Index cannot collide with concurrent calls.
func (f *Fetcher) Fetch(ctx context.Context, url string) (enricher.Page, error) {
	task := enricher.FetchTask{Index: 0, URL: url}
	for c := range f.FetchAll(ctx, []enricher.FetchTask{task}) {
		if c.Err != nil {
			return enricher.Page{}, c.Err
		}
		return c.Page, nil
	}
	return enricher.Page{}, fmt.Errorf("colly fetch %s: %w", url, errNoResponse)
}

// FetchAll issues every task concurrently and streams one completion per
// task, in completion order. The channel closes once all tasks are done.
func (f *Fetcher) FetchAll(ctx context.Context, tasks []enricher.FetchTask) <-chan enricher.Completion {
	out := make(chan enricher.Completion, len(tasks))
	if len(tasks) == 0 {
		close(out)
		return out
	}

	d := &deliverer{out: out, done: make(map[int]bool, len(tasks))}
	collector := f.baseCollector.Clone()
	collector.Context = ctx
	f.configureCollectorHooks(collector, d)

	go func() {
		defer close(out)
		for _, task := range tasks {
			if err := ctx.Err(); err != nil {
				d.deliver(enricher.Completion{Task: task, Err: fmt.Errorf("colly fetch canceled: %w", err)})
				continue
			}
			cctx := colly.NewContext()
			cctx.Put(taskKey, task)
			if err := collector.Request(http.MethodGet, task.URL, nil, cctx, nil); err != nil {
				d.deliver(enricher.Completion{Task: task, Err: fmt.Errorf("colly request failed: %w", err)})
			}
		}
		collector.Wait()
		for _, task := range tasks {
			d.deliver(enricher.Completion{Task: task, Err: fmt.Errorf("colly fetch %s: %w", task.URL, errNoResponse)})
		}
	}()
	return out
}

func (f *Fetcher) configureCollectorHooks(hooks collectorHooks, d *deliverer) {
	hooks.OnResponse(func(r *colly.Response) {
		task, ok := taskFrom(r)
		if !ok {
			return
		}
		d.deliver(enricher.Completion{
			Task: task,
			Page: enricher.Page{
				URL:        r.Request.URL.String(),
				StatusCode: r.StatusCode,
				Body:       append([]byte(nil), r.Body...),
			},
		})
	})

	hooks.OnError(func(r *colly.Response, err error) {
		task, ok := taskFrom(r)
		if !ok {
			return
		}
		d.deliver(enricher.Completion{Task: task, Err: fmt.Errorf("colly response failed: %w", err)})
	})
}

func taskFrom(r *colly.Response) (enricher.FetchTask, bool) {
	if r == nil || r.Ctx == nil {
		return enricher.FetchTask{}, false
	}
	task, ok := r.Ctx.GetAny(taskKey).(enricher.FetchTask)
	return task, ok
}

// deliverer forwards at most one completion per task index.
type deliverer struct {
	mu   sync.Mutex
	out  chan<- enricher.Completion
	done map[int]bool
}

func (d *deliverer) deliver(c enricher.Completion) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.done[c.Task.Index] {
		return
	}
	d.done[c.Task.Index] = true
	d.out <- c
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   enricher.DefaultWindowSize,
		IdleConnTimeout:       90 * time.Second,
	}
}
