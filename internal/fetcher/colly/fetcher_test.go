package collyfetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/rider-enricher/internal/enricher"
)

func newProfileServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/rider/missing":
			http.Error(w, "gone", http.StatusNotFound)
		case "/rider/agent":
			_, _ = w.Write([]byte(r.UserAgent()))
		default:
			_, _ = fmt.Fprintf(w, "<html><title>%s</title></html>", r.URL.Path)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestFetchAllDeliversOneCompletionPerTask(t *testing.T) {
	t.Parallel()

	srv, hits := newProfileServer(t)
	f, err := New(Config{Parallelism: 4, Timeout: time.Second})
	require.NoError(t, err)

	tasks := make([]enricher.FetchTask, 0, 10)
	for i := 0; i < 10; i++ {
		tasks = append(tasks, enricher.FetchTask{
			Index: 100 + i,
			Key:   fmt.Sprintf("r%d", i),
			URL:   fmt.Sprintf("%s/rider/r%d", srv.URL, i),
		})
	}
	tasks = append(tasks, enricher.FetchTask{Index: 200, Key: "missing", URL: srv.URL + "/rider/missing"})

	got := map[int]enricher.Completion{}
	for c := range f.FetchAll(context.Background(), tasks) {
		_, dup := got[c.Task.Index]
		require.False(t, dup, "duplicate completion for %d", c.Task.Index)
		got[c.Task.Index] = c
	}

	require.Len(t, got, 11)
	require.EqualValues(t, 11, hits.Load())
	for i := 0; i < 10; i++ {
		c := got[100+i]
		require.NoError(t, c.Err)
		require.Equal(t, fmt.Sprintf("r%d", i), c.Task.Key)
		require.Equal(t, http.StatusOK, c.Page.StatusCode)
		require.Contains(t, string(c.Page.Body), fmt.Sprintf("/rider/r%d", i))
	}
	require.NoError(t, got[200].Err)
	require.Equal(t, http.StatusNotFound, got[200].Page.StatusCode)
}

func TestFetchAllReportsTransportErrors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	deadURL := srv.URL + "/rider/x"
	srv.Close()

	f, err := New(Config{Timeout: time.Second})
	require.NoError(t, err)

	var completions []enricher.Completion
	for c := range f.FetchAll(context.Background(), []enricher.FetchTask{{Index: 3, URL: deadURL}}) {
		completions = append(completions, c)
	}
	require.Len(t, completions, 1)
	require.Error(t, completions[0].Err)
	require.Equal(t, 3, completions[0].Task.Index)
}

func TestFetchAllCanceledContext(t *testing.T) {
	t.Parallel()

	srv, hits := newProfileServer(t)
	f, err := New(Config{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n := 0
	for c := range f.FetchAll(ctx, []enricher.FetchTask{{Index: 0, URL: srv.URL + "/rider/a"}, {Index: 1, URL: srv.URL + "/rider/b"}}) {
		require.True(t, errors.Is(c.Err, context.Canceled))
		n++
	}
	require.Equal(t, 2, n)
	require.Zero(t, hits.Load())
}

func TestFetchAllEmpty(t *testing.T) {
	t.Parallel()

	f, err := New(Config{})
	require.NoError(t, err)
	_, open := <-f.FetchAll(context.Background(), nil)
	require.False(t, open)
}

func TestFetchRevisitsAndSendsUserAgent(t *testing.T) {
	t.Parallel()

	srv, hits := newProfileServer(t)
	f, err := New(Config{UserAgent: "rider-enricher-test"})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		page, err := f.Fetch(context.Background(), srv.URL+"/rider/agent")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, page.StatusCode)
		require.Equal(t, "rider-enricher-test", string(page.Body))
	}
	require.EqualValues(t, 2, hits.Load(), "same URL must be fetched again")
}

func TestConcurrentFetchesKeepTheirOwnPages(t *testing.T) {
	t.Parallel()

	srv, _ := newProfileServer(t)
	f, err := New(Config{Parallelism: 4, Timeout: time.Second})
	require.NoError(t, err)

	const n = 8
	type result struct {
		path string
		page enricher.Page
		err  error
	}
	results := make(chan result, n)
	for i := 0; i < n; i++ {
		path := fmt.Sprintf("/rider/r%d", i)
		go func() {
			page, err := f.Fetch(context.Background(), srv.URL+path)
			results <- result{path: path, page: page, err: err}
		}()
	}
	for i := 0; i < n; i++ {
		r := <-results
		require.NoError(t, r.err)
		require.Equal(t, "<html><title>"+r.path+"</title></html>", string(r.page.Body))
	}
}

func TestConfigureCollectorHooks(t *testing.T) {
	t.Parallel()

	f, err := New(Config{})
	require.NoError(t, err)
	out := make(chan enricher.Completion, 2)
	d := &deliverer{out: out, done: map[int]bool{}}

	hooks := &stubHooks{}
	f.configureCollectorHooks(hooks, d)
	require.NotNil(t, hooks.onResponse)
	require.NotNil(t, hooks.onError)

	cctx := colly.NewContext()
	cctx.Put(taskKey, enricher.FetchTask{Index: 7, URL: "https://example.com/rider/a"})
	hooks.onResponse(&colly.Response{
		StatusCode: http.StatusCreated,
		Body:       []byte("body"),
		Ctx:        cctx,
		Request:    &colly.Request{URL: mustParseURL(t, "https://example.com/rider/a")},
	})
	hooks.onError(&colly.Response{Ctx: cctx}, errors.New("boom"))
	hooks.onError(&colly.Response{Ctx: colly.NewContext()}, errors.New("untracked"))

	require.Len(t, out, 1, "second delivery for the same task is dropped")
	c := <-out
	require.Equal(t, 7, c.Task.Index)
	require.Equal(t, http.StatusCreated, c.Page.StatusCode)
	require.Equal(t, "body", string(c.Page.Body))
}

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

type stubHooks struct {
	onResponse colly.ResponseCallback
	onError    colly.ErrorCallback
}

func (s *stubHooks) OnResponse(cb colly.ResponseCallback) {
	s.onResponse = cb
}

func (s *stubHooks) OnError(cb colly.ErrorCallback) {
	s.onError = cb
}
