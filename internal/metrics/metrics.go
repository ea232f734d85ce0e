// Package metrics exposes Prometheus collectors for enrichment runs.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Recorder owns a registry with the pipeline collectors. It implements
// enricher.Observer.
type Recorder struct {
	registry *prometheus.Registry

	ridersTotal                *prometheus.CounterVec
	requestsTotal              *prometheus.CounterVec
	windowsTotal               *prometheus.CounterVec
	windowDurationSeconds      prometheus.Histogram
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		ridersTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "enricher_riders_total",
				Help: "Riders processed, labeled by outcome.",
			},
			[]string{"outcome"},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "enricher_requests_total",
				Help: "Upstream requests, labeled by kind and status code.",
			},
			[]string{"kind", "code"},
		),
		windowsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "enricher_windows_total",
				Help: "Windows processed, labeled by whether any request was issued.",
			},
			[]string{"fetched"},
		),
		windowDurationSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "enricher_window_duration_seconds",
				Help:    "Histogram of window processing time.",
				Buckets: []float64{0.01, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		),
		httpRequestDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		),
	}
}

// ObserveRider counts one rider outcome.
func (r *Recorder) ObserveRider(outcome string) {
	r.ridersTotal.WithLabelValues(outcome).Inc()
}

// ObserveRequest counts one upstream response.
func (r *Recorder) ObserveRequest(kind string, code int) {
	r.requestsTotal.WithLabelValues(kind, strconv.Itoa(code)).Inc()
}

// ObserveWindow records a finished window.
func (r *Recorder) ObserveWindow(fetched bool, duration time.Duration) {
	r.windowsTotal.WithLabelValues(strconv.FormatBool(fetched)).Inc()
	r.windowDurationSeconds.Observe(duration.Seconds())
}

// ObserveHTTPRequest records a request served by the metrics endpoint.
func (r *Recorder) ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	r.httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	r.httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Gatherer returns the underlying registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Push sends the current values to a Pushgateway.
func (r *Recorder) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(r.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
