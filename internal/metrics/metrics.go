// Package metrics exposes Prometheus collectors for the site server.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	pageRendersTotal           *prometheus.CounterVec
	upstreamRequestsTotal      *prometheus.CounterVec
	upstreamRequestDurationSec *prometheus.HistogramVec
	cacheEventsTotal           *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		pageRendersTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "site_page_renders_total",
				Help: "Total number of pages rendered, labeled by route and outcome.",
			},
			[]string{"route", "outcome"},
		)

		upstreamRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "site_upstream_requests_total",
				Help: "Total number of CMS API requests, labeled by endpoint and status code.",
			},
			[]string{"endpoint", "code"},
		)

		upstreamRequestDurationSec = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "site_upstream_request_duration_seconds",
				Help:    "Histogram of CMS API request latencies, labeled by endpoint.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"endpoint"},
		)

		cacheEventsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "site_cache_events_total",
				Help: "Revalidate cache events, labeled by event (hit, miss, stale_discard).",
			},
			[]string{"event"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "site_http_request_duration_seconds",
				Help:    "Histogram of inbound HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObservePageRender increments the page render counter.
func ObservePageRender(route, outcome string) {
	if pageRendersTotal == nil {
		return
	}
	pageRendersTotal.WithLabelValues(route, outcome).Inc()
}

// ObserveUpstreamRequest records one CMS API request.
func ObserveUpstreamRequest(endpoint string, code int, duration time.Duration) {
	if upstreamRequestsTotal == nil {
		return
	}
	upstreamRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
	upstreamRequestDurationSec.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// ObserveCacheEvent records a revalidate cache event.
func ObserveCacheEvent(event string) {
	if cacheEventsTotal == nil {
		return
	}
	cacheEventsTotal.WithLabelValues(event).Inc()
}

// ObserveHTTPRequest records an inbound request latency.
func ObserveHTTPRequest(method, route string, duration time.Duration) {
	if httpRequestDurationSeconds == nil {
		return
	}
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
