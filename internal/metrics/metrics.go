// Package metrics exposes Prometheus collectors for the extractor.
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

// Record outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

var (
	recordsTotal               *prometheus.CounterVec
	navigationAttemptsTotal    *prometheus.CounterVec
	mirrorFallbacksTotal       *prometheus.CounterVec
	batchDurationSeconds       prometheus.Histogram
	storeUpsertsTotal          *prometheus.CounterVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		recordsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "extractor_records_total",
				Help: "Partial records produced, labeled by strategy and outcome.",
			},
			[]string{"strategy", "outcome"},
		)

		navigationAttemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "extractor_navigation_attempts_total",
				Help: "Navigation attempts, labeled by strategy and result state.",
			},
			[]string{"strategy", "result"},
		)

		mirrorFallbacksTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "extractor_mirror_fallbacks_total",
				Help: "Retries against the mirror host, labeled by strategy.",
			},
			[]string{"strategy"},
		)

		batchDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "extractor_batch_duration_seconds",
				Help:    "Wall time of a full extraction batch.",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
		)

		storeUpsertsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "extractor_store_upserts_total",
				Help: "Documents written to the store, labeled by driver and result.",
			},
			[]string{"driver", "result"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 30, 120},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRecord counts one partial record.
func ObserveRecord(strategy, outcome string) {
	Init()
	recordsTotal.WithLabelValues(strategy, outcome).Inc()
}

// ObserveNavigation counts one navigation attempt outcome.
func ObserveNavigation(strategy, result string) {
	Init()
	navigationAttemptsTotal.WithLabelValues(strategy, result).Inc()
}

// ObserveMirrorFallback counts one retry against the mirror host.
func ObserveMirrorFallback(strategy string) {
	Init()
	mirrorFallbacksTotal.WithLabelValues(strategy).Inc()
}

// ObserveBatch records the duration of one batch.
func ObserveBatch(duration time.Duration) {
	Init()
	batchDurationSeconds.Observe(duration.Seconds())
}

// ObserveUpsert counts n documents written by driver.
func ObserveUpsert(driver, result string, n int) {
	Init()
	if n <= 0 {
		return
	}
	storeUpsertsTotal.WithLabelValues(driver, result).Add(float64(n))
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
