// Package metrics exposes Prometheus collectors for the dataset pipeline and
// the per-run outcome tally that makes dropped items observable.
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
	itemsTotal            *prometheus.CounterVec
	httpRequestsTotal     *prometheus.CounterVec
	activeWorkers         *prometheus.GaugeVec
	rateLimitDelaySeconds prometheus.Histogram
	sinkAppendsTotal      *prometheus.CounterVec
	recordWritesTotal     *prometheus.CounterVec
	apiRequestDuration    *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		itemsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dataset_items_total",
				Help: "Items processed, labeled by stage and outcome.",
			},
			[]string{"stage", "outcome"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dataset_http_requests_total",
				Help: "Outbound HTTP requests, labeled by call kind and status class.",
			},
			[]string{"kind", "status_class"},
		)

		activeWorkers = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dataset_active_workers",
				Help: "Workers currently running, labeled by stage.",
			},
			[]string{"stage"},
		)

		rateLimitDelaySeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "dataset_rate_limit_delay_seconds",
				Help:    "Time spent waiting in the rate limiter before an outbound call.",
				Buckets: []float64{0.01, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
		)

		sinkAppendsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dataset_sink_appends_total",
				Help: "Lines appended to URL sinks, labeled by sink.",
			},
			[]string{"sink"},
		)

		recordWritesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dataset_record_writes_total",
				Help: "Record files written, labeled by store.",
			},
			[]string{"store"},
		)

		apiRequestDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dataset_api_request_duration_seconds",
				Help:    "Latency of operator API requests, labeled by method, route, and status class.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status_class"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveItem increments the item counter for stage and outcome.
func ObserveItem(stage, outcome string) {
	Init()
	itemsTotal.WithLabelValues(stage, outcome).Inc()
}

// ObserveHTTPRequest records an outbound request. A zero code means no
// response was received.
func ObserveHTTPRequest(kind string, code int) {
	Init()
	httpRequestsTotal.WithLabelValues(kind, StatusClass(code)).Inc()
}

// ObserveRateLimitDelay records the duration of a rate limit wait.
func ObserveRateLimitDelay(duration time.Duration) {
	Init()
	rateLimitDelaySeconds.Observe(duration.Seconds())
}

// ObserveSinkAppend counts a line appended to the named sink.
func ObserveSinkAppend(sink string) {
	Init()
	sinkAppendsTotal.WithLabelValues(sink).Inc()
}

// ObserveRecordWrite counts a record written to the named store.
func ObserveRecordWrite(store string) {
	Init()
	recordWritesTotal.WithLabelValues(store).Inc()
}

// ObserveAPIRequest records one request served by the operator API.
func ObserveAPIRequest(method, route string, code int, duration time.Duration) {
	Init()
	apiRequestDuration.WithLabelValues(method, route, StatusClass(code)).Observe(duration.Seconds())
}

// IncActiveWorkers increments the active workers gauge for stage.
func IncActiveWorkers(stage string) {
	Init()
	activeWorkers.WithLabelValues(stage).Inc()
}

// DecActiveWorkers decrements the active workers gauge for stage.
func DecActiveWorkers(stage string) {
	Init()
	activeWorkers.WithLabelValues(stage).Dec()
}

// StatusClass groups HTTP status codes ("2xx", "4xx", ...). Zero maps to
// "error".
func StatusClass(code int) string {
	switch {
	case code == 0:
		return "error"
	case code >= 100 && code < 600:
		return strconv.Itoa(code/100) + "xx"
	default:
		return "other"
	}
}
