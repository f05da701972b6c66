package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package metrics exposes the Prometheus collectors of the forecasting service.

// Cache lookup outcomes recorded by RecordCacheResult.
const (
	CacheHit    = "hit"
	CacheMiss   = "miss"
	CacheError  = "error"
	CacheBypass = "bypass"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	forecastsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecasts_total",
			Help: "Forecasts served, cache hits included, by strategy and confidence level.",
		},
		[]string{"strategy", "confidence"},
	)
	analysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyses_total",
			Help: "Pattern analyses served, cache hits included, by detected trend.",
		},
		[]string{"trend"},
	)
	rejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecast_rejected_total",
			Help: "Requests rejected before reaching the engine, by operation and reason.",
		},
		[]string{"operation", "reason"},
	)
	cacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecast_cache_total",
			Help: "Result cache lookups, by outcome.",
		},
		[]string{"result"},
	)
	engineDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forecast_engine_duration_seconds",
			Help:    "Time spent in the forecasting engine.",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25},
		},
		[]string{"operation"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(forecastsTotal)
	prometheus.MustRegister(analysesTotal)
	prometheus.MustRegister(rejectedTotal)
	prometheus.MustRegister(cacheTotal)
	prometheus.MustRegister(engineDuration)
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTPRequest records one served request. path should be the route
// template, not the raw URL, to keep label cardinality bounded.
func ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func RecordForecast(strategy, confidence string) {
	forecastsTotal.WithLabelValues(strategy, confidence).Inc()
}

func RecordAnalysis(trend string) {
	analysesTotal.WithLabelValues(trend).Inc()
}

// RecordRejected counts a request that failed validation or had too few points.
func RecordRejected(operation, reason string) {
	rejectedTotal.WithLabelValues(operation, reason).Inc()
}

func RecordCacheResult(result string) {
	cacheTotal.WithLabelValues(result).Inc()
}

// ObserveEngine records how long an engine operation took.
func ObserveEngine(operation string, duration time.Duration) {
	engineDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
