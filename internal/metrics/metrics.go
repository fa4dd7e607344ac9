package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, route, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts HTTP requests by method, route, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// RegistrationsTotal counts registration attempts by outcome (created, invalid, full, taken, error).
	RegistrationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brewlog_registrations_total",
			Help: "Registration attempts by outcome",
		},
		[]string{"result"},
	)

	// CoffeesSavedTotal counts coffee records written by full-replace saves.
	CoffeesSavedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "brewlog_coffees_saved_total",
			Help: "Coffee records written by save requests",
		},
	)

	// AnalyzeTotal counts image analysis calls by outcome (ok, bad_request, upstream, parse).
	AnalyzeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brewlog_analyze_requests_total",
			Help: "Image analysis requests by outcome",
		},
		[]string{"result"},
	)

	// AnalyzeDuration tracks the latency of the upstream vision call.
	AnalyzeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "brewlog_analyze_upstream_seconds",
			Help:    "Latency of the upstream vision model call",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
		},
	)

	// RateLimitedTotal counts requests rejected by a rate limiter.
	RateLimitedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brewlog_rate_limited_total",
			Help: "Requests rejected by rate limiting, by limiter",
		},
		[]string{"limiter"},
	)
)

var initOnce sync.Once

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			RequestDuration, RequestTotal,
			RegistrationsTotal, CoffeesSavedTotal,
			AnalyzeTotal, AnalyzeDuration,
			RateLimitedTotal,
		)
	})
}

// RecordRequest records duration and count for an HTTP request. path should be the
// matched route pattern so unknown URLs do not create new series.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

func IncRegistrations(result string) {
	RegistrationsTotal.WithLabelValues(result).Inc()
}

func AddCoffeesSaved(n int) {
	CoffeesSavedTotal.Add(float64(n))
}

func IncAnalyze(result string) {
	AnalyzeTotal.WithLabelValues(result).Inc()
}

func ObserveAnalyzeUpstream(seconds float64) {
	AnalyzeDuration.Observe(seconds)
}

func IncRateLimited(limiter string) {
	RateLimitedTotal.WithLabelValues(limiter).Inc()
}
