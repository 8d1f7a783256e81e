// Package metrics exposes Prometheus collectors for the relay service.
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
	httpRequestsTotal              *prometheus.CounterVec
	httpRequestDurationSeconds     *prometheus.HistogramVec
	relaySubmissionsTotal          *prometheus.CounterVec
	relayDownstreamDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
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
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"method", "route"},
		)

		relaySubmissionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_submissions_total",
				Help: "Total number of article submissions, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		relayDownstreamDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "relay_downstream_request_duration_seconds",
				Help:    "Histogram of webhook call latencies, labeled by result.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"result"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveSubmission increments the submission counter for the given outcome.
func ObserveSubmission(outcome string) {
	relaySubmissionsTotal.WithLabelValues(outcome).Inc()
}

// ObserveDownstream records how long a webhook call took and how it ended.
func ObserveDownstream(result string, duration time.Duration) {
	relayDownstreamDurationSeconds.WithLabelValues(result).Observe(duration.Seconds())
}
