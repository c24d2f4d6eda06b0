package rest

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus collectors for the intake API. These complement the
// CloudWatch RecordsProcessed metric: CloudWatch carries the
// compliance-facing signal, Prometheus carries operational detail.
var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hdr",
			Subsystem: "api",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hdr",
			Subsystem: "api",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	recordOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hdr",
			Subsystem: "pipeline",
			Name:      "records_total",
			Help:      "Record intake outcomes by terminal state",
		},
		[]string{"outcome"},
	)
)

const (
	outcomeProcessed = "processed"
	outcomeRejected  = "rejected"
	outcomeFailed    = "failed"
)

func recordProcessingOutcome(outcome string) {
	recordOutcomes.WithLabelValues(outcome).Inc()
}

// MetricsHandler exposes the Prometheus scrape endpoint.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// metricsMiddleware records request counts and latencies per route.
func metricsMiddleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &basicResponseWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, statusCodeClass(wrapped.status)).Inc()
			httpRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
		})
	}
}

// statusCodeClass groups status codes to keep label cardinality down.
func statusCodeClass(code int) string {
	return fmt.Sprintf("%dxx", code/100)
}
