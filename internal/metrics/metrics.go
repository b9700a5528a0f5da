package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request counter
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// HTTP request duration histogram
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)

	// Active HTTP connections gauge
	HTTPActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)

	// Review submission outcomes
	ReviewSubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_submissions_total",
			Help: "Total number of review submissions by outcome",
		},
		[]string{"result"}, // "accepted", "malformed", "rate_limited", "captcha_rejected", "storage_error"
	)

	// Review read-endpoint outcomes
	ReviewQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_queries_total",
			Help: "Total number of review listing/summary queries by outcome",
		},
		[]string{"endpoint", "result"}, // endpoint: "list", "summary"; result: "success", "invalid_query", "storage_error"
	)

	// Throttle ledger decisions
	ThrottleDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "throttle_decisions_total",
			Help: "Total number of throttle ledger admission decisions",
		},
		[]string{"decision"}, // "admitted", "rejected", "fail_open", "fail_closed"
	)
)

// RecordHTTPRequest records metrics for an HTTP request
func RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	status := strconv.Itoa(statusCode)

	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
}

// RecordSubmission records the outcome of a review submission
func RecordSubmission(result string) {
	ReviewSubmissionsTotal.WithLabelValues(result).Inc()
}

// RecordQuery records the outcome of a listing or summary query
func RecordQuery(endpoint, result string) {
	ReviewQueriesTotal.WithLabelValues(endpoint, result).Inc()
}

// RecordThrottleDecision records a throttle ledger admission decision
func RecordThrottleDecision(decision string) {
	ThrottleDecisionsTotal.WithLabelValues(decision).Inc()
}

// IncActiveConnections increments active connections
func IncActiveConnections() {
	HTTPActiveConnections.Inc()
}

// DecActiveConnections decrements active connections
func DecActiveConnections() {
	HTTPActiveConnections.Dec()
}
