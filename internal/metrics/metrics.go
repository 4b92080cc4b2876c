package metrics

import (
	"regexp"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, path, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts HTTP requests by method, path, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// GatewayStatementsTotal counts /sql statements by kind (read, write) and
	// outcome (committed, rolled_back, query_error, decoding_error, forbidden, internal_error).
	GatewayStatementsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sql_gateway_statements_total",
			Help: "Total number of ad-hoc statements handled by the SQL gateway",
		},
		[]string{"kind", "outcome"},
	)

	// GatewayStatementDuration tracks time spent executing ad-hoc statements.
	GatewayStatementDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sql_gateway_statement_duration_seconds",
			Help:    "Ad-hoc statement execution time in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)
)

var (
	numericPathSegment = regexp.MustCompile(`/[0-9]+(/|$)`)
	initOnce           sync.Once
)

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestDuration, RequestTotal, GatewayStatementsTotal, GatewayStatementDuration)
	})
}

// NormalizePath reduces cardinality by replacing numeric path segments with {id}.
// E.g. /users/123 -> /users/{id}.
func NormalizePath(path string) string {
	return numericPathSegment.ReplaceAllString(path, "/{id}$1")
}

// RecordRequest records duration and count for an HTTP request. Call from middleware with method, path, statusCode, duration.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

// RecordStatement records one gateway statement.
func RecordStatement(kind, outcome string, durationSeconds float64) {
	GatewayStatementsTotal.WithLabelValues(kind, outcome).Inc()
	GatewayStatementDuration.WithLabelValues(kind).Observe(durationSeconds)
}
