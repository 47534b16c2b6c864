// Package metrics provides Prometheus metrics collection for the cart sync
// engine and the development gateway.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestDuration tracks HTTP request duration by method, path, and status code.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status_code"},
	)

	// HTTPRequestTotal tracks total HTTP requests by method, path, and status code.
	HTTPRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	// CartMutationsTotal tracks optimistic cart mutations by operation and outcome.
	CartMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cart_mutations_total",
			Help: "Total number of cart mutations",
		},
		[]string{"operation", "status"},
	)

	// CartRollbacksTotal tracks optimistic mutations rolled back after a remote failure.
	CartRollbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cart_rollbacks_total",
			Help: "Total number of optimistic mutations rolled back",
		},
		[]string{"operation"},
	)

	// GatewayRequestDuration tracks remote cart gateway call duration.
	GatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cart_gateway_request_duration_seconds",
			Help:    "Remote cart gateway call duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		},
		[]string{"operation", "status"},
	)

	// StaleResponsesTotal tracks remote confirmations discarded by the sequence guard.
	StaleResponsesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cart_stale_responses_total",
			Help: "Remote confirmations discarded as stale",
		},
	)

	// CartItems tracks the unit count of the local cart.
	CartItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cart_items",
			Help: "Units currently in the local cart",
		},
	)
)

// PrometheusMiddleware returns a Gin middleware that collects HTTP metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		c.Next()

		duration := time.Since(start).Seconds()
		statusCode := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method

		HTTPRequestDuration.WithLabelValues(method, path, statusCode).Observe(duration)
		HTTPRequestTotal.WithLabelValues(method, path, statusCode).Inc()
	}
}

// RecordMutation records the outcome of an optimistic cart mutation.
func RecordMutation(operation, status string) {
	CartMutationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordRollback records a rolled-back optimistic mutation.
func RecordRollback(operation string) {
	CartRollbacksTotal.WithLabelValues(operation).Inc()
}

// RecordGatewayRequest records one remote gateway round trip.
func RecordGatewayRequest(operation, status string, duration time.Duration) {
	GatewayRequestDuration.WithLabelValues(operation, status).Observe(duration.Seconds())
}

// SetCartItems updates the local cart unit-count gauge.
func SetCartItems(count int) {
	CartItems.Set(float64(count))
}
