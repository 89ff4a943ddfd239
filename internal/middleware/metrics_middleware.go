// internal/middleware/metrics_middleware.go
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eduscribe_gateway_requests_total",
			Help: "Requests handled by the gateway, by method and status.",
		},
		[]string{"method", "status"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eduscribe_gateway_request_duration_seconds",
			Help:    "Gateway request latency, including the upstream relay.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

// MetricsMiddleware records per-request counters and latency.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		method := c.Request.Method
		requestsTotal.WithLabelValues(method, strconv.Itoa(c.Writer.Status())).Inc()
		requestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	}
}
