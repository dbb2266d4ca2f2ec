package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/molvista/molvista/internal/infrastructure/monitoring/prometheus"
)

// Metrics records request counts and latencies. The route template (not the
// raw path) is the label, keeping cardinality bounded.
func Metrics(m *prometheus.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPRequestDuration.WithLabelValues(
			c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
