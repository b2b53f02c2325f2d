package monitoring

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Middleware records request counts and durations per route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" || path == "/metrics" {
			// Skip unmatched routes and the metrics endpoint itself
			c.Next()
			return
		}

		timer := prometheus.NewTimer(HttpRequestDuration.WithLabelValues(path))
		HttpRequestsTotal.WithLabelValues(path).Inc()

		c.Next()

		timer.ObserveDuration()
	}
}
