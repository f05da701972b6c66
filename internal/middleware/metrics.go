package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/kpi-forecast-go/internal/metrics"
)

// unmatchedRoute labels requests that did not hit a registered route, which
// keeps label cardinality bounded.
const unmatchedRoute = "unmatched"

// PrometheusMetrics records request counts and latencies per route template.
func PrometheusMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		metrics.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
