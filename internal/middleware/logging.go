package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/kpi-forecast-go/internal/logging"
)

// RequestLogger logs one structured line per request.
func RequestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		logger.LogAPIRequest(
			c.Request.Method,
			path,
			c.Writer.Status(),
			time.Since(start).Milliseconds(),
			GetRequestID(c),
		)
	}
}
