package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader carries the correlation ID on requests and responses.
	RequestIDHeader = "X-Request-ID"
	// ContextRequestID is the gin context key holding the request ID.
	ContextRequestID = "request_id"

	maxRequestIDLength = 128
)

// RequestID reuses the caller's X-Request-ID when present and otherwise
// assigns a new UUID. The ID is echoed on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = uuid.New().String()
		}

		c.Set(ContextRequestID, requestID)
		c.Header(RequestIDHeader, requestID)
		c.Next()
	}
}

// GetRequestID returns the request ID assigned by RequestID, or "".
func GetRequestID(c *gin.Context) string {
	return c.GetString(ContextRequestID)
}
