package middleware

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/irfndi/kpi-forecast-go/internal/telemetry"
)

// probePaths are not annotated; orchestrators poll them constantly.
var probePaths = map[string]struct{}{
	"/health":  {},
	"/ready":   {},
	"/live":    {},
	"/metrics": {},
}

// TelemetryMiddleware annotates the server span started by otelgin with the
// request ID and marks it failed on 5xx responses.
func TelemetryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := probePaths[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		span := trace.SpanFromContext(c.Request.Context())
		if requestID := GetRequestID(c); requestID != "" && span.IsRecording() {
			span.SetAttributes(attribute.String("http.request_id", requestID))
		}

		c.Next()

		if !span.IsRecording() {
			return
		}
		statusCode := c.Writer.Status()
		span.SetAttributes(attribute.Int64("http.response.size_bytes", int64(c.Writer.Size())))
		if statusCode >= 500 {
			span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", statusCode))
		}
		if len(c.Errors) > 0 {
			span.SetAttributes(attribute.String("gin.errors", c.Errors.String()))
		}
	}
}

// RecordError records an error on the current span
func RecordError(c *gin.Context, err error, description string) {
	span := trace.SpanFromContext(c.Request.Context())
	if span.IsRecording() {
		span.RecordError(err)
		span.SetStatus(codes.Error, description)
	}
}

// AddSpanAttribute adds an attribute to the current span
func AddSpanAttribute(c *gin.Context, key string, value interface{}) {
	span := trace.SpanFromContext(c.Request.Context())
	if !span.IsRecording() {
		return
	}
	switch v := value.(type) {
	case string:
		span.SetAttributes(attribute.String(key, v))
	case int:
		span.SetAttributes(attribute.Int(key, v))
	case int64:
		span.SetAttributes(attribute.Int64(key, v))
	case float64:
		span.SetAttributes(attribute.Float64(key, v))
	case bool:
		span.SetAttributes(attribute.Bool(key, v))
	default:
		span.SetAttributes(attribute.String(key, fmt.Sprintf("%v", value)))
	}
}

// StartSpan starts a child span of the request and binds it to the request context.
func StartSpan(c *gin.Context, name string) (context.Context, trace.Span) {
	ctx, span := telemetry.GetHTTPTracer().Start(c.Request.Context(), name, trace.WithSpanKind(trace.SpanKindInternal))
	c.Request = c.Request.WithContext(ctx)
	return ctx, span
}
