package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	ServiceName string
	Enabled     bool
	// Options are passed through to otelgin, e.g. a custom TracerProvider in tests.
	Options []otelgin.Option
}

// Tracing returns OpenTelemetry tracing middleware. Spans are named after the
// matched route (e.g. "GET /api/v1/process-stages/:id"), tagged with the
// request and order IDs, and marked as errors on 5xx responses.
func Tracing(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return otelgin.Middleware(cfg.ServiceName, cfg.Options...)
}

// SpanEnricher copies request identifiers onto the active span and marks
// server errors. It must run after Tracing so a span exists.
func SpanEnricher() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			c.Next()
			return
		}

		if requestID := GetRequestID(c); requestID != "" {
			span.SetAttributes(attribute.String("request_id", requestID))
		}
		if orderID := c.Param("orderId"); orderID != "" {
			span.SetAttributes(attribute.String("order_id", orderID))
		}

		c.Next()

		if status := c.Writer.Status(); status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}
