package middleware

import (
	"context"

	"github.com/erp/costing/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
)

// Profiling tags CPU samples taken while a request is handled with its
// route pattern, method and order ID. Unmatched routes are not tagged.
func Profiling(enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if !enabled || route == "" {
			c.Next()
			return
		}

		labels := map[string]string{
			telemetry.ProfilingLabelRoute:   route,
			telemetry.ProfilingLabelMethod:  c.Request.Method,
			telemetry.ProfilingLabelOrderID: c.Param("orderId"),
		}
		telemetry.WithProfilingLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}
