package middleware

import (
	"olimpiad/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TraceMiddleware propagates X-Trace-ID into the request context, where the
// schema audit log picks it up.
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader("X-Trace-ID")
		if traceID == "" {
			traceID = uuid.New().String()
		}
		c.Set("TraceID", traceID)
		c.Writer.Header().Set("X-Trace-ID", traceID)
		c.Request = c.Request.WithContext(service.WithTraceID(c.Request.Context(), traceID))
		c.Next()
	}
}
