package middleware

import (
	"net/http"

	"olimpiad/internal/service"

	"github.com/gin-gonic/gin"
)

// RequireRole rejects authenticated operators without the given role. It is
// a no-op when auth is disabled, mirroring JWTMiddleware.
func RequireRole(role string, enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled {
			c.Next()
			return
		}
		op := service.GetOperatorInfo(c.Request.Context())
		if op == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "unauthorized"})
			return
		}
		if op.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "forbidden"})
			return
		}
		c.Next()
	}
}
