package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"olimpiad/internal/dto/resp"
	"olimpiad/internal/service"
	"olimpiad/pkg/constraints"
	"olimpiad/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// invalidStatusDetail renders the status list the way the dashboard expects.
func invalidStatusDetail() string {
	return fmt.Sprintf("Invalid status. Must be one of: ['%s']", strings.Join(constraints.Statuses, "', '"))
}

func abortDetail(c *gin.Context, code int, detail string) {
	c.AbortWithStatusJSON(code, resp.ErrorResponse{Detail: detail})
}

// handleError maps service errors to HTTP responses. Unknown errors are
// logged and reported without internals.
func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrOlimpiadNotFound):
		abortDetail(c, http.StatusNotFound, "Olimpiad not found")
	case errors.Is(err, service.ErrFeatureNotFound):
		abortDetail(c, http.StatusNotFound, "Feature not found")
	case errors.Is(err, service.ErrInvalidStatus):
		abortDetail(c, http.StatusBadRequest, invalidStatusDetail())
	case errors.Is(err, service.ErrInvalidArgument):
		abortDetail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrStoreUnhealthy):
		abortDetail(c, http.StatusServiceUnavailable, "Store unavailable")
	default:
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.String("trace_id", service.GetTraceID(c.Request.Context())),
			zap.Error(err))
		_ = c.Error(err)
		abortDetail(c, http.StatusInternalServerError, "Internal server error")
	}
}

func bindError(c *gin.Context, err error) {
	abortDetail(c, http.StatusBadRequest, err.Error())
}
