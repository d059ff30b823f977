package api

import (
	"context"
	"net/http"
	"time"

	"olimpiad/internal/dto/req"
	"olimpiad/internal/dto/resp"
	"olimpiad/internal/model"
	v1 "olimpiad/pkg/api/v1"

	"github.com/gin-gonic/gin"
)

const defaultAuditLimit = 100

type FeatureProvider interface {
	ListFeatures(ctx context.Context) ([]v1.Feature, error)
	CreateFeature(ctx context.Context, name, featureType string) (*v1.Feature, error)
	DeleteFeature(ctx context.Context, id string) error
	ListAudits(ctx context.Context, limit int) ([]model.SchemaAudit, error)
	Health(ctx context.Context) error
}

type FeatureHandler struct {
	service FeatureProvider
}

func NewFeatureHandler(service FeatureProvider) *FeatureHandler {
	return &FeatureHandler{service: service}
}

func (h *FeatureHandler) ListFeatures(c *gin.Context) {
	features, err := h.service.ListFeatures(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, features)
}

func (h *FeatureHandler) CreateFeature(c *gin.Context) {
	var r req.CreateFeatureRequest
	if err := c.ShouldBindJSON(&r); err != nil {
		bindError(c, err)
		return
	}

	feature, err := h.service.CreateFeature(c.Request.Context(), *r.Name, *r.Type)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, feature)
}

func (h *FeatureHandler) DeleteFeature(c *gin.Context) {
	if err := h.service.DeleteFeature(c.Request.Context(), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.MessageResponse{Message: "Feature deleted successfully"})
}

func (h *FeatureHandler) ListAudits(c *gin.Context) {
	var r req.AuditListRequest
	if err := c.ShouldBindQuery(&r); err != nil {
		bindError(c, err)
		return
	}
	if r.Limit == 0 {
		r.Limit = defaultAuditLimit
	}

	audits, err := h.service.ListAudits(c.Request.Context(), r.Limit)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.NewAuditLogItems(audits))
}

func (h *FeatureHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, resp.MessageResponse{Message: "Olimpiad Management API"})
}

func (h *FeatureHandler) HealthCheck(c *gin.Context) {
	if err := h.service.Health(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp.HealthResponse{Status: "healthy", Timestamp: time.Now().UTC()})
}
