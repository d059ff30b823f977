package api

import (
	"context"
	"net/http"

	"olimpiad/internal/dto/req"
	"olimpiad/internal/dto/resp"
	"olimpiad/internal/model"
	"olimpiad/internal/service"

	"github.com/gin-gonic/gin"
)

type OlimpiadProvider interface {
	Create(ctx context.Context, in service.CreateOlimpiadInput) (*model.Olimpiad, error)
	Get(ctx context.Context, id string) (*model.Olimpiad, error)
	List(ctx context.Context, status, search string) ([]*model.Olimpiad, error)
	ListByStatus(ctx context.Context, status string) ([]*model.Olimpiad, error)
	Update(ctx context.Context, id string, p service.OlimpiadPatch) (*model.Olimpiad, error)
	Delete(ctx context.Context, id string) error
	AppendDate(ctx context.Context, id string, pair model.DatePair) error
	SetFeatureValue(ctx context.Context, id, featureID string, value any) error
}

type OlimpiadHandler struct {
	service OlimpiadProvider
}

func NewOlimpiadHandler(service OlimpiadProvider) *OlimpiadHandler {
	return &OlimpiadHandler{service: service}
}

func toDatePairs(in []req.DatePairRequest) []model.DatePair {
	out := make([]model.DatePair, 0, len(in))
	for _, d := range in {
		text, date := d.Pair()
		out = append(out, model.DatePair{Text: text, Date: date})
	}
	return out
}

func (h *OlimpiadHandler) List(c *gin.Context) {
	var r req.ListOlimpiadsRequest
	if err := c.ShouldBindQuery(&r); err != nil {
		bindError(c, err)
		return
	}
	list, err := h.service.List(c.Request.Context(), r.Status, r.Search)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.NewOlimpiads(list))
}

func (h *OlimpiadHandler) Get(c *gin.Context) {
	o, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.NewOlimpiad(o))
}

func (h *OlimpiadHandler) Create(c *gin.Context) {
	var r req.CreateOlimpiadRequest
	if err := c.ShouldBindJSON(&r); err != nil {
		bindError(c, err)
		return
	}
	o, err := h.service.Create(c.Request.Context(), service.CreateOlimpiadInput{
		Name:    *r.Name,
		Subject: *r.Subject,
		Level:   *r.Level,
		Status:  *r.Status,
		Avatar:  r.Avatar,
		Dates:   toDatePairs(r.Dates),
	})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.NewOlimpiad(o))
}

func (h *OlimpiadHandler) Update(c *gin.Context) {
	var r req.UpdateOlimpiadRequest
	if err := c.ShouldBindJSON(&r); err != nil {
		bindError(c, err)
		return
	}
	patch := service.OlimpiadPatch{
		Name:            r.Name,
		Subject:         r.Subject,
		Level:           r.Level,
		Status:          r.Status,
		Avatar:          r.Avatar,
		DynamicFeatures: r.DynamicFeatures,
	}
	if r.Dates != nil {
		dates := toDatePairs(*r.Dates)
		patch.Dates = &dates
	}

	o, err := h.service.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.NewOlimpiad(o))
}

func (h *OlimpiadHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.MessageResponse{Message: "Olimpiad deleted successfully"})
}

func (h *OlimpiadHandler) ListByStatus(c *gin.Context) {
	list, err := h.service.ListByStatus(c.Request.Context(), c.Param("status"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.NewOlimpiads(list))
}

func (h *OlimpiadHandler) AppendDate(c *gin.Context) {
	var r req.DatePairRequest
	if err := c.ShouldBindJSON(&r); err != nil {
		bindError(c, err)
		return
	}
	text, date := r.Pair()
	pair := model.DatePair{Text: text, Date: date}
	if err := h.service.AppendDate(c.Request.Context(), c.Param("id"), pair); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.MessageResponse{Message: "Date pair added successfully"})
}

// SetFeatureValue takes {"value": <any json>}; null is a valid value.
func (h *OlimpiadHandler) SetFeatureValue(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		bindError(c, err)
		return
	}
	value, ok := body["value"]
	if !ok {
		abortDetail(c, http.StatusBadRequest, "value is required")
		return
	}

	if err := h.service.SetFeatureValue(c.Request.Context(), c.Param("id"), c.Param("feature_id"), value); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.MessageResponse{Message: "Feature value updated successfully"})
}
