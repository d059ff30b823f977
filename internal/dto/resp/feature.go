package resp

import (
	"time"

	"olimpiad/internal/model"
)

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type AuditLogItem struct {
	ID          int64     `json:"id"`
	FeatureID   string    `json:"feature_id"`
	FeatureName string    `json:"feature_name"`
	FeatureType string    `json:"feature_type"`
	Action      string    `json:"action"`
	Matched     int64     `json:"matched"`
	Operator    string    `json:"operator"`
	TraceID     string    `json:"trace_id"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewAuditLogItems(audits []model.SchemaAudit) []AuditLogItem {
	items := make([]AuditLogItem, 0, len(audits))
	for _, a := range audits {
		items = append(items, AuditLogItem{
			ID:          a.ID,
			FeatureID:   a.FeatureID,
			FeatureName: a.FeatureName,
			FeatureType: a.FeatureType,
			Action:      a.Action,
			Matched:     a.Matched,
			Operator:    a.Operator,
			TraceID:     a.TraceID,
			CreatedAt:   a.CreatedAt,
		})
	}
	return items
}

type UploadResponse struct {
	URL string `json:"url"`
}

