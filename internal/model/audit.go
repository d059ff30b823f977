package model

import "time"

// SchemaAudit records one registry mutation and how many records its
// fan-out touched.
type SchemaAudit struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	FeatureID   string    `json:"feature_id" gorm:"size:36;index"`
	FeatureName string    `json:"feature_name" gorm:"size:255"`
	FeatureType string    `json:"feature_type" gorm:"size:32"`
	Action      string    `json:"action" gorm:"size:16"`
	Matched     int64     `json:"matched"`
	Operator    string    `json:"operator" gorm:"size:64"`
	TraceID     string    `json:"trace_id" gorm:"size:36;index"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
}
