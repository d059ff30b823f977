package model

import "time"

// DynamicFeature is a registry entry. Its default value is derived from Type
// on demand and never persisted.
type DynamicFeature struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Type      string    `gorm:"size:32;not null" json:"type"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (DynamicFeature) TableName() string {
	return "dynamic_features"
}
