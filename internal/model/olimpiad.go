package model

import (
	"time"

	"gorm.io/datatypes"
)

type DatePair struct {
	Text string `json:"text"`
	Date string `json:"date"`
}

// Olimpiad is the primary record. DynamicFeatures holds one entry per
// registered feature id; only the propagation engine adds or removes keys.
type Olimpiad struct {
	ID              string                        `gorm:"primaryKey;size:36" json:"id"`
	Name            string                        `gorm:"size:255;index" json:"name"`
	Subject         string                        `gorm:"size:255;index" json:"subject"`
	Level           string                        `gorm:"size:64" json:"level"`
	Status          string                        `gorm:"size:32;index" json:"status"`
	Avatar          string                        `gorm:"type:longtext" json:"avatar"`
	Dates           datatypes.JSONSlice[DatePair] `gorm:"type:json" json:"dates"`
	DynamicFeatures datatypes.JSONMap             `gorm:"type:json" json:"dynamic_features"`
	CreatedAt       time.Time                     `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time                     `json:"updated_at"`
}

// Clone returns a copy that shares no maps or slices with o.
func (o *Olimpiad) Clone() *Olimpiad {
	c := *o
	if o.Dates != nil {
		c.Dates = append(datatypes.JSONSlice[DatePair]{}, o.Dates...)
	}
	if o.DynamicFeatures != nil {
		c.DynamicFeatures = make(datatypes.JSONMap, len(o.DynamicFeatures))
		for k, v := range o.DynamicFeatures {
			c.DynamicFeatures[k] = v
		}
	}
	return &c
}
