package v1

import (
	"time"

	"olimpiad/pkg/constraints"
)

// Feature is a dynamic feature definition with its default value resolved.
type Feature struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	DefaultValue any    `json:"default_value"`
}

// SchemaEvent announces a registry change to stream subscribers.
type SchemaEvent struct {
	Revision int64              `json:"revision"`
	Action   constraints.Action `json:"action"`
	Feature  Feature            `json:"feature"`
	Matched  int64              `json:"matched"`
	At       time.Time          `json:"at"`
}

// FeatureCreate is the body of POST /api/features.
type FeatureCreate struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// SchemaSnapshot is the registry together with the revision it reflects.
type SchemaSnapshot struct {
	Features []Feature `json:"features"`
	Revision int64     `json:"revision"`
}
