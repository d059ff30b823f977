package v1

import "time"

type DatePair struct {
	Text string `json:"text"`
	Date string `json:"date"`
}

type Olimpiad struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Subject         string         `json:"subject"`
	Level           string         `json:"level"`
	Status          string         `json:"status"`
	Avatar          string         `json:"avatar"`
	Dates           []DatePair     `json:"dates"`
	DynamicFeatures map[string]any `json:"dynamic_features"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// OlimpiadCreate is the body of POST /api/olimpiads.
type OlimpiadCreate struct {
	Name    string     `json:"name"`
	Subject string     `json:"subject"`
	Level   string     `json:"level"`
	Status  string     `json:"status"`
	Avatar  string     `json:"avatar,omitempty"`
	Dates   []DatePair `json:"dates,omitempty"`
}

// OlimpiadUpdate is the body of PUT /api/olimpiads/:id. Nil fields are not
// sent and stay unchanged on the server.
type OlimpiadUpdate struct {
	Name            *string        `json:"name,omitempty"`
	Subject         *string        `json:"subject,omitempty"`
	Level           *string        `json:"level,omitempty"`
	Status          *string        `json:"status,omitempty"`
	Avatar          *string        `json:"avatar,omitempty"`
	Dates           *[]DatePair    `json:"dates,omitempty"`
	DynamicFeatures map[string]any `json:"dynamic_features,omitempty"`
}
