package req

// DatePairRequest and CreateOlimpiadRequest take required strings as
// pointers, so only a missing or null key is refused; "" is a valid value.
type DatePairRequest struct {
	Text *string `json:"text" binding:"required"`
	Date *string `json:"date" binding:"required"`
}

func (d DatePairRequest) Pair() (text, date string) {
	return *d.Text, *d.Date
}

type CreateOlimpiadRequest struct {
	Name    *string           `json:"name" binding:"required"`
	Subject *string           `json:"subject" binding:"required"`
	Level   *string           `json:"level" binding:"required"`
	Status  *string           `json:"status" binding:"required"`
	Avatar  string            `json:"avatar"`
	Dates   []DatePairRequest `json:"dates" binding:"omitempty,dive"`
}

// UpdateOlimpiadRequest is a partial update; absent and null fields are
// left untouched.
type UpdateOlimpiadRequest struct {
	Name            *string            `json:"name"`
	Subject         *string            `json:"subject"`
	Level           *string            `json:"level"`
	Status          *string            `json:"status"`
	Avatar          *string            `json:"avatar"`
	Dates           *[]DatePairRequest `json:"dates" binding:"omitempty,dive"`
	DynamicFeatures map[string]any     `json:"dynamic_features"`
}

type ListOlimpiadsRequest struct {
	Status string `form:"status"`
	Search string `form:"search"`
}
