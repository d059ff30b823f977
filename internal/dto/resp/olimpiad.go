package resp

import (
	"olimpiad/internal/model"
	v1 "olimpiad/pkg/api/v1"
)

func NewOlimpiad(o *model.Olimpiad) v1.Olimpiad {
	dates := make([]v1.DatePair, 0, len(o.Dates))
	for _, d := range o.Dates {
		dates = append(dates, v1.DatePair{Text: d.Text, Date: d.Date})
	}
	features := map[string]any(o.DynamicFeatures)
	if features == nil {
		features = map[string]any{}
	}
	return v1.Olimpiad{
		ID:              o.ID,
		Name:            o.Name,
		Subject:         o.Subject,
		Level:           o.Level,
		Status:          o.Status,
		Avatar:          o.Avatar,
		Dates:           dates,
		DynamicFeatures: features,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func NewOlimpiads(list []*model.Olimpiad) []v1.Olimpiad {
	out := make([]v1.Olimpiad, 0, len(list))
	for _, o := range list {
		out = append(out, NewOlimpiad(o))
	}
	return out
}
