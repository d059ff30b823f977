package repository

import (
	"fmt"
	"time"

	"olimpiad/internal/model"

	"gorm.io/datatypes"
)

// scalarColumns are the olimpiad columns that Update may assign directly.
var scalarColumns = map[string]bool{
	FieldName:      true,
	FieldSubject:   true,
	FieldLevel:     true,
	FieldStatus:    true,
	FieldAvatar:    true,
	FieldUpdatedAt: true,
}

func asString(field string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s: expected string, got %T", field, v)
	}
	return s, nil
}

func asTime(field string, v any) (time.Time, error) {
	t, ok := v.(time.Time)
	if !ok {
		return time.Time{}, fmt.Errorf("%s: expected time.Time, got %T", field, v)
	}
	return t, nil
}

func asDates(v any) (datatypes.JSONSlice[model.DatePair], error) {
	switch d := v.(type) {
	case datatypes.JSONSlice[model.DatePair]:
		return d, nil
	case []model.DatePair:
		return datatypes.NewJSONSlice(d), nil
	default:
		return nil, fmt.Errorf("%s: expected []DatePair, got %T", FieldDates, v)
	}
}

func asDatePair(v any) (model.DatePair, error) {
	switch d := v.(type) {
	case model.DatePair:
		return d, nil
	case *model.DatePair:
		return *d, nil
	default:
		return model.DatePair{}, fmt.Errorf("%s: expected DatePair, got %T", FieldDates, v)
	}
}

func asFeatureMap(v any) (datatypes.JSONMap, error) {
	switch m := v.(type) {
	case datatypes.JSONMap:
		return m, nil
	case map[string]any:
		return datatypes.JSONMap(m), nil
	default:
		return nil, fmt.Errorf("%s: expected map, got %T", FieldDynamicFeatures, v)
	}
}
