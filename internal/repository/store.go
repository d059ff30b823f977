package repository

import (
	"context"
	"errors"
	"strings"

	"olimpiad/internal/model"
)

var (
	ErrUnknownField = errors.New("unknown field")
	ErrEmptyFilter  = errors.New("filter matches every document")
)

// Field paths understood by Update. A dynamic feature entry is addressed
// as "dynamic_features.<feature id>", see FeaturePath.
const (
	FieldName            = "name"
	FieldSubject         = "subject"
	FieldLevel           = "level"
	FieldStatus          = "status"
	FieldAvatar          = "avatar"
	FieldDates           = "dates"
	FieldDynamicFeatures = "dynamic_features"
	FieldUpdatedAt       = "updated_at"
)

func FeaturePath(featureID string) string {
	return FieldDynamicFeatures + "." + featureID
}

// splitPath separates "dynamic_features.<id>" into its field and key. The
// key may itself contain dots.
func splitPath(path string) (field, key string) {
	field, key, _ = strings.Cut(path, ".")
	return field, key
}

// Filter selects olimpiads. Set fields are ANDed; Search is a case-insensitive
// substring match over name OR subject. The zero Filter matches everything.
type Filter struct {
	ID     string
	Status string
	Search string
}

func (f Filter) IsEmpty() bool {
	return f.ID == "" && f.Status == "" && f.Search == ""
}

type Sort int

const (
	SortNone Sort = iota
	SortCreatedDesc
)

// Update is a partial document mutation. Set assigns, Unset removes keys
// (only dynamic feature entries can be removed), Push appends to an array
// field.
type Update struct {
	Set   map[string]any
	Unset []string
	Push  map[string]any
}

// OlimpiadStore is the record collection. Each call is atomic per document;
// UpdateMany is not atomic across documents.
type OlimpiadStore interface {
	FindMany(ctx context.Context, f Filter, sort Sort) ([]*model.Olimpiad, error)
	// FindOne returns nil, nil when nothing matches.
	FindOne(ctx context.Context, f Filter) (*model.Olimpiad, error)
	InsertOne(ctx context.Context, o *model.Olimpiad) error
	UpdateOne(ctx context.Context, f Filter, u Update) (int64, error)
	UpdateMany(ctx context.Context, f Filter, u Update) (int64, error)
	DeleteOne(ctx context.Context, f Filter) (int64, error)
}

// FeatureStore persists the feature registry.
type FeatureStore interface {
	List(ctx context.Context) ([]*model.DynamicFeature, error)
	// GetByID returns nil, nil when the feature does not exist.
	GetByID(ctx context.Context, id string) (*model.DynamicFeature, error)
	Create(ctx context.Context, f *model.DynamicFeature) error
	Delete(ctx context.Context, id string) (int64, error)
}

// AuditInterface persists the schema change log.
type AuditInterface interface {
	Create(ctx context.Context, audit *model.SchemaAudit) error
	List(ctx context.Context, limit int) ([]model.SchemaAudit, error)
	PingContext(ctx context.Context) error
}
