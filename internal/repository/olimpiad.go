package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"olimpiad/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OlimpiadRepository is the MySQL record store. Dynamic feature entries live
// in a JSON column and are mutated in place with JSON_SET / JSON_REMOVE, so a
// fan-out is a single UPDATE statement and each row is updated atomically.
type OlimpiadRepository struct {
	db *gorm.DB
}

func NewOlimpiadRepository(db *gorm.DB) *OlimpiadRepository {
	return &OlimpiadRepository{db: db}
}

func (r *OlimpiadRepository) scope(ctx context.Context, f Filter) *gorm.DB {
	q := r.db.Session(&gorm.Session{Context: ctx, AllowGlobalUpdate: f.IsEmpty()}).Model(&model.Olimpiad{})
	if f.ID != "" {
		q = q.Where("id = ?", f.ID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Search != "" {
		pattern := likePattern(f.Search)
		q = q.Where("(LOWER(name) LIKE ? OR LOWER(subject) LIKE ?)", pattern, pattern)
	}
	return q
}

func (r *OlimpiadRepository) FindMany(ctx context.Context, f Filter, s Sort) ([]*model.Olimpiad, error) {
	var list []*model.Olimpiad
	q := r.scope(ctx, f)
	if s == SortCreatedDesc {
		q = q.Order("created_at DESC")
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *OlimpiadRepository) FindOne(ctx context.Context, f Filter) (*model.Olimpiad, error) {
	var o model.Olimpiad
	if err := r.scope(ctx, f).First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

func (r *OlimpiadRepository) InsertOne(ctx context.Context, o *model.Olimpiad) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *OlimpiadRepository) UpdateOne(ctx context.Context, f Filter, u Update) (int64, error) {
	if f.IsEmpty() {
		return 0, ErrEmptyFilter
	}
	return r.update(ctx, f, u)
}

func (r *OlimpiadRepository) UpdateMany(ctx context.Context, f Filter, u Update) (int64, error) {
	return r.update(ctx, f, u)
}

func (r *OlimpiadRepository) update(ctx context.Context, f Filter, u Update) (int64, error) {
	cols, err := compileUpdate(u)
	if err != nil {
		return 0, err
	}
	if len(cols) == 0 {
		return 0, nil
	}
	// UpdateColumns skips hooks and the automatic updated_at bump; callers
	// set updated_at explicitly when they mean to.
	res := r.scope(ctx, f).UpdateColumns(cols)
	return res.RowsAffected, res.Error
}

func (r *OlimpiadRepository) DeleteOne(ctx context.Context, f Filter) (int64, error) {
	if f.IsEmpty() {
		return 0, ErrEmptyFilter
	}
	res := r.scope(ctx, f).Delete(&model.Olimpiad{})
	return res.RowsAffected, res.Error
}

// compileUpdate turns an Update into gorm column assignments. Keyed writes
// into dynamic_features are folded into one JSON expression so set and unset
// on the same row stay a single statement.
func compileUpdate(u Update) (map[string]any, error) {
	cols := make(map[string]any)
	var setVars, unsetVars []any

	keys := make([]string, 0, len(u.Set))
	for k := range u.Set {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, path := range keys {
		v := u.Set[path]
		field, key := splitPath(path)
		switch {
		case field == FieldDynamicFeatures && key != "":
			raw, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			setVars = append(setVars, jsonPath(key), string(raw))
		case field == FieldDynamicFeatures:
			m, err := asFeatureMap(v)
			if err != nil {
				return nil, err
			}
			cols[FieldDynamicFeatures] = m
		case field == FieldDates && key == "":
			d, err := asDates(v)
			if err != nil {
				return nil, err
			}
			cols[FieldDates] = d
		case scalarColumns[field] && key == "":
			cols[field] = v
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, path)
		}
	}

	for _, path := range u.Unset {
		field, key := splitPath(path)
		if field != FieldDynamicFeatures || key == "" {
			return nil, fmt.Errorf("%w: cannot unset %s", ErrUnknownField, path)
		}
		unsetVars = append(unsetVars, jsonPath(key))
	}

	if len(setVars) > 0 || len(unsetVars) > 0 {
		if _, whole := cols[FieldDynamicFeatures]; whole {
			return nil, fmt.Errorf("%s: replaced and patched in the same update", FieldDynamicFeatures)
		}
		cols[FieldDynamicFeatures] = featureExpr(setVars, unsetVars)
	}

	for path, v := range u.Push {
		if path != FieldDates {
			return nil, fmt.Errorf("%w: cannot push to %s", ErrUnknownField, path)
		}
		if _, whole := cols[FieldDates]; whole {
			return nil, fmt.Errorf("%s: replaced and pushed in the same update", FieldDates)
		}
		pair, err := asDatePair(v)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(pair)
		if err != nil {
			return nil, err
		}
		cols[FieldDates] = gorm.Expr("JSON_ARRAY_APPEND(COALESCE(dates, JSON_ARRAY()), '$', CAST(? AS JSON))", string(raw))
	}

	return cols, nil
}

func featureExpr(setVars, unsetVars []any) clause.Expr {
	sql := "COALESCE(dynamic_features, JSON_OBJECT())"
	if len(setVars) > 0 {
		sql = "JSON_SET(" + sql + strings.Repeat(", ?, CAST(? AS JSON)", len(setVars)/2) + ")"
	}
	if len(unsetVars) > 0 {
		sql = "JSON_REMOVE(" + sql + strings.Repeat(", ?", len(unsetVars)) + ")"
	}
	vars := append(append([]any{}, setVars...), unsetVars...)
	return gorm.Expr(sql, vars...)
}

// jsonPath addresses a single object member, quoting the key so ids with
// dots or other punctuation stay one path leg.
func jsonPath(key string) string {
	key = strings.ReplaceAll(key, `\`, `\\`)
	key = strings.ReplaceAll(key, `"`, `\"`)
	return `$."` + key + `"`
}

// likePattern lowercases and escapes the search text for a substring LIKE.
func likePattern(search string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(search)) + "%"
}
