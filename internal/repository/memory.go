package repository

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"

	"olimpiad/internal/model"

	"gorm.io/datatypes"
)

// MemoryOlimpiadStore is an in-process record store for development and
// tests. Every call holds the store lock, so each document update is atomic
// and UpdateMany is additionally atomic across documents.
type MemoryOlimpiadStore struct {
	mu    sync.RWMutex
	docs  map[string]*model.Olimpiad
	order []string
}

func NewMemoryOlimpiadStore() *MemoryOlimpiadStore {
	return &MemoryOlimpiadStore{docs: make(map[string]*model.Olimpiad)}
}

func (s *MemoryOlimpiadStore) matchLocked(f Filter) []*model.Olimpiad {
	var out []*model.Olimpiad
	search := strings.ToLower(f.Search)
	for _, id := range s.order {
		o := s.docs[id]
		if f.ID != "" && o.ID != f.ID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(o.Name), search) &&
			!strings.Contains(strings.ToLower(o.Subject), search) {
			continue
		}
		out = append(out, o)
	}
	return out
}

func (s *MemoryOlimpiadStore) FindMany(_ context.Context, f Filter, st Sort) ([]*model.Olimpiad, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.matchLocked(f)
	out := make([]*model.Olimpiad, 0, len(matched))
	for _, o := range matched {
		out = append(out, o.Clone())
	}
	if st == SortCreatedDesc {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
	}
	return out, nil
}

func (s *MemoryOlimpiadStore) FindOne(_ context.Context, f Filter) (*model.Olimpiad, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.matchLocked(f)
	if len(matched) == 0 {
		return nil, nil
	}
	return matched[0].Clone(), nil
}

func (s *MemoryOlimpiadStore) InsertOne(_ context.Context, o *model.Olimpiad) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.docs[o.ID]; exists {
		return fmt.Errorf("olimpiad %s already exists", o.ID)
	}
	s.docs[o.ID] = o.Clone()
	s.order = append(s.order, o.ID)
	return nil
}

func (s *MemoryOlimpiadStore) UpdateOne(_ context.Context, f Filter, u Update) (int64, error) {
	if f.IsEmpty() {
		return 0, ErrEmptyFilter
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := s.matchLocked(f)
	if len(matched) == 0 {
		return 0, nil
	}
	return 1, s.applyLocked(matched[0], u)
}

func (s *MemoryOlimpiadStore) UpdateMany(_ context.Context, f Filter, u Update) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, o := range s.matchLocked(f) {
		if err := s.applyLocked(o, u); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (s *MemoryOlimpiadStore) DeleteOne(_ context.Context, f Filter) (int64, error) {
	if f.IsEmpty() {
		return 0, ErrEmptyFilter
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := s.matchLocked(f)
	if len(matched) == 0 {
		return 0, nil
	}
	id := matched[0].ID
	delete(s.docs, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	return 1, nil
}

// applyLocked mutates a copy and swaps it in only when every operation
// succeeded.
func (s *MemoryOlimpiadStore) applyLocked(o *model.Olimpiad, u Update) error {
	if _, whole := u.Set[FieldDynamicFeatures]; whole && (len(u.Unset) > 0 || patchesFeatures(u.Set)) {
		return fmt.Errorf("%s: replaced and patched in the same update", FieldDynamicFeatures)
	}
	next := o.Clone()
	if next.DynamicFeatures == nil {
		next.DynamicFeatures = datatypes.JSONMap{}
	}

	for path, v := range u.Set {
		field, key := splitPath(path)
		var err error
		switch {
		case field == FieldDynamicFeatures && key != "":
			next.DynamicFeatures[key] = v
		case field == FieldDynamicFeatures:
			var m datatypes.JSONMap
			if m, err = asFeatureMap(v); err == nil {
				next.DynamicFeatures = maps.Clone(m)
			}
			if next.DynamicFeatures == nil {
				next.DynamicFeatures = datatypes.JSONMap{}
			}
		case key != "":
			err = fmt.Errorf("%w: %s", ErrUnknownField, path)
		case field == FieldDates:
			var d datatypes.JSONSlice[model.DatePair]
			if d, err = asDates(v); err == nil {
				next.Dates = slices.Clone(d)
			}
		case field == FieldName:
			next.Name, err = asString(field, v)
		case field == FieldSubject:
			next.Subject, err = asString(field, v)
		case field == FieldLevel:
			next.Level, err = asString(field, v)
		case field == FieldStatus:
			next.Status, err = asString(field, v)
		case field == FieldAvatar:
			next.Avatar, err = asString(field, v)
		case field == FieldUpdatedAt:
			next.UpdatedAt, err = asTime(field, v)
		default:
			err = fmt.Errorf("%w: %s", ErrUnknownField, path)
		}
		if err != nil {
			return err
		}
	}

	for _, path := range u.Unset {
		field, key := splitPath(path)
		if field != FieldDynamicFeatures || key == "" {
			return fmt.Errorf("%w: cannot unset %s", ErrUnknownField, path)
		}
		delete(next.DynamicFeatures, key)
	}

	for path, v := range u.Push {
		if path != FieldDates {
			return fmt.Errorf("%w: cannot push to %s", ErrUnknownField, path)
		}
		pair, err := asDatePair(v)
		if err != nil {
			return err
		}
		next.Dates = append(next.Dates, pair)
	}

	s.docs[o.ID] = next
	return nil
}

func patchesFeatures(set map[string]any) bool {
	for path := range set {
		if field, key := splitPath(path); field == FieldDynamicFeatures && key != "" {
			return true
		}
	}
	return false
}

// MemoryFeatureStore is the in-process feature registry.
type MemoryFeatureStore struct {
	mu       sync.RWMutex
	features []*model.DynamicFeature
}

func NewMemoryFeatureStore() *MemoryFeatureStore {
	return &MemoryFeatureStore{}
}

func (s *MemoryFeatureStore) List(_ context.Context) ([]*model.DynamicFeature, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.DynamicFeature, 0, len(s.features))
	for _, f := range s.features {
		c := *f
		out = append(out, &c)
	}
	return out, nil
}

func (s *MemoryFeatureStore) GetByID(_ context.Context, id string) (*model.DynamicFeature, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, f := range s.features {
		if f.ID == id {
			c := *f
			return &c, nil
		}
	}
	return nil, nil
}

func (s *MemoryFeatureStore) Create(_ context.Context, f *model.DynamicFeature) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.features {
		if existing.ID == f.ID {
			return fmt.Errorf("feature %s already exists", f.ID)
		}
	}
	c := *f
	s.features = append(s.features, &c)
	return nil
}

func (s *MemoryFeatureStore) Delete(_ context.Context, id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.features)
	s.features = slices.DeleteFunc(s.features, func(f *model.DynamicFeature) bool { return f.ID == id })
	return int64(before - len(s.features)), nil
}

// MemoryAuditStore keeps the schema change log in process.
type MemoryAuditStore struct {
	mu     sync.RWMutex
	audits []model.SchemaAudit
	nextID int64
}

func NewMemoryAuditStore() *MemoryAuditStore {
	return &MemoryAuditStore{}
}

func (s *MemoryAuditStore) Create(_ context.Context, audit *model.SchemaAudit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	audit.ID = s.nextID
	s.audits = append(s.audits, *audit)
	return nil
}

func (s *MemoryAuditStore) List(_ context.Context, limit int) ([]model.SchemaAudit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.SchemaAudit, 0, len(s.audits))
	for i := len(s.audits) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, s.audits[i])
	}
	return out, nil
}

func (s *MemoryAuditStore) PingContext(context.Context) error {
	return nil
}
