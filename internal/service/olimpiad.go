package service

import (
	"context"
	"fmt"
	"time"

	"olimpiad/internal/model"
	"olimpiad/internal/repository"
	"olimpiad/pkg/constraints"
	"olimpiad/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type CreateOlimpiadInput struct {
	Name    string
	Subject string
	Level   string
	Status  string
	Avatar  string
	Dates   []model.DatePair
}

// OlimpiadPatch is a partial update. Nil fields are left untouched.
// DynamicFeatures entries are merged key by key; a patch never removes keys.
type OlimpiadPatch struct {
	Name            *string
	Subject         *string
	Level           *string
	Status          *string
	Avatar          *string
	Dates           *[]model.DatePair
	DynamicFeatures map[string]any
}

type OlimpiadService struct {
	store    repository.OlimpiadStore
	features repository.FeatureStore
	engine   *Propagator
	now      func() time.Time
}

func NewOlimpiadService(store repository.OlimpiadStore, features repository.FeatureStore, engine *Propagator) *OlimpiadService {
	return &OlimpiadService{
		store:    store,
		features: features,
		engine:   engine,
		now:      time.Now,
	}
}

func (s *OlimpiadService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// Create snapshots the registry, materializes every feature default on the
// new record and inserts it.
func (s *OlimpiadService) Create(ctx context.Context, in CreateOlimpiadInput) (*model.Olimpiad, error) {
	snapshot, err := s.features.List(ctx)
	if err != nil {
		return nil, err
	}

	dates := in.Dates
	if dates == nil {
		dates = []model.DatePair{}
	}
	now := s.timestamp()
	o := &model.Olimpiad{
		ID:              uuid.NewString(),
		Name:            in.Name,
		Subject:         in.Subject,
		Level:           in.Level,
		Status:          in.Status,
		Avatar:          in.Avatar,
		Dates:           datatypes.NewJSONSlice(dates),
		DynamicFeatures: s.engine.Initialize(snapshot),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.InsertOne(ctx, o); err != nil {
		return nil, err
	}

	if err := s.engine.Settle(ctx, o, s.features); err != nil {
		logger.Warn("olimpiad created but not settled against registry",
			zap.String("olimpiad_id", o.ID), zap.Error(err))
	}
	return o, nil
}

func (s *OlimpiadService) Get(ctx context.Context, id string) (*model.Olimpiad, error) {
	o, err := s.store.FindOne(ctx, repository.Filter{ID: id})
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrOlimpiadNotFound
	}
	return o, nil
}

// List returns olimpiads newest first. status is an exact match, search a
// case-insensitive substring of name or subject; both are optional.
func (s *OlimpiadService) List(ctx context.Context, status, search string) ([]*model.Olimpiad, error) {
	list, err := s.store.FindMany(ctx, repository.Filter{Status: status, Search: search}, repository.SortCreatedDesc)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*model.Olimpiad{}
	}
	return list, nil
}

// ListByStatus rejects statuses outside the fixed set before touching the
// store.
func (s *OlimpiadService) ListByStatus(ctx context.Context, status string) ([]*model.Olimpiad, error) {
	if !constraints.ValidStatus(status) {
		return nil, fmt.Errorf("%w: %w: %q", ErrInvalidStatus, ErrInvalidArgument, status)
	}
	return s.List(ctx, status, "")
}

// Update writes only the fields present in the patch and always refreshes
// updated_at.
func (s *OlimpiadService) Update(ctx context.Context, id string, p OlimpiadPatch) (*model.Olimpiad, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	set := map[string]any{repository.FieldUpdatedAt: s.timestamp()}
	assign := func(field string, v *string) {
		if v != nil {
			set[field] = *v
		}
	}
	assign(repository.FieldName, p.Name)
	assign(repository.FieldSubject, p.Subject)
	assign(repository.FieldLevel, p.Level)
	assign(repository.FieldStatus, p.Status)
	assign(repository.FieldAvatar, p.Avatar)
	if p.Dates != nil {
		dates := *p.Dates
		if dates == nil {
			dates = []model.DatePair{}
		}
		set[repository.FieldDates] = dates
	}
	for featureID, v := range p.DynamicFeatures {
		if featureID == "" {
			continue
		}
		set[repository.FeaturePath(featureID)] = v
	}

	if _, err := s.store.UpdateOne(ctx, repository.Filter{ID: id}, repository.Update{Set: set}); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *OlimpiadService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	n, err := s.store.DeleteOne(ctx, repository.Filter{ID: id})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrOlimpiadNotFound
	}
	return nil
}

// AppendDate adds a date pair after the existing ones.
func (s *OlimpiadService) AppendDate(ctx context.Context, id string, pair model.DatePair) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	_, err := s.store.UpdateOne(ctx, repository.Filter{ID: id}, repository.Update{
		Push: map[string]any{repository.FieldDates: pair},
	})
	return err
}

// SetFeatureValue overwrites one dynamic feature value. The feature id is
// not validated against the registry.
func (s *OlimpiadService) SetFeatureValue(ctx context.Context, id, featureID string, value any) error {
	return s.engine.SetValue(ctx, id, featureID, value)
}
