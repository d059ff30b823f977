package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"olimpiad/internal/buffer"
	"olimpiad/internal/model"
	"olimpiad/internal/repository"
	"olimpiad/internal/schema"
	v1 "olimpiad/pkg/api/v1"
	"olimpiad/pkg/constraints"
	"olimpiad/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FeatureService is the feature registry. Creating and deleting a feature
// are two-phase and not transactional: define-then-propagate and
// propagate-then-undefine. A crash between the phases leaves a definition
// with partial materialization, which is logged and never repaired here.
type FeatureService struct {
	features repository.FeatureStore
	audits   repository.AuditInterface
	engine   *Propagator
	hub      *Hub
	buffer   *buffer.RevisionBuffer
	now      func() time.Time

	// mu orders revision assignment with the buffer append.
	mu       sync.Mutex
	revision int64
}

func NewFeatureService(features repository.FeatureStore, audits repository.AuditInterface, engine *Propagator, hub *Hub, replaySize int) *FeatureService {
	return &FeatureService{
		features: features,
		audits:   audits,
		engine:   engine,
		hub:      hub,
		buffer:   buffer.NewRevisionBuffer(replaySize),
		now:      time.Now,
	}
}

// FeatureView resolves the default value for a stored definition.
func FeatureView(f *model.DynamicFeature) v1.Feature {
	return v1.Feature{
		ID:           f.ID,
		Name:         f.Name,
		Type:         f.Type,
		DefaultValue: schema.Default(f.Type).Raw(),
	}
}

func (s *FeatureService) ListFeatures(ctx context.Context) ([]v1.Feature, error) {
	features, err := s.features.List(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]v1.Feature, 0, len(features))
	for _, f := range features {
		items = append(items, FeatureView(f))
	}
	return items, nil
}

// CreateFeature registers a feature and materializes its default on every
// existing record before returning. Names are labels and need not be unique
// or non-empty; an empty or unknown type materializes as null.
func (s *FeatureService) CreateFeature(ctx context.Context, name, featureType string) (*v1.Feature, error) {
	f := &model.DynamicFeature{
		ID:        uuid.NewString(),
		Name:      name,
		Type:      featureType,
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	}
	if err := s.features.Create(ctx, f); err != nil {
		logger.Error("failed to create feature", zap.String("name", name), zap.Error(err))
		return nil, err
	}

	matched, err := s.engine.Forward(ctx, f)
	if err != nil {
		logger.Error("feature defined but not fully materialized",
			zap.String("feature_id", f.ID), zap.Error(err))
		return nil, err
	}

	s.record(ctx, f, constraints.CREATE, matched)
	view := FeatureView(f)
	return &view, nil
}

// DeleteFeature strips the feature from every record and only then removes
// the definition, so an interruption leaves a definition that can be
// deleted again rather than values nobody can explain.
func (s *FeatureService) DeleteFeature(ctx context.Context, id string) error {
	f, err := s.features.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if f == nil {
		return ErrFeatureNotFound
	}

	matched, err := s.engine.Reverse(ctx, id)
	if err != nil {
		return err
	}

	if _, err := s.features.Delete(ctx, id); err != nil {
		logger.Error("feature stripped from records but definition not deleted",
			zap.String("feature_id", id), zap.Error(err))
		return err
	}

	// A record inserted from a snapshot that still listed the feature can
	// land after the first pass; sweep once more now that no new snapshot
	// can include it.
	if swept, err := s.engine.Reverse(ctx, id); err != nil {
		logger.Warn("post-delete sweep failed", zap.String("feature_id", id), zap.Error(err))
	} else if swept > matched {
		matched = swept
	}

	s.record(ctx, f, constraints.DELETE, matched)
	return nil
}

func (s *FeatureService) ListAudits(ctx context.Context, limit int) ([]model.SchemaAudit, error) {
	return s.audits.List(ctx, limit)
}

// GetCompensation returns schema events after lastRev for stream replay.
func (s *FeatureService) GetCompensation(lastRev int64) ([]v1.SchemaEvent, bool) {
	return s.buffer.GetSince(lastRev)
}

func (s *FeatureService) LatestRevision() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

func (s *FeatureService) Health(ctx context.Context) error {
	if err := s.audits.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnhealthy, err)
	}
	return nil
}

// record writes the audit entry and publishes the schema event. Both are
// best effort: the registry change already happened.
func (s *FeatureService) record(ctx context.Context, f *model.DynamicFeature, action constraints.Action, matched int64) {
	now := s.now().UTC()
	audit := &model.SchemaAudit{
		FeatureID:   f.ID,
		FeatureName: f.Name,
		FeatureType: f.Type,
		Action:      string(action),
		Matched:     matched,
		Operator:    GetOperator(ctx),
		TraceID:     GetTraceID(ctx),
		CreatedAt:   now,
	}
	if err := s.audits.Create(ctx, audit); err != nil {
		logger.Warn("failed to write schema audit", zap.String("feature_id", f.ID), zap.Error(err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.revision++
	evt := v1.SchemaEvent{
		Revision: s.revision,
		Action:   action,
		Feature:  FeatureView(f),
		Matched:  matched,
		At:       now,
	}
	s.buffer.Add(evt)
	if s.hub != nil {
		s.hub.Publish(evt)
	}
}
