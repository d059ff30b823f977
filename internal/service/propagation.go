package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"olimpiad/internal/metrics"
	"olimpiad/internal/model"
	"olimpiad/internal/repository"
	"olimpiad/internal/schema"
	"olimpiad/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	directionForward = "forward"
	directionReverse = "reverse"
	directionSettle  = "settle"
)

// Propagator keeps the dynamic_features keys of every record equal to the
// set of registered feature ids. It is the only writer that adds or removes
// keys; other writers only change values of keys that already exist.
//
// Fan-outs are single collection-wide updates, atomic per record but not
// across records. Every operation sets or removes one key to a value that
// depends only on the feature, so repeating it is harmless.
type Propagator struct {
	store    repository.OlimpiadStore
	observer metrics.PropagationObserver
}

func NewPropagator(store repository.OlimpiadStore, observer metrics.PropagationObserver) *Propagator {
	if observer == nil {
		observer = metrics.Nop{}
	}
	return &Propagator{store: store, observer: observer}
}

// Forward sets the feature's default on every existing record.
func (p *Propagator) Forward(ctx context.Context, f *model.DynamicFeature) (int64, error) {
	def := schema.Default(f.Type)
	logger.Debug("materializing feature default",
		zap.String("feature_id", f.ID),
		zap.String("type", f.Type),
		zap.Stringer("kind", def.Kind()))
	return p.fanOut(ctx, directionForward, f.ID, repository.Update{
		Set: map[string]any{repository.FeaturePath(f.ID): def.Raw()},
	})
}

// Reverse removes the feature key from every record. The key vanishes; it
// is not set to null.
func (p *Propagator) Reverse(ctx context.Context, featureID string) (int64, error) {
	return p.fanOut(ctx, directionReverse, featureID, repository.Update{
		Unset: []string{repository.FeaturePath(featureID)},
	})
}

func (p *Propagator) fanOut(ctx context.Context, direction, featureID string, u repository.Update) (int64, error) {
	start := time.Now()
	matched, err := p.store.UpdateMany(ctx, repository.Filter{}, u)
	if err != nil {
		p.observer.FanOutFailed(direction)
		logger.Error("fan-out failed, records may be partially updated",
			zap.String("direction", direction),
			zap.String("feature_id", featureID),
			zap.Error(err))
		return matched, fmt.Errorf("%s fan-out of feature %s: %w", direction, featureID, err)
	}

	p.observer.ObserveFanOut(direction, matched, time.Since(start).Seconds())
	logger.Info("fan-out applied",
		zap.String("direction", direction),
		zap.String("feature_id", featureID),
		zap.Int64("matched", matched),
		zap.Duration("took", time.Since(start)))
	return matched, nil
}

// Initialize builds a new record's dynamic_features from a registry snapshot.
func (p *Propagator) Initialize(snapshot []*model.DynamicFeature) datatypes.JSONMap {
	m := make(datatypes.JSONMap, len(snapshot))
	for _, f := range snapshot {
		m[f.ID] = schema.Default(f.Type).Raw()
	}
	return m
}

// Settle aligns a freshly inserted record with the registry as read after
// the insert. A feature created between the record's snapshot and its
// insert may have fanned out before the record existed; any registry change
// after this read fans out over a collection that already holds it.
//
// Keys added here can race a delete whose sweeps already ran, so when any
// were added the registry is read once more and keys that vanished are
// pruned. A delete that is still pending at that read sweeps after our write.
func (p *Propagator) Settle(ctx context.Context, o *model.Olimpiad, registry repository.FeatureStore) error {
	current, err := registry.List(ctx)
	if err != nil {
		return fmt.Errorf("settle olimpiad %s: %w", o.ID, err)
	}
	added, err := p.align(ctx, o, current, true)
	if err != nil || added == 0 {
		return err
	}

	current, err = registry.List(ctx)
	if err != nil {
		return fmt.Errorf("settle olimpiad %s: %w", o.ID, err)
	}
	_, err = p.align(ctx, o, current, false)
	return err
}

// align removes keys of o that are not in current and, when fill is set,
// adds the missing ones with their default. Missing keys get the same value
// a concurrent fan-out writes. It returns the number of keys added.
func (p *Propagator) align(ctx context.Context, o *model.Olimpiad, current []*model.DynamicFeature, fill bool) (int, error) {
	registered := make(map[string]bool, len(current))
	set := make(map[string]any)
	for _, f := range current {
		registered[f.ID] = true
		if _, ok := o.DynamicFeatures[f.ID]; fill && !ok {
			set[repository.FeaturePath(f.ID)] = schema.Default(f.Type).Raw()
		}
	}

	var unset []string
	for id := range o.DynamicFeatures {
		if !registered[id] {
			unset = append(unset, repository.FeaturePath(id))
		}
	}

	if len(set) == 0 && len(unset) == 0 {
		return 0, nil
	}

	if _, err := p.store.UpdateOne(ctx, repository.Filter{ID: o.ID}, repository.Update{Set: set, Unset: unset}); err != nil {
		p.observer.FanOutFailed(directionSettle)
		return 0, fmt.Errorf("settle olimpiad %s: %w", o.ID, err)
	}

	if o.DynamicFeatures == nil {
		o.DynamicFeatures = datatypes.JSONMap{}
	}
	for path, v := range set {
		o.DynamicFeatures[strings.TrimPrefix(path, repository.FieldDynamicFeatures+".")] = v
	}
	for id := range o.DynamicFeatures {
		if !registered[id] {
			delete(o.DynamicFeatures, id)
		}
	}

	logger.Debug("olimpiad settled against registry",
		zap.String("olimpiad_id", o.ID),
		zap.Int("added", len(set)),
		zap.Int("removed", len(unset)))
	return len(set), nil
}

// SetValue overwrites one feature value on one record. featureID is not
// checked against the registry.
func (p *Propagator) SetValue(ctx context.Context, recordID, featureID string, value any) error {
	if featureID == "" {
		return fmt.Errorf("%w: empty feature id", ErrInvalidArgument)
	}

	existing, err := p.store.FindOne(ctx, repository.Filter{ID: recordID})
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrOlimpiadNotFound
	}

	_, err = p.store.UpdateOne(ctx, repository.Filter{ID: recordID}, repository.Update{
		Set: map[string]any{repository.FeaturePath(featureID): value},
	})
	return err
}
