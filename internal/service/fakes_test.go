package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"olimpiad/internal/model"
	"olimpiad/internal/repository"
)

// countingStore records every call that reaches the record store.
type countingStore struct {
	repository.OlimpiadStore
	calls     atomic.Int64
	updateErr error
}

func (s *countingStore) FindMany(ctx context.Context, f repository.Filter, sort repository.Sort) ([]*model.Olimpiad, error) {
	s.calls.Add(1)
	return s.OlimpiadStore.FindMany(ctx, f, sort)
}

func (s *countingStore) FindOne(ctx context.Context, f repository.Filter) (*model.Olimpiad, error) {
	s.calls.Add(1)
	return s.OlimpiadStore.FindOne(ctx, f)
}

func (s *countingStore) InsertOne(ctx context.Context, o *model.Olimpiad) error {
	s.calls.Add(1)
	return s.OlimpiadStore.InsertOne(ctx, o)
}

func (s *countingStore) UpdateOne(ctx context.Context, f repository.Filter, u repository.Update) (int64, error) {
	s.calls.Add(1)
	return s.OlimpiadStore.UpdateOne(ctx, f, u)
}

func (s *countingStore) UpdateMany(ctx context.Context, f repository.Filter, u repository.Update) (int64, error) {
	s.calls.Add(1)
	if s.updateErr != nil {
		return 0, s.updateErr
	}
	return s.OlimpiadStore.UpdateMany(ctx, f, u)
}

func (s *countingStore) DeleteOne(ctx context.Context, f repository.Filter) (int64, error) {
	s.calls.Add(1)
	return s.OlimpiadStore.DeleteOne(ctx, f)
}

type fixture struct {
	store     *countingStore
	features  *repository.MemoryFeatureStore
	audits    *repository.MemoryAuditStore
	engine    *Propagator
	registry  *FeatureService
	olimpiads *OlimpiadService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := &countingStore{OlimpiadStore: repository.NewMemoryOlimpiadStore()}
	features := repository.NewMemoryFeatureStore()
	audits := repository.NewMemoryAuditStore()
	engine := NewPropagator(store, nil)
	return &fixture{
		store:     store,
		features:  features,
		audits:    audits,
		engine:    engine,
		registry:  NewFeatureService(features, audits, engine, nil, 64),
		olimpiads: NewOlimpiadService(store, features, engine),
	}
}

func (f *fixture) createOlimpiad(t *testing.T, name string) *model.Olimpiad {
	t.Helper()
	o, err := f.olimpiads.Create(context.Background(), CreateOlimpiadInput{
		Name:    name,
		Subject: "Math",
		Level:   "National",
		Status:  "upcoming",
	})
	if err != nil {
		t.Fatalf("create olimpiad %s: %v", name, err)
	}
	return o
}

func (f *fixture) get(t *testing.T, id string) *model.Olimpiad {
	t.Helper()
	o, err := f.olimpiads.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get olimpiad %s: %v", id, err)
	}
	return o
}

var errBoom = errors.New("boom")
