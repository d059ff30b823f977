package service

import (
	"context"
	"testing"
	"time"

	"olimpiad/internal/model"
	"olimpiad/internal/repository"

	"gorm.io/datatypes"
)

// scriptedRegistry returns a different registry view on every List call.
type scriptedRegistry struct {
	repository.FeatureStore
	views [][]*model.DynamicFeature
	calls int
}

func (r *scriptedRegistry) List(context.Context) ([]*model.DynamicFeature, error) {
	view := r.views[min(r.calls, len(r.views)-1)]
	r.calls++
	return view, nil
}

type recordingObserver struct {
	fanOuts map[string]int64
	failed  []string
}

func (o *recordingObserver) ObserveFanOut(direction string, matched int64, _ float64) {
	if o.fanOuts == nil {
		o.fanOuts = map[string]int64{}
	}
	o.fanOuts[direction] += matched
}

func (o *recordingObserver) FanOutFailed(direction string) {
	o.failed = append(o.failed, direction)
}

func insertBare(t *testing.T, store repository.OlimpiadStore, id string, features datatypes.JSONMap) *model.Olimpiad {
	t.Helper()
	o := &model.Olimpiad{
		ID:              id,
		Name:            id,
		Status:          "upcoming",
		Dates:           datatypes.NewJSONSlice([]model.DatePair{}),
		DynamicFeatures: features,
		CreatedAt:       time.Now().UTC(),
	}
	if err := store.InsertOne(context.Background(), o); err != nil {
		t.Fatal(err)
	}
	return o
}

func TestPropagator_ForwardAndReverse(t *testing.T) {
	store := repository.NewMemoryOlimpiadStore()
	obs := &recordingObserver{}
	p := NewPropagator(store, obs)
	ctx := context.Background()
	insertBare(t, store, "a", datatypes.JSONMap{})
	insertBare(t, store, "b", datatypes.JSONMap{})

	f := &model.DynamicFeature{ID: "f1", Name: "Venue", Type: "text"}
	for i := 0; i < 2; i++ {
		n, err := p.Forward(ctx, f)
		if err != nil || n != 2 {
			t.Fatalf("forward #%d: matched %d, err %v", i, n, err)
		}
	}
	for _, id := range []string{"a", "b"} {
		o, _ := store.FindOne(ctx, repository.Filter{ID: id})
		if len(o.DynamicFeatures) != 1 || o.DynamicFeatures["f1"] != "none" {
			t.Fatalf("olimpiad %s features = %v", id, o.DynamicFeatures)
		}
	}

	if _, err := p.Reverse(ctx, "f1"); err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"a", "b"} {
		o, _ := store.FindOne(ctx, repository.Filter{ID: id})
		if _, ok := o.DynamicFeatures["f1"]; ok {
			t.Fatalf("olimpiad %s kept f1 after reverse", id)
		}
	}
	if obs.fanOuts[directionForward] != 4 || obs.fanOuts[directionReverse] != 2 {
		t.Errorf("unexpected fan-out observations %v", obs.fanOuts)
	}
}

func TestPropagator_ForwardOnEmptyCollection(t *testing.T) {
	p := NewPropagator(repository.NewMemoryOlimpiadStore(), nil)
	n, err := p.Forward(context.Background(), &model.DynamicFeature{ID: "f1", Type: "text"})
	if err != nil || n != 0 {
		t.Fatalf("expected 0 matched and no error, got %d, %v", n, err)
	}
}

func TestPropagator_FanOutFailureObserved(t *testing.T) {
	store := &countingStore{OlimpiadStore: repository.NewMemoryOlimpiadStore(), updateErr: errBoom}
	obs := &recordingObserver{}
	p := NewPropagator(store, obs)

	if _, err := p.Reverse(context.Background(), "f1"); err == nil {
		t.Fatal("expected error")
	}
	if len(obs.failed) != 1 || obs.failed[0] != directionReverse {
		t.Errorf("expected reverse failure observed, got %v", obs.failed)
	}
}

func TestPropagator_SettleAddsAndRemoves(t *testing.T) {
	store := repository.NewMemoryOlimpiadStore()
	p := NewPropagator(store, nil)
	ctx := context.Background()
	o := insertBare(t, store, "a", datatypes.JSONMap{"stale": "none"})

	registry := &scriptedRegistry{views: [][]*model.DynamicFeature{
		{{ID: "fresh", Type: "img"}},
	}}
	if err := p.Settle(ctx, o, registry); err != nil {
		t.Fatal(err)
	}

	stored, _ := store.FindOne(ctx, repository.Filter{ID: "a"})
	for _, got := range []datatypes.JSONMap{o.DynamicFeatures, stored.DynamicFeatures} {
		if _, ok := got["stale"]; ok {
			t.Errorf("stale key kept: %v", got)
		}
		if _, ok := got["fresh"]; !ok || len(got) != 1 {
			t.Errorf("expected only fresh key, got %v", got)
		}
	}
}

// A feature seen by the first registry read but deleted before the check
// read must not survive on the record.
func TestPropagator_SettlePrunesFeatureDeletedMeanwhile(t *testing.T) {
	store := repository.NewMemoryOlimpiadStore()
	p := NewPropagator(store, nil)
	ctx := context.Background()
	o := insertBare(t, store, "a", datatypes.JSONMap{})

	registry := &scriptedRegistry{views: [][]*model.DynamicFeature{
		{{ID: "doomed", Type: "text"}},
		{},
	}}
	if err := p.Settle(ctx, o, registry); err != nil {
		t.Fatal(err)
	}
	if registry.calls != 2 {
		t.Fatalf("expected a check read, got %d registry reads", registry.calls)
	}
	stored, _ := store.FindOne(ctx, repository.Filter{ID: "a"})
	if len(stored.DynamicFeatures) != 0 {
		t.Fatalf("expected no features, got %v", stored.DynamicFeatures)
	}
}

func TestPropagator_SettleNoopSkipsWrite(t *testing.T) {
	store := &countingStore{OlimpiadStore: repository.NewMemoryOlimpiadStore()}
	p := NewPropagator(store, nil)
	o := insertBare(t, store, "a", datatypes.JSONMap{"f1": "none"})
	before := store.calls.Load()

	registry := &scriptedRegistry{views: [][]*model.DynamicFeature{{{ID: "f1", Type: "text"}}}}
	if err := p.Settle(context.Background(), o, registry); err != nil {
		t.Fatal(err)
	}
	if store.calls.Load() != before {
		t.Error("expected no write for an aligned record")
	}
	if registry.calls != 1 {
		t.Errorf("expected a single registry read, got %d", registry.calls)
	}
}
