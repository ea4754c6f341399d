package embed

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"testing"

	"github.com/talentgrid/talentgrid/engine/domain"
)

type fakeClient struct {
	vec   []float32
	err   error
	calls int
}

func (f *fakeClient) Model() string { return "fake-model" }

func (f *fakeClient) Embed(_ context.Context, _ string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]float32, len(f.vec))
	copy(out, f.vec)
	return out, nil
}

type mapCache struct {
	store map[string][]float32
	hits  int
}

func newMapCache() *mapCache { return &mapCache{store: make(map[string][]float32)} }

func (m *mapCache) Get(_ context.Context, key string) ([]float32, bool) {
	v, ok := m.store[key]
	if ok {
		m.hits++
	}
	return v, ok
}

func (m *mapCache) Put(_ context.Context, key string, vec []float32) {
	m.store[key] = vec
}

func discard() *slog.Logger { return slog.New(slog.DiscardHandler) }

func TestGenerate_NoClient(t *testing.T) {
	svc := NewService(nil, discard())
	_, err := svc.Generate(context.Background(), "some text")
	if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
		t.Errorf("error = %v, want ErrEmbeddingUnavailable", err)
	}
}

func TestGenerate_EmptyText(t *testing.T) {
	svc := NewService(&fakeClient{vec: []float32{1}}, discard())
	_, err := svc.Generate(context.Background(), "")
	if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
		t.Errorf("error = %v, want ErrEmbeddingUnavailable", err)
	}
}

func TestGenerate_ModelFailureIsTyped(t *testing.T) {
	svc := NewService(&fakeClient{err: errors.New("connection refused")}, discard())
	_, err := svc.Generate(context.Background(), "text")
	if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
		t.Errorf("error = %v, want ErrEmbeddingUnavailable", err)
	}
}

func TestGenerate_Normalizes(t *testing.T) {
	svc := NewService(&fakeClient{vec: []float32{3, 4}}, discard())
	vec, err := svc.Generate(context.Background(), "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if math.Abs(norm-1.0) > 1e-6 {
		t.Errorf("L2 norm = %f, want 1.0", math.Sqrt(norm))
	}
	if math.Abs(float64(vec[0])-0.6) > 1e-6 || math.Abs(float64(vec[1])-0.8) > 1e-6 {
		t.Errorf("vec = %v, want [0.6 0.8]", vec)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	svc := NewService(&fakeClient{vec: []float32{1, 2, 2}}, discard())
	a, err := svc.Generate(context.Background(), "same input")
	if err != nil {
		t.Fatal(err)
	}
	b, err := svc.Generate(context.Background(), "same input")
	if err != nil {
		t.Fatal(err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("vectors differ at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestGenerate_CacheSkipsModel(t *testing.T) {
	client := &fakeClient{vec: []float32{1, 0}}
	cache := newMapCache()
	svc := NewService(client, discard(), WithCache(cache))

	if _, err := svc.Generate(context.Background(), "query"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Generate(context.Background(), "query"); err != nil {
		t.Fatal(err)
	}
	if client.calls != 1 {
		t.Errorf("model calls = %d, want 1 (second served from cache)", client.calls)
	}
	if cache.hits != 1 {
		t.Errorf("cache hits = %d, want 1", cache.hits)
	}
}

func TestCacheKey_VariesByModelAndText(t *testing.T) {
	a := cacheKey("m1", "text")
	b := cacheKey("m2", "text")
	c := cacheKey("m1", "other")
	if a == b || a == c {
		t.Error("cache keys must differ across model and text")
	}
}
