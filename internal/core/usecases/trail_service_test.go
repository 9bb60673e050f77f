package usecases_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/nivharel/waymark/internal/core/domain"
	"github.com/nivharel/waymark/internal/core/usecases"
)

// --- Mock TrailIndex ---

type mockTrailIndex struct {
	searchFn   func(ctx context.Context, box domain.Bounds) ([]domain.TrailSearchResult, error)
	geometryFn func(ctx context.Context, relationID int64) (*domain.CanonicalRoute, error)
}

func (m *mockTrailIndex) Search(ctx context.Context, box domain.Bounds) ([]domain.TrailSearchResult, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, box)
	}
	return nil, nil
}

func (m *mockTrailIndex) FetchGeometry(ctx context.Context, relationID int64) (*domain.CanonicalRoute, error) {
	if m.geometryFn != nil {
		return m.geometryFn(ctx, relationID)
	}
	return &domain.CanonicalRoute{Source: domain.SourceTrailIndex}, nil
}

// --- Mock CacheService ---

type mockCache struct {
	store map[string][]byte
	sets  int
	gets  int
}

func newMockCache() *mockCache {
	return &mockCache{store: make(map[string][]byte)}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.gets++
	if v, ok := m.store[key]; ok {
		return v, nil
	}
	return nil, errors.New("miss")
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.sets++
	m.store[key] = value
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	delete(m.store, key)
	return nil
}

func TestTrailService_SearchInvalidBox(t *testing.T) {
	svc := usecases.NewTrailService(&mockTrailIndex{}, nil)

	_, err := svc.Search(context.Background(), domain.Bounds{South: 43.3, West: -3.0, North: 43.2, East: -2.9})
	if err == nil {
		t.Fatal("expected error for a box with north below south")
	}
}

func TestTrailService_SearchCachesResults(t *testing.T) {
	calls := 0
	index := &mockTrailIndex{
		searchFn: func(ctx context.Context, box domain.Bounds) ([]domain.TrailSearchResult, error) {
			calls++
			return []domain.TrailSearchResult{{ID: 1, Name: "GR 123", Type: "hiking"}}, nil
		},
	}
	cache := newMockCache()
	svc := usecases.NewTrailService(index, cache)
	ctx := context.Background()
	box := domain.Bounds{South: 43.2, West: -3.0, North: 43.3, East: -2.9}

	first, err := svc.Search(ctx, box)
	if err != nil {
		t.Fatalf("first search: %v", err)
	}
	second, err := svc.Search(ctx, box)
	if err != nil {
		t.Fatalf("second search: %v", err)
	}

	if calls != 1 {
		t.Errorf("expected 1 index call, got %d", calls)
	}
	if len(first) != 1 || len(second) != 1 || second[0].Name != "GR 123" {
		t.Errorf("cached result differs: %+v vs %+v", first, second)
	}
}

func TestTrailService_SearchNearClampsRadius(t *testing.T) {
	var boxes []domain.Bounds
	index := &mockTrailIndex{
		searchFn: func(ctx context.Context, box domain.Bounds) ([]domain.TrailSearchResult, error) {
			boxes = append(boxes, box)
			return nil, nil
		},
	}
	svc := usecases.NewTrailService(index, nil)
	ctx := context.Background()

	// Zero radius falls back to the default, oversized is capped.
	if _, err := svc.SearchNear(ctx, 43.26, -2.93, 0); err != nil {
		t.Fatalf("default radius search: %v", err)
	}
	if _, err := svc.SearchNear(ctx, 43.26, -2.93, 1e9); err != nil {
		t.Fatalf("oversized radius search: %v", err)
	}
	if _, err := svc.SearchNear(ctx, 43.26, -2.93, 50000); err != nil {
		t.Fatalf("max radius search: %v", err)
	}

	if len(boxes) != 3 {
		t.Fatalf("expected 3 index calls, got %d", len(boxes))
	}
	if boxes[0].North-boxes[0].South >= boxes[1].North-boxes[1].South {
		t.Error("default radius box should be smaller than the capped one")
	}
	if boxes[1] != boxes[2] {
		t.Errorf("oversized radius must clamp to the maximum: %+v vs %+v", boxes[1], boxes[2])
	}
}

func TestTrailService_GeometryCached(t *testing.T) {
	calls := 0
	index := &mockTrailIndex{
		geometryFn: func(ctx context.Context, relationID int64) (*domain.CanonicalRoute, error) {
			calls++
			return &domain.CanonicalRoute{DistanceKm: 65.2, Source: domain.SourceTrailIndex}, nil
		},
	}
	cache := newMockCache()
	svc := usecases.NewTrailService(index, cache)
	ctx := context.Background()

	if _, err := svc.Geometry(ctx, 12345); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	route, err := svc.Geometry(ctx, 12345)
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}

	if calls != 1 {
		t.Errorf("expected 1 index call, got %d", calls)
	}
	if route.DistanceKm != 65.2 || route.Source != domain.SourceTrailIndex {
		t.Errorf("cached route differs: %+v", route)
	}
}

func TestTrailService_CorruptCacheEntryFallsThrough(t *testing.T) {
	index := &mockTrailIndex{
		searchFn: func(ctx context.Context, box domain.Bounds) ([]domain.TrailSearchResult, error) {
			return []domain.TrailSearchResult{{ID: 7, Name: "PR 9"}}, nil
		},
	}
	cache := newMockCache()
	svc := usecases.NewTrailService(index, cache)
	ctx := context.Background()
	box := domain.Bounds{South: 43.2, West: -3.0, North: 43.3, East: -2.9}

	// Poison the cache entry, then search.
	if _, err := svc.Search(ctx, box); err != nil {
		t.Fatalf("warmup search: %v", err)
	}
	for k := range cache.store {
		cache.store[k] = []byte("{corrupt")
	}

	results, err := svc.Search(ctx, box)
	if err != nil {
		t.Fatalf("search with corrupt cache: %v", err)
	}
	if len(results) != 1 || results[0].ID != 7 {
		t.Errorf("expected fresh index results, got %+v", results)
	}
}

func TestTrailService_IndexErrorPropagates(t *testing.T) {
	index := &mockTrailIndex{
		searchFn: func(ctx context.Context, box domain.Bounds) ([]domain.TrailSearchResult, error) {
			return nil, domain.NewRouteError(domain.FailureTransport, "trail_index", errors.New("gateway timeout"))
		},
	}
	svc := usecases.NewTrailService(index, newMockCache())

	_, err := svc.Search(context.Background(), domain.Bounds{South: 43.2, West: -3.0, North: 43.3, East: -2.9})
	if domain.ReasonOf(err) != domain.FailureTransport {
		t.Errorf("expected transport failure, got %v", err)
	}
}

func TestTrailService_CacheRoundTripPreservesGeometryJSON(t *testing.T) {
	index := &mockTrailIndex{}
	cache := newMockCache()
	svc := usecases.NewTrailService(index, cache)

	if _, err := svc.Geometry(context.Background(), 1); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	for _, v := range cache.store {
		var route domain.CanonicalRoute
		if err := json.Unmarshal(v, &route); err != nil {
			t.Errorf("cached geometry is not valid JSON: %v", err)
		}
	}
}
