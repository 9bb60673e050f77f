package usecases

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nivharel/waymark/internal/core/domain"
	"github.com/nivharel/waymark/internal/core/ports"
	"github.com/nivharel/waymark/internal/pkg/geospatial"
	"github.com/nivharel/waymark/internal/pkg/metrics"
)

// TrailService exposes the two-phase trail index: bounding-box search for
// lightweight metadata, then per-relation geometry fetch. Both phases are
// cached read-through because the index is a shared public service and the
// geometry query in particular is expensive.
type TrailService struct {
	index ports.TrailIndex
	cache ports.CacheService
}

// NewTrailService creates a new TrailService.
func NewTrailService(index ports.TrailIndex, cache ports.CacheService) *TrailService {
	return &TrailService{index: index, cache: cache}
}

// Search returns trail relations intersecting the bounding box. Results
// are ephemeral metadata scoped to the query; no geometry is fetched.
func (s *TrailService) Search(ctx context.Context, box domain.Bounds) ([]domain.TrailSearchResult, error) {
	if !box.Valid() {
		return nil, fmt.Errorf("bounding box must have positive extent")
	}

	cacheKey := fmt.Sprintf("trails:search:%.4f:%.4f:%.4f:%.4f", box.South, box.West, box.North, box.East)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var results []domain.TrailSearchResult
			if err := json.Unmarshal(data, &results); err == nil {
				metrics.CacheHits.WithLabelValues("trail_search").Inc()
				return results, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("trail_search").Inc()
	}

	results, err := s.index.Search(ctx, box)
	if err != nil {
		return nil, err
	}

	// Trail relations change rarely; 10 minutes keeps map panning cheap.
	if s.cache != nil {
		if data, err := json.Marshal(results); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 600)
		}
	}

	return results, nil
}

// SearchNear searches within radiusMeters of a center point.
func (s *TrailService) SearchNear(ctx context.Context, lat, lon, radiusMeters float64) ([]domain.TrailSearchResult, error) {
	if radiusMeters <= 0 {
		radiusMeters = 5000
	}
	if radiusMeters > 50000 {
		radiusMeters = 50000
	}
	south, west, north, east := geospatial.BoundingBox(lat, lon, radiusMeters)
	return s.Search(ctx, domain.Bounds{South: south, West: west, North: north, East: east})
}

// Geometry fetches the full way geometry of one trail relation. An empty
// geometry result means "no route available" and is cached like any other.
func (s *TrailService) Geometry(ctx context.Context, relationID int64) (*domain.CanonicalRoute, error) {
	cacheKey := fmt.Sprintf("trails:geometry:%d", relationID)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var route domain.CanonicalRoute
			if err := json.Unmarshal(data, &route); err == nil {
				metrics.CacheHits.WithLabelValues("trail_geometry").Inc()
				return &route, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("trail_geometry").Inc()
	}

	route, err := s.index.FetchGeometry(ctx, relationID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(route); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 3600)
		}
	}

	return route, nil
}
