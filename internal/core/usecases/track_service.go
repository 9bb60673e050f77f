package usecases

import (
	"context"
	"io"

	"github.com/nivharel/waymark/internal/core/domain"
	"github.com/nivharel/waymark/internal/core/ports"
)

// TrackService turns uploaded or remote track files into canonical routes
// with derived metrics.
type TrackService struct {
	importer ports.TrackImporter
	metrics  *RouteMetricsService
}

// NewTrackService creates a new TrackService.
func NewTrackService(importer ports.TrackImporter, metrics *RouteMetricsService) *TrackService {
	return &TrackService{importer: importer, metrics: metrics}
}

// ImportFile parses track file content and derives the route and metrics.
func (s *TrackService) ImportFile(ctx context.Context, r io.Reader) (*domain.CanonicalRoute, *domain.RouteMetrics, error) {
	track, err := s.importer.Import(ctx, r)
	if err != nil {
		return nil, nil, err
	}
	return s.derive(track)
}

// ImportURL fetches a remote track file and derives the route and metrics.
func (s *TrackService) ImportURL(ctx context.Context, url string) (*domain.CanonicalRoute, *domain.RouteMetrics, error) {
	track, err := s.importer.ImportURL(ctx, url)
	if err != nil {
		return nil, nil, err
	}
	return s.derive(track)
}

func (s *TrackService) derive(track *domain.Track) (*domain.CanonicalRoute, *domain.RouteMetrics, error) {
	route := s.metrics.RouteFromTrack(track)
	m := s.metrics.FromTrack(track)
	m.DistanceKm = route.DistanceKm
	return route, &m, nil
}
