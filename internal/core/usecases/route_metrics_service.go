package usecases

import (
	"github.com/paulmach/orb"

	"github.com/nivharel/waymark/internal/core/domain"
	"github.com/nivharel/waymark/internal/pkg/geospatial"
)

// RouteMetricsService derives distance, duration and elevation profiles
// from canonical routes and imported tracks.
type RouteMetricsService struct{}

// NewRouteMetricsService creates a new RouteMetricsService.
func NewRouteMetricsService() *RouteMetricsService {
	return &RouteMetricsService{}
}

// FromRoute derives metrics for a provider-computed route. The distance
// carried on the route is trusted when present; otherwise consecutive-point
// distances are accumulated from the geometry. Provider geometries carry no
// elevation, so the profile is empty and min/max stay undefined.
func (s *RouteMetricsService) FromRoute(route *domain.CanonicalRoute) domain.RouteMetrics {
	m := domain.RouteMetrics{
		DistanceKm:  route.DistanceKm,
		DurationMin: route.DurationMin,
		Profile:     []domain.ElevationSample{},
	}
	if m.DistanceKm == 0 && route.Geometry != nil {
		m.DistanceKm = geospatial.RoundKm(geospatial.GeometryLengthKm(route.Geometry))
	}
	return m
}

// FromTrack derives metrics for an imported track: one ElevationSample per
// source point, never resampled. DistanceKm per sample is the exact
// cumulative path distance when the track carries usable coordinates, and
// a monotonically increasing index-based estimate otherwise.
func (s *RouteMetricsService) FromTrack(track *domain.Track) domain.RouteMetrics {
	profile := make([]domain.ElevationSample, 0, len(track.Points))

	var cumKm float64
	for i, p := range track.Points {
		if i > 0 {
			prev := track.Points[i-1]
			cumKm += geospatial.Haversine(
				prev.Location.Lat, prev.Location.Lon,
				p.Location.Lat, p.Location.Lon) / 1000
		}
		profile = append(profile, domain.ElevationSample{
			DistanceKm: cumKm,
			ElevationM: p.ElevationM,
		})
	}

	if cumKm == 0 && len(track.Points) > 1 {
		// Degenerate coordinates: keep the x-axis monotonic by sample index.
		for i := range profile {
			profile[i].DistanceKm = float64(i)
		}
	}

	m := domain.RouteMetrics{
		DistanceKm: geospatial.RoundKm(cumKm),
		Profile:    profile,
	}
	m.MinElevationM, m.MaxElevationM = reduceElevations(profile)
	return m
}

// reduceElevations returns the min and max elevation of a profile, or
// (nil, nil) for an empty one. Zero is a valid elevation, so absence is
// expressed as nil rather than 0.
func reduceElevations(profile []domain.ElevationSample) (min, max *float64) {
	for _, s := range profile {
		e := s.ElevationM
		if min == nil || e < *min {
			v := e
			min = &v
		}
		if max == nil || e > *max {
			v := e
			max = &v
		}
	}
	return min, max
}

// RouteFromTrack builds the canonical route for an imported track: a
// LineString in [lon, lat] order with the accumulated path distance.
func (s *RouteMetricsService) RouteFromTrack(track *domain.Track) *domain.CanonicalRoute {
	line := make(orb.LineString, 0, len(track.Points))
	for _, p := range track.Points {
		line = append(line, orb.Point{p.Location.Lon, p.Location.Lat})
	}
	return &domain.CanonicalRoute{
		Geometry:   line,
		DistanceKm: geospatial.RoundKm(geospatial.LineLengthKm(line)),
		Source:     domain.SourceTrackFile,
	}
}
