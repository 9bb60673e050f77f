package domain

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// RouteSource identifies which provider produced a CanonicalRoute.
type RouteSource string

const (
	SourceTrailIndex RouteSource = "trail_index"
	SourceRouter     RouteSource = "multi_stop_router"
	SourceDirections RouteSource = "directions"
	SourceTrackFile  RouteSource = "track_file"
)

// Waypoint is a user-authored geo-point with a position in an ordered route.
type Waypoint struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Location    GeoPoint  `json:"location"`
	Order       int       `json:"order"`
	CreatedAt   time.Time `json:"created_at"`
}

// AnchorPoint is a fixed starting location (e.g. a trip's meeting point)
// prepended to every routing request. It is never part of the waypoint list.
type AnchorPoint struct {
	Name     string   `json:"name,omitempty"`
	Location GeoPoint `json:"location"`
}

// RouteRequest is the ordered coordinate list sent to a route provider:
// anchor point first (if any), then waypoints sorted by order.
type RouteRequest []GeoPoint

// Valid reports whether the request may be sent to a provider.
// Requests with fewer than 2 points must never leave the engine.
func (r RouteRequest) Valid() bool {
	return len(r) >= 2
}

// keyPrecision is the number of decimal degrees a coordinate is rounded to
// when building a dedup key. Five decimals is roughly 1.1 m at the equator,
// well below anything a user can express by clicking a map.
const keyPrecision = 5

// Key returns a stable fingerprint of the ordered point set. Two requests
// whose points coincide within keyPrecision produce the same key, so edits
// that do not move a point (rename, description) never trigger a new
// provider call.
func (r RouteRequest) Key() string {
	parts := make([]string, 0, len(r))
	for _, p := range r {
		parts = append(parts,
			strconv.FormatFloat(p.Lon, 'f', keyPrecision, 64)+","+
				strconv.FormatFloat(p.Lat, 'f', keyPrecision, 64))
	}
	return strings.Join(parts, ";")
}

// CanonicalRoute is the unified, provider-agnostic representation of a
// computed path. Geometry coordinates are [lon, lat], GeoJSON convention,
// regardless of the source format.
type CanonicalRoute struct {
	Geometry    orb.Geometry
	DistanceKm  float64
	DurationMin *int // nil when the source carries no duration
	Source      RouteSource

	// Legs holds per-leg geometry when the source exposes it (directions
	// provider). Canonical distance/duration are always the aggregate.
	Legs []orb.LineString
}

// MarshalJSON encodes the geometry as GeoJSON. Per-leg geometry is
// included when present so clients can render legs individually.
func (r CanonicalRoute) MarshalJSON() ([]byte, error) {
	var g *geojson.Geometry
	if r.Geometry != nil {
		g = geojson.NewGeometry(r.Geometry)
	}
	var legs []*geojson.Geometry
	for _, leg := range r.Legs {
		legs = append(legs, geojson.NewGeometry(leg))
	}
	return json.Marshal(struct {
		Geometry    *geojson.Geometry   `json:"geometry"`
		DistanceKm  float64             `json:"distance_km"`
		DurationMin *int                `json:"duration_min,omitempty"`
		Source      RouteSource         `json:"source"`
		Legs        []*geojson.Geometry `json:"legs,omitempty"`
	}{g, r.DistanceKm, r.DurationMin, r.Source, legs})
}

// UnmarshalJSON decodes the GeoJSON geometry back into orb types. Per-leg
// geometry does not round-trip; it is a rendering detail, not canonical
// state.
func (r *CanonicalRoute) UnmarshalJSON(data []byte) error {
	var in struct {
		Geometry    *geojson.Geometry `json:"geometry"`
		DistanceKm  float64           `json:"distance_km"`
		DurationMin *int              `json:"duration_min"`
		Source      RouteSource       `json:"source"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	r.DistanceKm = in.DistanceKm
	r.DurationMin = in.DurationMin
	r.Source = in.Source
	if in.Geometry != nil {
		r.Geometry = in.Geometry.Geometry()
	}
	return nil
}

// TrailSearchResult is lightweight metadata for one trail relation matched
// by a bounding-box search. Geometry is fetched separately, on demand.
type TrailSearchResult struct {
	ID         int64    `json:"id"`
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	DistanceKm *float64 `json:"distance_km,omitempty"`
}

// TrackPoint is one point of an imported track. Elevation defaults to 0
// when the source file carries none, never null, so downstream reducers
// stay total.
type TrackPoint struct {
	Location   GeoPoint `json:"location"`
	ElevationM float64  `json:"elevation_m"`
}

// Track is a named point sequence parsed from a track file.
type Track struct {
	Name   string       `json:"name"`
	Points []TrackPoint `json:"points"`
}

// ElevationSample is one (distance, elevation) pair of an elevation
// profile. Collections are ordered by non-decreasing DistanceKm.
type ElevationSample struct {
	DistanceKm float64 `json:"distance_km"`
	ElevationM float64 `json:"elevation_m"`
}

// RouteMetrics are the derived metrics for a route or track. Min/max
// elevation are nil for an empty profile: zero is a valid elevation and
// must not stand in for "no data".
type RouteMetrics struct {
	DistanceKm    float64           `json:"distance_km"`
	DurationMin   *int              `json:"duration_min,omitempty"`
	Profile       []ElevationSample `json:"profile"`
	MinElevationM *float64          `json:"min_elevation_m,omitempty"`
	MaxElevationM *float64          `json:"max_elevation_m,omitempty"`
}
