package ports

import (
	"context"
	"io"

	"github.com/nivharel/waymark/internal/core/domain"
)

// RouteProvider computes a walkable route through an ordered point set.
// Points are a path constraint: first is the origin, last the destination,
// intermediates are required stops in that order. Providers never reorder.
type RouteProvider interface {
	// Name identifies the provider in logs and metrics.
	Name() string
	// ComputeRoute returns the canonical route for the request, or a
	// domain.RouteError classifying the failure. Implementations must not
	// let parse panics or raw transport errors escape unclassified.
	ComputeRoute(ctx context.Context, req domain.RouteRequest) (*domain.CanonicalRoute, error)
}

// TrailIndex is the two-phase trail relation index. Search returns
// lightweight metadata only; geometry is fetched per relation on demand
// because the geometry query is expensive.
type TrailIndex interface {
	Search(ctx context.Context, box domain.Bounds) ([]domain.TrailSearchResult, error)
	FetchGeometry(ctx context.Context, relationID int64) (*domain.CanonicalRoute, error)
}

// TrackImporter parses track interchange files into point sequences.
type TrackImporter interface {
	// Import parses track file content. Files with zero tracks or zero
	// points in the first track yield a domain.RouteError wrapping
	// domain.ErrEmptyTrack.
	Import(ctx context.Context, r io.Reader) (*domain.Track, error)
	// ImportURL fetches a remote track file and parses it.
	ImportURL(ctx context.Context, url string) (*domain.Track, error)
}

// WaypointRepository persists the ordered waypoint list and anchor point of
// a trip. Trip records themselves live in a remote entity store outside
// this subsystem; implementations here only need to hold route state.
type WaypointRepository interface {
	List(ctx context.Context, tripID string) ([]domain.Waypoint, error)
	Replace(ctx context.Context, tripID string, waypoints []domain.Waypoint) error
	Anchor(ctx context.Context, tripID string) (*domain.AnchorPoint, error)
	SetAnchor(ctx context.Context, tripID string, anchor *domain.AnchorPoint) error
}
