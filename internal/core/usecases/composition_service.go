package usecases

import (
	"context"
	"log/slog"
	"sync"

	"github.com/nivharel/waymark/internal/core/domain"
	"github.com/nivharel/waymark/internal/core/ports"
	"github.com/nivharel/waymark/internal/pkg/metrics"
)

// tripRoute is the per-trip memoization entry: the route currently shown,
// the request key it was computed for, and the key of the newest request
// still in flight.
type tripRoute struct {
	held       *domain.CanonicalRoute
	heldKey    string
	pendingKey string
}

// CompositionService decides when a provider call is (re)issued and which
// canonical result currently represents "the route" for a trip. It is the
// only writer of the held route and its key.
type CompositionService struct {
	waypoints *WaypointService
	provider  ports.RouteProvider
	events    ports.EventPublisher

	mu    sync.Mutex
	trips map[string]*tripRoute
}

// NewCompositionService creates a new CompositionService. events may be
// nil when no broker is configured.
func NewCompositionService(waypoints *WaypointService, provider ports.RouteProvider, events ports.EventPublisher) *CompositionService {
	return &CompositionService{
		waypoints: waypoints,
		provider:  provider,
		events:    events,
		trips:     make(map[string]*tripRoute),
	}
}

// Current returns the route currently held for the trip, nil when none.
func (s *CompositionService) Current(tripID string) *domain.CanonicalRoute {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tr, ok := s.trips[tripID]; ok {
		return tr.held
	}
	return nil
}

// Recompute rebuilds the trip's route request and refreshes the held route
// if the point set actually moved.
//
//   - fewer than 2 points: the held route is cleared, no provider call.
//   - unchanged dedup key: the held route is returned as-is, no provider
//     call, even when non-positional waypoint fields changed.
//   - provider failure: the held route and key are retained so a transient
//     failure never destroys a previously good route.
//   - stale completion: a result whose key is no longer the newest issued
//     key is dropped silently; out-of-order provider completions must not
//     roll the route back.
func (s *CompositionService) Recompute(ctx context.Context, tripID string) (*domain.CanonicalRoute, error) {
	req, err := s.waypoints.BuildRequest(ctx, tripID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	tr, ok := s.trips[tripID]
	if !ok {
		tr = &tripRoute{}
		s.trips[tripID] = tr
	}

	if !req.Valid() {
		cleared := tr.held != nil
		tr.held, tr.heldKey, tr.pendingKey = nil, "", ""
		s.mu.Unlock()
		if cleared {
			s.publishCleared(ctx, tripID)
		}
		return nil, domain.NewRouteError(domain.FailureInvalidInput, s.provider.Name(), domain.ErrNotEnoughPoints)
	}

	key := req.Key()
	if key == tr.heldKey && tr.held != nil {
		held := tr.held
		s.mu.Unlock()
		metrics.RouteRequestsDeduped.Inc()
		return held, nil
	}
	tr.pendingKey = key
	s.mu.Unlock()

	route, err := s.provider.ComputeRoute(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()

	if tr.pendingKey != key {
		// A newer point set was issued while this call was in flight.
		metrics.StaleResultsDiscarded.Inc()
		return tr.held, domain.NewRouteError(domain.FailureStale, s.provider.Name(), nil)
	}

	if err != nil || route == nil {
		tr.pendingKey = ""
		slog.Warn("route computation failed, retaining previous route",
			"trip_id", tripID, "provider", s.provider.Name(), "error", err)
		return tr.held, err
	}

	tr.held, tr.heldKey, tr.pendingKey = route, key, ""
	metrics.RoutesComposed.WithLabelValues(string(route.Source)).Inc()
	s.publishUpdated(ctx, tripID, route)
	return route, nil
}

// Apply installs an externally produced route (imported track file,
// selected trail geometry) as the trip's current route. The held key is
// reset so the next waypoint-driven recompute always reaches the provider.
func (s *CompositionService) Apply(ctx context.Context, tripID string, route *domain.CanonicalRoute) {
	s.mu.Lock()
	tr, ok := s.trips[tripID]
	if !ok {
		tr = &tripRoute{}
		s.trips[tripID] = tr
	}
	tr.held, tr.heldKey, tr.pendingKey = route, "", ""
	s.mu.Unlock()

	metrics.RoutesComposed.WithLabelValues(string(route.Source)).Inc()
	s.publishUpdated(ctx, tripID, route)
}

// Clear drops the trip's held route, e.g. when the trip is closed.
func (s *CompositionService) Clear(ctx context.Context, tripID string) {
	s.mu.Lock()
	tr, ok := s.trips[tripID]
	cleared := ok && tr.held != nil
	delete(s.trips, tripID)
	s.mu.Unlock()

	if cleared {
		s.publishCleared(ctx, tripID)
	}
}

func (s *CompositionService) publishUpdated(ctx context.Context, tripID string, route *domain.CanonicalRoute) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishRouteUpdated(ctx, tripID, route); err != nil {
		slog.Warn("publish route update", "trip_id", tripID, "error", err)
	}
}

func (s *CompositionService) publishCleared(ctx context.Context, tripID string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishRouteCleared(ctx, tripID); err != nil {
		slog.Warn("publish route cleared", "trip_id", tripID, "error", err)
	}
}
