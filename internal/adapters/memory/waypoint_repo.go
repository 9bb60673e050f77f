package memory

import (
	"context"
	"sync"

	"github.com/nivharel/waymark/internal/core/domain"
)

type tripState struct {
	waypoints []domain.Waypoint
	anchor    *domain.AnchorPoint
}

// WaypointRepo implements ports.WaypointRepository in memory. Trip records
// themselves live in the remote entity store that owns the rest of the
// application; this subsystem only needs working route state per trip.
type WaypointRepo struct {
	mu    sync.RWMutex
	trips map[string]*tripState
}

// NewWaypointRepo creates an empty repository.
func NewWaypointRepo() *WaypointRepo {
	return &WaypointRepo{trips: make(map[string]*tripState)}
}

// List returns a copy of the trip's waypoints.
func (r *WaypointRepo) List(ctx context.Context, tripID string) ([]domain.Waypoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st, ok := r.trips[tripID]
	if !ok {
		return nil, nil
	}
	out := make([]domain.Waypoint, len(st.waypoints))
	copy(out, st.waypoints)
	return out, nil
}

// Replace stores the full waypoint list for a trip.
func (r *WaypointRepo) Replace(ctx context.Context, tripID string, waypoints []domain.Waypoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.state(tripID)
	st.waypoints = make([]domain.Waypoint, len(waypoints))
	copy(st.waypoints, waypoints)
	return nil
}

// Anchor returns the trip's anchor point, nil when unset.
func (r *WaypointRepo) Anchor(ctx context.Context, tripID string) (*domain.AnchorPoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st, ok := r.trips[tripID]
	if !ok || st.anchor == nil {
		return nil, nil
	}
	a := *st.anchor
	return &a, nil
}

// SetAnchor sets or clears (nil) the trip's anchor point.
func (r *WaypointRepo) SetAnchor(ctx context.Context, tripID string, anchor *domain.AnchorPoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.state(tripID)
	if anchor == nil {
		st.anchor = nil
		return nil
	}
	a := *anchor
	st.anchor = &a
	return nil
}

// state must be called with the write lock held.
func (r *WaypointRepo) state(tripID string) *tripState {
	st, ok := r.trips[tripID]
	if !ok {
		st = &tripState{}
		r.trips[tripID] = st
	}
	return st
}
