package usecases

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nivharel/waymark/internal/core/domain"
	"github.com/nivharel/waymark/internal/core/ports"
)

// WaypointService owns the ordered waypoint list of each trip. All
// mutations serialize through the service so map clicks and dialog edits
// hitting the same trip cannot interleave a read-modify-write.
type WaypointService struct {
	repo ports.WaypointRepository

	mu sync.Mutex
}

// NewWaypointService creates a new WaypointService.
func NewWaypointService(repo ports.WaypointRepository) *WaypointService {
	return &WaypointService{repo: repo}
}

// List returns the trip's waypoints sorted by order.
func (s *WaypointService) List(ctx context.Context, tripID string) ([]domain.Waypoint, error) {
	wps, err := s.repo.List(ctx, tripID)
	if err != nil {
		return nil, err
	}
	sort.Slice(wps, func(i, j int) bool { return wps[i].Order < wps[j].Order })
	return wps, nil
}

// Add appends a waypoint at the end of the trip's route and returns it
// with its assigned ID and order.
func (s *WaypointService) Add(ctx context.Context, tripID string, wp domain.Waypoint) (*domain.Waypoint, error) {
	if wp.Name == "" {
		return nil, fmt.Errorf("waypoint name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	wps, err := s.List(ctx, tripID)
	if err != nil {
		return nil, err
	}

	if wp.ID == "" {
		wp.ID = uuid.NewString()
	}
	wp.Order = len(wps)
	wp.CreatedAt = time.Now().UTC()
	wps = append(wps, wp)

	if err := s.repo.Replace(ctx, tripID, wps); err != nil {
		return nil, err
	}
	return &wp, nil
}

// Update replaces the editable fields of the waypoint at the given
// position. ID and order are preserved.
func (s *WaypointService) Update(ctx context.Context, tripID string, index int, wp domain.Waypoint) (*domain.Waypoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wps, err := s.List(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(wps) {
		return nil, fmt.Errorf("waypoint index %d out of range [0,%d)", index, len(wps))
	}

	wps[index].Name = wp.Name
	wps[index].Description = wp.Description
	wps[index].Location = wp.Location

	if err := s.repo.Replace(ctx, tripID, wps); err != nil {
		return nil, err
	}
	out := wps[index]
	return &out, nil
}

// Remove deletes the waypoint at the given position and renumbers the
// survivors so order values stay contiguous from 0. Downstream composition
// sorts by order, so renumbering is a correctness requirement, not
// cosmetics.
func (s *WaypointService) Remove(ctx context.Context, tripID string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wps, err := s.List(ctx, tripID)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(wps) {
		return fmt.Errorf("waypoint index %d out of range [0,%d)", index, len(wps))
	}

	wps = append(wps[:index], wps[index+1:]...)
	for i := range wps {
		wps[i].Order = i
	}

	return s.repo.Replace(ctx, tripID, wps)
}

// Reorder rewrites the sequence to match orderedIDs, which must be a
// permutation of the current waypoint IDs.
func (s *WaypointService) Reorder(ctx context.Context, tripID string, orderedIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wps, err := s.List(ctx, tripID)
	if err != nil {
		return err
	}
	if len(orderedIDs) != len(wps) {
		return fmt.Errorf("reorder needs %d IDs, got %d", len(wps), len(orderedIDs))
	}

	byID := make(map[string]domain.Waypoint, len(wps))
	for _, wp := range wps {
		byID[wp.ID] = wp
	}

	next := make([]domain.Waypoint, 0, len(wps))
	for i, id := range orderedIDs {
		wp, ok := byID[id]
		if !ok {
			return fmt.Errorf("unknown waypoint ID %q", id)
		}
		delete(byID, id)
		wp.Order = i
		next = append(next, wp)
	}

	return s.repo.Replace(ctx, tripID, next)
}

// SetAnchor sets or clears (nil) the trip's fixed starting point.
func (s *WaypointService) SetAnchor(ctx context.Context, tripID string, anchor *domain.AnchorPoint) error {
	return s.repo.SetAnchor(ctx, tripID, anchor)
}

// Anchor returns the trip's anchor point, nil when none is set.
func (s *WaypointService) Anchor(ctx context.Context, tripID string) (*domain.AnchorPoint, error) {
	return s.repo.Anchor(ctx, tripID)
}

// BuildRequest assembles the routing request: anchor point first when the
// trip has one, then waypoints sorted by order.
func (s *WaypointService) BuildRequest(ctx context.Context, tripID string) (domain.RouteRequest, error) {
	anchor, err := s.repo.Anchor(ctx, tripID)
	if err != nil {
		return nil, err
	}
	wps, err := s.List(ctx, tripID)
	if err != nil {
		return nil, err
	}

	req := make(domain.RouteRequest, 0, len(wps)+1)
	if anchor != nil {
		req = append(req, anchor.Location)
	}
	for _, wp := range wps {
		req = append(req, wp.Location)
	}
	return req, nil
}
