package memory_test

import (
	"context"
	"testing"

	"github.com/nivharel/waymark/internal/adapters/memory"
	"github.com/nivharel/waymark/internal/core/domain"
)

func TestWaypointRepo_ListUnknownTrip(t *testing.T) {
	repo := memory.NewWaypointRepo()

	wps, err := repo.List(context.Background(), "nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wps != nil {
		t.Errorf("expected nil for an unknown trip, got %v", wps)
	}
}

func TestWaypointRepo_ReplaceIsolation(t *testing.T) {
	repo := memory.NewWaypointRepo()
	ctx := context.Background()

	in := []domain.Waypoint{{ID: "w1", Name: "a", Order: 0}}
	if err := repo.Replace(ctx, "t1", in); err != nil {
		t.Fatalf("replace: %v", err)
	}

	// Mutating the caller's slice must not leak into the store.
	in[0].Name = "mutated"
	wps, _ := repo.List(ctx, "t1")
	if wps[0].Name != "a" {
		t.Errorf("store must copy on write, got %q", wps[0].Name)
	}

	// Mutating the returned slice must not leak either.
	wps[0].Name = "mutated again"
	again, _ := repo.List(ctx, "t1")
	if again[0].Name != "a" {
		t.Errorf("store must copy on read, got %q", again[0].Name)
	}
}

func TestWaypointRepo_TripsAreIndependent(t *testing.T) {
	repo := memory.NewWaypointRepo()
	ctx := context.Background()

	repo.Replace(ctx, "t1", []domain.Waypoint{{ID: "w1"}})
	repo.Replace(ctx, "t2", []domain.Waypoint{{ID: "w2"}, {ID: "w3"}})

	t1, _ := repo.List(ctx, "t1")
	t2, _ := repo.List(ctx, "t2")
	if len(t1) != 1 || len(t2) != 2 {
		t.Errorf("expected independent trips, got %d and %d", len(t1), len(t2))
	}
}

func TestWaypointRepo_Anchor(t *testing.T) {
	repo := memory.NewWaypointRepo()
	ctx := context.Background()

	a, err := repo.Anchor(ctx, "t1")
	if err != nil || a != nil {
		t.Fatalf("expected no anchor, got %v, %v", a, err)
	}

	anchor := &domain.AnchorPoint{Name: "station", Location: domain.GeoPoint{Lat: 43.2, Lon: -2.9}}
	if err := repo.SetAnchor(ctx, "t1", anchor); err != nil {
		t.Fatalf("set anchor: %v", err)
	}

	got, _ := repo.Anchor(ctx, "t1")
	if got == nil || got.Name != "station" {
		t.Fatalf("unexpected anchor %+v", got)
	}

	// The stored anchor must be isolated from the caller's pointer.
	anchor.Name = "mutated"
	got2, _ := repo.Anchor(ctx, "t1")
	if got2.Name != "station" {
		t.Errorf("store must copy the anchor, got %q", got2.Name)
	}

	if err := repo.SetAnchor(ctx, "t1", nil); err != nil {
		t.Fatalf("clear anchor: %v", err)
	}
	cleared, _ := repo.Anchor(ctx, "t1")
	if cleared != nil {
		t.Errorf("expected cleared anchor, got %+v", cleared)
	}
}
