package overpass_test

import (
	"testing"

	"github.com/paulmach/orb"

	"github.com/nivharel/waymark/internal/adapters/overpass"
)

func TestRelationToFeatureCollection_SingleWay(t *testing.T) {
	members := []overpass.Member{{Type: "way", Ref: 10}}
	ways := map[int64]orb.LineString{
		10: {{-2.935, 43.263}, {-2.940, 43.270}},
	}

	fc := overpass.RelationToFeatureCollection(members, ways)
	if len(fc.Features) != 1 {
		t.Fatalf("expected 1 feature, got %d", len(fc.Features))
	}
	ls, ok := fc.Features[0].Geometry.(orb.LineString)
	if !ok {
		t.Fatalf("expected a LineString for a single way, got %T", fc.Features[0].Geometry)
	}
	if len(ls) != 2 {
		t.Errorf("expected 2 points, got %d", len(ls))
	}
}

func TestRelationToFeatureCollection_MultipleWays(t *testing.T) {
	members := []overpass.Member{
		{Type: "way", Ref: 10},
		{Type: "node", Ref: 99},
		{Type: "way", Ref: 11},
	}
	// The two ways do not touch. They must stay separate parts.
	ways := map[int64]orb.LineString{
		10: {{-2.935, 43.263}, {-2.940, 43.270}},
		11: {{-2.950, 43.280}, {-2.955, 43.285}},
	}

	fc := overpass.RelationToFeatureCollection(members, ways)
	if len(fc.Features) != 1 {
		t.Fatalf("expected 1 feature, got %d", len(fc.Features))
	}
	mls, ok := fc.Features[0].Geometry.(orb.MultiLineString)
	if !ok {
		t.Fatalf("expected a MultiLineString for several ways, got %T", fc.Features[0].Geometry)
	}
	if len(mls) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(mls))
	}
	// Member order must be preserved: way 10 first.
	if mls[0][0] != (orb.Point{-2.935, 43.263}) {
		t.Errorf("expected member order to be preserved, first part starts at %v", mls[0][0])
	}
}

func TestRelationToFeatureCollection_NoResolvableWays(t *testing.T) {
	members := []overpass.Member{
		{Type: "node", Ref: 1},
		{Type: "way", Ref: 42}, // missing from the ways map
		{Type: "way", Ref: 43}, // resolves to an empty line
	}
	ways := map[int64]orb.LineString{43: {}}

	fc := overpass.RelationToFeatureCollection(members, ways)
	if len(fc.Features) != 0 {
		t.Errorf("expected an empty collection, got %d features", len(fc.Features))
	}
}

func TestRelationToFeatureCollection_Empty(t *testing.T) {
	fc := overpass.RelationToFeatureCollection(nil, nil)
	if fc == nil {
		t.Fatal("expected a collection, got nil")
	}
	if len(fc.Features) != 0 {
		t.Errorf("expected an empty collection, got %d features", len(fc.Features))
	}
}
