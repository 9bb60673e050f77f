package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"

	"github.com/nivharel/waymark/internal/core/domain"
)

func TestRouteRequest_Valid(t *testing.T) {
	cases := []struct {
		points int
		want   bool
	}{
		{0, false},
		{1, false},
		{2, true},
		{5, true},
	}
	for _, tc := range cases {
		req := make(domain.RouteRequest, tc.points)
		if got := req.Valid(); got != tc.want {
			t.Errorf("%d points: expected valid=%v, got %v", tc.points, tc.want, got)
		}
	}
}

func TestRouteRequest_KeyStableUnderSubPrecisionMoves(t *testing.T) {
	a := domain.RouteRequest{
		{Lat: 43.263010, Lon: -2.935001},
		{Lat: 43.270250, Lon: -2.940120},
	}
	// Differences beyond the 5th decimal round away.
	b := domain.RouteRequest{
		{Lat: 43.263012, Lon: -2.935004},
		{Lat: 43.270252, Lon: -2.940118},
	}
	if a.Key() != b.Key() {
		t.Errorf("sub-precision moves must share a key:\n%s\n%s", a.Key(), b.Key())
	}
}

func TestRouteRequest_KeyChangesOnRealMove(t *testing.T) {
	a := domain.RouteRequest{
		{Lat: 43.26301, Lon: -2.93500},
		{Lat: 43.27025, Lon: -2.94012},
	}
	b := domain.RouteRequest{
		{Lat: 43.26301, Lon: -2.93500},
		{Lat: 43.27035, Lon: -2.94012},
	}
	if a.Key() == b.Key() {
		t.Error("a move above key precision must change the key")
	}
}

func TestRouteRequest_KeyOrderSensitive(t *testing.T) {
	a := domain.RouteRequest{{Lat: 1, Lon: 2}, {Lat: 3, Lon: 4}}
	b := domain.RouteRequest{{Lat: 3, Lon: 4}, {Lat: 1, Lon: 2}}
	if a.Key() == b.Key() {
		t.Error("reversing the point order must change the key")
	}
}

func TestCanonicalRoute_JSONRoundTrip(t *testing.T) {
	dur := 30
	route := domain.CanonicalRoute{
		Geometry:    orb.LineString{{-2.935, 43.263}, {-2.940, 43.270}},
		DistanceKm:  2.35,
		DurationMin: &dur,
		Source:      domain.SourceRouter,
	}

	data, err := json.Marshal(route)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded domain.CanonicalRoute
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.DistanceKm != 2.35 || decoded.Source != domain.SourceRouter {
		t.Errorf("unexpected round trip: %+v", decoded)
	}
	if decoded.DurationMin == nil || *decoded.DurationMin != 30 {
		t.Errorf("expected duration 30, got %v", decoded.DurationMin)
	}
	ls, ok := decoded.Geometry.(orb.LineString)
	if !ok {
		t.Fatalf("expected a LineString after round trip, got %T", decoded.Geometry)
	}
	if len(ls) != 2 {
		t.Errorf("expected 2 points, got %d", len(ls))
	}
}

func TestCanonicalRoute_MarshalNilGeometry(t *testing.T) {
	data, err := json.Marshal(domain.CanonicalRoute{Source: domain.SourceTrailIndex})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out["geometry"] != nil {
		t.Errorf("expected null geometry, got %v", out["geometry"])
	}
	if _, ok := out["duration_min"]; ok {
		t.Error("nil duration must be omitted")
	}
}

func TestBounds_Valid(t *testing.T) {
	good := domain.Bounds{South: 43.2, West: -3.0, North: 43.3, East: -2.9}
	if !good.Valid() {
		t.Error("expected a positive-extent box to be valid")
	}
	flipped := domain.Bounds{South: 43.3, West: -3.0, North: 43.2, East: -2.9}
	if flipped.Valid() {
		t.Error("north below south must be invalid")
	}
	empty := domain.Bounds{}
	if empty.Valid() {
		t.Error("a zero-extent box must be invalid")
	}
}
