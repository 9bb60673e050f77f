package valhalla_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/twpayne/go-polyline"

	"github.com/nivharel/waymark/internal/adapters/valhalla"
	"github.com/nivharel/waymark/internal/core/domain"
)

func encodeShape(coords [][]float64) string {
	codec := polyline.Codec{Dim: 2, Scale: 1e6}
	return string(codec.EncodeCoords(nil, coords))
}

func threePoints() domain.RouteRequest {
	return domain.RouteRequest{
		{Lat: 43.2630, Lon: -2.9350},
		{Lat: 43.2665, Lon: -2.9375},
		{Lat: 43.2702, Lon: -2.9401},
	}
}

func TestDirections_ComputeRoute(t *testing.T) {
	leg1 := encodeShape([][]float64{{43.2630, -2.9350}, {43.2665, -2.9375}})
	leg2 := encodeShape([][]float64{{43.2665, -2.9375}, {43.2702, -2.9401}})

	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		resp := map[string]any{
			"trip": map[string]any{
				"legs": []map[string]any{
					{"shape": leg1, "summary": map[string]any{"time": 600.0, "length": 0.9}},
					{"shape": leg2, "summary": map[string]any{"time": 660.0, "length": 1.1}},
				},
				"summary": map[string]any{"time": 1260.0, "length": 2.0},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	d := valhalla.NewDirections(srv.URL, "pedestrian", 5*time.Second)
	route, err := d.ComputeRoute(context.Background(), threePoints())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var sent struct {
		Locations []struct {
			Lat  float64 `json:"lat"`
			Lon  float64 `json:"lon"`
			Type string  `json:"type"`
		} `json:"locations"`
		Costing string `json:"costing"`
	}
	if err := json.Unmarshal(gotBody, &sent); err != nil {
		t.Fatalf("request body: %v", err)
	}
	if sent.Costing != "pedestrian" {
		t.Errorf("expected pedestrian costing, got %q", sent.Costing)
	}
	if len(sent.Locations) != 3 || sent.Locations[1].Type != "break" {
		t.Errorf("expected 3 break locations, got %+v", sent.Locations)
	}

	if route.Source != domain.SourceDirections {
		t.Errorf("expected source directions, got %s", route.Source)
	}
	if route.DistanceKm != 2.0 {
		t.Errorf("expected aggregate distance 2.0, got %v", route.DistanceKm)
	}
	if route.DurationMin == nil || *route.DurationMin != 21 {
		t.Errorf("expected 1260 s as 21 min, got %v", route.DurationMin)
	}
	if len(route.Legs) != 2 {
		t.Fatalf("expected 2 legs, got %d", len(route.Legs))
	}

	path, ok := route.Geometry.(orb.LineString)
	if !ok {
		t.Fatalf("expected a LineString, got %T", route.Geometry)
	}
	if len(path) != 4 {
		t.Errorf("expected 4 flattened points, got %d", len(path))
	}
	// Decoded points come back [lon, lat].
	if math.Abs(path[0][0]-(-2.9350)) > 1e-5 || math.Abs(path[0][1]-43.2630) > 1e-5 {
		t.Errorf("unexpected first point %v", path[0])
	}
}

func TestDirections_TooFewPoints(t *testing.T) {
	d := valhalla.NewDirections("http://localhost:1", "pedestrian", time.Second)

	_, err := d.ComputeRoute(context.Background(), domain.RouteRequest{{Lat: 43.26, Lon: -2.93}})
	if domain.ReasonOf(err) != domain.FailureInvalidInput {
		t.Errorf("expected invalid_input, got %v", err)
	}
}

func TestDirections_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error_code": 171, "error": "No suitable edges near location"}`)
	}))
	defer srv.Close()

	d := valhalla.NewDirections(srv.URL, "pedestrian", 5*time.Second)
	_, err := d.ComputeRoute(context.Background(), threePoints())
	if domain.ReasonOf(err) != domain.FailureTransport {
		t.Fatalf("expected transport failure, got %v", err)
	}
	if want := "No suitable edges"; err == nil || !strings.Contains(err.Error(), want) {
		t.Errorf("expected the upstream message in the error, got %v", err)
	}
}

func TestDirections_EmptyLegs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"trip": {"legs": [], "summary": {"time": 0, "length": 0}}}`)
	}))
	defer srv.Close()

	d := valhalla.NewDirections(srv.URL, "pedestrian", 5*time.Second)
	_, err := d.ComputeRoute(context.Background(), threePoints())
	if domain.ReasonOf(err) != domain.FailureEmptyResult {
		t.Errorf("expected empty_result, got %v", err)
	}
}

func TestDirections_CorruptShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"trip": {"legs": [{"shape": "ÿÿ", "summary": {"time": 1, "length": 1}}], "summary": {"time": 1, "length": 1}}}`)
	}))
	defer srv.Close()

	d := valhalla.NewDirections(srv.URL, "pedestrian", 5*time.Second)
	_, err := d.ComputeRoute(context.Background(), threePoints())
	if domain.ReasonOf(err) != domain.FailureMalformedResponse {
		t.Errorf("expected malformed_response, got %v", err)
	}
}
