package valhalla

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/twpayne/go-polyline"

	"github.com/nivharel/waymark/internal/core/domain"
	"github.com/nivharel/waymark/internal/pkg/metrics"
)

const providerName = "directions"

// Valhalla encodes leg shapes as polylines with 6-digit precision.
var shapeCodec = polyline.Codec{Dim: 2, Scale: 1e6}

type location struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Type string  `json:"type"`
}

type routeRequest struct {
	Locations []location `json:"locations"`
	Costing   string     `json:"costing"`
	Units     string     `json:"units"`
}

type routeResponse struct {
	Trip struct {
		Legs []struct {
			Shape   string `json:"shape"`
			Summary struct {
				Time   float64 `json:"time"`   // seconds
				Length float64 `json:"length"` // km (units above)
			} `json:"summary"`
		} `json:"legs"`
		Summary struct {
			Time   float64 `json:"time"`
			Length float64 `json:"length"`
		} `json:"summary"`
	} `json:"trip"`
}

type errorResponse struct {
	ErrorCode int    `json:"error_code"`
	Error     string `json:"error"`
}

// Directions computes turn-by-turn walking routes against a Valhalla
// endpoint. Per-leg geometry is preserved for rendering, but the canonical
// distance and duration are always the trip aggregate.
type Directions struct {
	baseURL string
	costing string
	client  *http.Client
}

// NewDirections creates a Directions provider. costing is the Valhalla
// costing model, e.g. "pedestrian".
func NewDirections(baseURL, costing string, timeout time.Duration) *Directions {
	return &Directions{
		baseURL: strings.TrimRight(baseURL, "/"),
		costing: costing,
		client:  &http.Client{Timeout: timeout},
	}
}

// Name implements ports.RouteProvider.
func (d *Directions) Name() string { return providerName }

// ComputeRoute implements ports.RouteProvider. The first point is the
// origin, the last the destination, intermediates are ordered break stops.
func (d *Directions) ComputeRoute(ctx context.Context, req domain.RouteRequest) (*domain.CanonicalRoute, error) {
	if !req.Valid() {
		return nil, domain.NewRouteError(domain.FailureInvalidInput, providerName, domain.ErrNotEnoughPoints)
	}

	start := time.Now()
	route, err := d.computeRoute(ctx, req)
	outcome := "ok"
	if err != nil {
		outcome = string(domain.ReasonOf(err))
	}
	metrics.ObserveProvider(providerName, outcome, time.Since(start))
	return route, err
}

func (d *Directions) computeRoute(ctx context.Context, req domain.RouteRequest) (*domain.CanonicalRoute, error) {
	locs := make([]location, 0, len(req))
	for _, p := range req {
		locs = append(locs, location{Lat: p.Lat, Lon: p.Lon, Type: "break"})
	}

	payload, err := json.Marshal(routeRequest{Locations: locs, Costing: d.costing, Units: "kilometers"})
	if err != nil {
		return nil, domain.NewRouteError(domain.FailureTransport, providerName, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/route", bytes.NewReader(payload))
	if err != nil {
		return nil, domain.NewRouteError(domain.FailureTransport, providerName, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(httpReq)
	if err != nil {
		return nil, domain.NewRouteError(domain.FailureTransport, providerName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr errorResponse
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return nil, domain.NewRouteError(domain.FailureTransport, providerName,
				fmt.Errorf("code %d: %s", apiErr.ErrorCode, apiErr.Error))
		}
		return nil, domain.NewRouteError(domain.FailureTransport, providerName,
			fmt.Errorf("status %d", resp.StatusCode))
	}

	var body routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, domain.NewRouteError(domain.FailureMalformedResponse, providerName, err)
	}
	if len(body.Trip.Legs) == 0 {
		return nil, domain.NewRouteError(domain.FailureEmptyResult, providerName, nil)
	}

	legs := make([]orb.LineString, 0, len(body.Trip.Legs))
	var path orb.LineString
	for _, leg := range body.Trip.Legs {
		line, err := decodeShape(leg.Shape)
		if err != nil {
			return nil, domain.NewRouteError(domain.FailureMalformedResponse, providerName, err)
		}
		legs = append(legs, line)
		path = append(path, line...)
	}
	if len(path) == 0 {
		return nil, domain.NewRouteError(domain.FailureEmptyResult, providerName, nil)
	}

	durationMin := int(math.Round(body.Trip.Summary.Time / 60))

	return &domain.CanonicalRoute{
		Geometry:    path,
		DistanceKm:  math.Round(body.Trip.Summary.Length*100) / 100,
		DurationMin: &durationMin,
		Source:      domain.SourceDirections,
		Legs:        legs,
	}, nil
}

// decodeShape flattens one encoded leg shape to a [lon, lat] line.
func decodeShape(shape string) (orb.LineString, error) {
	if shape == "" {
		return nil, nil
	}
	coords, _, err := shapeCodec.DecodeCoords([]byte(shape))
	if err != nil {
		return nil, err
	}
	line := make(orb.LineString, 0, len(coords))
	for _, c := range coords {
		line = append(line, orb.Point{c[1], c[0]})
	}
	return line, nil
}
