package osrm

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/nivharel/waymark/internal/core/domain"
	"github.com/nivharel/waymark/internal/pkg/metrics"
)

const providerName = "multi_stop_router"

// routeResponse is the OSRM route service response.
type routeResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64           `json:"distance"` // meters
		Duration float64           `json:"duration"` // seconds
		Geometry *geojson.Geometry `json:"geometry"`
	} `json:"routes"`
}

// Router computes multi-stop walking routes against an OSRM endpoint. All
// request points are an ordered path constraint; OSRM visits them in the
// given order and never optimizes the sequence.
type Router struct {
	baseURL string
	profile string
	client  *http.Client
}

// NewRouter creates a Router. profile is the OSRM routing profile, e.g.
// "foot".
func NewRouter(baseURL, profile string, timeout time.Duration) *Router {
	return &Router{
		baseURL: strings.TrimRight(baseURL, "/"),
		profile: profile,
		client:  &http.Client{Timeout: timeout},
	}
}

// Name implements ports.RouteProvider.
func (r *Router) Name() string { return providerName }

// ComputeRoute implements ports.RouteProvider. Distance is returned in km
// rounded to 2 decimals, duration in whole minutes.
func (r *Router) ComputeRoute(ctx context.Context, req domain.RouteRequest) (*domain.CanonicalRoute, error) {
	if !req.Valid() {
		return nil, domain.NewRouteError(domain.FailureInvalidInput, providerName, domain.ErrNotEnoughPoints)
	}

	start := time.Now()
	route, err := r.computeRoute(ctx, req)
	outcome := "ok"
	if err != nil {
		outcome = string(domain.ReasonOf(err))
	}
	metrics.ObserveProvider(providerName, outcome, time.Since(start))
	return route, err
}

func (r *Router) computeRoute(ctx context.Context, req domain.RouteRequest) (*domain.CanonicalRoute, error) {
	coords := make([]string, 0, len(req))
	for _, p := range req {
		coords = append(coords,
			strconv.FormatFloat(p.Lon, 'f', 6, 64)+","+strconv.FormatFloat(p.Lat, 'f', 6, 64))
	}

	url := fmt.Sprintf("%s/route/v1/%s/%s?overview=full&geometries=geojson&steps=true",
		r.baseURL, r.profile, strings.Join(coords, ";"))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, domain.NewRouteError(domain.FailureTransport, providerName, err)
	}

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, domain.NewRouteError(domain.FailureTransport, providerName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewRouteError(domain.FailureTransport, providerName,
			fmt.Errorf("status %d", resp.StatusCode))
	}

	var body routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, domain.NewRouteError(domain.FailureMalformedResponse, providerName, err)
	}

	if body.Code != "Ok" {
		return nil, domain.NewRouteError(domain.FailureTransport, providerName,
			fmt.Errorf("router code %q", body.Code))
	}
	if len(body.Routes) == 0 || body.Routes[0].Geometry == nil {
		return nil, domain.NewRouteError(domain.FailureEmptyResult, providerName, nil)
	}

	best := body.Routes[0]
	durationMin := int(math.Round(best.Duration / 60))

	return &domain.CanonicalRoute{
		Geometry:    best.Geometry.Geometry(),
		DistanceKm:  math.Round(best.Distance/10) / 100,
		DurationMin: &durationMin,
		Source:      domain.SourceRouter,
	}, nil
}
