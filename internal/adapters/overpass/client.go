package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"

	"github.com/nivharel/waymark/internal/core/domain"
	"github.com/nivharel/waymark/internal/pkg/geospatial"
	"github.com/nivharel/waymark/internal/pkg/metrics"
)

const providerName = "trail_index"

// routeTagFilters selects the trail relation families the trip app cares
// about: walking routes and cycling routes.
var routeTagFilters = []string{"hiking|foot", "bicycle|mtb"}

type latLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// element is one Overpass response element. Relations carry Members, ways
// fetched with `out geom` carry inline Geometry.
type element struct {
	Type     string            `json:"type"`
	ID       int64             `json:"id"`
	Tags     map[string]string `json:"tags,omitempty"`
	Members  []Member          `json:"members,omitempty"`
	Geometry []latLon          `json:"geometry,omitempty"`
}

type response struct {
	Elements []element `json:"elements"`
}

// Client implements the two-phase trail index over an Overpass endpoint.
// Search fetches relation tags only; geometry is resolved per relation in
// FetchGeometry because `out geom` over a whole search region is far too
// expensive to run for every result.
type Client struct {
	endpoint string
	client   *http.Client
}

// NewClient creates a Client for the given Overpass interpreter URL.
func NewClient(endpoint string, timeout time.Duration) *Client {
	return &Client{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// Search implements ports.TrailIndex. Returns lightweight metadata for all
// trail-tagged relations intersecting the bounding box.
func (c *Client) Search(ctx context.Context, box domain.Bounds) ([]domain.TrailSearchResult, error) {
	var b strings.Builder
	b.WriteString("[out:json][timeout:25];(")
	for _, filter := range routeTagFilters {
		fmt.Fprintf(&b, `relation["route"~"%s"](%f,%f,%f,%f);`,
			filter, box.South, box.West, box.North, box.East)
	}
	b.WriteString(");out tags;")

	body, err := c.query(ctx, b.String())
	if err != nil {
		return nil, err
	}

	results := make([]domain.TrailSearchResult, 0, len(body.Elements))
	for _, el := range body.Elements {
		if el.Type != "relation" {
			continue
		}
		results = append(results, domain.TrailSearchResult{
			ID:         el.ID,
			Name:       el.Tags["name"],
			Type:       el.Tags["route"],
			DistanceKm: parseDistanceTag(el.Tags["distance"]),
		})
	}
	return results, nil
}

// FetchGeometry implements ports.TrailIndex. Resolves one relation's way
// members to geometry. A relation with no resolvable ways produces a route
// with nil geometry, meaning "no route available" rather than an error.
func (c *Client) FetchGeometry(ctx context.Context, relationID int64) (*domain.CanonicalRoute, error) {
	start := time.Now()
	query := fmt.Sprintf("[out:json][timeout:60];relation(%d);out body;way(r);out geom;", relationID)

	body, err := c.query(ctx, query)
	outcome := "ok"
	if err != nil {
		outcome = string(domain.ReasonOf(err))
	}
	metrics.ObserveProvider(providerName, outcome, time.Since(start))
	if err != nil {
		return nil, err
	}

	var members []Member
	ways := make(map[int64]orb.LineString)
	for _, el := range body.Elements {
		switch el.Type {
		case "relation":
			if el.ID == relationID {
				members = el.Members
			}
		case "way":
			line := make(orb.LineString, 0, len(el.Geometry))
			for _, p := range el.Geometry {
				line = append(line, orb.Point{p.Lon, p.Lat})
			}
			ways[el.ID] = line
		}
	}

	fc := RelationToFeatureCollection(members, ways)
	route := &domain.CanonicalRoute{Source: domain.SourceTrailIndex}
	if len(fc.Features) > 0 {
		route.Geometry = fc.Features[0].Geometry
		route.DistanceKm = geospatial.RoundKm(geospatial.GeometryLengthKm(route.Geometry))
	}
	return route, nil
}

func (c *Client) query(ctx context.Context, query string) (*response, error) {
	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, domain.NewRouteError(domain.FailureTransport, providerName, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, domain.NewRouteError(domain.FailureTransport, providerName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewRouteError(domain.FailureTransport, providerName,
			fmt.Errorf("status %d", resp.StatusCode))
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, domain.NewRouteError(domain.FailureMalformedResponse, providerName, err)
	}
	return &body, nil
}

// parseDistanceTag reads an OSM distance tag such as "65", "65 km" or
// "65km". Unparseable values are dropped, not zeroed.
func parseDistanceTag(tag string) *float64 {
	if tag == "" {
		return nil
	}
	s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(tag), "km"))
	s = strings.ReplaceAll(s, ",", ".")
	km, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &km
}
