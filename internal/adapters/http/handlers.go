package http

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/nivharel/waymark/internal/core/domain"
)

// waypointRequest is the mutation body for waypoint create/update.
type waypointRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Location    domain.GeoPoint `json:"location"`
}

// anchorRequest is the body for setting a trip's anchor point.
type anchorRequest struct {
	Name     string          `json:"name,omitempty"`
	Location domain.GeoPoint `json:"location"`
}

// ListWaypointsHandler returns the trip's waypoints sorted by order.
func ListWaypointsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		wps, err := deps.Waypoints.List(c.Context(), c.Params("id"))
		if err != nil {
			return errInternal(c, err.Error())
		}
		if wps == nil {
			wps = []domain.Waypoint{}
		}
		return c.JSON(wps)
	}
}

// AddWaypointHandler appends a waypoint and refreshes the trip's route.
func AddWaypointHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body waypointRequest
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}

		tripID := c.Params("id")
		wp, err := deps.Waypoints.Add(c.Context(), tripID, domain.Waypoint{
			Name:        body.Name,
			Description: body.Description,
			Location:    body.Location,
		})
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		recompute(c, deps, tripID)
		return c.Status(201).JSON(wp)
	}
}

// UpdateWaypointHandler edits the waypoint at a position. Position-neutral
// edits (name, description) leave the dedup key unchanged, so the refresh
// below issues no provider call for them.
func UpdateWaypointHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		index, err := strconv.Atoi(c.Params("index"))
		if err != nil {
			return errBadRequest(c, "waypoint index must be an integer")
		}

		var body waypointRequest
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}

		tripID := c.Params("id")
		wp, err := deps.Waypoints.Update(c.Context(), tripID, index, domain.Waypoint{
			Name:        body.Name,
			Description: body.Description,
			Location:    body.Location,
		})
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		recompute(c, deps, tripID)
		return c.JSON(wp)
	}
}

// RemoveWaypointHandler deletes the waypoint at a position; survivors are
// renumbered and the route is refreshed (or cleared below 2 points).
func RemoveWaypointHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		index, err := strconv.Atoi(c.Params("index"))
		if err != nil {
			return errBadRequest(c, "waypoint index must be an integer")
		}

		tripID := c.Params("id")
		if err := deps.Waypoints.Remove(c.Context(), tripID, index); err != nil {
			return errBadRequest(c, err.Error())
		}

		recompute(c, deps, tripID)
		return c.SendStatus(204)
	}
}

// ReorderWaypointsHandler rewrites the waypoint sequence.
func ReorderWaypointsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			IDs []string `json:"ids"`
		}
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}

		tripID := c.Params("id")
		if err := deps.Waypoints.Reorder(c.Context(), tripID, body.IDs); err != nil {
			return errBadRequest(c, err.Error())
		}

		recompute(c, deps, tripID)
		wps, err := deps.Waypoints.List(c.Context(), tripID)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(wps)
	}
}

// SetAnchorHandler sets the trip's fixed starting point.
func SetAnchorHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body anchorRequest
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}

		tripID := c.Params("id")
		anchor := &domain.AnchorPoint{Name: body.Name, Location: body.Location}
		if err := deps.Waypoints.SetAnchor(c.Context(), tripID, anchor); err != nil {
			return errInternal(c, err.Error())
		}

		recompute(c, deps, tripID)
		return c.JSON(anchor)
	}
}

// ClearAnchorHandler removes the trip's anchor point.
func ClearAnchorHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tripID := c.Params("id")
		if err := deps.Waypoints.SetAnchor(c.Context(), tripID, nil); err != nil {
			return errInternal(c, err.Error())
		}
		recompute(c, deps, tripID)
		return c.SendStatus(204)
	}
}

// GetRouteHandler returns the trip's current canonical route.
func GetRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		route := deps.Composer.Current(c.Params("id"))
		if route == nil {
			return errNotFound(c, "no route computed for this trip")
		}
		return c.JSON(route)
	}
}

// RecomputeRouteHandler forces a refresh of the trip's route.
func RecomputeRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		route, err := deps.Composer.Recompute(c.Context(), c.Params("id"))
		if err != nil {
			return routeError(c, err, route)
		}
		return c.JSON(route)
	}
}

// GetDirectionsHandler computes turn-by-turn directions for the trip's
// current point set. Unlike the composed route this is not memoized: the
// per-leg geometry is rendering detail, recomputed on demand.
func GetDirectionsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Directions == nil {
			return errNotFound(c, "no directions provider configured")
		}

		req, err := deps.Waypoints.BuildRequest(c.Context(), c.Params("id"))
		if err != nil {
			return errInternal(c, err.Error())
		}
		if !req.Valid() {
			return errBadRequest(c, "a route needs at least 2 points")
		}

		route, err := deps.Directions.ComputeRoute(c.Context(), req)
		if err != nil {
			return routeError(c, err, nil)
		}
		return c.JSON(route)
	}
}

// RouteMetricsHandler returns derived metrics for the current route.
func RouteMetricsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		route := deps.Composer.Current(c.Params("id"))
		if route == nil {
			return errNotFound(c, "no route computed for this trip")
		}
		return c.JSON(deps.Metrics.FromRoute(route))
	}
}

// SearchTrailsHandler searches the trail index either by bounding box
// (south/west/north/east) or around a center (lat/lon/radius).
func SearchTrailsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var (
			results []domain.TrailSearchResult
			err     error
		)
		if c.Query("lat") != "" {
			lat := c.QueryFloat("lat")
			lon := c.QueryFloat("lon")
			radius := c.QueryFloat("radius", 5000)
			results, err = deps.Trails.SearchNear(c.Context(), lat, lon, radius)
		} else {
			box := domain.Bounds{
				South: c.QueryFloat("south"),
				West:  c.QueryFloat("west"),
				North: c.QueryFloat("north"),
				East:  c.QueryFloat("east"),
			}
			results, err = deps.Trails.Search(c.Context(), box)
		}
		if err != nil {
			return trailError(c, err)
		}
		if results == nil {
			results = []domain.TrailSearchResult{}
		}
		return c.JSON(results)
	}
}

// TrailGeometryHandler fetches the full geometry of one trail relation.
func TrailGeometryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		relationID, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil {
			return errBadRequest(c, "trail ID must be an integer")
		}

		route, err := deps.Trails.Geometry(c.Context(), relationID)
		if err != nil {
			return trailError(c, err)
		}
		if route.Geometry == nil {
			return errNotFound(c, "trail has no resolvable geometry")
		}
		return c.JSON(route)
	}
}

// ApplyTrailHandler installs a trail relation's geometry as the trip's route.
func ApplyTrailHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			RelationID int64 `json:"relation_id"`
		}
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}

		route, err := deps.Trails.Geometry(c.Context(), body.RelationID)
		if err != nil {
			return trailError(c, err)
		}
		if route.Geometry == nil {
			return errNotFound(c, "trail has no resolvable geometry")
		}

		deps.Composer.Apply(c.Context(), c.Params("id"), route)
		return c.JSON(route)
	}
}

// importResponse pairs an applied route with its derived metrics.
type importResponse struct {
	Route   *domain.CanonicalRoute `json:"route"`
	Metrics *domain.RouteMetrics   `json:"metrics"`
}

// ImportTrackHandler imports a GPX file (multipart field "file") or a
// remote URL (JSON {"url": ...}) and installs it as the trip's route.
func ImportTrackHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tripID := c.Params("id")

		var (
			route   *domain.CanonicalRoute
			metrics *domain.RouteMetrics
			err     error
		)

		if file, ferr := c.FormFile("file"); ferr == nil {
			f, oerr := file.Open()
			if oerr != nil {
				return errBadRequest(c, "unable to read uploaded file")
			}
			defer f.Close()
			route, metrics, err = deps.Tracks.ImportFile(c.Context(), f)
		} else {
			var body struct {
				URL string `json:"url"`
			}
			if perr := c.BodyParser(&body); perr != nil || body.URL == "" {
				return errBadRequest(c, "provide a multipart \"file\" or a JSON \"url\"")
			}
			route, metrics, err = deps.Tracks.ImportURL(c.Context(), body.URL)
		}

		if err != nil {
			switch domain.ReasonOf(err) {
			case domain.FailureInvalidInput:
				return errBadRequest(c, err.Error())
			case domain.FailureTransport:
				return errUpstream(c, err.Error())
			default:
				return errInternal(c, err.Error())
			}
		}

		deps.Composer.Apply(c.Context(), tripID, route)
		return c.Status(201).JSON(importResponse{Route: route, Metrics: metrics})
	}
}

// recompute refreshes a trip's route after a waypoint mutation. Failures
// are non-fatal here: the mutation already succeeded and a transient
// provider error must not fail it, so composition errors only surface
// through the route endpoints and the event stream.
func recompute(c *fiber.Ctx, deps *Dependencies, tripID string) {
	_, _ = deps.Composer.Recompute(c.Context(), tripID)
}

// routeError maps a composition failure to a response. A retained prior
// route accompanies transport failures so clients can keep rendering it.
func routeError(c *fiber.Ctx, err error, retained *domain.CanonicalRoute) error {
	switch domain.ReasonOf(err) {
	case domain.FailureInvalidInput:
		if errors.Is(err, domain.ErrNotEnoughPoints) {
			return errBadRequest(c, "a route needs at least 2 points")
		}
		return errBadRequest(c, err.Error())
	case domain.FailureStale:
		// Superseded mid-flight; the newest result is already held.
		if retained != nil {
			return c.JSON(retained)
		}
		return errNotFound(c, "no route computed for this trip")
	case domain.FailureTransport, domain.FailureMalformedResponse, domain.FailureEmptyResult:
		return errUpstream(c, err.Error())
	default:
		return errInternal(c, err.Error())
	}
}

// trailError maps a trail index failure to a response.
func trailError(c *fiber.Ctx, err error) error {
	switch domain.ReasonOf(err) {
	case domain.FailureTransport, domain.FailureMalformedResponse:
		return errUpstream(c, err.Error())
	case "":
		return errBadRequest(c, err.Error())
	default:
		return errInternal(c, err.Error())
	}
}
