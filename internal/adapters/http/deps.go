package http

import (
	"github.com/nats-io/nats.go"

	"github.com/nivharel/waymark/internal/adapters/valkey"
	"github.com/nivharel/waymark/internal/core/ports"
	"github.com/nivharel/waymark/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Waypoints  *usecases.WaypointService
	Composer   *usecases.CompositionService
	Trails     *usecases.TrailService
	Tracks     *usecases.TrackService
	Metrics    *usecases.RouteMetricsService
	Directions ports.RouteProvider
	NATS       *nats.Conn
	Cache      *valkey.Cache
}
