package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/nivharel/waymark/internal/core/domain"
)

// routeEvent is the wire shape of a route lifecycle event.
type routeEvent struct {
	TripID string                 `json:"trip_id"`
	Event  string                 `json:"event"` // "updated" | "cleared"
	Route  *domain.CanonicalRoute `json:"route,omitempty"`
}

// Publisher implements ports.EventPublisher using NATS JetStream. Route
// events drive the WebSocket relay so map overlays refresh without
// polling.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and ensures the route event stream exists.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := nats.StreamConfig{
		Name:      "ROUTE_EVENTS",
		Subjects:  []string{"routes.>"},
		Retention: nats.InterestPolicy,
		MaxAge:    1 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(&cfg); err != nil {
		// Stream may already exist — try update
		if _, err := js.UpdateStream(&cfg); err != nil {
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishRouteUpdated announces a freshly applied canonical route.
func (p *Publisher) PublishRouteUpdated(ctx context.Context, tripID string, route *domain.CanonicalRoute) error {
	data, err := json.Marshal(routeEvent{TripID: tripID, Event: "updated", Route: route})
	if err != nil {
		return err
	}
	_, err = p.js.Publish("routes.updated."+tripID, data)
	return err
}

// PublishRouteCleared announces that a trip no longer has a route.
func (p *Publisher) PublishRouteCleared(ctx context.Context, tripID string) error {
	data, err := json.Marshal(routeEvent{TripID: tripID, Event: "cleared"})
	if err != nil {
		return err
	}
	_, err = p.js.Publish("routes.cleared."+tripID, data)
	return err
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
