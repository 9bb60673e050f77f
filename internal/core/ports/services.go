package ports

import (
	"context"

	"github.com/nivharel/waymark/internal/core/domain"
)

// EventPublisher publishes route lifecycle events to a message broker so
// presentation collaborators can refresh overlays without polling.
type EventPublisher interface {
	PublishRouteUpdated(ctx context.Context, tripID string, route *domain.CanonicalRoute) error
	PublishRouteCleared(ctx context.Context, tripID string) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
