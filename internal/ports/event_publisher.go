package ports

import (
	"context"
	"delivery-tracking-service/internal/domain"
)

// Publishes domain events to the event stream. Publishing is best
// effort from the hub's point of view: a broker outage must never
// stall the ingest path.
type EventPublisher interface {
	PublishOrderStatusChanged(ctx context.Context, ev domain.OrderStatusChanged) error
	PublishStopCompleted(ctx context.Context, ev domain.StopCompleted) error
	PublishLocationUpdated(ctx context.Context, ev domain.LocationUpdated) error
	Close() error
}
