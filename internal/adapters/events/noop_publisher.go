package events

import (
	"context"
	"delivery-tracking-service/internal/domain"
)

// NoopPublisher satisfies the publisher port when no broker is
// configured (local runs, tests).
type NoopPublisher struct{}

func (NoopPublisher) PublishOrderStatusChanged(ctx context.Context, ev domain.OrderStatusChanged) error {
	return nil
}

func (NoopPublisher) PublishStopCompleted(ctx context.Context, ev domain.StopCompleted) error {
	return nil
}

func (NoopPublisher) PublishLocationUpdated(ctx context.Context, ev domain.LocationUpdated) error {
	return nil
}

func (NoopPublisher) Close() error { return nil }
