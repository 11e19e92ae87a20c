package ports

import (
	"context"
	"delivery-tracking-service/internal/domain"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Durable storage for orders. The state machines operate on
// in-memory values and return new ones; persisting the result is
// the caller's concern, which keeps the machines synchronously
// testable without a database.
type OrderRepository interface {
	GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	SaveOrder(ctx context.Context, o *domain.Order) error
}

// Durable storage for routes and their stops.
type RouteRepository interface {
	GetRoute(ctx context.Context, id uuid.UUID) (*domain.Route, error)
	// GetRouteByOrder returns the route containing a stop for the
	// given order, or ErrNotFound.
	GetRouteByOrder(ctx context.Context, orderID uuid.UUID) (*domain.Route, error)
	SaveRoute(ctx context.Context, r *domain.Route) error
}
