package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies a published domain event.
type EventType string

const (
	EventTypeOrderStatusChanged EventType = "order.status_changed"
	EventTypeStopCompleted      EventType = "stop.completed"
	EventTypeLocationUpdated    EventType = "location.updated"
)

// Event is the envelope written to the event stream.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// Emitted when a stop reaches a terminal status (delivered or
// skipped). The tracking hub consumes it to advance stop progress
// and recompute ETAs for subsequent stops.
type StopCompleted struct {
	RouteID     uuid.UUID       `json:"route_id"`
	StopID      uuid.UUID       `json:"stop_id"`
	OrderID     uuid.UUID       `json:"order_id"`
	StopIndex   int             `json:"stop_index"`
	Status      StopStatus      `json:"status"`
	Reason      ExceptionReason `json:"reason,omitempty"`
	CompletedAt time.Time       `json:"completed_at"`
}

// Emitted after every accepted order status transition.
type OrderStatusChanged struct {
	OrderID   uuid.UUID   `json:"order_id"`
	OldStatus OrderStatus `json:"old_status"`
	NewStatus OrderStatus `json:"new_status"`
	Timestamp time.Time   `json:"timestamp"`
}

// Emitted when a driver location sample is accepted by the hub.
type LocationUpdated struct {
	DriverID       uuid.UUID `json:"driver_id"`
	Lat            float64   `json:"lat"`
	Lng            float64   `json:"lng"`
	SequenceNumber uint64    `json:"sequence_number"`
	Timestamp      time.Time `json:"timestamp"`
}
