package domain

import (
	"time"

	"github.com/google/uuid"
)

// Lifecycle status of a customer order.
type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusConfirmed      OrderStatus = "confirmed"
	OrderStatusPreparing      OrderStatus = "preparing"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// Terminal reports whether no further transitions are possible.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// The immutable scheduled delivery window chosen at checkout.
type DeliveryWindow struct {
	Start time.Time
	End   time.Time
}

// Delivery address as resolved at checkout. Coords is nil when
// upstream geocoding failed and only the free text survived.
type Address struct {
	Text   string
	Coords *Coordinates
}

// Represents a scheduled-delivery order.
//
// Timestamps are set once when the corresponding status is first
// reached and never cleared; DeliveredAt being non-nil implies
// Status == delivered. All mutation goes through the order status
// machine, which returns new values rather than mutating in place.
type Order struct {
	ID          uuid.UUID
	CustomerID  uuid.UUID
	Status      OrderStatus
	PlacedAt    time.Time
	ConfirmedAt *time.Time
	DeliveredAt *time.Time
	Window      DeliveryWindow
	Address     Address
}
