package dto

import (
	"time"

	"github.com/google/uuid"
)

type AddressRequest struct {
	Text string   `json:"text"`
	Lat  *float64 `json:"lat"`
	Lng  *float64 `json:"lng"`
}

type CreateOrderRequest struct {
	CustomerID  uuid.UUID      `json:"customer_id"`
	Address     AddressRequest `json:"address"`
	WindowStart time.Time      `json:"window_start"`
	WindowEnd   time.Time      `json:"window_end"`
}

type TransitionOrderRequest struct {
	Event string `json:"event"`
}

type OrderResponse struct {
	ID          uuid.UUID  `json:"id"`
	CustomerID  uuid.UUID  `json:"customer_id"`
	Status      string     `json:"status"`
	PlacedAt    time.Time  `json:"placed_at"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	WindowStart time.Time  `json:"window_start"`
	WindowEnd   time.Time  `json:"window_end"`
	AddressText string     `json:"address_text"`
}
