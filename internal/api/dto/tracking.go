package dto

import (
	"delivery-tracking-service/internal/services"
	"time"

	"github.com/google/uuid"
)

type LocationUpdateRequest struct {
	Lat            float64    `json:"lat"`
	Lng            float64    `json:"lng"`
	HeadingDegrees float64    `json:"heading_degrees"`
	SpeedMph       float64    `json:"speed_mph"`
	CapturedAt     *time.Time `json:"captured_at"`
	SequenceNumber uint64     `json:"sequence_number"`
}

type LocationResponse struct {
	Lat            float64   `json:"lat"`
	Lng            float64   `json:"lng"`
	HeadingDegrees float64   `json:"heading_degrees"`
	SpeedMph       float64   `json:"speed_mph"`
	CapturedAt     time.Time `json:"captured_at"`
	SequenceNumber uint64    `json:"sequence_number"`
}

type StopProgressResponse struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// One server-sent tracking event as seen by the customer client.
type TrackingSnapshotResponse struct {
	OrderID         uuid.UUID            `json:"order_id"`
	ConnectionState string               `json:"connection_state"`
	OrderStatus     string               `json:"order_status"`
	StopProgress    StopProgressResponse `json:"stop_progress"`
	Location        *LocationResponse    `json:"location,omitempty"`
	ETA             *services.ETARange   `json:"eta,omitempty"`
}
