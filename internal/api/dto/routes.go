package dto

import (
	"time"

	"github.com/google/uuid"
)

type PlanRouteRequest struct {
	DriverID uuid.UUID   `json:"driver_id"`
	OrderIDs []uuid.UUID `json:"order_ids"`
	DepartAt *time.Time  `json:"depart_at"`
}

type ExceptionRequest struct {
	Reason string `json:"reason"`
	Note   string `json:"note"`
}

type StopTransitionRequest struct {
	Event     string            `json:"event"`
	Exception *ExceptionRequest `json:"exception,omitempty"`
}

type StopResponse struct {
	ID        uuid.UUID  `json:"id"`
	OrderID   uuid.UUID  `json:"order_id"`
	StopIndex int        `json:"stop_index"`
	Status    string     `json:"status"`
	ETA       *time.Time `json:"eta,omitempty"`
}

type RouteResponse struct {
	ID       uuid.UUID      `json:"id"`
	DriverID uuid.UUID      `json:"driver_id"`
	Status   string         `json:"status"`
	Stops    []StopResponse `json:"stops"`
}
