package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Aggregate status of a driver's delivery run.
type RouteStatus string

const (
	RouteStatusPlanned    RouteStatus = "planned"
	RouteStatusInProgress RouteStatus = "in_progress"
	RouteStatusCompleted  RouteStatus = "completed"
)

// Per-stop delivery status.
type StopStatus string

const (
	StopStatusPending   StopStatus = "pending"
	StopStatusEnroute   StopStatus = "enroute"
	StopStatusArrived   StopStatus = "arrived"
	StopStatusDelivered StopStatus = "delivered"
	StopStatusSkipped   StopStatus = "skipped"
)

// Terminal reports whether the stop can no longer change status.
func (s StopStatus) Terminal() bool {
	return s == StopStatusDelivered || s == StopStatusSkipped
}

// Closed set of reasons a driver may report when a delivery cannot
// complete.
type ExceptionReason string

const (
	ExceptionCustomerNotHome ExceptionReason = "customer_not_home"
	ExceptionWrongAddress    ExceptionReason = "wrong_address"
	ExceptionAccessIssue     ExceptionReason = "access_issue"
	ExceptionRefusedDelivery ExceptionReason = "refused_delivery"
	ExceptionDamagedOrder    ExceptionReason = "damaged_order"
	ExceptionOther           ExceptionReason = "other"
)

// Known reports whether the reason belongs to the closed set.
func (r ExceptionReason) Known() bool {
	switch r {
	case ExceptionCustomerNotHome, ExceptionWrongAddress, ExceptionAccessIssue,
		ExceptionRefusedDelivery, ExceptionDamagedOrder, ExceptionOther:
		return true
	}
	return false
}

// Exception records why a stop could not be delivered. Immutable
// once created except for the Resolved flag, settable by support.
type Exception struct {
	Reason   ExceptionReason
	Note     string
	Resolved bool
}

// Represents one delivery destination within a route.
//
// StopIndex is the 1-based visiting position. ETA is advisory and
// may be stale; consumers must treat it as "last known", never as
// authoritative truth about arrival.
type Stop struct {
	ID          uuid.UUID
	RouteID     uuid.UUID
	OrderID     uuid.UUID
	StopIndex   int
	Status      StopStatus
	Destination Coordinates
	ETA         *time.Time
	Exception   *Exception
}

// Represents the ordered set of stops a single driver covers in one
// delivery run. A route is owned by exactly one driver for its
// lifetime. At most one stop may be enroute at a time, and stops
// before the active index must be terminal.
type Route struct {
	ID       uuid.UUID
	DriverID uuid.UUID
	Status   RouteStatus
	Stops    []Stop
}

// EnrouteStop returns the currently active stop, or nil.
func (r *Route) EnrouteStop() *Stop {
	for i := range r.Stops {
		if r.Stops[i].Status == StopStatusEnroute {
			return &r.Stops[i]
		}
	}
	return nil
}

// StopByIndex returns the stop at the given 1-based index, or nil.
func (r *Route) StopByIndex(idx int) *Stop {
	for i := range r.Stops {
		if r.Stops[i].StopIndex == idx {
			return &r.Stops[i]
		}
	}
	return nil
}

// StopByOrder returns the stop delivering the given order, or nil.
func (r *Route) StopByOrder(orderID uuid.UUID) *Stop {
	for i := range r.Stops {
		if r.Stops[i].OrderID == orderID {
			return &r.Stops[i]
		}
	}
	return nil
}

// CompletedStops counts stops in a terminal status.
func (r *Route) CompletedStops() int {
	n := 0
	for i := range r.Stops {
		if r.Stops[i].Status.Terminal() {
			n++
		}
	}
	return n
}

// ReadyForEnroute checks the route-level invariant before a stop may
// advance to enroute: no other stop enroute, and every stop earlier
// in visiting order already terminal. The stop machine itself is
// single-stop scoped, so this guard lives with the route.
func (r *Route) ReadyForEnroute(idx int) error {
	if active := r.EnrouteStop(); active != nil && active.StopIndex != idx {
		return fmt.Errorf("route %s: stop %d is already enroute", r.ID, active.StopIndex)
	}
	for i := range r.Stops {
		s := &r.Stops[i]
		if s.StopIndex < idx && !s.Status.Terminal() {
			return fmt.Errorf("route %s: stop %d has not completed yet", r.ID, s.StopIndex)
		}
	}
	return nil
}
