package services

import (
	"delivery-tracking-service/internal/domain"
	"time"
)

// Events accepted by the order status machine. Forward events map
// 1:1 to the edges pending -> confirmed -> preparing ->
// out_for_delivery -> delivered; cancel is legal from any
// non-terminal state.
type OrderEvent string

const (
	OrderEventConfirm        OrderEvent = "confirm"
	OrderEventStartPreparing OrderEvent = "start_preparing"
	OrderEventDispatch       OrderEvent = "dispatch"
	OrderEventDeliver        OrderEvent = "deliver"
	OrderEventCancel         OrderEvent = "cancel"
)

var orderEventTarget = map[OrderEvent]domain.OrderStatus{
	OrderEventConfirm:        domain.OrderStatusConfirmed,
	OrderEventStartPreparing: domain.OrderStatusPreparing,
	OrderEventDispatch:       domain.OrderStatusOutForDelivery,
	OrderEventDeliver:        domain.OrderStatusDelivered,
	OrderEventCancel:         domain.OrderStatusCancelled,
}

var orderForwardEdge = map[domain.OrderStatus]domain.OrderStatus{
	domain.OrderStatusPending:        domain.OrderStatusConfirmed,
	domain.OrderStatusConfirmed:      domain.OrderStatusPreparing,
	domain.OrderStatusPreparing:      domain.OrderStatusOutForDelivery,
	domain.OrderStatusOutForDelivery: domain.OrderStatusDelivered,
}

// TransitionOrder validates and applies an order-level status
// transition, returning the updated order value. The input order is
// never mutated.
//
// Re-applying an event whose target state the order is already in is
// a no-op success, not an error: upstream events are delivered
// at-least-once, and timestamps are set only on the first
// application.
//
// The deliver event additionally requires the order's route stop
// (passed by the caller) to already be delivered. An order can never
// be marked delivered before its stop is.
func TransitionOrder(o domain.Order, ev OrderEvent, stop *domain.Stop, now time.Time) (domain.Order, error) {
	target, ok := orderEventTarget[ev]
	if !ok {
		return o, illegalTransition(string(o.Status), string(ev))
	}

	// Idempotent re-application.
	if o.Status == target {
		return o, nil
	}

	if ev == OrderEventCancel {
		if o.Status.Terminal() {
			return o, illegalTransition(string(o.Status), string(ev))
		}
		o.Status = domain.OrderStatusCancelled
		return o, nil
	}

	if orderForwardEdge[o.Status] != target {
		return o, illegalTransition(string(o.Status), string(ev))
	}

	if ev == OrderEventDeliver {
		if stop == nil || stop.Status != domain.StopStatusDelivered {
			return o, &TransitionError{
				From:   string(o.Status),
				Event:  string(ev),
				Reason: ReasonStopNotDelivered,
			}
		}
	}

	o.Status = target

	switch target {
	case domain.OrderStatusConfirmed:
		if o.ConfirmedAt == nil {
			t := now
			o.ConfirmedAt = &t
		}
	case domain.OrderStatusDelivered:
		if o.DeliveredAt == nil {
			t := now
			o.DeliveredAt = &t
		}
	}

	return o, nil
}
