package services

import (
	"delivery-tracking-service/internal/domain"
	"errors"
	"testing"
	"time"
)

func orderIn(status domain.OrderStatus) domain.Order {
	return domain.Order{Status: status, PlacedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func deliveredStop() *domain.Stop {
	return &domain.Stop{Status: domain.StopStatusDelivered}
}

func TestTransitionOrderLegalPath(t *testing.T) {
	now := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)

	cases := []struct {
		from  domain.OrderStatus
		event OrderEvent
		want  domain.OrderStatus
	}{
		{domain.OrderStatusPending, OrderEventConfirm, domain.OrderStatusConfirmed},
		{domain.OrderStatusConfirmed, OrderEventStartPreparing, domain.OrderStatusPreparing},
		{domain.OrderStatusPreparing, OrderEventDispatch, domain.OrderStatusOutForDelivery},
		{domain.OrderStatusOutForDelivery, OrderEventDeliver, domain.OrderStatusDelivered},
		{domain.OrderStatusPending, OrderEventCancel, domain.OrderStatusCancelled},
		{domain.OrderStatusConfirmed, OrderEventCancel, domain.OrderStatusCancelled},
		{domain.OrderStatusPreparing, OrderEventCancel, domain.OrderStatusCancelled},
		{domain.OrderStatusOutForDelivery, OrderEventCancel, domain.OrderStatusCancelled},
	}

	for _, tc := range cases {
		got, err := TransitionOrder(orderIn(tc.from), tc.event, deliveredStop(), now)
		if err != nil {
			t.Fatalf("%s + %s: unexpected error: %v", tc.from, tc.event, err)
		}
		if got.Status != tc.want {
			t.Fatalf("%s + %s: status = %s, want %s", tc.from, tc.event, got.Status, tc.want)
		}
	}
}

func TestTransitionOrderIllegalPairs(t *testing.T) {
	now := time.Now()

	cases := []struct {
		from  domain.OrderStatus
		event OrderEvent
	}{
		{domain.OrderStatusPending, OrderEventStartPreparing},
		{domain.OrderStatusPending, OrderEventDispatch},
		{domain.OrderStatusPending, OrderEventDeliver},
		{domain.OrderStatusConfirmed, OrderEventDispatch},
		{domain.OrderStatusConfirmed, OrderEventDeliver},
		{domain.OrderStatusPreparing, OrderEventConfirm},
		{domain.OrderStatusPreparing, OrderEventDeliver},
		{domain.OrderStatusOutForDelivery, OrderEventConfirm},
		{domain.OrderStatusOutForDelivery, OrderEventStartPreparing},
		{domain.OrderStatusDelivered, OrderEventConfirm},
		{domain.OrderStatusDelivered, OrderEventCancel},
		{domain.OrderStatusCancelled, OrderEventConfirm},
		{domain.OrderStatusCancelled, OrderEventDeliver},
	}

	for _, tc := range cases {
		in := orderIn(tc.from)
		got, err := TransitionOrder(in, tc.event, deliveredStop(), now)

		var terr *TransitionError
		if !errors.As(err, &terr) {
			t.Fatalf("%s + %s: err = %v, want TransitionError", tc.from, tc.event, err)
		}
		if terr.Reason != ReasonIllegalTransition {
			t.Fatalf("%s + %s: reason = %s, want %s", tc.from, tc.event, terr.Reason, ReasonIllegalTransition)
		}
		if got.Status != in.Status {
			t.Fatalf("%s + %s: input modified on failure", tc.from, tc.event)
		}
	}
}

func TestTransitionOrderConfirmIdempotent(t *testing.T) {
	now := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)
	later := now.Add(5 * time.Minute)

	first, err := TransitionOrder(orderIn(domain.OrderStatusPending), OrderEventConfirm, nil, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.ConfirmedAt == nil || !first.ConfirmedAt.Equal(now) {
		t.Fatalf("ConfirmedAt = %v, want %v", first.ConfirmedAt, now)
	}

	second, err := TransitionOrder(first, OrderEventConfirm, nil, later)
	if err != nil {
		t.Fatalf("re-applying confirm: unexpected error: %v", err)
	}
	if second.Status != domain.OrderStatusConfirmed {
		t.Fatalf("status = %s, want confirmed", second.Status)
	}
	// Timestamp must be set only on the first application.
	if !second.ConfirmedAt.Equal(now) {
		t.Fatalf("ConfirmedAt moved to %v on re-application", second.ConfirmedAt)
	}
}

func TestTransitionOrderDeliverIdempotent(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	later := now.Add(time.Minute)

	first, err := TransitionOrder(orderIn(domain.OrderStatusOutForDelivery), OrderEventDeliver, deliveredStop(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.DeliveredAt == nil || !first.DeliveredAt.Equal(now) {
		t.Fatalf("DeliveredAt = %v, want %v", first.DeliveredAt, now)
	}

	second, err := TransitionOrder(first, OrderEventDeliver, deliveredStop(), later)
	if err != nil {
		t.Fatalf("re-applying deliver: unexpected error: %v", err)
	}
	if !second.DeliveredAt.Equal(now) {
		t.Fatalf("DeliveredAt moved to %v on re-application", second.DeliveredAt)
	}
}

func TestTransitionOrderDeliverRequiresDeliveredStop(t *testing.T) {
	now := time.Now()

	for _, stop := range []*domain.Stop{
		nil,
		{Status: domain.StopStatusPending},
		{Status: domain.StopStatusEnroute},
		{Status: domain.StopStatusArrived},
		{Status: domain.StopStatusSkipped},
	} {
		in := orderIn(domain.OrderStatusOutForDelivery)
		got, err := TransitionOrder(in, OrderEventDeliver, stop, now)

		var terr *TransitionError
		if !errors.As(err, &terr) || terr.Reason != ReasonStopNotDelivered {
			t.Fatalf("stop=%v: err = %v, want stop_not_delivered", stop, err)
		}
		if got.Status != domain.OrderStatusOutForDelivery || got.DeliveredAt != nil {
			t.Fatalf("stop=%v: input modified on failure", stop)
		}
	}
}

func TestOrderLifecycleScenario(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	o := orderIn(domain.OrderStatusPending)
	stop := &domain.Stop{Status: domain.StopStatusEnroute}

	var err error
	for _, ev := range []OrderEvent{OrderEventConfirm, OrderEventStartPreparing, OrderEventDispatch} {
		o, err = TransitionOrder(o, ev, nil, now)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", ev, err)
		}
	}

	// Marking the order delivered before its stop fails.
	if _, err := TransitionOrder(o, OrderEventDeliver, stop, now); err == nil {
		t.Fatal("deliver before stop delivered should fail")
	}

	stop.Status = domain.StopStatusDelivered
	o, err = TransitionOrder(o, OrderEventDeliver, stop, now)
	if err != nil {
		t.Fatalf("deliver after stop delivered: unexpected error: %v", err)
	}
	if o.Status != domain.OrderStatusDelivered || o.DeliveredAt == nil {
		t.Fatalf("order = %+v, want delivered with timestamp", o)
	}
}
