package services

import (
	"delivery-tracking-service/internal/domain"
	"time"
)

// Events accepted by the stop status machine. Forward events follow
// pending -> enroute -> arrived -> delivered; skip is legal from
// pending, enroute, or arrived, never from delivered.
type StopEvent string

const (
	StopEventDepart  StopEvent = "depart"
	StopEventArrive  StopEvent = "arrive"
	StopEventDeliver StopEvent = "deliver"
	StopEventSkip    StopEvent = "skip"
)

var stopEventTarget = map[StopEvent]domain.StopStatus{
	StopEventDepart:  domain.StopStatusEnroute,
	StopEventArrive:  domain.StopStatusArrived,
	StopEventDeliver: domain.StopStatusDelivered,
	StopEventSkip:    domain.StopStatusSkipped,
}

var stopForwardEdge = map[domain.StopStatus]domain.StopStatus{
	domain.StopStatusPending: domain.StopStatusEnroute,
	domain.StopStatusEnroute: domain.StopStatusArrived,
	domain.StopStatusArrived: domain.StopStatusDelivered,
}

// TransitionStop validates and applies a per-stop delivery
// transition, returning the updated stop value. The input stop is
// never mutated.
//
// Skipping requires an attached exception with a known reason. On a
// successful transition to a terminal status the returned
// StopCompleted event is non-nil; the caller feeds it to the
// tracking hub and the event stream. Re-applying an event whose
// target the stop already reached is a no-op success with no event,
// so at-least-once delivery cannot double-publish.
//
// The machine is single-stop scoped: the one-enroute-per-route
// invariant is enforced by the caller via Route.ReadyForEnroute.
func TransitionStop(s domain.Stop, ev StopEvent, exc *domain.Exception, now time.Time) (domain.Stop, *domain.StopCompleted, error) {
	target, ok := stopEventTarget[ev]
	if !ok {
		return s, nil, illegalTransition(string(s.Status), string(ev))
	}

	// Idempotent re-application.
	if s.Status == target {
		return s, nil, nil
	}

	if ev == StopEventSkip {
		switch s.Status {
		case domain.StopStatusPending, domain.StopStatusEnroute, domain.StopStatusArrived:
		default:
			return s, nil, illegalTransition(string(s.Status), string(ev))
		}
		if exc == nil || !exc.Reason.Known() {
			return s, nil, &TransitionError{
				From:   string(s.Status),
				Event:  string(ev),
				Reason: ReasonMissingException,
			}
		}
		e := *exc
		s.Status = domain.StopStatusSkipped
		s.Exception = &e
		return s, completion(s, now), nil
	}

	if stopForwardEdge[s.Status] != target {
		return s, nil, illegalTransition(string(s.Status), string(ev))
	}

	s.Status = target
	if target == domain.StopStatusDelivered {
		return s, completion(s, now), nil
	}
	return s, nil, nil
}

func completion(s domain.Stop, now time.Time) *domain.StopCompleted {
	ev := &domain.StopCompleted{
		RouteID:     s.RouteID,
		StopID:      s.ID,
		OrderID:     s.OrderID,
		StopIndex:   s.StopIndex,
		Status:      s.Status,
		CompletedAt: now,
	}
	if s.Exception != nil {
		ev.Reason = s.Exception.Reason
	}
	return ev
}
