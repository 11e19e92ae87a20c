package services

import "fmt"

// Why a transition was rejected.
const (
	ReasonIllegalTransition = "illegal_transition"
	ReasonMissingException  = "missing_exception"
	ReasonStopNotDelivered  = "stop_not_delivered"
)

// TransitionError reports a rejected state change. It is always
// recoverable: the caller surfaces it as a rejected action and the
// input value is left unmodified.
type TransitionError struct {
	From   string
	Event  string
	Reason string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transition %q from state %q rejected: %s", e.Event, e.From, e.Reason)
}

func illegalTransition(from, event string) *TransitionError {
	return &TransitionError{From: from, Event: event, Reason: ReasonIllegalTransition}
}

// ValidationError reports malformed input rejected before any state
// mutation.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}
