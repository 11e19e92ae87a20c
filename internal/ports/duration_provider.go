package ports

import (
	"context"
	"delivery-tracking-service/internal/domain"
	"fmt"
)

// Contract for retrieving authoritative drive duration between two
// coordinates from an external routing service.
//
// Callers must degrade gracefully to a linear estimate when the
// provider fails; a routing outage never fails the whole operation.
type DurationProvider interface {
	// DriveMinutes returns the estimated drive time in minutes.
	DriveMinutes(ctx context.Context, from, to domain.Coordinates) (float64, error)
}

// ProviderError wraps a routing/geocoding collaborator failure so
// callers can distinguish an outage from malformed input.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error: %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
