package ports

import (
	"context"
	"delivery-tracking-service/internal/domain"

	"github.com/google/uuid"
)

// Holds the latest known location sample per driver. There is no
// history; every put replaces the previous sample.
type LocationStore interface {
	PutLatest(ctx context.Context, sample domain.LocationSample) error
	// GetLatest returns the latest sample for the driver; the bool
	// is false when no sample is known.
	GetLatest(ctx context.Context, driverID uuid.UUID) (domain.LocationSample, bool, error)
}
