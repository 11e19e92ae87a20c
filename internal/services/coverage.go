package services

import (
	"context"
	"delivery-tracking-service/internal/domain"
	"delivery-tracking-service/internal/geo"
	"delivery-tracking-service/internal/ports"

	"github.com/sirupsen/logrus"
)

// Why a candidate address was rejected.
type CoverageReason string

const (
	CoverageDistanceExceeded CoverageReason = "DISTANCE_EXCEEDED"
	CoverageDurationExceeded CoverageReason = "DURATION_EXCEEDED"
	CoverageGeocodeFailed    CoverageReason = "GEOCODE_FAILED"
	CoverageInvalidAddress   CoverageReason = "INVALID_ADDRESS"
)

// Delivery-coverage limits applied at checkout.
type CoverageLimits struct {
	MaxDistanceMiles   float64
	MaxDurationMinutes float64
}

// Outcome of a coverage check. Reason is set only when Valid is
// false; DistanceMiles and DurationMinutes are populated whenever
// they were computed before the check failed.
type CoverageResult struct {
	Valid           bool
	DistanceMiles   float64
	DurationMinutes float64
	Reason          CoverageReason
}

// CoverageValidator accepts or rejects a delivery address at order
// time. It does not geocode: the caller must have already resolved
// the address to coordinates, and a nil candidate means upstream
// geocoding failed.
type CoverageValidator struct {
	// Optional routing collaborator for authoritative durations.
	// On provider failure the validator degrades to the linear
	// estimate rather than failing the check.
	Provider    ports.DurationProvider
	AvgSpeedMph float64
	Log         *logrus.Logger
}

// Check runs a single deterministic, side-effect free coverage
// check. When both distance and duration exceed their limits,
// DISTANCE_EXCEEDED wins: distance is checked first.
func (v *CoverageValidator) Check(ctx context.Context, candidate *domain.Coordinates, kitchen domain.Coordinates, limits CoverageLimits) CoverageResult {
	if candidate == nil {
		return CoverageResult{Reason: CoverageGeocodeFailed}
	}
	if !candidate.Valid() || !kitchen.Valid() {
		return CoverageResult{Reason: CoverageInvalidAddress}
	}

	distance, err := geo.HaversineMiles(*candidate, kitchen)
	if err != nil {
		return CoverageResult{Reason: CoverageInvalidAddress}
	}

	if distance > limits.MaxDistanceMiles {
		return CoverageResult{DistanceMiles: distance, Reason: CoverageDistanceExceeded}
	}

	duration, err := v.driveMinutes(ctx, kitchen, *candidate, distance)
	if err != nil {
		return CoverageResult{DistanceMiles: distance, Reason: CoverageInvalidAddress}
	}

	if duration > limits.MaxDurationMinutes {
		return CoverageResult{
			DistanceMiles:   distance,
			DurationMinutes: duration,
			Reason:          CoverageDurationExceeded,
		}
	}

	return CoverageResult{
		Valid:           true,
		DistanceMiles:   distance,
		DurationMinutes: duration,
	}
}

func (v *CoverageValidator) driveMinutes(ctx context.Context, from, to domain.Coordinates, distanceMiles float64) (float64, error) {
	if v.Provider != nil {
		minutes, err := v.Provider.DriveMinutes(ctx, from, to)
		if err == nil {
			return minutes, nil
		}
		if v.Log != nil {
			v.Log.WithError(err).Warn("coverage: routing provider failed, falling back to linear estimate")
		}
	}
	return geo.EstimateDurationMinutes(distanceMiles, v.AvgSpeedMph)
}
