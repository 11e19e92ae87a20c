package services

import (
	"context"
	"delivery-tracking-service/internal/domain"
	"delivery-tracking-service/internal/geo"
	"delivery-tracking-service/internal/ports"
	"math"
	"time"

	"github.com/sirupsen/logrus"
)

// Tunable estimation constants. The multipliers reflect traffic and
// service-time uncertainty; they are configuration, not business
// logic the engine owns permanently.
type ETAConfig struct {
	AvgSpeedMph         float64
	PerStopDwellMinutes float64
	MinFactor           float64
	MaxFactor           float64
}

// DefaultETAConfig returns values tuned for urban delivery.
func DefaultETAConfig() ETAConfig {
	return ETAConfig{
		AvgSpeedMph:         20,
		PerStopDwellMinutes: 4,
		MinFactor:           0.85,
		MaxFactor:           1.25,
	}
}

// A conservative [min, max] arrival estimate, not a point guess.
// EstimatedArrival is derived from the max bound so customers are
// not told "arriving" before the driver is close.
type ETARange struct {
	MinMinutes       float64   `json:"min_minutes"`
	MaxMinutes       float64   `json:"max_minutes"`
	EstimatedArrival time.Time `json:"estimated_arrival"`
}

// ETAEngine combines the driver position, remaining stop count, and
// configured pace into an ETA range. It holds no internal state and
// no randomness: given identical inputs it returns identical output,
// which is what makes it independently testable. The caller passes
// the current time explicitly.
type ETAEngine struct {
	// Optional routing collaborator, preferred over the linear
	// estimate when it answers.
	Provider ports.DurationProvider
	Config   ETAConfig
	Log      *logrus.Logger
}

// Estimate computes the ETA range for a customer given the driver's
// current position and the number of stops still ahead of that
// customer on the route.
func (e *ETAEngine) Estimate(ctx context.Context, driver, customer domain.Coordinates, remainingStops int, now time.Time) (ETARange, error) {
	if !driver.Valid() {
		return ETARange{}, &ValidationError{Field: "driver location", Msg: "coordinates out of range"}
	}
	if !customer.Valid() {
		return ETARange{}, &ValidationError{Field: "customer location", Msg: "coordinates out of range"}
	}
	if remainingStops < 0 {
		return ETARange{}, &ValidationError{Field: "remaining stops", Msg: "must not be negative"}
	}

	travel, err := e.travelMinutes(ctx, driver, customer)
	if err != nil {
		return ETARange{}, err
	}

	min := travel * e.Config.MinFactor
	max := travel*e.Config.MaxFactor + float64(remainingStops)*e.Config.PerStopDwellMinutes

	arrival := now.Add(time.Duration(math.Round(max)) * time.Minute)

	return ETARange{
		MinMinutes:       min,
		MaxMinutes:       max,
		EstimatedArrival: arrival,
	}, nil
}

func (e *ETAEngine) travelMinutes(ctx context.Context, driver, customer domain.Coordinates) (float64, error) {
	if e.Provider != nil {
		minutes, err := e.Provider.DriveMinutes(ctx, driver, customer)
		if err == nil {
			return minutes, nil
		}
		if e.Log != nil {
			e.Log.WithError(err).Warn("eta: routing provider failed, falling back to linear estimate")
		}
	}

	distance, err := geo.HaversineMiles(driver, customer)
	if err != nil {
		return 0, err
	}
	return geo.EstimateDurationMinutes(distance, e.Config.AvgSpeedMph)
}
