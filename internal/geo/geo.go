// Package geo provides pure distance and duration arithmetic.
// Functions here have no side effects and no failure modes beyond
// invalid input.
package geo

import (
	"delivery-tracking-service/internal/domain"
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput is returned when a coordinate or numeric argument
// is NaN, infinite, or out of range.
var ErrInvalidInput = errors.New("geo: invalid input")

const earthRadiusMiles = 3958.8

// HaversineMiles computes the great-circle distance between two
// points in statute miles.
func HaversineMiles(a, b domain.Coordinates) (float64, error) {
	if !a.Valid() || !b.Valid() {
		return 0, fmt.Errorf("haversine: %w", ErrInvalidInput)
	}

	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * earthRadiusMiles * math.Asin(math.Sqrt(h)), nil
}

// EstimateDurationMinutes converts a distance to a linear travel
// time estimate at the given average speed. The speed is a tuned
// configuration constant (urban delivery defaults to 20 mph), not
// something this package discovers empirically.
func EstimateDurationMinutes(distanceMiles, avgSpeedMph float64) (float64, error) {
	if math.IsNaN(distanceMiles) || math.IsInf(distanceMiles, 0) || distanceMiles < 0 {
		return 0, fmt.Errorf("estimate duration: distance %v: %w", distanceMiles, ErrInvalidInput)
	}
	if math.IsNaN(avgSpeedMph) || math.IsInf(avgSpeedMph, 0) || avgSpeedMph <= 0 {
		return 0, fmt.Errorf("estimate duration: speed %v: %w", avgSpeedMph, ErrInvalidInput)
	}

	return distanceMiles / avgSpeedMph * 60, nil
}
