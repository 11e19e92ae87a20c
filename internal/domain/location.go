package domain

import (
	"time"

	"github.com/google/uuid"
)

// A single GPS reading emitted by a driver device.
//
// Samples are ephemeral: only the latest accepted sample per driver
// is retained. SequenceNumber is assigned by the device and must be
// strictly increasing; consumers discard any sample whose sequence
// number is not greater than the last accepted one, which prevents
// replayed or out-of-order readings from moving the driver backward
// on the customer's map.
type LocationSample struct {
	DriverID       uuid.UUID
	Lat            float64
	Lng            float64
	HeadingDegrees float64
	SpeedMph       float64
	CapturedAt     time.Time
	SequenceNumber uint64
}

// Coordinates returns the sample position as coordinates.
func (s LocationSample) Coordinates() Coordinates {
	return Coordinates{Lat: s.Lat, Lng: s.Lng}
}

// Valid reports whether the sample carries a usable position.
func (s LocationSample) Valid() bool {
	return s.DriverID != uuid.Nil && s.Coordinates().Valid()
}
