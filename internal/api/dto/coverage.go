package dto

type CoverageCheckRequest struct {
	// Lat/Lng are pointers so "geocoding failed upstream" (absent
	// coordinates) is distinguishable from coordinate zero.
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

type CoverageCheckResponse struct {
	Valid           bool    `json:"valid"`
	DistanceMiles   float64 `json:"distance_miles,omitempty"`
	DurationMinutes float64 `json:"duration_minutes,omitempty"`
	Reason          string  `json:"reason,omitempty"`
}
