package handlers

import (
	"delivery-tracking-service/internal/api/dto"
	"delivery-tracking-service/internal/domain"
	"delivery-tracking-service/internal/services"
	"encoding/json"
	"io"
	"net/http"
)

// CoverageHandler answers "can we deliver here" for the checkout
// flow before an order is created.
type CoverageHandler struct {
	Validator *services.CoverageValidator
	Kitchen   domain.Coordinates
	Limits    services.CoverageLimits
}

// Check runs a coverage check for candidate coordinates. The check
// itself never errors; a rejected address is a normal 200 response
// with valid=false and a machine-readable reason.
func (h *CoverageHandler) Check(w http.ResponseWriter, r *http.Request) {
	var req dto.CoverageCheckRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	var candidate *domain.Coordinates
	if req.Lat != nil && req.Lng != nil {
		candidate = &domain.Coordinates{Lat: *req.Lat, Lng: *req.Lng}
	}

	result := h.Validator.Check(r.Context(), candidate, h.Kitchen, h.Limits)

	res := dto.CoverageCheckResponse{
		Valid:           result.Valid,
		DistanceMiles:   result.DistanceMiles,
		DurationMinutes: result.DurationMinutes,
		Reason:          string(result.Reason),
	}
	writeJSON(w, r, http.StatusOK, res)
}
