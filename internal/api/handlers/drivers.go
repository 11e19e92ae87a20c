package handlers

import (
	"delivery-tracking-service/internal/api/dto"
	"delivery-tracking-service/internal/domain"
	"delivery-tracking-service/internal/services"
	"delivery-tracking-service/internal/tracking"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DriverHandler receives location pings from driver devices.
type DriverHandler struct {
	Hub *tracking.Hub
	Log *logrus.Logger
}

// UpdateLocation ingests one GPS sample. Stale and replayed samples
// are accepted with 202 like fresh ones; the hub drops them
// internally and the device is never shown an error for behavior
// its GPS stack cannot avoid.
func (h *DriverHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	driverID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid driver id")
		return
	}

	var req dto.LocationUpdateRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}

	capturedAt := time.Now()
	if req.CapturedAt != nil {
		capturedAt = *req.CapturedAt
	}

	sample := domain.LocationSample{
		DriverID:       driverID,
		Lat:            req.Lat,
		Lng:            req.Lng,
		HeadingDegrees: req.HeadingDegrees,
		SpeedMph:       req.SpeedMph,
		CapturedAt:     capturedAt,
		SequenceNumber: req.SequenceNumber,
	}

	if err := h.Hub.IngestLocation(r.Context(), sample); err != nil {
		var ve *services.ValidationError
		if errors.As(err, &ve) {
			writeError(w, r, http.StatusBadRequest, ve.Error())
			return
		}
		h.Log.WithError(err).Error("location ingest failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusAccepted)
}
