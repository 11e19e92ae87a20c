package handlers

import (
	"delivery-tracking-service/internal/api/dto"
	"delivery-tracking-service/internal/tracking"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// TrackingHandler streams live tracking snapshots to customers over
// server-sent events. One stream serves exactly one order; a client
// that reconnects starts a fresh session and receives the current
// snapshot, never a backlog.
type TrackingHandler struct {
	Hub *tracking.Hub
	// Interval between keepalive comments on an otherwise idle
	// stream. Also what drives the subscription's liveness state.
	Heartbeat time.Duration
	Log       *logrus.Logger
}

// Stream opens the SSE session for an order.
func (h *TrackingHandler) Stream(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid order id")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	sub, err := h.Hub.Subscribe(orderID)
	if err != nil {
		if errors.Is(err, tracking.ErrNotTracked) {
			writeError(w, r, http.StatusNotFound, "order is not tracked")
			return
		}
		h.Log.WithError(err).Error("subscribe failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := h.Heartbeat
	if heartbeat <= 0 {
		heartbeat = 5 * time.Second
	}
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-sub.Done():
			return
		case snap := <-sub.Updates():
			if err := h.writeEvent(w, flusher, sub, snap); err != nil {
				return
			}
			sub.Ack()
		case <-ticker.C:
			// SSE comment line; keeps intermediaries from closing
			// an idle connection and proves the client is still
			// reading.
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
			sub.Ack()
		}
	}
}

func (h *TrackingHandler) writeEvent(w http.ResponseWriter, flusher http.Flusher, sub *tracking.Subscription, snap tracking.Snapshot) error {
	res := dto.TrackingSnapshotResponse{
		OrderID:         snap.OrderID,
		ConnectionState: string(sub.State()),
		OrderStatus:     string(snap.OrderStatus),
		StopProgress: dto.StopProgressResponse{
			Completed: snap.StopProgress.Completed,
			Total:     snap.StopProgress.Total,
		},
		ETA: snap.ETA,
	}
	if snap.Location != nil {
		res.Location = &dto.LocationResponse{
			Lat:            snap.Location.Lat,
			Lng:            snap.Location.Lng,
			HeadingDegrees: snap.Location.HeadingDegrees,
			SpeedMph:       snap.Location.SpeedMph,
			CapturedAt:     snap.Location.CapturedAt,
			SequenceNumber: snap.Location.SequenceNumber,
		}
	}

	payload, err := json.Marshal(res)
	if err != nil {
		h.Log.WithError(err).Error("snapshot encode failed")
		return err
	}
	if _, err := fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", payload); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
