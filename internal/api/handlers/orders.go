package handlers

import (
	"delivery-tracking-service/internal/api/dto"
	"delivery-tracking-service/internal/domain"
	"delivery-tracking-service/internal/ports"
	"delivery-tracking-service/internal/services"
	"delivery-tracking-service/internal/tracking"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// OrderHandler owns the order lifecycle endpoints: creation (which
// embeds the coverage check) and status transitions.
type OrderHandler struct {
	Orders    ports.OrderRepository
	Routes    ports.RouteRepository
	Validator *services.CoverageValidator
	Kitchen   domain.Coordinates
	Limits    services.CoverageLimits
	Hub       *tracking.Hub
	Pub       ports.EventPublisher
	Log       *logrus.Logger
}

// Create places a new order. The delivery address must pass the
// coverage check; a rejected address fails the whole request, there
// is no "create anyway" path.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateOrderRequest

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

	if req.CustomerID == uuid.Nil {
		writeError(w, r, http.StatusBadRequest, "customer_id is required")
		return
	}
	if req.Address.Text == "" {
		writeError(w, r, http.StatusBadRequest, "address.text is required")
		return
	}
	if !req.WindowEnd.After(req.WindowStart) {
		writeError(w, r, http.StatusBadRequest, "window_end must be after window_start")
		return
	}

	var coords *domain.Coordinates
	if req.Address.Lat != nil && req.Address.Lng != nil {
		coords = &domain.Coordinates{Lat: *req.Address.Lat, Lng: *req.Address.Lng}
	}

	check := h.Validator.Check(r.Context(), coords, h.Kitchen, h.Limits)
	if !check.Valid {
		writeJSON(w, r, http.StatusUnprocessableEntity, dto.CoverageCheckResponse{
			Valid:           false,
			DistanceMiles:   check.DistanceMiles,
			DurationMinutes: check.DurationMinutes,
			Reason:          string(check.Reason),
		})
		return
	}

	order := &domain.Order{
		ID:         uuid.New(),
		CustomerID: req.CustomerID,
		Status:     domain.OrderStatusPending,
		PlacedAt:   time.Now(),
		Window:     domain.DeliveryWindow{Start: req.WindowStart, End: req.WindowEnd},
		Address:    domain.Address{Text: req.Address.Text, Coords: coords},
	}

	if err := h.Orders.SaveOrder(r.Context(), order); err != nil {
		h.Log.WithError(err).Error("save order failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusCreated, toOrderResponse(order))
}

// Transition applies one lifecycle event to an order. Every caller
// goes through the same state machine; there is no privileged path
// that skips its guards.
func (h *OrderHandler) Transition(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid order id")
		return
	}

	var req dto.TransitionOrderRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}

	ev := services.OrderEvent(req.Event)
	switch ev {
	case services.OrderEventConfirm, services.OrderEventStartPreparing,
		services.OrderEventDispatch, services.OrderEventDeliver, services.OrderEventCancel:
	default:
		writeError(w, r, http.StatusBadRequest, "unknown event")
		return
	}

	order, err := h.Orders.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "order not found")
			return
		}
		h.Log.WithError(err).Error("get order failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	// The deliver guard needs the order's stop: the order may only
	// complete out-of-band of its stop when no stop exists at all.
	var stop *domain.Stop
	if ev == services.OrderEventDeliver {
		route, err := h.Routes.GetRouteByOrder(r.Context(), id)
		switch {
		case err == nil:
			stop = route.StopByOrder(id)
		case errors.Is(err, ports.ErrNotFound):
			// Order was never routed; the machine rejects deliver.
		default:
			h.Log.WithError(err).Error("get route by order failed")
			writeError(w, r, http.StatusInternalServerError, "internal server error")
			return
		}
	}

	now := time.Now()
	updated, err := services.TransitionOrder(*order, ev, stop, now)
	if err != nil {
		var te *services.TransitionError
		if errors.As(err, &te) {
			writeError(w, r, http.StatusConflict, te.Error())
			return
		}
		h.Log.WithError(err).Error("order transition failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	if updated.Status != order.Status {
		if err := h.Orders.SaveOrder(r.Context(), &updated); err != nil {
			h.Log.WithError(err).Error("save order failed")
			writeError(w, r, http.StatusInternalServerError, "internal server error")
			return
		}

		if h.Pub != nil {
			changed := domain.OrderStatusChanged{
				OrderID:   updated.ID,
				OldStatus: order.Status,
				NewStatus: updated.Status,
				Timestamp: now,
			}
			if err := h.Pub.PublishOrderStatusChanged(r.Context(), changed); err != nil {
				h.Log.WithError(err).WithField("order_id", updated.ID).Warn("order status publish failed")
			}
		}
		if h.Hub != nil {
			h.Hub.SetOrderStatus(updated.ID, updated.Status)
		}
	}

	writeJSON(w, r, http.StatusOK, toOrderResponse(&updated))
}

func toOrderResponse(o *domain.Order) dto.OrderResponse {
	return dto.OrderResponse{
		ID:          o.ID,
		CustomerID:  o.CustomerID,
		Status:      string(o.Status),
		PlacedAt:    o.PlacedAt,
		ConfirmedAt: o.ConfirmedAt,
		DeliveredAt: o.DeliveredAt,
		WindowStart: o.Window.Start,
		WindowEnd:   o.Window.End,
		AddressText: o.Address.Text,
	}
}
