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
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RouteHandler owns route planning and per-stop transitions driven
// by the driver app.
type RouteHandler struct {
	Orders  ports.OrderRepository
	Routes  ports.RouteRepository
	Hub     *tracking.Hub
	Kitchen domain.Coordinates
	ETACfg  services.ETAConfig
	Log     *logrus.Logger
}

// Plan builds a route over the given orders and registers every
// stop with the tracking hub.
func (h *RouteHandler) Plan(w http.ResponseWriter, r *http.Request) {
	var req dto.PlanRouteRequest

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

	if req.DriverID == uuid.Nil {
		writeError(w, r, http.StatusBadRequest, "driver_id is required")
		return
	}
	if len(req.OrderIDs) == 0 {
		writeError(w, r, http.StatusBadRequest, "order_ids must not be empty")
		return
	}

	orders := make([]*domain.Order, 0, len(req.OrderIDs))
	for _, id := range req.OrderIDs {
		o, err := h.Orders.GetOrder(r.Context(), id)
		if err != nil {
			if errors.Is(err, ports.ErrNotFound) {
				writeError(w, r, http.StatusNotFound, "order "+id.String()+" not found")
				return
			}
			h.Log.WithError(err).Error("get order failed")
			writeError(w, r, http.StatusInternalServerError, "internal server error")
			return
		}
		orders = append(orders, o)
	}

	depart := time.Now()
	if req.DepartAt != nil {
		depart = *req.DepartAt
	}

	route, err := services.PlanRoute(req.DriverID, h.Kitchen, orders, depart, h.ETACfg)
	if err != nil {
		// The planner is pure; every failure is an input problem.
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Routes.SaveRoute(r.Context(), route); err != nil {
		h.Log.WithError(err).Error("save route failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	if h.Hub != nil {
		statusByOrder := make(map[uuid.UUID]domain.OrderStatus, len(orders))
		for _, o := range orders {
			statusByOrder[o.ID] = o.Status
		}
		for i := range route.Stops {
			s := &route.Stops[i]
			dest := s.Destination
			h.Hub.Track(s.OrderID, route.ID, route.DriverID, &dest,
				statusByOrder[s.OrderID], s.StopIndex, len(route.Stops))
		}
	}

	writeJSON(w, r, http.StatusCreated, toRouteResponse(route))
}

// TransitionStop applies one event to a stop on a route. Departing
// to a stop additionally checks the route-level ordering invariant.
func (h *RouteHandler) TransitionStop(w http.ResponseWriter, r *http.Request) {
	routeID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid route id")
		return
	}
	idx, err := strconv.Atoi(r.PathValue("index"))
	if err != nil || idx < 1 {
		writeError(w, r, http.StatusBadRequest, "invalid stop index")
		return
	}

	var req dto.StopTransitionRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}

	ev := services.StopEvent(req.Event)
	switch ev {
	case services.StopEventDepart, services.StopEventArrive,
		services.StopEventDeliver, services.StopEventSkip:
	default:
		writeError(w, r, http.StatusBadRequest, "unknown event")
		return
	}

	route, err := h.Routes.GetRoute(r.Context(), routeID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "route not found")
			return
		}
		h.Log.WithError(err).Error("get route failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	stop := route.StopByIndex(idx)
	if stop == nil {
		writeError(w, r, http.StatusNotFound, "stop not found")
		return
	}

	if ev == services.StopEventDepart {
		if err := route.ReadyForEnroute(idx); err != nil {
			writeError(w, r, http.StatusConflict, err.Error())
			return
		}
	}

	var exc *domain.Exception
	if req.Exception != nil {
		exc = &domain.Exception{
			Reason: domain.ExceptionReason(req.Exception.Reason),
			Note:   req.Exception.Note,
		}
	}

	now := time.Now()
	updated, completed, err := services.TransitionStop(*stop, ev, exc, now)
	if err != nil {
		var te *services.TransitionError
		if errors.As(err, &te) {
			writeError(w, r, http.StatusConflict, te.Error())
			return
		}
		h.Log.WithError(err).Error("stop transition failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	*stop = updated
	syncRouteStatus(route, ev)

	if err := h.Routes.SaveRoute(r.Context(), route); err != nil {
		h.Log.WithError(err).Error("save route failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	if completed != nil && h.Hub != nil {
		h.Hub.CompleteStop(r.Context(), *completed)
	}

	writeJSON(w, r, http.StatusOK, toStopResponse(stop))
}

// syncRouteStatus keeps the aggregate route status consistent with
// its stops after a transition.
func syncRouteStatus(route *domain.Route, ev services.StopEvent) {
	if ev == services.StopEventDepart && route.Status == domain.RouteStatusPlanned {
		route.Status = domain.RouteStatusInProgress
	}
	if route.CompletedStops() == len(route.Stops) {
		route.Status = domain.RouteStatusCompleted
	}
}

func toStopResponse(s *domain.Stop) dto.StopResponse {
	return dto.StopResponse{
		ID:        s.ID,
		OrderID:   s.OrderID,
		StopIndex: s.StopIndex,
		Status:    string(s.Status),
		ETA:       s.ETA,
	}
}

func toRouteResponse(rt *domain.Route) dto.RouteResponse {
	res := dto.RouteResponse{
		ID:       rt.ID,
		DriverID: rt.DriverID,
		Status:   string(rt.Status),
		Stops:    make([]dto.StopResponse, 0, len(rt.Stops)),
	}
	for i := range rt.Stops {
		res.Stops = append(res.Stops, toStopResponse(&rt.Stops[i]))
	}
	return res
}
