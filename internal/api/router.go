package api

import (
	"delivery-tracking-service/internal/api/handlers"
	"delivery-tracking-service/internal/domain"
	"delivery-tracking-service/internal/ports"
	"delivery-tracking-service/internal/services"
	"delivery-tracking-service/internal/tracking"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Deps carries every collaborator the HTTP layer needs. Handlers
// stay unaware of concrete adapters; all wiring happens in the
// composition root.
type Deps struct {
	Orders    ports.OrderRepository
	Routes    ports.RouteRepository
	Publisher ports.EventPublisher
	Validator *services.CoverageValidator
	Hub       *tracking.Hub
	Kitchen   domain.Coordinates
	Limits    services.CoverageLimits
	ETACfg    services.ETAConfig
	Heartbeat time.Duration
	Log       *logrus.Logger
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	coverageHandler := &handlers.CoverageHandler{
		Validator: d.Validator,
		Kitchen:   d.Kitchen,
		Limits:    d.Limits,
	}
	orderHandler := &handlers.OrderHandler{
		Orders:    d.Orders,
		Routes:    d.Routes,
		Validator: d.Validator,
		Kitchen:   d.Kitchen,
		Limits:    d.Limits,
		Hub:       d.Hub,
		Pub:       d.Publisher,
		Log:       d.Log,
	}
	routeHandler := &handlers.RouteHandler{
		Orders:  d.Orders,
		Routes:  d.Routes,
		Hub:     d.Hub,
		Kitchen: d.Kitchen,
		ETACfg:  d.ETACfg,
		Log:     d.Log,
	}
	driverHandler := &handlers.DriverHandler{
		Hub: d.Hub,
		Log: d.Log,
	}
	trackingHandler := &handlers.TrackingHandler{
		Hub:       d.Hub,
		Heartbeat: d.Heartbeat,
		Log:       d.Log,
	}

	mux.HandleFunc("GET /health", handlers.Health)
	mux.HandleFunc("POST /coverage/check", coverageHandler.Check)
	mux.HandleFunc("POST /orders", orderHandler.Create)
	mux.HandleFunc("POST /orders/{id}/transition", orderHandler.Transition)
	mux.HandleFunc("GET /orders/{id}/track", trackingHandler.Stream)
	mux.HandleFunc("POST /routes/plan", routeHandler.Plan)
	mux.HandleFunc("POST /routes/{id}/stops/{index}/transition", routeHandler.TransitionStop)
	mux.HandleFunc("POST /drivers/{id}/location", driverHandler.UpdateLocation)

	return loggingMiddleware(d.Log, mux)
}
