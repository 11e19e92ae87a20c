package services

import (
	"delivery-tracking-service/internal/domain"
	"delivery-tracking-service/internal/geo"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// PlanRoute orders a driver's assigned orders into a route using a
// greedy nearest-neighbor walk from the kitchen.
//
// The algorithm minimizes immediate travel distance at each step. It
// does not attempt global route optimization (e.g., VRP solvers);
// the design prioritizes determinism and simplicity over optimality.
// Every order must carry resolved delivery coordinates. Initial stop
// ETAs are advisory, computed from the configured pace.
func PlanRoute(driverID uuid.UUID, kitchen domain.Coordinates, orders []*domain.Order, departAt time.Time, cfg ETAConfig) (*domain.Route, error) {
	if driverID == uuid.Nil {
		return nil, errors.New("plan route: driver id must be set")
	}
	if !kitchen.Valid() {
		return nil, errors.New("plan route: kitchen coordinates are invalid")
	}
	if len(orders) == 0 {
		return nil, errors.New("plan route: at least one order is required")
	}

	remaining := make(map[uuid.UUID]*domain.Order, len(orders))
	for _, o := range orders {
		if o.Address.Coords == nil || !o.Address.Coords.Valid() {
			return nil, fmt.Errorf("plan route: order %s has no resolved coordinates", o.ID)
		}
		remaining[o.ID] = o
	}

	route := &domain.Route{
		ID:       uuid.New(),
		DriverID: driverID,
		Status:   domain.RouteStatusPlanned,
	}

	current := kitchen
	currentTime := departAt

	for len(remaining) > 0 {
		var (
			bestID   uuid.UUID
			bestDist = math.MaxFloat64
		)

		// Select the closest unvisited destination (greedy step).
		for id, o := range remaining {
			d, err := geo.HaversineMiles(current, *o.Address.Coords)
			if err != nil {
				return nil, fmt.Errorf("plan route: distance to order %s: %w", id, err)
			}
			// Tie-breaker ensures deterministic ordering when
			// distances are equal.
			if d < bestDist || (d == bestDist && id.String() < bestID.String()) {
				bestDist = d
				bestID = id
			}
		}

		best := remaining[bestID]

		legMinutes, err := geo.EstimateDurationMinutes(bestDist, cfg.AvgSpeedMph)
		if err != nil {
			return nil, fmt.Errorf("plan route: leg duration: %w", err)
		}
		currentTime = currentTime.Add(time.Duration(math.Round(legMinutes+cfg.PerStopDwellMinutes)) * time.Minute)
		eta := currentTime

		route.Stops = append(route.Stops, domain.Stop{
			ID:          uuid.New(),
			RouteID:     route.ID,
			OrderID:     best.ID,
			StopIndex:   len(route.Stops) + 1,
			Status:      domain.StopStatusPending,
			Destination: *best.Address.Coords,
			ETA:         &eta,
		})

		current = *best.Address.Coords
		delete(remaining, bestID)
	}

	return route, nil
}
