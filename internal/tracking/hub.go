// Package tracking implements the real-time distribution layer
// between moving drivers and watching customers: it ingests location
// and status events, derives per-order tracking state, and fans
// snapshots out to subscribed sessions.
package tracking

import (
	"context"
	"delivery-tracking-service/internal/domain"
	"delivery-tracking-service/internal/ports"
	"delivery-tracking-service/internal/services"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrNotTracked is returned when subscribing to an order the hub
// does not know about.
var ErrNotTracked = errors.New("tracking: order is not tracked")

// Hub timing knobs.
type Config struct {
	// HeartbeatInterval drives the janitor tick. A subscriber with
	// no acknowledgment for one interval is marked reconnecting.
	HeartbeatInterval time.Duration
	// DisconnectAfter is how long a subscriber may stay silent
	// before it is evicted as disconnected.
	DisconnectAfter time.Duration
}

// DefaultConfig returns production timing defaults.
func DefaultConfig() Config {
	return Config{
		HeartbeatInterval: 5 * time.Second,
		DisconnectAfter:   30 * time.Second,
	}
}

// Hub owns one latest-state cell per tracked order. Ingest workers
// and fan-out paths communicate only through those cells, never
// directly, so the coupling stays O(drivers + customers) and one
// slow watcher cannot delay a driver stream.
type Hub struct {
	cfg   Config
	eta   *services.ETAEngine
	store ports.LocationStore
	pub   ports.EventPublisher
	log   *logrus.Logger

	mu       sync.RWMutex
	cells    map[uuid.UUID]*cell
	byDriver map[uuid.UUID]map[uuid.UUID]*cell
	byRoute  map[uuid.UUID]map[uuid.UUID]*cell
}

// New builds a hub. The ETA engine, store, and pub are optional
// collaborators; a nil engine simply disables ETA computation.
func New(cfg Config, eta *services.ETAEngine, store ports.LocationStore, pub ports.EventPublisher, log *logrus.Logger) *Hub {
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = DefaultConfig().HeartbeatInterval
	}
	if cfg.DisconnectAfter <= 0 {
		cfg.DisconnectAfter = DefaultConfig().DisconnectAfter
	}
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}

	return &Hub{
		cfg:      cfg,
		eta:      eta,
		store:    store,
		pub:      pub,
		log:      log,
		cells:    make(map[uuid.UUID]*cell),
		byDriver: make(map[uuid.UUID]map[uuid.UUID]*cell),
		byRoute:  make(map[uuid.UUID]map[uuid.UUID]*cell),
	}
}

// Track registers an order for live tracking. stopIndex is the
// order's 1-based position on its route, totalStops the route size.
// Tracking an already-tracked order refreshes its routing fields.
func (h *Hub) Track(orderID, routeID, driverID uuid.UUID, dest *domain.Coordinates, status domain.OrderStatus, stopIndex, totalStops int) {
	c := &cell{
		orderID:   orderID,
		routeID:   routeID,
		driverID:  driverID,
		dest:      dest,
		status:    status,
		stopIndex: stopIndex,
		total:     totalStops,
		subs:      make(map[*Subscription]struct{}),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if old, ok := h.cells[orderID]; ok {
		// Keep live subscriptions and accepted stream state across
		// a re-track (e.g. a replanned route).
		old.mu.Lock()
		c.subs = old.subs
		c.lastSeq = old.lastSeq
		c.sample = old.sample
		c.completed = old.completed
		old.mu.Unlock()
		h.detachLocked(old)
	}

	h.cells[orderID] = c
	if h.byDriver[driverID] == nil {
		h.byDriver[driverID] = make(map[uuid.UUID]*cell)
	}
	h.byDriver[driverID][orderID] = c
	if h.byRoute[routeID] == nil {
		h.byRoute[routeID] = make(map[uuid.UUID]*cell)
	}
	h.byRoute[routeID][orderID] = c
}

// Untrack drops an order and closes its subscriptions.
func (h *Hub) Untrack(orderID uuid.UUID) {
	h.mu.Lock()
	c, ok := h.cells[orderID]
	if ok {
		h.detachLocked(c)
	}
	h.mu.Unlock()

	if !ok {
		return
	}
	for _, s := range c.subscribers() {
		s.Close()
	}
}

func (h *Hub) detachLocked(c *cell) {
	delete(h.cells, c.orderID)
	if m := h.byDriver[c.driverID]; m != nil {
		delete(m, c.orderID)
		if len(m) == 0 {
			delete(h.byDriver, c.driverID)
		}
	}
	if m := h.byRoute[c.routeID]; m != nil {
		delete(m, c.orderID)
		if len(m) == 0 {
			delete(h.byRoute, c.routeID)
		}
	}
}

// IngestLocation applies one driver location sample.
//
// Stale or replayed samples (sequence number not strictly greater
// than the last accepted one) are dropped silently: GPS stacks
// naturally emit duplicates, so the driver is not shown an error.
// Accepted samples update every cell assigned to the driver; orders
// that are out for delivery get a fresh ETA and a fan-out round,
// others only store the sample.
func (h *Hub) IngestLocation(ctx context.Context, sample domain.LocationSample) error {
	if !sample.Valid() {
		return &services.ValidationError{Field: "location sample", Msg: "missing driver id or coordinates out of range"}
	}

	h.mu.RLock()
	cells := make([]*cell, 0, len(h.byDriver[sample.DriverID]))
	for _, c := range h.byDriver[sample.DriverID] {
		cells = append(cells, c)
	}
	h.mu.RUnlock()

	now := time.Now()
	anyAccepted := false

	for _, c := range cells {
		accepted, trackable := c.applySample(sample)
		if !accepted {
			h.log.WithFields(logrus.Fields{
				"driver_id": sample.DriverID,
				"order_id":  c.orderID,
				"seq":       sample.SequenceNumber,
			}).Debug("stale location sample dropped")
			continue
		}
		anyAccepted = true

		if !trackable {
			// Stored but not fanned out: no map before delivery
			// begins or after it ends.
			continue
		}

		if h.eta != nil && c.dest != nil {
			// ETA computation may hit the routing provider, so it
			// runs outside the cell lock; setETA discards the
			// result if a newer sample has landed meanwhile.
			if eta, err := h.eta.Estimate(ctx, sample.Coordinates(), *c.dest, c.remainingStops(), now); err == nil {
				c.setETA(sample.SequenceNumber, eta)
			} else {
				h.log.WithError(err).WithField("order_id", c.orderID).Warn("eta computation failed")
			}
		}

		h.fanOut(c, c.snapshot(now))
	}

	if anyAccepted {
		h.mirror(ctx, sample, now)
	}
	return nil
}

// mirror pushes the accepted sample to the optional collaborators.
// Both are best effort; neither may stall the ingest path.
func (h *Hub) mirror(ctx context.Context, sample domain.LocationSample, now time.Time) {
	if h.store != nil {
		if err := h.store.PutLatest(ctx, sample); err != nil {
			h.log.WithError(err).WithField("driver_id", sample.DriverID).Warn("location store write failed")
		}
	}
	if h.pub != nil {
		ev := domain.LocationUpdated{
			DriverID:       sample.DriverID,
			Lat:            sample.Lat,
			Lng:            sample.Lng,
			SequenceNumber: sample.SequenceNumber,
			Timestamp:      now,
		}
		if err := h.pub.PublishLocationUpdated(ctx, ev); err != nil {
			h.log.WithError(err).WithField("driver_id", sample.DriverID).Warn("location event publish failed")
		}
	}
}

// SetOrderStatus records an order status change and fans it out.
// Terminal statuses push one final snapshot, then close all
// subscriptions and drop the cell.
func (h *Hub) SetOrderStatus(orderID uuid.UUID, status domain.OrderStatus) {
	h.mu.RLock()
	c, ok := h.cells[orderID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	c.setStatus(status)
	h.fanOut(c, c.snapshot(time.Now()))

	if status.Terminal() {
		h.Untrack(orderID)
	}
}

// CompleteStop advances stop progress for every order sharing the
// completed stop's route and fans out updated snapshots. ETAs for
// subsequent stops tighten on the next location sample.
func (h *Hub) CompleteStop(ctx context.Context, ev domain.StopCompleted) {
	h.mu.RLock()
	cells := make([]*cell, 0, len(h.byRoute[ev.RouteID]))
	for _, c := range h.byRoute[ev.RouteID] {
		cells = append(cells, c)
	}
	h.mu.RUnlock()

	now := time.Now()
	for _, c := range cells {
		c.recordCompletion()
		h.fanOut(c, c.snapshot(now))
	}

	if h.pub != nil {
		if err := h.pub.PublishStopCompleted(ctx, ev); err != nil {
			h.log.WithError(err).WithField("route_id", ev.RouteID).Warn("stop completed publish failed")
		}
	}
}

// Subscribe opens a customer session for one order. The session
// immediately receives a full current-state snapshot; reconnecting
// clients subscribe again and get a fresh session, never a resume.
func (h *Hub) Subscribe(orderID uuid.UUID) (*Subscription, error) {
	h.mu.RLock()
	c, ok := h.cells[orderID]
	h.mu.RUnlock()
	if !ok {
		return nil, ErrNotTracked
	}

	sub := newSubscription(orderID, c, time.Now())
	c.addSub(sub)
	sub.deliver(c.snapshot(time.Now()))
	return sub, nil
}

// fanOut delivers a snapshot to every subscriber of one cell.
// Delivery is per-subscriber and failure-isolated; a slow or closed
// subscriber never affects the others or the ingest path.
func (h *Hub) fanOut(c *cell, snap Snapshot) {
	for _, s := range c.subscribers() {
		s.deliver(snap)
	}
}

// Run drives the heartbeat janitor until the context is cancelled,
// then closes every remaining subscription.
func (h *Hub) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return ctx.Err()
		case now := <-ticker.C:
			h.sweep(now)
		}
	}
}

// sweep checks every subscription's heartbeat health and evicts the
// silent ones.
func (h *Hub) sweep(now time.Time) {
	h.mu.RLock()
	cells := make([]*cell, 0, len(h.cells))
	for _, c := range h.cells {
		cells = append(cells, c)
	}
	h.mu.RUnlock()

	for _, c := range cells {
		for _, s := range c.subscribers() {
			if s.checkHealth(now, h.cfg.HeartbeatInterval, h.cfg.DisconnectAfter) {
				h.log.WithField("order_id", c.orderID).Debug("evicting silent subscriber")
				s.evict()
			}
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.RLock()
	cells := make([]*cell, 0, len(h.cells))
	for _, c := range h.cells {
		cells = append(cells, c)
	}
	h.mu.RUnlock()

	for _, c := range cells {
		for _, s := range c.subscribers() {
			s.Close()
		}
	}
}
