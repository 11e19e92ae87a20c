package tracking

import (
	"delivery-tracking-service/internal/domain"
	"delivery-tracking-service/internal/services"
	"sync"
	"time"

	"github.com/google/uuid"
)

// cell is the per-order latest-state holder shared between the
// ingest path and all fan-out paths. Each cell carries its own lock
// so unrelated deliveries never serialize on each other.
type cell struct {
	orderID  uuid.UUID
	routeID  uuid.UUID
	driverID uuid.UUID
	dest     *domain.Coordinates

	mu        sync.Mutex
	status    domain.OrderStatus
	stopIndex int
	total     int
	completed int
	lastSeq   uint64
	sample    *domain.LocationSample
	eta       *services.ETARange
	subs      map[*Subscription]struct{}
}

// applySample is the sole sequence-ordering enforcement point in the
// system: a sample is accepted only if its sequence number is
// strictly greater than the last accepted one for this driver's
// stream. Stale samples are reported, not stored.
func (c *cell) applySample(sample domain.LocationSample) (accepted, trackable bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if sample.SequenceNumber <= c.lastSeq {
		return false, false
	}
	c.lastSeq = sample.SequenceNumber
	s := sample
	c.sample = &s
	return true, c.status == domain.OrderStatusOutForDelivery
}

// setETA stores a freshly computed range unless a newer sample has
// already superseded the one it was computed from.
func (c *cell) setETA(forSeq uint64, eta services.ETARange) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastSeq != forSeq {
		return
	}
	c.eta = &eta
}

// remainingStops returns how many stops are still ahead of this
// order on its route.
func (c *cell) remainingStops() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	ahead := c.stopIndex - 1 - c.completed
	if ahead < 0 {
		ahead = 0
	}
	return ahead
}

func (c *cell) setStatus(status domain.OrderStatus) {
	c.mu.Lock()
	c.status = status
	c.mu.Unlock()
}

func (c *cell) recordCompletion() {
	c.mu.Lock()
	if c.completed < c.total {
		c.completed++
	}
	c.mu.Unlock()
}

// snapshot assembles the current state. Location and ETA are exposed
// only while the order is out for delivery.
func (c *cell) snapshot(now time.Time) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		OrderID:      c.orderID,
		OrderStatus:  c.status,
		StopProgress: StopProgress{Completed: c.completed, Total: c.total},
		GeneratedAt:  now,
	}
	if c.status == domain.OrderStatusOutForDelivery {
		snap.Location = c.sample
		snap.ETA = c.eta
	}
	return snap
}

func (c *cell) addSub(s *Subscription) {
	c.mu.Lock()
	c.subs[s] = struct{}{}
	c.mu.Unlock()
}

func (c *cell) removeSub(s *Subscription) {
	c.mu.Lock()
	delete(c.subs, s)
	c.mu.Unlock()
}

// subscribers copies the current set so fan-out happens outside the
// cell lock.
func (c *cell) subscribers() []*Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Subscription, 0, len(c.subs))
	for s := range c.subs {
		out = append(out, s)
	}
	return out
}
