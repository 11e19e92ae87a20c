package tracking

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Connection health as surfaced to the watching customer. The
// subscription moves connecting -> connected, oscillates between
// connected and reconnecting while heartbeats lapse and recover, and
// ends in closed (or disconnected when evicted for silence). closed
// is terminal and reachable from any state.
type ConnectionState string

const (
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
	StateReconnecting ConnectionState = "reconnecting"
	StateDisconnected ConnectionState = "disconnected"
	StateClosed       ConnectionState = "closed"
)

// Subscription is one customer session watching one order.
//
// Updates carries at most the single newest snapshot: delivery never
// blocks the ingest path, and a slow consumer loses superseded
// rounds instead of back-pressuring the driver stream.
type Subscription struct {
	orderID uuid.UUID
	cell    *cell
	updates chan Snapshot
	done    chan struct{}
	once    sync.Once

	mu      sync.Mutex
	state   ConnectionState
	lastAck time.Time
}

func newSubscription(orderID uuid.UUID, c *cell, now time.Time) *Subscription {
	return &Subscription{
		orderID: orderID,
		cell:    c,
		updates: make(chan Snapshot, 1),
		done:    make(chan struct{}),
		state:   StateConnecting,
		lastAck: now,
	}
}

// OrderID returns the order being watched.
func (s *Subscription) OrderID() uuid.UUID { return s.orderID }

// Updates returns the snapshot stream.
func (s *Subscription) Updates() <-chan Snapshot { return s.updates }

// Done is closed when the subscription ends, whether by explicit
// Close or by heartbeat eviction.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// State returns the current connection state.
func (s *Subscription) State() ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Ack records a heartbeat acknowledgment from the consumer
// transport. A reconnecting subscription becomes connected again.
func (s *Subscription) Ack() {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateClosed, StateDisconnected:
		return
	}
	s.lastAck = time.Now()
	s.state = StateConnected
}

// Close ends the subscription and deregisters it from fan-out.
// Cancellation is explicit: it takes effect without waiting for the
// driver stream to emit another event.
func (s *Subscription) Close() {
	s.mu.Lock()
	if s.state != StateDisconnected {
		s.state = StateClosed
	}
	s.mu.Unlock()

	s.once.Do(func() { close(s.done) })
	s.cell.removeSub(s)
}

// deliver pushes the newest snapshot without blocking. When the
// buffer is full the superseded value is dropped in favor of the new
// one (last value wins).
func (s *Subscription) deliver(snap Snapshot) {
	s.mu.Lock()
	if s.state == StateClosed || s.state == StateDisconnected {
		s.mu.Unlock()
		return
	}
	if s.state == StateConnecting {
		s.state = StateConnected
	}
	s.mu.Unlock()

	select {
	case s.updates <- snap:
		return
	default:
	}
	select {
	case <-s.updates:
	default:
	}
	select {
	case s.updates <- snap:
	default:
	}
}

// checkHealth advances the connection state based on heartbeat
// silence and reports whether the subscription must be evicted.
func (s *Subscription) checkHealth(now time.Time, heartbeat, disconnectAfter time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateClosed, StateDisconnected:
		return false
	}

	idle := now.Sub(s.lastAck)
	if idle >= disconnectAfter {
		s.state = StateDisconnected
		return true
	}
	if idle >= heartbeat && s.state == StateConnected {
		s.state = StateReconnecting
	}
	return false
}

// evict ends a subscription that stopped acknowledging heartbeats.
// Re-subscription starts a fresh session with a full snapshot, never
// a resume.
func (s *Subscription) evict() {
	s.once.Do(func() { close(s.done) })
	s.cell.removeSub(s)
}
