package tracking

import (
	"delivery-tracking-service/internal/domain"
	"testing"
	"time"
)

func subscribed(t *testing.T, h *Hub) *Subscription {
	t.Helper()
	orderID, _, _ := trackOrder(h, domain.OrderStatusOutForDelivery)
	sub, err := h.Subscribe(orderID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	drain(t, sub)
	return sub
}

func TestSubscriptionHeartbeatLifecycle(t *testing.T) {
	h := testHub()
	sub := subscribed(t, h)

	if sub.State() != StateConnected {
		t.Fatalf("state = %s, want connected", sub.State())
	}

	heartbeat := 5 * time.Second
	disconnect := 30 * time.Second
	start := time.Now()

	// Silent for one heartbeat interval: reconnecting, not evicted.
	if evict := sub.checkHealth(start.Add(heartbeat+time.Second), heartbeat, disconnect); evict {
		t.Fatal("evicted after a single missed heartbeat")
	}
	if sub.State() != StateReconnecting {
		t.Fatalf("state = %s, want reconnecting", sub.State())
	}

	// An acknowledgment recovers the connection.
	sub.Ack()
	if sub.State() != StateConnected {
		t.Fatalf("state after ack = %s, want connected", sub.State())
	}

	// Silent past the disconnect window: evicted.
	sub.mu.Lock()
	sub.lastAck = start
	sub.state = StateReconnecting
	sub.mu.Unlock()

	if evict := sub.checkHealth(start.Add(disconnect+time.Second), heartbeat, disconnect); !evict {
		t.Fatal("not evicted after disconnect window")
	}
	if sub.State() != StateDisconnected {
		t.Fatalf("state = %s, want disconnected", sub.State())
	}

	sub.evict()
	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("Done not closed after eviction")
	}
}

func TestSubscriptionCloseDeregisters(t *testing.T) {
	h := testHub()
	sub := subscribed(t, h)
	c := sub.cell

	sub.Close()

	if sub.State() != StateClosed {
		t.Fatalf("state = %s, want closed", sub.State())
	}
	select {
	case <-sub.Done():
	default:
		t.Fatal("Done not closed")
	}
	if n := len(c.subscribers()); n != 0 {
		t.Fatalf("still registered after close: %d subscribers", n)
	}

	// Closing twice is safe, and a post-close delivery is a no-op.
	sub.Close()
	sub.deliver(Snapshot{})
	select {
	case snap := <-sub.Updates():
		t.Fatalf("delivered after close: %+v", snap)
	default:
	}
}

func TestSubscriptionEvictionSweep(t *testing.T) {
	h := New(Config{HeartbeatInterval: 10 * time.Millisecond, DisconnectAfter: 30 * time.Millisecond}, nil, nil, nil, nil)
	sub := subscribed(t, h)

	// Simulate prolonged client silence, then let the sweep decide.
	sub.mu.Lock()
	sub.lastAck = time.Now().Add(-time.Minute)
	sub.mu.Unlock()

	h.sweep(time.Now())

	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("sweep did not evict the silent subscriber")
	}
	if sub.State() != StateDisconnected {
		t.Fatalf("state = %s, want disconnected", sub.State())
	}
}

func TestSubscriptionCloseReleasesWithoutDriverEvent(t *testing.T) {
	h := testHub()
	orderID, _, _ := trackOrder(h, domain.OrderStatusOutForDelivery)
	sub, err := h.Subscribe(orderID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	drain(t, sub)

	// No further ingest happens; Close alone must deregister.
	sub.Close()

	h.mu.RLock()
	n := len(h.cells[orderID].subscribers())
	h.mu.RUnlock()
	if n != 0 {
		t.Fatalf("subscriber still registered after close: %d", n)
	}
}
