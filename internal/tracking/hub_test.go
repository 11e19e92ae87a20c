package tracking

import (
	"context"
	"delivery-tracking-service/internal/domain"
	"delivery-tracking-service/internal/services"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func testHub() *Hub {
	eta := &services.ETAEngine{Config: services.DefaultETAConfig()}
	return New(DefaultConfig(), eta, nil, nil, nil)
}

func sampleFor(driver uuid.UUID, seq uint64) domain.LocationSample {
	return domain.LocationSample{
		DriverID:       driver,
		Lat:            33.45,
		Lng:            -112.07,
		SpeedMph:       22,
		CapturedAt:     time.Now(),
		SequenceNumber: seq,
	}
}

func trackOrder(h *Hub, status domain.OrderStatus) (orderID, routeID, driverID uuid.UUID) {
	orderID = uuid.New()
	routeID = uuid.New()
	driverID = uuid.New()
	dest := &domain.Coordinates{Lat: 33.43, Lng: -111.94}
	h.Track(orderID, routeID, driverID, dest, status, 1, 1)
	return orderID, routeID, driverID
}

func drain(t *testing.T, sub *Subscription) Snapshot {
	t.Helper()
	select {
	case snap := <-sub.Updates():
		return snap
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
		return Snapshot{}
	}
}

func TestHubRejectsOutOfOrderSamples(t *testing.T) {
	h := testHub()
	orderID, _, driverID := trackOrder(h, domain.OrderStatusOutForDelivery)

	sub, err := h.Subscribe(orderID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	drain(t, sub) // initial snapshot

	ctx := context.Background()
	accepted := []uint64{}
	for _, seq := range []uint64{5, 3, 7, 6} {
		if err := h.IngestLocation(ctx, sampleFor(driverID, seq)); err != nil {
			t.Fatalf("ingest seq %d: %v", seq, err)
		}
		select {
		case snap := <-sub.Updates():
			if snap.Location == nil {
				t.Fatalf("seq %d: snapshot missing location", seq)
			}
			accepted = append(accepted, snap.Location.SequenceNumber)
		case <-time.After(50 * time.Millisecond):
			// Stale sample: silently dropped, no fan-out round.
		}
	}

	if len(accepted) != 2 || accepted[0] != 5 || accepted[1] != 7 {
		t.Fatalf("accepted sequence = %v, want [5 7]", accepted)
	}

	h.mu.RLock()
	final := h.cells[orderID].lastSeq
	h.mu.RUnlock()
	if final != 7 {
		t.Fatalf("final stored sequence = %d, want 7", final)
	}
}

func TestHubOutOfOrderEquivalence(t *testing.T) {
	// Applying a shuffled stream must leave the same final state as
	// applying only its strictly-increasing subsequence in order.
	run := func(seqs []uint64) uint64 {
		h := testHub()
		orderID, _, driverID := trackOrder(h, domain.OrderStatusOutForDelivery)
		for _, seq := range seqs {
			_ = h.IngestLocation(context.Background(), sampleFor(driverID, seq))
		}
		h.mu.RLock()
		defer h.mu.RUnlock()
		return h.cells[orderID].lastSeq
	}

	shuffled := run([]uint64{4, 2, 9, 1, 9, 6, 11, 3})
	ordered := run([]uint64{4, 9, 11})
	if shuffled != ordered {
		t.Fatalf("final state differs: shuffled %d vs ordered %d", shuffled, ordered)
	}
}

func TestHubDoesNotFanOutBeforeDispatch(t *testing.T) {
	h := testHub()
	orderID, _, driverID := trackOrder(h, domain.OrderStatusPreparing)

	sub, err := h.Subscribe(orderID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	first := drain(t, sub)
	if first.Location != nil || first.ETA != nil {
		t.Fatalf("preparing snapshot exposes location/eta: %+v", first)
	}

	if err := h.IngestLocation(context.Background(), sampleFor(driverID, 1)); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	select {
	case snap := <-sub.Updates():
		t.Fatalf("sample fanned out before dispatch: %+v", snap)
	case <-time.After(50 * time.Millisecond):
	}

	// The sample was stored, not discarded.
	h.mu.RLock()
	stored := h.cells[orderID].sample
	h.mu.RUnlock()
	if stored == nil || stored.SequenceNumber != 1 {
		t.Fatalf("sample not stored while untrackable: %+v", stored)
	}
}

func TestHubComputesETAWhileOutForDelivery(t *testing.T) {
	h := testHub()
	orderID, _, driverID := trackOrder(h, domain.OrderStatusOutForDelivery)

	sub, err := h.Subscribe(orderID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	drain(t, sub)

	if err := h.IngestLocation(context.Background(), sampleFor(driverID, 1)); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	snap := drain(t, sub)
	if snap.Location == nil || snap.ETA == nil {
		t.Fatalf("snapshot = %+v, want combined location and eta", snap)
	}
	if snap.ETA.MaxMinutes < snap.ETA.MinMinutes {
		t.Fatalf("eta range inverted: %+v", snap.ETA)
	}
}

func TestHubSlowSubscriberDoesNotBlockOthers(t *testing.T) {
	h := testHub()
	orderID, _, driverID := trackOrder(h, domain.OrderStatusOutForDelivery)

	slow, err := h.Subscribe(orderID)
	if err != nil {
		t.Fatalf("subscribe slow: %v", err)
	}
	fast, err := h.Subscribe(orderID)
	if err != nil {
		t.Fatalf("subscribe fast: %v", err)
	}
	drain(t, fast)
	_ = slow // never reads; its buffer stays full

	done := make(chan struct{})
	go func() {
		defer close(done)
		for seq := uint64(1); seq <= 20; seq++ {
			_ = h.IngestLocation(context.Background(), sampleFor(driverID, seq))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ingest blocked by a slow subscriber")
	}

	// The fast subscriber keeps seeing progress; the slow one holds
	// the newest value it was ever offered, not a backlog.
	var last uint64
	for {
		select {
		case snap := <-fast.Updates():
			last = snap.Location.SequenceNumber
		case <-time.After(100 * time.Millisecond):
			if last == 0 {
				t.Fatal("fast subscriber starved")
			}
			return
		}
	}
}

func TestHubSnapshotOnSubscribe(t *testing.T) {
	h := testHub()
	orderID, _, driverID := trackOrder(h, domain.OrderStatusOutForDelivery)

	if err := h.IngestLocation(context.Background(), sampleFor(driverID, 42)); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	// A late subscriber gets the current state, not a replay.
	sub, err := h.Subscribe(orderID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	snap := drain(t, sub)
	if snap.Location == nil || snap.Location.SequenceNumber != 42 {
		t.Fatalf("initial snapshot = %+v, want latest sample 42", snap)
	}
	if sub.State() != StateConnected {
		t.Fatalf("state after first snapshot = %s, want connected", sub.State())
	}
}

func TestHubTerminalStatusClosesSubscribers(t *testing.T) {
	h := testHub()
	orderID, _, _ := trackOrder(h, domain.OrderStatusOutForDelivery)

	sub, err := h.Subscribe(orderID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	drain(t, sub)

	h.SetOrderStatus(orderID, domain.OrderStatusDelivered)

	final := drain(t, sub)
	if final.OrderStatus != domain.OrderStatusDelivered {
		t.Fatalf("final snapshot status = %s, want delivered", final.OrderStatus)
	}

	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("subscription not closed after delivery")
	}

	if _, err := h.Subscribe(orderID); err != ErrNotTracked {
		t.Fatalf("subscribe after delivery: err = %v, want ErrNotTracked", err)
	}
}

func TestHubCompleteStopAdvancesProgress(t *testing.T) {
	h := testHub()
	routeID := uuid.New()
	driverID := uuid.New()
	first := uuid.New()
	second := uuid.New()
	dest := &domain.Coordinates{Lat: 33.43, Lng: -111.94}

	h.Track(first, routeID, driverID, dest, domain.OrderStatusOutForDelivery, 1, 2)
	h.Track(second, routeID, driverID, dest, domain.OrderStatusOutForDelivery, 2, 2)

	sub, err := h.Subscribe(second)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	drain(t, sub)

	h.CompleteStop(context.Background(), domain.StopCompleted{
		RouteID:     routeID,
		OrderID:     first,
		StopIndex:   1,
		Status:      domain.StopStatusDelivered,
		CompletedAt: time.Now(),
	})

	snap := drain(t, sub)
	if snap.StopProgress.Completed != 1 || snap.StopProgress.Total != 2 {
		t.Fatalf("progress = %+v, want 1/2", snap.StopProgress)
	}
}

func TestHubOrdersAreIndependent(t *testing.T) {
	h := testHub()
	orderA, _, driverA := trackOrder(h, domain.OrderStatusOutForDelivery)
	orderB, _, driverB := trackOrder(h, domain.OrderStatusOutForDelivery)

	subA, err := h.Subscribe(orderA)
	if err != nil {
		t.Fatalf("subscribe A: %v", err)
	}
	subB, err := h.Subscribe(orderB)
	if err != nil {
		t.Fatalf("subscribe B: %v", err)
	}
	drain(t, subA)
	drain(t, subB)

	var wg sync.WaitGroup
	for i, driver := range []uuid.UUID{driverA, driverB} {
		wg.Add(1)
		go func(d uuid.UUID, base uint64) {
			defer wg.Done()
			for seq := uint64(1); seq <= 50; seq++ {
				_ = h.IngestLocation(context.Background(), sampleFor(d, base+seq))
			}
		}(driver, uint64(i*1000))
	}
	wg.Wait()

	snapA := drain(t, subA)
	snapB := drain(t, subB)
	if snapA.OrderID != orderA || snapB.OrderID != orderB {
		t.Fatal("snapshots crossed order boundaries")
	}
	if snapA.Location.DriverID != driverA || snapB.Location.DriverID != driverB {
		t.Fatal("driver streams crossed order boundaries")
	}
}

func TestHubIngestRejectsInvalidSample(t *testing.T) {
	h := testHub()
	if err := h.IngestLocation(context.Background(), domain.LocationSample{}); err == nil {
		t.Fatal("expected validation error for empty sample")
	}
}
