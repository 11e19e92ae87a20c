package services

import (
	"context"
	"delivery-tracking-service/internal/domain"
	"errors"
	"math"
	"testing"
	"time"
)

var (
	etaDriver   = domain.Coordinates{Lat: 33.4484, Lng: -112.0740}
	etaCustomer = domain.Coordinates{Lat: 33.4255, Lng: -111.9400}
)

func TestETAEstimateIsPure(t *testing.T) {
	e := &ETAEngine{Config: DefaultETAConfig()}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	a, err := e.Estimate(context.Background(), etaDriver, etaCustomer, 2, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := e.Estimate(context.Background(), etaDriver, etaCustomer, 2, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a != b {
		t.Fatalf("identical inputs produced different outputs: %+v vs %+v", a, b)
	}
}

func TestETAEstimateRangeBounds(t *testing.T) {
	e := &ETAEngine{Config: DefaultETAConfig()}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for stops := 0; stops < 6; stops++ {
		r, err := e.Estimate(context.Background(), etaDriver, etaCustomer, stops, now)
		if err != nil {
			t.Fatalf("stops=%d: unexpected error: %v", stops, err)
		}
		if r.MaxMinutes < r.MinMinutes {
			t.Fatalf("stops=%d: max %v < min %v", stops, r.MaxMinutes, r.MinMinutes)
		}
		wantArrival := now.Add(time.Duration(math.Round(r.MaxMinutes)) * time.Minute)
		if !r.EstimatedArrival.Equal(wantArrival) {
			t.Fatalf("stops=%d: arrival = %v, want %v", stops, r.EstimatedArrival, wantArrival)
		}
	}
}

func TestETAEstimateMonotonicInStopCount(t *testing.T) {
	e := &ETAEngine{Config: DefaultETAConfig()}
	now := time.Now()

	prev := -1.0
	for stops := 0; stops < 10; stops++ {
		r, err := e.Estimate(context.Background(), etaDriver, etaCustomer, stops, now)
		if err != nil {
			t.Fatalf("stops=%d: unexpected error: %v", stops, err)
		}
		if r.MaxMinutes < prev {
			t.Fatalf("stops=%d: max decreased from %v to %v", stops, prev, r.MaxMinutes)
		}
		prev = r.MaxMinutes
	}
}

func TestETAEstimatePrefersProvider(t *testing.T) {
	cfg := DefaultETAConfig()
	e := &ETAEngine{
		Provider: &fixedDurationProvider{minutes: 40},
		Config:   cfg,
	}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	r, err := e.Estimate(context.Background(), etaDriver, etaCustomer, 1, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.MinMinutes != 40*cfg.MinFactor {
		t.Fatalf("min = %v, want %v", r.MinMinutes, 40*cfg.MinFactor)
	}
	if r.MaxMinutes != 40*cfg.MaxFactor+cfg.PerStopDwellMinutes {
		t.Fatalf("max = %v, want %v", r.MaxMinutes, 40*cfg.MaxFactor+cfg.PerStopDwellMinutes)
	}
}

func TestETAEstimateFallsBackOnProviderFailure(t *testing.T) {
	e := &ETAEngine{
		Provider: &fixedDurationProvider{err: errors.New("routing outage")},
		Config:   DefaultETAConfig(),
	}
	now := time.Now()

	r, err := e.Estimate(context.Background(), etaDriver, etaCustomer, 0, now)
	if err != nil {
		t.Fatalf("outage should degrade, got error: %v", err)
	}
	if r.MaxMinutes <= 0 {
		t.Fatalf("fallback estimate = %+v, want positive travel time", r)
	}
}

func TestETAEstimateRejectsBadInput(t *testing.T) {
	e := &ETAEngine{Config: DefaultETAConfig()}
	now := time.Now()
	bad := domain.Coordinates{Lat: math.Inf(1), Lng: 0}

	var verr *ValidationError
	if _, err := e.Estimate(context.Background(), bad, etaCustomer, 0, now); !errors.As(err, &verr) {
		t.Fatalf("bad driver coords: err = %v, want ValidationError", err)
	}
	if _, err := e.Estimate(context.Background(), etaDriver, bad, 0, now); !errors.As(err, &verr) {
		t.Fatalf("bad customer coords: err = %v, want ValidationError", err)
	}
	if _, err := e.Estimate(context.Background(), etaDriver, etaCustomer, -1, now); !errors.As(err, &verr) {
		t.Fatalf("negative stops: err = %v, want ValidationError", err)
	}
}
