package routing

import (
	"context"
	"delivery-tracking-service/internal/domain"
	"delivery-tracking-service/internal/ports"
	"fmt"
)

type MockLeg struct {
	From, To domain.Coordinates
	Minutes  float64
}

// MockDurationProvider serves fixed durations for tests and local
// runs without a routing API key.
type MockDurationProvider struct {
	m map[string]float64
}

func NewMockDurationProvider(legs []MockLeg) *MockDurationProvider {
	m := make(map[string]float64, len(legs))
	for _, l := range legs {
		m[legKey(l.From, l.To)] = l.Minutes
	}
	return &MockDurationProvider{m: m}
}

func (p *MockDurationProvider) DriveMinutes(ctx context.Context, from, to domain.Coordinates) (float64, error) {
	minutes, ok := p.m[legKey(from, to)]
	if !ok {
		return 0, &ports.ProviderError{
			Op:  "mock drive minutes",
			Err: fmt.Errorf("missing leg %v -> %v", from, to),
		}
	}
	return minutes, nil
}

func legKey(from, to domain.Coordinates) string {
	return fmt.Sprintf("%.5f,%.5f|%.5f,%.5f", from.Lat, from.Lng, to.Lat, to.Lng)
}
