package routing

import (
	"context"
	"delivery-tracking-service/internal/domain"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type countingProvider struct {
	inner *MockDurationProvider
	calls int
}

func (p *countingProvider) DriveMinutes(ctx context.Context, from, to domain.Coordinates) (float64, error) {
	p.calls++
	return p.inner.DriveMinutes(ctx, from, to)
}

func discardLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestCachedDurationProvider(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	from := domain.Coordinates{Lat: 33.4484, Lng: -112.0740}
	to := domain.Coordinates{Lat: 33.4255, Lng: -111.9400}

	upstream := &countingProvider{
		inner: NewMockDurationProvider([]MockLeg{{From: from, To: to, Minutes: 17.5}}),
	}
	cached := NewCachedDurationProvider(upstream, rdb, time.Minute, discardLogger())

	ctx := context.Background()

	first, err := cached.DriveMinutes(ctx, from, to)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != 17.5 {
		t.Fatalf("minutes = %v, want 17.5", first)
	}
	if upstream.calls != 1 {
		t.Fatalf("upstream calls = %d, want 1", upstream.calls)
	}

	// Second lookup is served from the cache.
	second, err := cached.DriveMinutes(ctx, from, to)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second != 17.5 {
		t.Fatalf("cached minutes = %v, want 17.5", second)
	}
	if upstream.calls != 1 {
		t.Fatalf("upstream calls after cache hit = %d, want 1", upstream.calls)
	}

	// Expired entries fall through to the provider again.
	mr.FastForward(2 * time.Minute)
	if _, err := cached.DriveMinutes(ctx, from, to); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if upstream.calls != 2 {
		t.Fatalf("upstream calls after expiry = %d, want 2", upstream.calls)
	}
}

func TestCachedDurationProviderPropagatesProviderError(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	upstream := NewMockDurationProvider(nil)
	cached := NewCachedDurationProvider(upstream, rdb, time.Minute, discardLogger())

	from := domain.Coordinates{Lat: 1, Lng: 1}
	to := domain.Coordinates{Lat: 2, Lng: 2}
	if _, err := cached.DriveMinutes(context.Background(), from, to); err == nil {
		t.Fatal("expected provider error for unknown leg")
	}
}
