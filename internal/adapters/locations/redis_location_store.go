// Package locations holds the redis-backed latest-location store.
package locations

import (
	"context"
	"delivery-tracking-service/internal/domain"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisLocationStore keeps the single latest accepted sample per
// driver. Samples are ephemeral by contract: every write replaces
// the previous one and the TTL clears drivers who went offline.
type RedisLocationStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisLocationStore(rdb *redis.Client, ttl time.Duration) *RedisLocationStore {
	return &RedisLocationStore{rdb: rdb, ttl: ttl}
}

func driverKey(driverID uuid.UUID) string {
	return "driver:latest:" + driverID.String()
}

func (s *RedisLocationStore) PutLatest(ctx context.Context, sample domain.LocationSample) error {
	payload, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("put latest location: encode sample: %w", err)
	}

	if err := s.rdb.Set(ctx, driverKey(sample.DriverID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("put latest location: %w", err)
	}
	return nil
}

func (s *RedisLocationStore) GetLatest(ctx context.Context, driverID uuid.UUID) (domain.LocationSample, bool, error) {
	payload, err := s.rdb.Get(ctx, driverKey(driverID)).Bytes()
	if err == redis.Nil {
		return domain.LocationSample{}, false, nil
	}
	if err != nil {
		return domain.LocationSample{}, false, fmt.Errorf("get latest location: %w", err)
	}

	var sample domain.LocationSample
	if err := json.Unmarshal(payload, &sample); err != nil {
		return domain.LocationSample{}, false, fmt.Errorf("get latest location: decode sample: %w", err)
	}
	return sample, true, nil
}
