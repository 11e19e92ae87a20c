package routing

import (
	"context"
	"delivery-tracking-service/internal/domain"
	"delivery-tracking-service/internal/platform/obs"
	"delivery-tracking-service/internal/ports"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// CachedDurationProvider puts a redis cache in front of another
// DurationProvider. Drive times between fixed points change slowly,
// so short TTLs save most of the external matrix calls without going
// stale on traffic shifts.
//
// Cache failures are not provider failures: on a redis error the
// lookup falls through to the wrapped provider, and writes are best
// effort.
type CachedDurationProvider struct {
	next ports.DurationProvider
	rdb  *redis.Client
	ttl  time.Duration
	log  *logrus.Logger
}

func NewCachedDurationProvider(next ports.DurationProvider, rdb *redis.Client, ttl time.Duration, log *logrus.Logger) *CachedDurationProvider {
	return &CachedDurationProvider{next: next, rdb: rdb, ttl: ttl, log: log}
}

func (c *CachedDurationProvider) DriveMinutes(ctx context.Context, from, to domain.Coordinates) (_ float64, err error) {
	defer obs.Time(ctx, c.log, "routing.cache.DriveMinutes")(&err)

	key := "drive:" + legKey(from, to)

	if cached, err := c.rdb.Get(ctx, key).Result(); err == nil {
		if minutes, perr := strconv.ParseFloat(cached, 64); perr == nil {
			return minutes, nil
		}
	} else if err != redis.Nil {
		c.log.WithError(err).Warn("duration cache read failed")
	}

	minutes, err := c.next.DriveMinutes(ctx, from, to)
	if err != nil {
		return 0, err
	}

	if err := c.rdb.Set(ctx, key, strconv.FormatFloat(minutes, 'f', -1, 64), c.ttl).Err(); err != nil {
		c.log.WithError(err).Warn("duration cache write failed")
	}

	return minutes, nil
}
