package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"trip-window-service/internal/domain"
	"trip-window-service/internal/platform/obs"
	"trip-window-service/internal/ports"

	"github.com/redis/go-redis/v9"
)

// RedisForecastCache decorates a ForecastProvider with a Redis read-through
// cache. Redis failures are logged and bypassed, never returned.
type RedisForecastCache struct {
	Client *redis.Client
	Next   ports.ForecastProvider
	TTL    time.Duration
}

func NewRedisForecastCache(client *redis.Client, next ports.ForecastProvider, ttl time.Duration) *RedisForecastCache {
	return &RedisForecastCache{Client: client, Next: next, TTL: ttl}
}

func ForecastKey(city domain.City, from time.Time, weeks int) string {
	return fmt.Sprintf("forecast:%s:%s:%d", domain.CityKey(city.Name), domain.Day(from).Format(domain.DateLayout), weeks)
}

func (c *RedisForecastCache) GetSeries(ctx context.Context, city domain.City, from time.Time, weeks int) (_ ports.ForecastSeries, err error) {
	defer obs.Time(ctx, "forecast.cache.GetSeries")(&err)

	key := ForecastKey(city, from, weeks)

	raw, err := c.Client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var series ports.ForecastSeries
		if uerr := json.Unmarshal(raw, &series); uerr == nil && len(series.Buckets) == weeks {
			return series, nil
		}
		obs.Logger(ctx).Warn().Str("key", key).Msg("forecast cache entry unreadable, refetching")
	case errors.Is(err, redis.Nil):
	default:
		if ctx.Err() != nil {
			return ports.ForecastSeries{}, ctx.Err()
		}
		obs.Logger(ctx).Warn().Err(err).Str("key", key).Msg("forecast cache read failed")
	}

	series, err := c.Next.GetSeries(ctx, city, from, weeks)
	if err != nil {
		return ports.ForecastSeries{}, err
	}
	// Synthetic data stands in for an outage; the next call should retry live.
	if series.Source == domain.DataSourceSynthetic {
		return series, nil
	}

	raw, merr := json.Marshal(series)
	if merr != nil {
		return series, nil
	}
	if serr := c.Client.Set(ctx, key, raw, c.TTL).Err(); serr != nil {
		obs.Logger(ctx).Warn().Err(serr).Str("key", key).Msg("forecast cache write failed")
	}

	return series, nil
}
