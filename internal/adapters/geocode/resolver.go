package geocode

import (
	"context"
	"errors"
	"strings"
	"trip-window-service/internal/domain"
	"trip-window-service/internal/platform/obs"
	"trip-window-service/internal/ports"
)

// CityCache persists remotely geocoded cities. Keys are domain.CityKey values.
type CityCache interface {
	GetMany(ctx context.Context, names []string) (map[string]domain.City, error)
	PutMany(ctx context.Context, cities map[string]domain.City) error
}

// Resolver looks a name up in the catalog, then the cache, then the remote
// geocoder. Cache and Remote are optional. Remote hits are written back to the
// cache; a failed write is logged and ignored.
type Resolver struct {
	Catalog *Catalog
	Cache   CityCache
	Remote  ports.Geocoder
}

func NewResolver(catalog *Catalog, cache CityCache, remote ports.Geocoder) *Resolver {
	return &Resolver{Catalog: catalog, Cache: cache, Remote: remote}
}

func (r *Resolver) Lookup(ctx context.Context, name string) (domain.City, error) {
	found, err := r.LookupMany(ctx, []string{name})
	if err != nil {
		return domain.City{}, err
	}
	return found[domain.CityKey(name)], nil
}

// LookupMany resolves every name or fails. The first unresolved name yields
// *domain.UnknownCityError.
func (r *Resolver) LookupMany(ctx context.Context, names []string) (_ map[string]domain.City, err error) {
	defer obs.Time(ctx, "geocode.LookupMany")(&err)

	out := make(map[string]domain.City, len(names))
	var missing []string
	for _, n := range names {
		key := domain.CityKey(n)
		if key == "" {
			return nil, &domain.UnknownCityError{City: n}
		}
		if _, done := out[key]; done {
			continue
		}
		if r.Catalog != nil {
			if c, ok := r.Catalog.Get(key); ok {
				out[key] = c
				continue
			}
		}
		missing = append(missing, n)
	}

	if len(missing) == 0 {
		return out, nil
	}

	if r.Cache != nil {
		cached, err := r.Cache.GetMany(ctx, missing)
		if err != nil {
			// Cache outages degrade to remote lookups.
			obs.Logger(ctx).Warn().Err(err).Msg("geocode cache read failed")
		}
		still := missing[:0]
		for _, n := range missing {
			if c, ok := cached[domain.CityKey(n)]; ok {
				out[domain.CityKey(n)] = c
				continue
			}
			still = append(still, n)
		}
		missing = still
	}

	if len(missing) == 0 {
		return out, nil
	}

	if r.Remote == nil {
		return nil, &domain.UnknownCityError{City: strings.TrimSpace(missing[0])}
	}

	fresh := make(map[string]domain.City, len(missing))
	for _, n := range missing {
		key := domain.CityKey(n)
		if _, done := fresh[key]; done {
			continue
		}
		c, err := r.Remote.Lookup(ctx, n)
		if err != nil {
			var uc *domain.UnknownCityError
			if errors.As(err, &uc) {
				return nil, err
			}
			obs.Logger(ctx).Warn().Err(err).Str("city", n).Msg("remote geocode failed")
			return nil, &domain.UnknownCityError{City: strings.TrimSpace(n)}
		}
		fresh[key] = c
		out[key] = c
	}

	if r.Cache != nil {
		if err := r.Cache.PutMany(ctx, fresh); err != nil {
			obs.Logger(ctx).Warn().Err(err).Int("cities", len(fresh)).Msg("geocode cache write failed")
		}
	}

	return out, nil
}

// Cities lists the catalog.
func (r *Resolver) Cities() []domain.City {
	if r.Catalog == nil {
		return nil
	}
	return r.Catalog.Cities()
}
