package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"trip-window-service/internal/domain"
	"trip-window-service/internal/ports"
)

// lookupCities resolves every name, batching when the geocoder supports it.
// The result is keyed by domain.CityKey.
func lookupCities(ctx context.Context, g ports.Geocoder, names []string) (map[string]domain.City, error) {
	if bg, ok := g.(ports.BatchGeocoder); ok {
		found, err := bg.LookupMany(ctx, names)
		if err != nil {
			return nil, err
		}
		for _, n := range names {
			if _, ok := found[domain.CityKey(n)]; !ok {
				return nil, &domain.UnknownCityError{City: n}
			}
		}
		return found, nil
	}

	out := make(map[string]domain.City, len(names))
	for _, n := range names {
		key := domain.CityKey(n)
		if _, done := out[key]; done {
			continue
		}
		c, err := g.Lookup(ctx, n)
		if err != nil {
			return nil, fmt.Errorf("geocode %q: %w", n, err)
		}
		out[key] = c
	}
	return out, nil
}

// resolveCities is lookupCities with caller-supplied coordinates. A hinted
// name keeps its catalog data when the geocoder knows it, with the position
// replaced; an unknown hinted name becomes a generic city at that position.
// hints is keyed by domain.CityKey.
func resolveCities(ctx context.Context, g ports.Geocoder, names []string, hints map[string]domain.Coordinates) (map[string]domain.City, error) {
	var plain []string
	for _, n := range names {
		if _, ok := hints[domain.CityKey(n)]; !ok {
			plain = append(plain, n)
		}
	}

	out := map[string]domain.City{}
	if len(plain) > 0 {
		found, err := lookupCities(ctx, g, plain)
		if err != nil {
			return nil, err
		}
		out = found
	}

	for _, n := range names {
		key := domain.CityKey(n)
		pos, ok := hints[key]
		if !ok {
			continue
		}
		if _, done := out[key]; done {
			continue
		}
		if !pos.Valid() {
			return nil, &domain.InvalidRequestError{
				Field:  "coordinates",
				Reason: fmt.Sprintf("%s: lat=%v lon=%v out of range", n, pos.Lat, pos.Lon),
			}
		}

		c, err := g.Lookup(ctx, n)
		var unknown *domain.UnknownCityError
		switch {
		case errors.As(err, &unknown):
			c = domain.City{
				Name:       strings.TrimSpace(n),
				Climate:    domain.GenericClimate(pos.Lat),
				HotelIndex: 1,
			}
		case err != nil:
			return nil, fmt.Errorf("geocode %q: %w", n, err)
		}
		c.Coordinates = pos
		out[key] = c
	}
	return out, nil
}
