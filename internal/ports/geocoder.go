package ports

import (
	"context"
	"trip-window-service/internal/domain"
)

// Port: resolves a city name to a City with coordinates.
// Unresolvable names fail with *domain.UnknownCityError.
type Geocoder interface {
	Lookup(ctx context.Context, name string) (domain.City, error)
}

// Optional extension of Geocoder that can enumerate supported destinations.
type CityLister interface {
	Geocoder
	Cities() []domain.City
}

// Optional extension of Geocoder that resolves several names in one call.
// Keys of the result are domain.CityKey values.
type BatchGeocoder interface {
	Geocoder
	LookupMany(ctx context.Context, names []string) (map[string]domain.City, error)
}
