package geocode

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"trip-window-service/internal/domain"
	"trip-window-service/internal/platform/httpx"
	"trip-window-service/internal/platform/obs"
)

const defaultORSBaseURL = "https://api.openrouteservice.org"

type orsGeocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			Name    string `json:"name"`
			Country string `json:"country"`
		} `json:"properties"`
	} `json:"features"`
}

// ORSGeocoder resolves free-form city names through OpenRouteService /geocode/search.
type ORSGeocoder struct {
	client  *httpx.Client
	baseURL string
	apiKey  string
}

// NewORSGeocoder returns a geocoder. An empty baseURL uses the public endpoint.
func NewORSGeocoder(client *httpx.Client, baseURL, apiKey string) *ORSGeocoder {
	if baseURL == "" {
		baseURL = defaultORSBaseURL
	}
	return &ORSGeocoder{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

// Lookup returns the best locality match for name. Cities found this way carry
// a latitude-derived generic climate.
func (o *ORSGeocoder) Lookup(ctx context.Context, name string) (_ domain.City, err error) {
	defer obs.Time(ctx, "ors.geocode")(&err)

	if o.apiKey == "" {
		return domain.City{}, fmt.Errorf("ors geocode: %w", domain.ErrSourceUnavailable)
	}

	text := strings.Join(strings.Fields(name), " ")
	if text == "" {
		return domain.City{}, &domain.UnknownCityError{City: name}
	}

	q := url.Values{}
	q.Set("text", text)
	q.Set("layers", "locality")
	q.Set("size", "1")
	endpoint := o.baseURL + "/geocode/search?" + q.Encode()

	header := http.Header{}
	header.Set("Authorization", o.apiKey)

	var decoded orsGeocodeResponse
	if err := o.client.GetJSON(ctx, endpoint, header, &decoded); err != nil {
		return domain.City{}, fmt.Errorf("ors geocode %q: %w", text, err)
	}

	if len(decoded.Features) == 0 {
		return domain.City{}, &domain.UnknownCityError{City: text}
	}

	f := decoded.Features[0]
	coords := f.Geometry.Coordinates
	if len(coords) != 2 {
		return domain.City{}, fmt.Errorf("ors geocode %q: invalid coordinate format", text)
	}

	city := domain.City{
		Name:        text,
		Country:     f.Properties.Country,
		Coordinates: domain.Coordinates{Lon: coords[0], Lat: coords[1]},
		Climate:     domain.GenericClimate(coords[1]),
		HotelIndex:  1,
	}
	if f.Properties.Name != "" {
		city.Name = f.Properties.Name
	}
	if !city.Coordinates.Valid() {
		return domain.City{}, fmt.Errorf("ors geocode %q: coordinates out of range", text)
	}

	return city, nil
}
