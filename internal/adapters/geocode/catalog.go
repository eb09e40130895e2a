package geocode

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"trip-window-service/internal/domain"

	"github.com/jszwec/csvutil"
)

//go:embed cities.csv
var defaultCatalogCSV []byte

// catalogRow is one line of the city catalog CSV.
type catalogRow struct {
	Name           string  `csv:"name"`
	Country        string  `csv:"country"`
	Lat            float64 `csv:"lat"`
	Lon            float64 `csv:"lon"`
	Airport        string  `csv:"airport"`
	BaseTempC      float64 `csv:"base_temp_c"`
	TempAmplitudeC float64 `csv:"temp_amplitude_c"`
	PrecipPattern  string  `csv:"precip_pattern"`
	HotelIndex     float64 `csv:"hotel_index"`
}

func (r catalogRow) city() domain.City {
	return domain.City{
		Name:        strings.TrimSpace(r.Name),
		Country:     strings.TrimSpace(r.Country),
		Coordinates: domain.Coordinates{Lat: r.Lat, Lon: r.Lon},
		Airport:     strings.ToUpper(strings.TrimSpace(r.Airport)),
		Climate: domain.ClimateProfile{
			BaseTempC:      r.BaseTempC,
			TempAmplitudeC: r.TempAmplitudeC,
			Precip:         domain.PrecipPattern(strings.ToLower(strings.TrimSpace(r.PrecipPattern))),
		},
		HotelIndex: r.HotelIndex,
		Catalogued: true,
	}
}

// Catalog is the typed, validated set of supported destinations.
// It is read-only after construction.
type Catalog struct {
	byKey  map[string]domain.City
	cities []domain.City
}

// ParseCatalog decodes and validates a catalog CSV. Names must be unique.
func ParseCatalog(data []byte) (*Catalog, error) {
	var rows []catalogRow
	if err := csvutil.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parse city catalog: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("parse city catalog: no rows")
	}

	c := &Catalog{byKey: make(map[string]domain.City, len(rows))}
	for i, r := range rows {
		city := r.city()
		if err := city.Validate(); err != nil {
			return nil, fmt.Errorf("parse city catalog: row %d: %w", i+2, err)
		}

		key := domain.CityKey(city.Name)
		if _, dup := c.byKey[key]; dup {
			return nil, fmt.Errorf("parse city catalog: row %d: duplicate city %q", i+2, city.Name)
		}
		c.byKey[key] = city
		c.cities = append(c.cities, city)
	}

	sort.Slice(c.cities, func(i, j int) bool { return c.cities[i].Name < c.cities[j].Name })
	return c, nil
}

// DefaultCatalog returns the catalog compiled into the binary.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalogCSV)
}

// LoadCatalog reads the catalog at path, or the compiled-in one when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load city catalog: %w", err)
	}
	return ParseCatalog(bytes.TrimSpace(b))
}

// Lookup resolves name case- and whitespace-insensitively.
func (c *Catalog) Lookup(_ context.Context, name string) (domain.City, error) {
	if city, ok := c.Get(name); ok {
		return city, nil
	}
	return domain.City{}, &domain.UnknownCityError{City: strings.TrimSpace(name)}
}

func (c *Catalog) Get(name string) (domain.City, bool) {
	city, ok := c.byKey[domain.CityKey(name)]
	return city, ok
}

// Cities lists the catalog sorted by name.
func (c *Catalog) Cities() []domain.City {
	out := make([]domain.City, len(c.cities))
	copy(out, c.cities)
	return out
}
