package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"trip-window-service/internal/domain"
	"trip-window-service/internal/platform/obs"
)

// SQLGeocodeCache is a Postgres-backed cache of remotely geocoded cities,
// keyed by domain.CityKey.
type SQLGeocodeCache struct {
	DB *sql.DB
}

func NewSQLGeocodeCache(db *sql.DB) *SQLGeocodeCache {
	return &SQLGeocodeCache{DB: db}
}

// Fetch cached cities for the given names. Misses are absent from the result.
func (s *SQLGeocodeCache) GetMany(
	ctx context.Context,
	names []string,
) (_ map[string]domain.City, err error) {
	defer obs.Time(ctx, "geocode.cache.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("geocode cache: db is nil")
	}

	seen := map[string]struct{}{}
	keys := make([]string, 0, len(names))
	for _, n := range names {
		k := domain.CityKey(n)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}

	if len(keys) == 0 {
		return map[string]domain.City{}, nil
	}

	q := `
	SELECT name_key, name, country, lon, lat
	FROM geocode_cache
	WHERE name_key = ANY($1::text[]);
	`

	rows, err := s.DB.QueryContext(ctx, q, keys)
	if err != nil {
		return nil, fmt.Errorf("get geocode cache: query geocode_cache table: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.City, len(keys))
	for rows.Next() {
		var (
			key, name, country string
			lon, lat           float64
		)
		if err := rows.Scan(&key, &name, &country, &lon, &lat); err != nil {
			return nil, fmt.Errorf("get geocode cache: scan rows: %w", err)
		}
		out[key] = domain.City{
			Name:        name,
			Country:     country,
			Coordinates: domain.Coordinates{Lon: lon, Lat: lat},
			Climate:     domain.GenericClimate(lat),
			HotelIndex:  1,
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get geocode cache: row iteration: %w", err)
	}

	return out, nil
}

// Store name -> city mappings in the cache.
func (s *SQLGeocodeCache) PutMany(ctx context.Context, cities map[string]domain.City) (err error) {
	defer obs.Time(ctx, "geocode.cache.PutMany")(&err)

	if s.DB == nil {
		return errors.New("geocode cache: db is nil")
	}

	if len(cities) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert geocode cache: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO geocode_cache (name_key, name, country, lon, lat, updated_at)
	VALUES ($1, $2, $3, $4, $5, now())
	ON CONFLICT (name_key) DO UPDATE
	SET name = EXCLUDED.name,
		country = EXCLUDED.country,
		lon = EXCLUDED.lon,
		lat = EXCLUDED.lat,
		updated_at = EXCLUDED.updated_at;
	`)
	if err != nil {
		return fmt.Errorf("insert geocode cache: db prepare: %w", err)
	}
	defer stmt.Close()

	for name, c := range cities {
		key := domain.CityKey(name)
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("insert geocode cache: empty city key")
		}

		if _, err := stmt.ExecContext(ctx, key, c.Name, c.Country, c.Coordinates.Lon, c.Coordinates.Lat); err != nil {
			return fmt.Errorf("insert geocode cache city=%q: %w", name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert geocode cache commit: %w", err)
	}

	return nil
}
