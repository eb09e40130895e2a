package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"trip-window-service/internal/domain"
)

// InitSchema creates the Postgres tables used by the service.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createGeocodeCacheQuery := `
	CREATE TABLE IF NOT EXISTS geocode_cache (
		name_key TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		country TEXT NOT NULL DEFAULT '',
		lon DOUBLE PRECISION NOT NULL CHECK (lon BETWEEN -180 AND 180),
		lat DOUBLE PRECISION NOT NULL CHECK (lat BETWEEN -90 AND 90),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_geocode_cache_updated_at
	ON geocode_cache(updated_at);
	`

	statements := []string{
		createGeocodeCacheQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

// SeedCities inserts catalog cities into geocode_cache. Rows that already
// exist are left untouched and are not counted.
func SeedCities(ctx context.Context, db *sql.DB, cities []domain.City) (int, error) {
	if db == nil {
		return 0, errors.New("seed cities: DB is nil")
	}

	for i, c := range cities {
		if strings.TrimSpace(c.Name) == "" {
			return 0, fmt.Errorf("seed cities: city at index %d: name cannot be empty", i+1)
		}
		if !c.Coordinates.Valid() {
			return 0, fmt.Errorf("seed cities: %s: coordinates out of range", c.Name)
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("seed cities: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
	INSERT INTO geocode_cache (name_key, name, country, lon, lat)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (name_key) DO NOTHING;
	`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("seed cities: prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, c := range cities {
		res, err := stmt.ExecContext(ctx, domain.CityKey(c.Name), c.Name, c.Country, c.Coordinates.Lon, c.Coordinates.Lat)
		if err != nil {
			return 0, fmt.Errorf("seed cities: insert %q: %w", c.Name, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("seed cities: commit tx: %w", err)
	}

	return inserted, nil
}
