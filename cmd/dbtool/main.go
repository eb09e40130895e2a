package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"
	"trip-window-service/internal/adapters/repositories"
	"trip-window-service/internal/app"
	"trip-window-service/internal/config"
	"trip-window-service/internal/platform/obs"

	"github.com/rs/zerolog/log"
)

func main() {
	envLoaded := config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	obs.Setup(cfg.LogLevel, cfg.LogPretty)
	if !envLoaded {
		log.Info().Msg("No .env file found (using environment variables)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := app.OpenDB(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	if err := initAndSeed(ctx, db, cfg); err != nil {
		log.Fatal().Err(err).Msg("dbtool failed")
	}
}

func initAndSeed(ctx context.Context, db *sql.DB, cfg config.Config) error {
	log.Info().Msg("Initializing database schema...")
	if err := repositories.InitSchema(ctx, db); err != nil {
		return fmt.Errorf("schema initialization failed: %w", err)
	}
	log.Info().Msg("Schema ready.")

	catalog, err := app.LoadCatalog(cfg)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	log.Info().Msg("Seeding geocode cache...")
	n, err := repositories.SeedCities(ctx, db, catalog.Cities())
	if err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}
	log.Info().Int("inserted", n).Int("catalogued", len(catalog.Cities())).Msg("Seeding complete.")

	return nil
}
