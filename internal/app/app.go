package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"trip-window-service/internal/adapters/cache"
	"trip-window-service/internal/adapters/events"
	"trip-window-service/internal/adapters/explain"
	"trip-window-service/internal/adapters/forecast"
	"trip-window-service/internal/adapters/geocode"
	"trip-window-service/internal/adapters/pricing"
	"trip-window-service/internal/adapters/repositories"
	"trip-window-service/internal/config"
	"trip-window-service/internal/platform/db"
	"trip-window-service/internal/platform/httpx"
	"trip-window-service/internal/platform/obs"
	"trip-window-service/internal/ports"
	"trip-window-service/internal/services"

	"github.com/redis/go-redis/v9"
)

const httpTimeout = 10 * time.Second

// App holds the wired planner and the resources it owns.
type App struct {
	Planner  *services.Planner
	Resolver *geocode.Resolver
	// Integrations reports which optional sources are configured.
	Integrations map[string]bool

	closers []func() error
}

// Build wires adapters behind ports from cfg. Optional integrations are
// skipped when their URL or key is empty; a configured database or Redis
// that cannot be reached is an error.
func Build(ctx context.Context, cfg config.Config) (_ *App, err error) {
	a := &App{Integrations: map[string]bool{}}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	catalog, err := loadCatalog(cfg.CityCatalogPath)
	if err != nil {
		return nil, err
	}

	client := httpx.New(httpTimeout)

	var cityCache geocode.CityCache
	if cfg.DatabaseURL != "" {
		conn, err := db.Open(ctx, cfg.DatabaseURL, db.Pool{MaxOpen: 2 * cfg.MaxConcurrentStops})
		if err != nil {
			return nil, fmt.Errorf("build app: %w", err)
		}
		a.closers = append(a.closers, conn.Close)
		if err := repositories.InitSchema(ctx, conn); err != nil {
			return nil, fmt.Errorf("build app: %w", err)
		}
		cityCache = cache.NewSQLGeocodeCache(conn)
		a.Integrations["postgres"] = true
	}

	var remote ports.Geocoder
	if cfg.ORSAPIKey != "" {
		remote = geocode.NewORSGeocoder(client, "", cfg.ORSAPIKey)
		a.Integrations["openrouteservice"] = true
	}
	a.Resolver = geocode.NewResolver(catalog, cityCache, remote)

	var series ports.ForecastProvider = forecast.NewResilient(forecast.NewOpenMeteo(client, ""), forecast.NewSynthetic())
	a.Integrations["open_meteo"] = true
	if cfg.RedisURL != "" {
		rc, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("build app: %w", err)
		}
		a.closers = append(a.closers, rc.Close)
		series = cache.NewRedisForecastCache(rc, series, cfg.ForecastCacheTTL)
		a.Integrations["redis"] = true
	}

	var quotes ports.PricingProvider = pricing.NewEstimator()
	if cfg.RapidAPIKey != "" {
		quotes = pricing.NewResilient(pricing.NewBooking(client, "", cfg.RapidAPIKey), nil)
		a.Integrations["booking"] = true
	}

	ev, err := events.DefaultCatalog()
	if err != nil {
		return nil, fmt.Errorf("build app: %w", err)
	}

	var explainer ports.Explainer
	if cfg.GeminiAPIKey != "" {
		g, err := explain.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("build app: %w", err)
		}
		a.closers = append(a.closers, g.Close)
		explainer = g
		a.Integrations["gemini"] = true
	}

	engine, err := services.NewScoreEngine(cfg.Scoring)
	if err != nil {
		return nil, fmt.Errorf("build app: %w", err)
	}

	a.Planner, err = services.NewPlanner(services.Deps{
		Geocoder:  a.Resolver,
		Forecast:  series,
		Pricing:   quotes,
		Events:    ev,
		Explainer: explainer,
		Engine:    engine,
	}, services.Options{
		HorizonWeeks:       cfg.HorizonWeeks,
		LeadTimeDays:       cfg.LeadTimeDays,
		Travelers:          cfg.Travelers,
		StopTimeout:        cfg.StopFetchTimeout,
		MaxConcurrentStops: cfg.MaxConcurrentStops,
	})
	if err != nil {
		return nil, fmt.Errorf("build app: %w", err)
	}

	obs.Logger(ctx).Info().Interface("integrations", a.Integrations).Int("cities", len(catalog.Cities())).Msg("planner ready")
	return a, nil
}

// Close releases owned resources in reverse order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func loadCatalog(path string) (*geocode.Catalog, error) {
	if path == "" {
		return geocode.DefaultCatalog()
	}
	return geocode.LoadCatalog(path)
}

// LoadCatalog returns the catalog named by cfg, or the embedded one.
func LoadCatalog(cfg config.Config) (*geocode.Catalog, error) {
	return loadCatalog(cfg.CityCatalogPath)
}

func openRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("open redis: parse url: %w", err)
	}
	rc := redis.NewClient(opts)

	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rc.Ping(pctx).Err(); err != nil {
		rc.Close()
		return nil, fmt.Errorf("open redis: ping: %w", err)
	}
	return rc, nil
}

// OpenDB opens the configured database or fails when none is configured.
func OpenDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	return db.Open(ctx, cfg.DatabaseURL, db.Pool{})
}
