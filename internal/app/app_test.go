package app

import (
	"context"
	"testing"
	"time"
	"trip-window-service/internal/config"
	"trip-window-service/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig() config.Config {
	return config.Config{
		ForecastCacheTTL:   time.Hour,
		StopFetchTimeout:   time.Second,
		MaxConcurrentStops: 2,
		LeadTimeDays:       14,
		HorizonWeeks:       52,
		Travelers:          2,
		Scoring:            domain.DefaultScoringPolicy(),
	}
}

func TestBuildWithoutOptionalIntegrations(t *testing.T) {
	a, err := Build(context.Background(), baseConfig())
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, map[string]bool{"open_meteo": true}, a.Integrations)
	assert.NotEmpty(t, a.Resolver.Cities())
	assert.Equal(t, 2, a.Planner.Options().MaxConcurrentStops)
}

func TestBuildWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := baseConfig()
	cfg.RedisURL = "redis://" + mr.Addr()

	a, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	assert.True(t, a.Integrations["redis"])
	require.NoError(t, a.Close())
}

func TestBuildFailsOnUnreachableRedis(t *testing.T) {
	cfg := baseConfig()
	cfg.RedisURL = "redis://127.0.0.1:1"

	_, err := Build(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open redis")
}

func TestBuildRejectsInvalidPolicy(t *testing.T) {
	cfg := baseConfig()
	cfg.Scoring.Weights.Price = 0.9

	_, err := Build(context.Background(), cfg)
	require.Error(t, err)
}
