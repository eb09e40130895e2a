package ports

import (
	"context"
	"time"
	"trip-window-service/internal/domain"
)

// ForecastSeries is an ordered run of weekly buckets for one destination.
type ForecastSeries struct {
	Buckets []domain.ForecastBucket `json:"buckets"`

	// Source is domain.DataSourceLive or domain.DataSourceSynthetic.
	Source string `json:"source"`

	// FallbackReason holds the primary's failure when Buckets came from a fallback.
	FallbackReason string `json:"fallback_reason,omitempty"`
}

// Contract for retrieving weekly forecast buckets.
// Implementations return at least one bucket, each fully populated, or fail.
type ForecastProvider interface {
	// Return weeks consecutive buckets, the first starting on from.
	GetSeries(ctx context.Context, city domain.City, from time.Time, weeks int) (ForecastSeries, error)
}
