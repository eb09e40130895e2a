package ports

import (
	"context"
	"time"
	"trip-window-service/internal/domain"
)

// Contract for hotel and transport quotes. Calls may fail independently;
// callers substitute an estimate on failure.
type PricingProvider interface {
	// Return the accommodation cost for a stay in city.
	GetStopCost(ctx context.Context, city domain.City, stay domain.DateRange, travelers int) (domain.StopCost, error)
	// Return the transport cost of one leg for all travellers.
	GetSegmentCost(ctx context.Context, from, to domain.City, date time.Time, travelers int) (domain.SegmentCost, error)
}
