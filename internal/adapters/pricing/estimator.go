package pricing

import (
	"context"
	"time"
	"trip-window-service/internal/domain"
)

// Estimator quotes seasonal fallback prices. It never fails.
type Estimator struct{}

func NewEstimator() *Estimator { return &Estimator{} }

func (Estimator) GetStopCost(_ context.Context, city domain.City, stay domain.DateRange, travelers int) (domain.StopCost, error) {
	return domain.EstimateStopCost(city, stay, domain.RoomsFor(travelers)), nil
}

func (Estimator) GetSegmentCost(_ context.Context, from, to domain.City, date time.Time, travelers int) (domain.SegmentCost, error) {
	return domain.EstimateSegmentCost(from, to, date, travelers), nil
}
