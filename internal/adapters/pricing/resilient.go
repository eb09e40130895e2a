package pricing

import (
	"context"
	"time"
	"trip-window-service/internal/domain"
	"trip-window-service/internal/platform/obs"
	"trip-window-service/internal/ports"
)

// Resilient asks Primary first and answers with Fallback on any primary error,
// unless the caller's context is done. A nil Primary always uses Fallback.
// Fallback answers to a primary failure carry the failure in FallbackReason.
type Resilient struct {
	Primary  ports.PricingProvider
	Fallback ports.PricingProvider
}

func NewResilient(primary, fallback ports.PricingProvider) *Resilient {
	if fallback == nil {
		fallback = NewEstimator()
	}
	return &Resilient{Primary: primary, Fallback: fallback}
}

func (r *Resilient) GetStopCost(ctx context.Context, city domain.City, stay domain.DateRange, travelers int) (domain.StopCost, error) {
	if r.Primary != nil {
		cost, err := r.Primary.GetStopCost(ctx, city, stay, travelers)
		if err == nil {
			return cost, nil
		}
		if ctx.Err() != nil {
			return domain.StopCost{}, err
		}
		obs.Logger(ctx).Warn().Err(err).Str("city", city.Name).Msg("hotel pricing failed, using estimate")
		cost, ferr := r.Fallback.GetStopCost(ctx, city, stay, travelers)
		if ferr != nil {
			return domain.StopCost{}, ferr
		}
		cost.FallbackReason = err.Error()
		return cost, nil
	}
	return r.Fallback.GetStopCost(ctx, city, stay, travelers)
}

func (r *Resilient) GetSegmentCost(ctx context.Context, from, to domain.City, date time.Time, travelers int) (domain.SegmentCost, error) {
	if r.Primary != nil {
		cost, err := r.Primary.GetSegmentCost(ctx, from, to, date, travelers)
		if err == nil {
			return cost, nil
		}
		if ctx.Err() != nil {
			return domain.SegmentCost{}, err
		}
		obs.Logger(ctx).Warn().Err(err).Str("from", from.Name).Str("to", to.Name).Msg("flight pricing failed, using estimate")
		cost, ferr := r.Fallback.GetSegmentCost(ctx, from, to, date, travelers)
		if ferr != nil {
			return domain.SegmentCost{}, ferr
		}
		cost.FallbackReason = err.Error()
		return cost, nil
	}
	return r.Fallback.GetSegmentCost(ctx, from, to, date, travelers)
}
