package forecast

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
	"trip-window-service/internal/domain"
	"trip-window-service/internal/platform/httpx"
	"trip-window-service/internal/platform/obs"
	"trip-window-service/internal/ports"
)

// Resilient tries Primary and falls back to Fallback when the primary fails
// with a recoverable error. Any other error, and caller cancellation, is returned.
type Resilient struct {
	Primary  ports.ForecastProvider
	Fallback ports.ForecastProvider
}

func NewResilient(primary, fallback ports.ForecastProvider) *Resilient {
	return &Resilient{Primary: primary, Fallback: fallback}
}

func (r *Resilient) GetSeries(ctx context.Context, city domain.City, from time.Time, weeks int) (ports.ForecastSeries, error) {
	if r.Primary == nil {
		return r.Fallback.GetSeries(ctx, city, from, weeks)
	}

	series, err := r.Primary.GetSeries(ctx, city, from, weeks)
	if err == nil {
		return series, nil
	}

	if ctx.Err() != nil || !Recoverable(err) || r.Fallback == nil {
		return ports.ForecastSeries{}, err
	}

	obs.Logger(ctx).Warn().Err(err).Str("city", city.Name).Msg("forecast primary failed, using fallback")

	series, ferr := r.Fallback.GetSeries(ctx, city, from, weeks)
	if ferr != nil {
		return ports.ForecastSeries{}, fmt.Errorf("forecast fallback after %v: %w", err, ferr)
	}
	series.FallbackReason = err.Error()
	return series, nil
}

// Recoverable reports whether err belongs to the set that triggers a fallback:
// HTTP status errors, network errors, timeouts, unavailable sources and bad data.
func Recoverable(err error) bool {
	var (
		se  *httpx.StatusError
		ne  net.Error
		dqe *domain.DataQualityError
	)
	return errors.As(err, &se) ||
		errors.As(err, &ne) ||
		errors.As(err, &dqe) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, domain.ErrSourceUnavailable)
}
