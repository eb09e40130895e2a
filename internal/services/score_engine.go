package services

import (
	"fmt"
	"math"
	"trip-window-service/internal/domain"
)

// ScoreEngine turns raw weekly forecasts into 0-100 sub-scores and a weighted
// TravelScore. It holds no state besides its policy and is safe for concurrent use.
type ScoreEngine struct {
	policy domain.ScoringPolicy
}

// NewScoreEngine validates policy and returns an engine bound to it.
func NewScoreEngine(policy domain.ScoringPolicy) (*ScoreEngine, error) {
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("new score engine: %w", err)
	}
	return &ScoreEngine{policy: policy}, nil
}

// DefaultScoreEngine uses domain.DefaultScoringPolicy.
func DefaultScoreEngine() *ScoreEngine {
	return &ScoreEngine{policy: domain.DefaultScoringPolicy()}
}

func (e *ScoreEngine) Policy() domain.ScoringPolicy { return e.policy }

// Score validates every bucket and scores it against the min/max of the whole
// horizon. Buckets must start exactly one week apart. A single bucket is valid
// input; price and crowd then score 100.
func (e *ScoreEngine) Score(destination string, buckets []domain.ForecastBucket) ([]domain.ScoredBucket, error) {
	if len(buckets) == 0 {
		return nil, &domain.DataQualityError{Destination: destination, Index: 0, Field: "buckets", Reason: "is empty"}
	}

	first := domain.Day(buckets[0].PeriodStart)
	for i, b := range buckets {
		if err := b.Validate(destination, i); err != nil {
			return nil, err
		}
		if want := domain.AddDays(first, i*domain.BucketDays); !domain.Day(b.PeriodStart).Equal(want) {
			return nil, &domain.DataQualityError{
				Destination: destination,
				Index:       i,
				Field:       "period_start",
				Reason:      fmt.Sprintf("is %s, want %s for contiguous weeks", b.PeriodStart.Format(domain.DateLayout), want.Format(domain.DateLayout)),
			}
		}
	}

	minPrice, maxPrice := buckets[0].Price, buckets[0].Price
	minCrowd, maxCrowd := buckets[0].Crowd, buckets[0].Crowd
	for _, b := range buckets[1:] {
		minPrice = math.Min(minPrice, b.Price)
		maxPrice = math.Max(maxPrice, b.Price)
		minCrowd = math.Min(minCrowd, b.Crowd)
		maxCrowd = math.Max(maxCrowd, b.Crowd)
	}

	w := e.policy.Weights
	out := make([]domain.ScoredBucket, len(buckets))
	for i, b := range buckets {
		price := InverseNormalize(b.Price, minPrice, maxPrice)
		crowd := InverseNormalize(b.Crowd, minCrowd, maxCrowd)
		weather := e.WeatherScore(b.Temperature, b.Precipitation)

		out[i] = domain.ScoredBucket{
			ForecastBucket: b,
			PriceScore:     price,
			WeatherScore:   weather,
			CrowdScore:     crowd,
			TravelScore:    clampScore(w.Weather*weather + w.Price*price + w.Crowd*crowd),
		}
	}

	return out, nil
}

// InverseNormalize maps x in [lo,hi] to 100..0. A flat range scores 100.
func InverseNormalize(x, lo, hi float64) float64 {
	if hi-lo <= 0 {
		return 100
	}
	return clampScore(100 * (hi - x) / (hi - lo))
}

// WeatherScore is 100 * temperature factor * precipitation factor.
// The temperature factor is 1 inside the comfort band and falls linearly to 0
// TempDecayC degrees outside it. The precipitation factor falls linearly from 1
// at 0 mm to 0 at PrecipCeilingMm.
func (e *ScoreEngine) WeatherScore(tempC, precipMm float64) float64 {
	p := e.policy

	var dev float64
	switch {
	case tempC < p.ComfortLowC:
		dev = p.ComfortLowC - tempC
	case tempC > p.ComfortHighC:
		dev = tempC - p.ComfortHighC
	}
	tempFactor := math.Max(0, 1-dev/p.TempDecayC)

	precipFactor := math.Max(0, 1-math.Max(0, precipMm)/p.PrecipCeilingMm)

	return clampScore(100 * tempFactor * precipFactor)
}

func clampScore(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}

