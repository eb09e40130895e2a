package domain

import (
	"fmt"
	"math"
	"time"
)

// DateLayout is the calendar-date format used in payloads and messages.
const DateLayout = "2006-01-02"

// BucketDays is the length of one forecast bucket.
const BucketDays = 7

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddDays returns the calendar date n days after d.
func AddDays(d time.Time, n int) time.Time {
	return Day(d).AddDate(0, 0, n)
}

// DaysBetween returns the whole number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(math.Round(Day(b).Sub(Day(a)).Hours() / 24))
}

// ForecastBucket holds one week of raw forecast values for one destination.
// Buckets are produced by a ForecastProvider and never mutated afterwards.
type ForecastBucket struct {
	PeriodStart   time.Time `json:"period_start"`
	Price         float64   `json:"price"`
	Temperature   float64   `json:"temperature"`
	Precipitation float64   `json:"precipitation"`
	Crowd         float64   `json:"crowd"`
}

// Validate reports the first missing or malformed field of the bucket.
func (b ForecastBucket) Validate(destination string, index int) error {
	if b.PeriodStart.IsZero() {
		return &DataQualityError{Destination: destination, Index: index, Field: "period_start", Reason: "is missing"}
	}

	fields := []struct {
		name string
		v    float64
	}{
		{"price", b.Price},
		{"temperature", b.Temperature},
		{"precipitation", b.Precipitation},
		{"crowd", b.Crowd},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) {
			return &DataQualityError{Destination: destination, Index: index, Field: f.name, Reason: "is NaN"}
		}
		if math.IsInf(f.v, 0) {
			return &DataQualityError{Destination: destination, Index: index, Field: f.name, Reason: "is infinite"}
		}
	}

	if b.Price < 0 {
		return &DataQualityError{Destination: destination, Index: index, Field: "price", Reason: fmt.Sprintf("is negative (%v)", b.Price)}
	}
	if b.Precipitation < 0 {
		return &DataQualityError{Destination: destination, Index: index, Field: "precipitation", Reason: fmt.Sprintf("is negative (%v)", b.Precipitation)}
	}
	if b.Crowd < 0 || b.Crowd > 100 {
		return &DataQualityError{Destination: destination, Index: index, Field: "crowd", Reason: fmt.Sprintf("is outside [0,100] (%v)", b.Crowd)}
	}

	return nil
}

// ScoredBucket is a ForecastBucket with its derived 0-100 scores.
type ScoredBucket struct {
	ForecastBucket
	PriceScore   float64 `json:"price_score"`
	WeatherScore float64 `json:"weather_score"`
	CrowdScore   float64 `json:"crowd_score"`
	TravelScore  float64 `json:"travel_score"`
}

// WindowScores are day-weighted averages over the buckets a window overlaps.
type WindowScores struct {
	PriceScore    float64 `json:"price_score"`
	WeatherScore  float64 `json:"weather_score"`
	CrowdScore    float64 `json:"crowd_score"`
	Price         float64 `json:"predicted_price"`
	Temperature   float64 `json:"predicted_temp"`
	Precipitation float64 `json:"predicted_precipitation"`
	Crowd         float64 `json:"predicted_crowd"`
}

// TravelWindow is a contiguous span of TripDays days with its average score.
// EndDate - StartDate == TripDays - 1.
type TravelWindow struct {
	StartDate   time.Time    `json:"start_date"`
	EndDate     time.Time    `json:"end_date"`
	TripDays    int          `json:"trip_days"`
	TravelScore float64      `json:"travel_score"`
	Confidence  float64      `json:"confidence"`
	Scores      WindowScores `json:"scores"`
}

// ScoreWeights is the composite TravelScore policy. The weights are a policy
// constant and must sum to 1.0.
type ScoreWeights struct {
	Weather float64 `yaml:"weather" json:"weather"`
	Price   float64 `yaml:"price" json:"price"`
	Crowd   float64 `yaml:"crowd" json:"crowd"`
}

// ScoringPolicy collects every tunable of the score engine and window selector.
type ScoringPolicy struct {
	Weights ScoreWeights `yaml:"weights"`
	// Comfort band in Celsius with full temperature credit.
	ComfortLowC  float64 `yaml:"comfort_low_c"`
	ComfortHighC float64 `yaml:"comfort_high_c"`
	// Temperature credit decays linearly to 0 this many degrees outside the band.
	TempDecayC float64 `yaml:"temp_decay_c"`
	// Weekly precipitation (mm) at which the precipitation factor reaches 0.
	PrecipCeilingMm float64 `yaml:"precip_ceiling_mm"`
	// Confidence halves roughly every HorizonHalfLifeDays days ahead.
	HorizonHalfLifeDays float64 `yaml:"horizon_half_life_days"`
	// Score standard deviation at which the variance factor is 0.5.
	VarianceScale float64 `yaml:"variance_scale"`
}

// DefaultScoringPolicy returns the compiled-in policy: weather 0.40, price 0.30,
// crowd 0.30 and a 15-25 C comfort band.
func DefaultScoringPolicy() ScoringPolicy {
	return ScoringPolicy{
		Weights:             ScoreWeights{Weather: 0.40, Price: 0.30, Crowd: 0.30},
		ComfortLowC:         15,
		ComfortHighC:        25,
		TempDecayC:          15,
		PrecipCeilingMm:     100,
		HorizonHalfLifeDays: 120,
		VarianceScale:       15,
	}
}

// Validate enforces the policy invariants.
func (p ScoringPolicy) Validate() error {
	w := p.Weights
	if w.Weather < 0 || w.Price < 0 || w.Crowd < 0 {
		return fmt.Errorf("scoring policy: weights must be non-negative (weather=%v price=%v crowd=%v)", w.Weather, w.Price, w.Crowd)
	}
	if sum := w.Weather + w.Price + w.Crowd; math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("scoring policy: weights must sum to 1.0, got %v", sum)
	}
	if p.ComfortLowC > p.ComfortHighC {
		return fmt.Errorf("scoring policy: comfort band low %v is above high %v", p.ComfortLowC, p.ComfortHighC)
	}
	if p.TempDecayC <= 0 {
		return fmt.Errorf("scoring policy: temp_decay_c must be positive, got %v", p.TempDecayC)
	}
	if p.PrecipCeilingMm <= 0 {
		return fmt.Errorf("scoring policy: precip_ceiling_mm must be positive, got %v", p.PrecipCeilingMm)
	}
	if p.HorizonHalfLifeDays <= 0 {
		return fmt.Errorf("scoring policy: horizon_half_life_days must be positive, got %v", p.HorizonHalfLifeDays)
	}
	if p.VarianceScale <= 0 {
		return fmt.Errorf("scoring policy: variance_scale must be positive, got %v", p.VarianceScale)
	}
	return nil
}

// ComfortCenterC is the midpoint of the comfort band.
func (p ScoringPolicy) ComfortCenterC() float64 {
	return (p.ComfortLowC + p.ComfortHighC) / 2
}
