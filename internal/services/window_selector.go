package services

import (
	"fmt"
	"math"
	"time"
	"trip-window-service/internal/domain"
)

// Windows whose average differs by less than this are treated as equal.
const scoreEpsilon = 1e-9

// WindowSelector finds the best contiguous trip window in a scored horizon.
// Selection is a pure function of its inputs.
type WindowSelector struct {
	policy domain.ScoringPolicy
}

func NewWindowSelector(policy domain.ScoringPolicy) *WindowSelector {
	return &WindowSelector{policy: policy}
}

// horizon is the scored series expanded to one value per day so that windows
// can start on any day and partial buckets weigh by their day overlap.
type horizon struct {
	start  time.Time
	days   int
	prefix []float64
}

func newHorizon(scored []domain.ScoredBucket) horizon {
	days := len(scored) * domain.BucketDays
	prefix := make([]float64, days+1)
	for d := 0; d < days; d++ {
		prefix[d+1] = prefix[d] + scored[d/domain.BucketDays].TravelScore
	}
	return horizon{start: domain.Day(scored[0].PeriodStart), days: days, prefix: prefix}
}

func (h horizon) average(start, tripDays int) float64 {
	return (h.prefix[start+tripDays] - h.prefix[start]) / float64(tripDays)
}

// Select returns the window of tripDays days with the highest average
// TravelScore. Ties go to the earliest start date. now anchors the confidence.
func (s *WindowSelector) Select(destination string, scored []domain.ScoredBucket, tripDays int, now time.Time) (domain.TravelWindow, error) {
	return s.SelectWhere(destination, scored, tripDays, now, nil)
}

// SelectWhere is Select restricted to start dates accepted by keep. A nil keep
// accepts every start. When keep rejects every start ErrNoWindow is returned.
func (s *WindowSelector) SelectWhere(
	destination string,
	scored []domain.ScoredBucket,
	tripDays int,
	now time.Time,
	keep func(start time.Time) bool,
) (domain.TravelWindow, error) {
	if err := checkHorizon(destination, scored, tripDays); err != nil {
		return domain.TravelWindow{}, err
	}

	h := newHorizon(scored)
	best := -1
	bestAvg := math.Inf(-1)

	for d := 0; d+tripDays <= h.days; d++ {
		if keep != nil && !keep(domain.AddDays(h.start, d)) {
			continue
		}
		// Strictly greater keeps the earliest start on ties.
		if avg := h.average(d, tripDays); avg > bestAvg+scoreEpsilon {
			best, bestAvg = d, avg
		}
	}

	if best < 0 {
		return domain.TravelWindow{}, ErrNoWindow
	}

	return s.window(h, scored, best, tripDays, now), nil
}

// ScoreWindow scores the fixed window [start, start+tripDays-1] without searching.
func (s *WindowSelector) ScoreWindow(destination string, scored []domain.ScoredBucket, start time.Time, tripDays int, now time.Time) (domain.TravelWindow, error) {
	if err := checkHorizon(destination, scored, tripDays); err != nil {
		return domain.TravelWindow{}, err
	}

	h := newHorizon(scored)
	offset := domain.DaysBetween(h.start, start)
	if offset < 0 || offset+tripDays > h.days {
		return domain.TravelWindow{}, &domain.InsufficientHorizonError{
			Destination: destination,
			TripDays:    tripDays,
			HorizonDays: max(0, h.days-offset),
		}
	}

	return s.window(h, scored, offset, tripDays, now), nil
}

func checkHorizon(destination string, scored []domain.ScoredBucket, tripDays int) error {
	if tripDays < 1 {
		return &domain.InvalidRequestError{Field: "trip_days", Reason: fmt.Sprintf("must be >= 1, got %d", tripDays)}
	}
	if len(scored) == 0 {
		return &domain.InsufficientHorizonError{Destination: destination, TripDays: tripDays, HorizonDays: 0}
	}
	if horizonDays := len(scored) * domain.BucketDays; tripDays > horizonDays {
		return &domain.InsufficientHorizonError{Destination: destination, TripDays: tripDays, HorizonDays: horizonDays}
	}
	return nil
}

func (s *WindowSelector) window(h horizon, scored []domain.ScoredBucket, start, tripDays int, now time.Time) domain.TravelWindow {
	startDate := domain.AddDays(h.start, start)

	// Day-overlap weight of every bucket the window touches.
	var (
		ws     domain.WindowScores
		travel float64
		parts  []overlap
	)
	first := start / domain.BucketDays
	last := (start + tripDays - 1) / domain.BucketDays
	for i := first; i <= last; i++ {
		lo := max(start, i*domain.BucketDays)
		hi := min(start+tripDays, (i+1)*domain.BucketDays)
		w := float64(hi-lo) / float64(tripDays)
		b := scored[i]

		ws.PriceScore += w * b.PriceScore
		ws.WeatherScore += w * b.WeatherScore
		ws.CrowdScore += w * b.CrowdScore
		ws.Price += w * b.Price
		ws.Temperature += w * b.Temperature
		ws.Precipitation += w * b.Precipitation
		ws.Crowd += w * b.Crowd
		travel += w * b.TravelScore
		parts = append(parts, overlap{weight: w, score: b.TravelScore})
	}

	return domain.TravelWindow{
		StartDate:   startDate,
		EndDate:     domain.AddDays(startDate, tripDays-1),
		TripDays:    tripDays,
		TravelScore: clampScore(travel),
		Confidence:  s.Confidence(domain.DaysBetween(now, startDate), weightedStdDev(parts, travel)),
		Scores:      ws,
	}
}

// Confidence decays with the number of days between now and the window start
// and with the spread of bucket scores inside the window. Result is in [0,1].
func (s *WindowSelector) Confidence(daysAhead int, stdDev float64) float64 {
	if daysAhead < 0 {
		daysAhead = 0
	}
	horizonFactor := math.Exp(-math.Ln2 * float64(daysAhead) / s.policy.HorizonHalfLifeDays)
	varianceFactor := 1 / (1 + math.Max(0, stdDev)/s.policy.VarianceScale)

	c := horizonFactor * varianceFactor
	return math.Max(0, math.Min(1, c))
}

type overlap struct {
	weight float64
	score  float64
}

func weightedStdDev(parts []overlap, mean float64) float64 {
	var v float64
	for _, p := range parts {
		d := p.score - mean
		v += p.weight * d * d
	}
	return math.Sqrt(v)
}
