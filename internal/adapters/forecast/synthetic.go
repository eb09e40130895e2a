package forecast

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"time"
	"trip-window-service/internal/domain"
	"trip-window-service/internal/ports"
)

const daysPerYear = 365.25

// Day of year of the northern-hemisphere temperature and tourist-season peak.
const northernSummerPeak = 200

// Synthetic generates deterministic seasonal forecasts from a city's climate
// profile. The same city, start date and week count always give the same series.
type Synthetic struct{}

func NewSynthetic() *Synthetic { return &Synthetic{} }

func (s *Synthetic) GetSeries(ctx context.Context, city domain.City, from time.Time, weeks int) (ports.ForecastSeries, error) {
	if weeks < 1 {
		return ports.ForecastSeries{}, &domain.InvalidRequestError{Field: "weeks", Reason: fmt.Sprintf("must be >= 1, got %d", weeks)}
	}
	if err := ctx.Err(); err != nil {
		return ports.ForecastSeries{}, err
	}

	start := domain.Day(from)
	buckets := make([]domain.ForecastBucket, weeks)
	for i := range buckets {
		buckets[i] = Baseline(city, domain.AddDays(start, i*domain.BucketDays))
	}

	return ports.ForecastSeries{Buckets: buckets, Source: domain.DataSourceSynthetic}, nil
}

// Baseline is the synthetic bucket for the week starting on weekStart.
func Baseline(city domain.City, weekStart time.Time) domain.ForecastBucket {
	mid := domain.AddDays(weekStart, domain.BucketDays/2)
	key := domain.CityKey(city.Name) + "|" + weekStart.Format(domain.DateLayout)

	summerPeak := float64(northernSummerPeak)
	if city.Coordinates.Lat < 0 {
		summerPeak -= daysPerYear / 2
	}
	summer := seasonal(mid, summerPeak)

	temp := city.Climate.BaseTempC +
		city.Climate.TempAmplitudeC*(2*summer-1) +
		1.5*jitter(key, "temp")

	precip := weeklyPrecip(city.Climate.Precip, mid, summerPeak) * (1 + 0.2*jitter(key, "precip"))

	hotelIndex := city.HotelIndex
	if hotelIndex <= 0 {
		hotelIndex = 1
	}
	holiday := holidayFactor(mid)
	price := 100 * hotelIndex * (1 + 0.25*summer + 0.2*holiday) * (1 + 0.05*jitter(key, "price"))

	crowd := 40 + 35*summer + 15*holiday + 5*jitter(key, "crowd")

	return domain.ForecastBucket{
		PeriodStart:   weekStart,
		Price:         math.Round(price*100) / 100,
		Temperature:   math.Round(temp*10) / 10,
		Precipitation: math.Round(math.Max(0, precip)*10) / 10,
		Crowd:         math.Round(math.Max(0, math.Min(100, crowd))),
	}
}

// seasonal is 1 on peakDay of the year and 0 half a year away.
func seasonal(t time.Time, peakDay float64) float64 {
	return (1 + math.Cos(2*math.Pi*(float64(t.YearDay())-peakDay)/daysPerYear)) / 2
}

// weeklyPrecip returns expected weekly precipitation in mm.
func weeklyPrecip(p domain.PrecipPattern, t time.Time, summerPeak float64) float64 {
	winterPeak := summerPeak - daysPerYear/2
	switch p {
	case domain.PrecipMediterranean:
		return 3 + 20*seasonal(t, winterPeak)
	case domain.PrecipTropical:
		return 10 + 50*seasonal(t, summerPeak)
	case domain.PrecipOceanic:
		return 12 + 8*seasonal(t, winterPeak)
	case domain.PrecipContinental:
		return 8 + 12*seasonal(t, summerPeak)
	default:
		return 12
	}
}

// holidayFactor is 1 between Dec 15 and Jan 5.
func holidayFactor(t time.Time) float64 {
	if (t.Month() == time.December && t.Day() >= 15) || (t.Month() == time.January && t.Day() <= 5) {
		return 1
	}
	return 0
}

// jitter maps (key, field) to a stable value in [-1, 1].
func jitter(key, field string) float64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(field))
	return float64(h.Sum64()%2001)/1000 - 1
}
