package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"trip-window-service/internal/domain"
	"trip-window-service/internal/platform/obs"
	"trip-window-service/internal/ports"

	"github.com/shopspring/decimal"
)

// SingleCityRequest asks for the best window to visit one destination.
type SingleCityRequest struct {
	Destination string
	// Origin defaults to DefaultOrigin; flights are skipped when it equals Destination.
	Origin       string
	TripDays     int
	HorizonWeeks int
	Travelers    int
	// MaxBudget, when positive, drops windows whose estimated total cost is above it.
	MaxBudget float64
	// Coordinates, when set, override the geocoded destination position.
	Coordinates *domain.Coordinates
	// UseRealPrices nil means the configured provider; false means estimates only.
	UseRealPrices *bool
}

// PlanSingle geocodes, forecasts, scores and selects the best window for one
// destination, then prices it and adds events and an explanation.
func (p *Planner) PlanSingle(ctx context.Context, req SingleCityRequest) (_ domain.SingleCityResult, err error) {
	defer obs.Time(ctx, "planner.PlanSingle")(&err)

	if strings.TrimSpace(req.Destination) == "" {
		return domain.SingleCityResult{}, &domain.InvalidRequestError{Field: "destination", Reason: "must be non-empty"}
	}
	if req.TripDays < 1 {
		return domain.SingleCityResult{}, &domain.InvalidRequestError{Field: "trip_days", Reason: fmt.Sprintf("must be >= 1, got %d", req.TripDays)}
	}
	if req.MaxBudget < 0 {
		return domain.SingleCityResult{}, &domain.InvalidRequestError{Field: "max_budget", Reason: "must be positive"}
	}

	origin := req.Origin
	if strings.TrimSpace(origin) == "" {
		origin = DefaultOrigin
	}
	weeks := req.HorizonWeeks
	if weeks <= 0 {
		weeks = p.opts.HorizonWeeks
	}
	travelers := req.Travelers
	if travelers <= 0 {
		travelers = p.opts.Travelers
	}

	var hints map[string]domain.Coordinates
	if req.Coordinates != nil {
		hints = map[string]domain.Coordinates{domain.CityKey(req.Destination): *req.Coordinates}
	}
	cities, err := resolveCities(ctx, p.deps.Geocoder, []string{req.Destination, origin}, hints)
	if err != nil {
		return domain.SingleCityResult{}, err
	}
	dest := cities[domain.CityKey(req.Destination)]
	from := cities[domain.CityKey(origin)]
	withFlights := domain.CityKey(dest.Name) != domain.CityKey(from.Name)

	now := p.opts.Now()
	start := domain.AddDays(domain.Day(now), p.opts.LeadTimeDays)

	series, err := p.deps.Forecast.GetSeries(ctx, dest, start, weeks)
	if err != nil {
		return domain.SingleCityResult{}, fmt.Errorf("%s: forecast: %w", dest.Name, err)
	}

	scored, err := p.deps.Engine.Score(dest.Name, series.Buckets)
	if err != nil {
		return domain.SingleCityResult{}, err
	}

	var keep func(time.Time) bool
	cheapest := decimal.Decimal{}
	if req.MaxBudget > 0 {
		budget := decimal.NewFromFloat(req.MaxBudget)
		first := true
		keep = func(s time.Time) bool {
			cost := estimateTripCost(dest, from, withFlights, s, req.TripDays, travelers)
			if first || cost.LessThan(cheapest) {
				cheapest, first = cost, false
			}
			return !cost.GreaterThan(budget)
		}
	}

	window, err := p.selector.SelectWhere(dest.Name, scored, req.TripDays, now, keep)
	if errors.Is(err, ErrNoWindow) {
		c, _ := cheapest.Float64()
		return domain.SingleCityResult{}, &domain.BudgetExceededError{Destination: dest.Name, Budget: req.MaxBudget, CheapestCost: c}
	}
	if err != nil {
		return domain.SingleCityResult{}, err
	}

	stay := domain.DateRange{Start: window.StartDate, End: window.EndDate}
	costs := tripCosts(ctx, p.pricingFor(req.UseRealPrices), dest, from, withFlights, stay, travelers)

	events, err := p.deps.Events.EventsFor(ctx, dest, stay)
	if err != nil {
		obs.Logger(ctx).Warn().Err(err).Str("city", dest.Name).Msg("events lookup failed")
		events = domain.SummarizeEvents(dest.Name, nil, false)
	}

	result := domain.SingleCityResult{
		Destination: dest.Name,
		Country:     dest.Country,
		Coordinates: dest.Coordinates,
		Window:      roundWindow(window),
		Costs:       costs,
		Events:      events,
		DataSource:  series.Source,
		GeneratedAt: now.UTC(),
	}
	if withFlights {
		result.Origin = from.Name
	}

	result.Explanation = explain(ctx, p.deps.Explainer, domain.ExplanationInput{
		Destination: dest.Name,
		StartDate:   window.StartDate,
		TripDays:    window.TripDays,
		Price:       window.Scores.Price,
		Temperature: window.Scores.Temperature,
		Precip:      window.Scores.Precipitation,
		Crowd:       window.Scores.Crowd,
		TravelScore: window.TravelScore,
		Confidence:  window.Confidence,
	})

	return result, nil
}

// tripCosts prices the stay and, when flying, the outbound and return legs.
// Provider failures fall back to estimates.
func tripCosts(ctx context.Context, pricing ports.PricingProvider, dest, from domain.City, withFlights bool, stay domain.DateRange, travelers int) domain.CostBreakdown {
	stop, err := pricing.GetStopCost(ctx, dest, stay, travelers)
	if err != nil {
		obs.Logger(ctx).Warn().Err(err).Str("city", dest.Name).Msg("hotel quote failed, using estimate")
		stop = domain.EstimateStopCost(dest, stay, domain.RoomsFor(travelers))
	}

	var segments []domain.SegmentCost
	if withFlights {
		legs := []struct {
			from, to domain.City
			date     time.Time
		}{
			{from, dest, stay.Start},
			{dest, from, stay.End},
		}
		for _, l := range legs {
			seg, err := pricing.GetSegmentCost(ctx, l.from, l.to, l.date, travelers)
			if err != nil {
				obs.Logger(ctx).Warn().Err(err).Str("from", l.from.Name).Str("to", l.to.Name).Msg("flight quote failed, using estimate")
				seg = domain.EstimateSegmentCost(l.from, l.to, l.date, travelers)
			}
			segments = append(segments, seg)
		}
	}

	return domain.NewCostBreakdown([]domain.StopCost{stop}, segments, travelers)
}

// estimateTripCost is the fallback total for a window starting on start; it
// needs no network and is used to filter windows against a budget.
func estimateTripCost(dest, from domain.City, withFlights bool, start time.Time, tripDays, travelers int) decimal.Decimal {
	stay := domain.DateRange{Start: start, End: domain.AddDays(start, tripDays-1)}
	total := domain.EstimateStopCost(dest, stay, domain.RoomsFor(travelers)).HotelTotal
	if withFlights {
		total = total.
			Add(domain.EstimateSegmentCost(from, dest, stay.Start, travelers).FlightCost).
			Add(domain.EstimateSegmentCost(dest, from, stay.End, travelers).FlightCost)
	}
	return total
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// roundWindow rounds a window for presentation.
func roundWindow(w domain.TravelWindow) domain.TravelWindow {
	w.TravelScore = round(w.TravelScore, 1)
	w.Confidence = round(w.Confidence, 3)
	w.Scores = domain.WindowScores{
		PriceScore:    round(w.Scores.PriceScore, 1),
		WeatherScore:  round(w.Scores.WeatherScore, 1),
		CrowdScore:    round(w.Scores.CrowdScore, 1),
		Price:         round(w.Scores.Price, 2),
		Temperature:   round(w.Scores.Temperature, 1),
		Precipitation: round(w.Scores.Precipitation, 1),
		Crowd:         round(w.Scores.Crowd, 1),
	}
	return w
}
