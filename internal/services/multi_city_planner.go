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

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// MultiCityRequest asks for a dated round trip through several cities.
type MultiCityRequest struct {
	Origin    string
	Stops     []domain.CityStopSpec
	TotalDays int
	// StartDate defaults to today plus the lead time.
	StartDate     time.Time
	OptimizeRoute bool
	Travelers     int
	// MaxBudget, when positive, sets Itinerary.WithinBudget.
	MaxBudget float64
	// UseRealPrices nil means the configured provider; false means estimates only.
	UseRealPrices *bool
	// Progress, when set, receives planning milestones.
	Progress ProgressFunc
}

// Failure stages recorded on degraded stops.
const (
	StageForecast = "forecast"
	StagePricing  = "pricing"
	StageEvents   = "events"
)

// PlanMultiCity allocates days, orders the route, dates every stop and then
// gathers forecast, pricing and events for all stops concurrently.
//
// Infeasible budgets, unknown cities and invalid requests abort the plan.
// A failing collaborator for one stop only degrades that stop, and so does a
// collaborator that answered from its fallback. Stops whose forecast failed
// outright are left out of the overall score.
func (p *Planner) PlanMultiCity(ctx context.Context, req MultiCityRequest) (_ domain.Itinerary, err error) {
	defer obs.Time(ctx, "planner.PlanMultiCity")(&err)

	if err := validateMultiCity(req); err != nil {
		return domain.Itinerary{}, err
	}

	origin := req.Origin
	if strings.TrimSpace(origin) == "" {
		origin = DefaultOrigin
	}
	travelers := req.Travelers
	if travelers <= 0 {
		travelers = p.opts.Travelers
	}

	now := p.opts.Now()
	today := domain.Day(now)
	start := domain.AddDays(today, p.opts.LeadTimeDays)
	if !req.StartDate.IsZero() {
		start = domain.Day(req.StartDate)
		if start.Before(today) {
			return domain.Itinerary{}, &domain.InvalidRequestError{
				Field:  "start_date",
				Reason: fmt.Sprintf("%s is in the past", start.Format(domain.DateLayout)),
			}
		}
	}

	meter := newProgressMeter(req.Progress, len(req.Stops))

	// Allocation first: an infeasible budget makes geocoding pointless.
	allocation, err := AllocateDays(req.Stops, req.TotalDays)
	if err != nil {
		return domain.Itinerary{}, err
	}
	meter.report(ProgressAllocated, "", fmt.Sprintf("Allocated %d days across %d cities", req.TotalDays, len(req.Stops)), 15)

	names := []string{origin}
	hints := map[string]domain.Coordinates{}
	for _, s := range req.Stops {
		names = append(names, s.City)
		if s.Coordinates != nil {
			hints[domain.CityKey(s.City)] = *s.Coordinates
		}
	}
	cities, err := resolveCities(ctx, p.deps.Geocoder, names, hints)
	if err != nil {
		return domain.Itinerary{}, err
	}

	originCity := cities[domain.CityKey(origin)]
	stopCities := make([]domain.City, len(req.Stops))
	for i, s := range req.Stops {
		stopCities[i] = cities[domain.CityKey(s.City)]
	}

	route, err := OrderRoute(originCity, stopCities, req.OptimizeRoute)
	if err != nil {
		return domain.Itinerary{}, err
	}
	meter.report(ProgressRouted, "", fmt.Sprintf("Route: %s", strings.Join(route.Cities, " → ")), 30)

	stops := make([]domain.ItineraryStop, len(route.Order))
	cursor := start
	prev := originCity
	for pos, idx := range route.Order {
		days := allocation[idx].DaysAssigned
		c := stopCities[idx]
		stops[pos] = domain.ItineraryStop{
			City:        c.Name,
			Order:       pos + 1,
			Coordinates: c.Coordinates,
			FromCity:    prev.Name,
			StartDate:   cursor,
			EndDate:     domain.AddDays(cursor, days-1),
			Days:        days,
		}
		cursor = domain.AddDays(cursor, days)
		prev = c
	}
	end := domain.AddDays(start, req.TotalDays-1)

	run := stopRun{
		Planner: p,
		pricing: p.pricingFor(req.UseRealPrices),
		// The horizon starts today so that every stop is scored against the
		// same stretch of forecast, and is long enough to reach the last day.
		horizonStart: today,
		weeks:        max(p.opts.HorizonWeeks, (domain.DaysBetween(today, end)+domain.BucketDays)/domain.BucketDays),
		now:          now,
		travelers:    travelers,
	}

	// Legs: origin -> s1, s1 -> s2, ..., sn -> origin. Leg j departs on the
	// last day of the stop before it.
	legs := make([]leg, 0, len(stops)+1)
	legs = append(legs, leg{from: originCity, to: stopCities[route.Order[0]], date: start})
	for pos := 1; pos < len(stops); pos++ {
		legs = append(legs, leg{from: stopCities[route.Order[pos-1]], to: stopCities[route.Order[pos]], date: stops[pos-1].EndDate})
	}
	legs = append(legs, leg{from: stopCities[route.Order[len(stops)-1]], to: originCity, date: end})

	stopCosts := make([]domain.StopCost, len(stops))
	segCosts := make([]domain.SegmentCost, len(legs))
	legFailures := make([]error, len(legs))

	var g errgroup.Group
	g.SetLimit(p.opts.MaxConcurrentStops)

	// Each task owns one slot of stops/stopCosts/segCosts/legFailures.
	for pos := range stops {
		c := stopCities[route.Order[pos]]
		g.Go(func() error {
			stopCosts[pos] = run.fillStop(ctx, &stops[pos], c)
			meter.stopDone(c.Name)
			return nil
		})
	}
	for j := range legs {
		g.Go(func() error {
			segCosts[j], legFailures[j] = run.quoteLeg(ctx, legs[j])
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return domain.Itinerary{}, err
	}

	// A leg's failure degrades the stop it arrives at; the return leg
	// belongs to the last stop.
	for j, ferr := range legFailures {
		if ferr == nil {
			continue
		}
		pos := min(j, len(stops)-1)
		recordFailure(ctx, &stops[pos], StagePricing, ferr)
	}

	for i := range stops {
		stops[i].Cost = stopCosts[i]
	}

	it := domain.Itinerary{
		ID:          uuid.New(),
		Origin:      originCity.Name,
		StartDate:   start,
		EndDate:     end,
		TotalDays:   req.TotalDays,
		Allocation:  allocation,
		Route:       route,
		Stops:       stops,
		Costs:       domain.NewCostBreakdown(stopCosts, segCosts, travelers),
		Score:       OverallScoreOf(stops),
		GeneratedAt: now.UTC(),
	}
	if req.MaxBudget > 0 {
		limit := it.Costs.TotalCost.LessThanOrEqual(decimal.NewFromFloat(req.MaxBudget))
		it.WithinBudget = &limit
	}
	it.Summary = ItinerarySummary(it)
	meter.report(ProgressCosted, "", fmt.Sprintf("Total cost %s for %d travelers", it.Costs.TotalCost.StringFixed(2), it.Costs.Travelers), 95)

	return it, nil
}

type leg struct {
	from, to domain.City
	date     time.Time
}

// stopRun carries the per-request settings shared by every stop task.
type stopRun struct {
	*Planner
	pricing      ports.PricingProvider
	horizonStart time.Time
	weeks        int
	now          time.Time
	travelers    int
}

// recordFailure marks stop as degraded by a failure at stage.
func recordFailure(ctx context.Context, stop *domain.ItineraryStop, stage string, err error) {
	f := &domain.PartialStopFailure{City: stop.City, Stage: stage, Start: stop.StartDate, End: stop.EndDate, Err: err}
	obs.Logger(ctx).Warn().Err(err).Str("city", stop.City).Str("stage", stage).Msg("stop degraded")
	stop.Failures = append(stop.Failures, f.Error())
}

// fillStop scores the pinned window, prices the stay, gathers events and
// explains the window for one stop. Every collaborator call gets its own
// StopTimeout. It returns the hotel quote and records failures on stop,
// including answers a collaborator served from its fallback.
func (r stopRun) fillStop(ctx context.Context, stop *domain.ItineraryStop, city domain.City) domain.StopCost {
	stay := domain.DateRange{Start: stop.StartDate, End: stop.EndDate}

	w, series, err := r.scoreStop(ctx, city, stay)
	switch {
	case err != nil:
		stop.ForecastFailed = true
		recordFailure(ctx, stop, StageForecast, err)
	default:
		if series.FallbackReason != "" {
			recordFailure(ctx, stop, StageForecast, errors.New(series.FallbackReason))
		}
		rw := roundWindow(w)
		stop.Window = &rw
		stop.DataSource = series.Source
	}

	cctx, cancel := context.WithTimeout(ctx, r.opts.StopTimeout)
	cost, err := r.pricing.GetStopCost(cctx, city, stay, r.travelers)
	cancel()
	switch {
	case err != nil:
		recordFailure(ctx, stop, StagePricing, err)
		cost = domain.EstimateStopCost(city, stay, domain.RoomsFor(r.travelers))
	case cost.FallbackReason != "":
		recordFailure(ctx, stop, StagePricing, errors.New(cost.FallbackReason))
	}

	ectx, cancel := context.WithTimeout(ctx, r.opts.StopTimeout)
	events, err := r.deps.Events.EventsFor(ectx, city, stay)
	cancel()
	if err != nil {
		recordFailure(ctx, stop, StageEvents, err)
		events = domain.SummarizeEvents(city.Name, nil, false)
	}
	stop.Events = events

	if stop.Window != nil {
		xctx, cancel := context.WithTimeout(ctx, r.opts.StopTimeout)
		stop.Explanation = explain(xctx, r.deps.Explainer, domain.ExplanationInput{
			Destination: city.Name,
			StartDate:   stop.StartDate,
			TripDays:    stop.Days,
			Price:       stop.Window.Scores.Price,
			Temperature: stop.Window.Scores.Temperature,
			Precip:      stop.Window.Scores.Precipitation,
			Crowd:       stop.Window.Scores.Crowd,
			TravelScore: stop.Window.TravelScore,
			Confidence:  stop.Window.Confidence,
		})
		cancel()
	}

	return cost
}

// scoreStop scores the stop's fixed dates against the city's full horizon.
func (r stopRun) scoreStop(ctx context.Context, city domain.City, stay domain.DateRange) (domain.TravelWindow, ports.ForecastSeries, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opts.StopTimeout)
	defer cancel()

	series, err := r.deps.Forecast.GetSeries(ctx, city, r.horizonStart, r.weeks)
	if err != nil {
		return domain.TravelWindow{}, ports.ForecastSeries{}, err
	}
	scored, err := r.deps.Engine.Score(city.Name, series.Buckets)
	if err != nil {
		return domain.TravelWindow{}, ports.ForecastSeries{}, err
	}
	w, err := r.selector.ScoreWindow(city.Name, scored, stay.Start, stay.Days(), r.now)
	if err != nil {
		return domain.TravelWindow{}, ports.ForecastSeries{}, err
	}
	return w, series, nil
}

// quoteLeg prices one leg. The returned error is the reason the quote is an
// estimate, or nil for a live quote.
func (r stopRun) quoteLeg(parent context.Context, l leg) (domain.SegmentCost, error) {
	ctx, cancel := context.WithTimeout(parent, r.opts.StopTimeout)
	defer cancel()

	seg, err := r.pricing.GetSegmentCost(ctx, l.from, l.to, l.date, r.travelers)
	if err != nil {
		obs.Logger(ctx).Warn().Err(err).Str("from", l.from.Name).Str("to", l.to.Name).Msg("segment quote failed, using estimate")
		return domain.EstimateSegmentCost(l.from, l.to, l.date, r.travelers), fmt.Errorf("%s → %s: %w", l.from.Name, l.to.Name, err)
	}
	if seg.FallbackReason != "" {
		return seg, fmt.Errorf("%s → %s: %s", l.from.Name, l.to.Name, seg.FallbackReason)
	}
	return seg, nil
}

// OverallScoreOf averages TravelScores over stops whose forecast succeeded.
// Min, Max and DayWeighted are 0 when no stop could be scored.
func OverallScoreOf(stops []domain.ItineraryStop) domain.OverallScore {
	var (
		out       domain.OverallScore
		sum       float64
		daySum    float64
		totalDays int
	)
	out.Min = math.Inf(1)
	out.Max = math.Inf(-1)

	for _, s := range stops {
		if s.Degraded() {
			out.DegradedStops++
		}
		if s.ForecastFailed || s.Window == nil {
			continue
		}
		v := s.Window.TravelScore
		out.ScoredStops++
		sum += v
		daySum += v * float64(s.Days)
		totalDays += s.Days
		out.Min = math.Min(out.Min, v)
		out.Max = math.Max(out.Max, v)
	}

	if out.ScoredStops == 0 {
		out.Min, out.Max = 0, 0
		return out
	}

	out.Average = round(sum/float64(out.ScoredStops), 1)
	out.DayWeighted = round(daySum/float64(totalDays), 1)
	return out
}

func validateMultiCity(req MultiCityRequest) error {
	if len(req.Stops) == 0 {
		return &domain.InvalidRequestError{Field: "cities", Reason: "must not be empty"}
	}
	if req.MaxBudget < 0 {
		return &domain.InvalidRequestError{Field: "max_budget", Reason: "must be positive"}
	}
	seen := map[string]bool{}
	for _, s := range req.Stops {
		key := domain.CityKey(s.City)
		if key == "" {
			return &domain.InvalidRequestError{Field: "cities", Reason: "contain an empty city name"}
		}
		if seen[key] {
			return &domain.InvalidRequestError{Field: "cities", Reason: fmt.Sprintf("list %q more than once", s.City)}
		}
		seen[key] = true
	}
	return nil
}
