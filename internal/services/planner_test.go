package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	"trip-window-service/internal/adapters/events"
	"trip-window-service/internal/adapters/forecast"
	"trip-window-service/internal/adapters/geocode"
	"trip-window-service/internal/adapters/pricing"
	"trip-window-service/internal/domain"
	"trip-window-service/internal/platform/httpx"
	"trip-window-service/internal/ports"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 1, 5, 9, 30, 0, 0, time.UTC)

type flakyForecast struct {
	next  ports.ForecastProvider
	fail  map[string]error
	block map[string]bool
}

func (f *flakyForecast) GetSeries(ctx context.Context, city domain.City, from time.Time, weeks int) (ports.ForecastSeries, error) {
	key := domain.CityKey(city.Name)
	if f.block[key] {
		<-ctx.Done()
		return ports.ForecastSeries{}, ctx.Err()
	}
	if err, ok := f.fail[key]; ok {
		return ports.ForecastSeries{}, err
	}
	return f.next.GetSeries(ctx, city, from, weeks)
}

type flakyPricing struct {
	pricing.Estimator
	failStops map[string]bool
}

func (f *flakyPricing) GetStopCost(ctx context.Context, city domain.City, stay domain.DateRange, travelers int) (domain.StopCost, error) {
	if f.failStops[domain.CityKey(city.Name)] {
		return domain.StopCost{}, errors.New("hotel api: 503")
	}
	return f.Estimator.GetStopCost(ctx, city, stay, travelers)
}

type fixedExplainer struct {
	text string
	err  error
}

func (e fixedExplainer) Explain(context.Context, domain.ExplanationInput) (string, error) {
	return e.text, e.err
}

// downForecast stands in for a live forecast API that is returning 503s.
type downForecast struct{}

func (downForecast) GetSeries(context.Context, domain.City, time.Time, int) (ports.ForecastSeries, error) {
	return ports.ForecastSeries{}, fmt.Errorf("openmeteo: %w", &httpx.StatusError{Code: 503, Body: "upstream down"})
}

// unavailableBooking serves 503 for every Booking.com endpoint.
func unavailableBooking(t *testing.T) ports.PricingProvider {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)
	return pricing.NewBooking(httpx.New(time.Second).WithRetry(1, 0), srv.URL, "secret")
}

type plannerSetup struct {
	forecast  *flakyForecast
	pricing   *flakyPricing
	explainer ports.Explainer
	opts      Options
	// provider, when set, replaces pricing.
	provider ports.PricingProvider
}

func newTestPlanner(t *testing.T, mods ...func(*plannerSetup)) *Planner {
	t.Helper()

	cities, err := geocode.DefaultCatalog()
	require.NoError(t, err)
	ev, err := events.DefaultCatalog()
	require.NoError(t, err)

	s := &plannerSetup{
		forecast: &flakyForecast{next: forecast.NewSynthetic()},
		pricing:  &flakyPricing{},
		opts: Options{
			HorizonWeeks: 52,
			LeadTimeDays: 14,
			StopTimeout:  time.Second,
			Now:          func() time.Time { return fixedNow },
		},
	}
	for _, m := range mods {
		m(s)
	}
	var prices ports.PricingProvider = s.pricing
	if s.provider != nil {
		prices = s.provider
	}

	p, err := NewPlanner(Deps{
		Geocoder:  geocode.NewResolver(cities, nil, nil),
		Forecast:  s.forecast,
		Pricing:   prices,
		Events:    ev,
		Explainer: s.explainer,
	}, s.opts)
	require.NoError(t, err)
	return p
}

func TestPlanSingle(t *testing.T) {
	p := newTestPlanner(t)

	res, err := p.PlanSingle(context.Background(), SingleCityRequest{Destination: "barcelona", TripDays: 7})
	require.NoError(t, err)

	earliest := domain.AddDays(domain.Day(fixedNow), 14)
	assert.Equal(t, "Barcelona", res.Destination)
	assert.Equal(t, "London", res.Origin)
	assert.False(t, res.Window.StartDate.Before(earliest))
	assert.Equal(t, 6, domain.DaysBetween(res.Window.StartDate, res.Window.EndDate))
	assert.Equal(t, domain.DataSourceSynthetic, res.DataSource)
	assert.NotEmpty(t, res.Explanation)
	assert.GreaterOrEqual(t, res.Window.Confidence, 0.0)
	assert.LessOrEqual(t, res.Window.Confidence, 1.0)

	require.Len(t, res.Costs.Segments, 2)
	assert.Equal(t, "London", res.Costs.Segments[0].From)
	assert.Equal(t, "London", res.Costs.Segments[1].To)
	assertTotals(t, res.Costs)
	assert.Equal(t, 2, res.Costs.Travelers)
}

func TestPlanSingleMatchesDirectSelection(t *testing.T) {
	p := newTestPlanner(t)
	res, err := p.PlanSingle(context.Background(), SingleCityRequest{Destination: "Rome", TripDays: 5})
	require.NoError(t, err)

	rome, _ := mustCatalog(t).Get("Rome")
	series, err := forecast.NewSynthetic().GetSeries(context.Background(), rome, domain.AddDays(domain.Day(fixedNow), 14), 52)
	require.NoError(t, err)
	scored, err := DefaultScoreEngine().Score("Rome", series.Buckets)
	require.NoError(t, err)
	want, err := NewWindowSelector(domain.DefaultScoringPolicy()).Select("Rome", scored, 5, fixedNow)
	require.NoError(t, err)

	assert.Equal(t, want.StartDate, res.Window.StartDate)
}

func TestPlanSingleErrors(t *testing.T) {
	p := newTestPlanner(t)
	ctx := context.Background()

	_, err := p.PlanSingle(ctx, SingleCityRequest{Destination: "Paris", TripDays: 10, HorizonWeeks: 1})
	var ih *domain.InsufficientHorizonError
	require.ErrorAs(t, err, &ih)
	assert.Equal(t, "Paris", ih.Destination)

	_, err = p.PlanSingle(ctx, SingleCityRequest{Destination: "Atlantis", TripDays: 3})
	var uc *domain.UnknownCityError
	require.ErrorAs(t, err, &uc)

	_, err = p.PlanSingle(ctx, SingleCityRequest{Destination: "Paris", TripDays: 0})
	var ir *domain.InvalidRequestError
	require.ErrorAs(t, err, &ir)

	broken := newTestPlanner(t, func(s *plannerSetup) {
		s.forecast.fail = map[string]error{"paris": &domain.DataQualityError{Destination: "Paris", Field: "price", Reason: "is NaN"}}
	})
	_, err = broken.PlanSingle(ctx, SingleCityRequest{Destination: "Paris", TripDays: 3})
	var dq *domain.DataQualityError
	require.ErrorAs(t, err, &dq)
	assert.True(t, domain.IsRequestError(err))
}

func TestPlanSingleBudget(t *testing.T) {
	p := newTestPlanner(t)
	ctx := context.Background()

	_, err := p.PlanSingle(ctx, SingleCityRequest{Destination: "Paris", TripDays: 4, MaxBudget: 50})
	var be *domain.BudgetExceededError
	require.ErrorAs(t, err, &be)
	assert.Greater(t, be.CheapestCost, 50.0)
	assert.Contains(t, err.Error(), "Paris")

	free, err := p.PlanSingle(ctx, SingleCityRequest{Destination: "Paris", TripDays: 4})
	require.NoError(t, err)
	rich, err := p.PlanSingle(ctx, SingleCityRequest{Destination: "Paris", TripDays: 4, MaxBudget: 1e7})
	require.NoError(t, err)
	assert.Equal(t, free.Window, rich.Window)

	limit := be.CheapestCost + 200
	capped, err := p.PlanSingle(ctx, SingleCityRequest{Destination: "Paris", TripDays: 4, MaxBudget: limit})
	require.NoError(t, err)
	paris, _ := mustCatalog(t).Get("Paris")
	london, _ := mustCatalog(t).Get("London")
	est := estimateTripCost(paris, london, true, capped.Window.StartDate, 4, 2)
	f, _ := est.Float64()
	assert.LessOrEqual(t, f, limit)
}

func TestPlanSingleExplainer(t *testing.T) {
	ok := newTestPlanner(t, func(s *plannerSetup) { s.explainer = fixedExplainer{text: "Go in spring."} })
	res, err := ok.PlanSingle(context.Background(), SingleCityRequest{Destination: "Lisbon", TripDays: 3})
	require.NoError(t, err)
	assert.Equal(t, "Go in spring.", res.Explanation)

	failing := newTestPlanner(t, func(s *plannerSetup) { s.explainer = fixedExplainer{err: errors.New("quota")} })
	res, err = failing.PlanSingle(context.Background(), SingleCityRequest{Destination: "Lisbon", TripDays: 3})
	require.NoError(t, err)
	assert.Contains(t, res.Explanation, "Lisbon")
}

func TestPlanSingleCustomCoordinates(t *testing.T) {
	p := newTestPlanner(t)
	ctx := context.Background()

	moved := domain.Coordinates{Lat: 48.9, Lon: 2.4}
	res, err := p.PlanSingle(ctx, SingleCityRequest{Destination: "Paris", TripDays: 3, Coordinates: &moved})
	require.NoError(t, err)
	assert.Equal(t, "Paris", res.Destination)
	assert.Equal(t, "France", res.Country)
	assert.Equal(t, moved, res.Coordinates)

	hallstatt := domain.Coordinates{Lat: 47.5622, Lon: 13.6493}
	res, err = p.PlanSingle(ctx, SingleCityRequest{Destination: "Hallstatt", TripDays: 3, Coordinates: &hallstatt})
	require.NoError(t, err)
	assert.Equal(t, "Hallstatt", res.Destination)
	assert.Equal(t, hallstatt, res.Coordinates)
}

func TestPlanSingleUseRealPrices(t *testing.T) {
	p := newTestPlanner(t, func(s *plannerSetup) {
		s.pricing.failStops = map[string]bool{"rome": true}
		s.provider = pricing.NewResilient(s.pricing, nil)
	})
	ctx := context.Background()

	res, err := p.PlanSingle(ctx, SingleCityRequest{Destination: "Rome", TripDays: 4})
	require.NoError(t, err)
	assert.Contains(t, res.Costs.Stops[0].FallbackReason, "503")

	off := false
	res, err = p.PlanSingle(ctx, SingleCityRequest{Destination: "Rome", TripDays: 4, UseRealPrices: &off})
	require.NoError(t, err)
	assert.Empty(t, res.Costs.Stops[0].FallbackReason)
	assert.Equal(t, domain.SourceEstimate, res.Costs.Stops[0].Source)
}

func TestQuotePrices(t *testing.T) {
	p := newTestPlanner(t)
	ctx := context.Background()
	checkIn := domain.AddDays(domain.Day(fixedNow), 30)

	q, err := p.QuotePrices(ctx, PriceQuoteRequest{Destination: "rome", CheckIn: checkIn, CheckOut: domain.AddDays(checkIn, 4)})
	require.NoError(t, err)
	assert.Equal(t, "Rome", q.Destination)
	assert.Equal(t, "London", q.Origin)
	assert.Equal(t, 4, q.Hotel.Nights)
	require.Len(t, q.Flights, 2)
	assert.Equal(t, checkIn, q.Flights[0].Date)
	assert.Equal(t, domain.AddDays(checkIn, 4), q.Flights[1].Date)
	assert.Equal(t, 2, q.Costs.Travelers)
	assertTotals(t, q.Costs)

	q, err = p.QuotePrices(ctx, PriceQuoteRequest{Destination: "Rome", Origin: "Rome", CheckIn: checkIn, CheckOut: domain.AddDays(checkIn, 2)})
	require.NoError(t, err)
	assert.Empty(t, q.Flights)
	assert.Empty(t, q.Origin)

	bad := []PriceQuoteRequest{
		{Destination: "Rome", CheckIn: domain.AddDays(domain.Day(fixedNow), -1), CheckOut: checkIn},
		{Destination: "Rome", CheckIn: checkIn, CheckOut: checkIn},
		{Destination: "Rome", CheckIn: checkIn, CheckOut: domain.AddDays(checkIn, MaxQuoteNights+1)},
		{Destination: "Rome"},
		{CheckIn: checkIn, CheckOut: domain.AddDays(checkIn, 2)},
	}
	for _, req := range bad {
		_, err := p.QuotePrices(ctx, req)
		var ir *domain.InvalidRequestError
		assert.ErrorAs(t, err, &ir, "%+v", req)
	}

	_, err = p.QuotePrices(ctx, PriceQuoteRequest{Destination: "Atlantis", CheckIn: checkIn, CheckOut: domain.AddDays(checkIn, 2)})
	var uc *domain.UnknownCityError
	require.ErrorAs(t, err, &uc)
}

func TestPlanSingleSameOriginSkipsFlights(t *testing.T) {
	res, err := newTestPlanner(t).PlanSingle(context.Background(), SingleCityRequest{Destination: "London", Origin: "london", TripDays: 3})
	require.NoError(t, err)
	assert.Empty(t, res.Costs.Segments)
	assert.True(t, res.Costs.FlightTotal.IsZero())
}

func assertTotals(t *testing.T, c domain.CostBreakdown) {
	t.Helper()
	total, _ := c.TotalCost.Float64()
	hotel, _ := c.HotelTotal.Float64()
	flights, _ := c.FlightTotal.Float64()
	assert.InDelta(t, hotel+flights, total, 0.011)
}

func mustCatalog(t *testing.T) *geocode.Catalog {
	t.Helper()
	c, err := geocode.DefaultCatalog()
	require.NoError(t, err)
	return c
}

func twoCityRequest(total int) MultiCityRequest {
	return MultiCityRequest{
		Origin: "London",
		Stops: []domain.CityStopSpec{
			{City: "Paris", MinDays: 3, MaxDays: 5, PreferredDays: 4},
			{City: "Barcelona", MinDays: 3, MaxDays: 6, PreferredDays: 4},
		},
		TotalDays:     total,
		OptimizeRoute: true,
	}
}

func assertConsecutiveStops(t *testing.T, it domain.Itinerary) {
	t.Helper()
	days := 0
	for i, s := range it.Stops {
		assert.Equal(t, s.Days-1, domain.DaysBetween(s.StartDate, s.EndDate), s.City)
		assert.Equal(t, i+1, s.Order)
		if i == 0 {
			assert.Equal(t, it.StartDate, s.StartDate)
		} else {
			assert.Equal(t, domain.AddDays(it.Stops[i-1].EndDate, 1), s.StartDate, s.City)
		}
		days += s.Days
	}
	assert.Equal(t, it.TotalDays, days)
	assert.Equal(t, it.EndDate, it.Stops[len(it.Stops)-1].EndDate)
}

func TestPlanMultiCityEndToEnd(t *testing.T) {
	p := newTestPlanner(t)

	it, err := p.PlanMultiCity(context.Background(), twoCityRequest(11))
	require.NoError(t, err)

	require.Len(t, it.Stops, 2)
	assertConsecutiveStops(t, it)
	assert.Equal(t, domain.AddDays(domain.Day(fixedNow), 14), it.StartDate)

	sum := 0
	for _, a := range it.Allocation {
		sum += a.DaysAssigned
	}
	assert.Equal(t, 11, sum)

	assert.Equal(t, domain.MethodExhaustive, it.Route.Method)
	require.Len(t, it.Route.Segments, 3)
	require.Len(t, it.Costs.Segments, 3)
	assert.Equal(t, "London", it.Costs.Segments[0].From)
	assert.Equal(t, "London", it.Costs.Segments[2].To)
	assertTotals(t, it.Costs)

	assert.Equal(t, 2, it.Score.ScoredStops)
	assert.Zero(t, it.Score.DegradedStops)
	assert.NotEqual(t, uuid.Nil, it.ID)
	assert.Contains(t, it.Summary, "London → ")
	assert.Nil(t, it.WithinBudget)

	for _, s := range it.Stops {
		require.NotNil(t, s.Window)
		assert.Equal(t, s.StartDate, s.Window.StartDate)
		assert.Equal(t, s.Days, s.Window.TripDays)
	}
}

func TestPlanMultiCityTwelveDaysIsInfeasible(t *testing.T) {
	_, err := newTestPlanner(t).PlanMultiCity(context.Background(), twoCityRequest(12))

	var ib *domain.InfeasibleBudgetError
	require.ErrorAs(t, err, &ib)
	assert.Equal(t, 11, ib.SumMaxDays)
}

func TestPlanMultiCityPartialForecastFailure(t *testing.T) {
	p := newTestPlanner(t, func(s *plannerSetup) {
		s.forecast.fail = map[string]error{"rome": errors.New("climate api: 500")}
	})

	req := MultiCityRequest{
		Origin: "London",
		Stops: []domain.CityStopSpec{
			{City: "Paris", MinDays: 2, MaxDays: 4, PreferredDays: 3},
			{City: "Rome", MinDays: 2, MaxDays: 4, PreferredDays: 3},
			{City: "Vienna", MinDays: 2, MaxDays: 4, PreferredDays: 3},
		},
		TotalDays:     9,
		OptimizeRoute: true,
	}

	it, err := p.PlanMultiCity(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, it.Stops, 3)
	assertConsecutiveStops(t, it)

	var valid []float64
	for _, s := range it.Stops {
		if s.City == "Rome" {
			assert.True(t, s.ForecastFailed)
			assert.Nil(t, s.Window)
			require.Len(t, s.Failures, 1)
			assert.Contains(t, s.Failures[0], "forecast failed")
			assert.Contains(t, s.Failures[0], "Rome")
			continue
		}
		require.NotNil(t, s.Window)
		valid = append(valid, s.Window.TravelScore)
	}

	assert.Equal(t, 2, it.Score.ScoredStops)
	assert.Equal(t, 1, it.Score.DegradedStops)
	assert.InDelta(t, (valid[0]+valid[1])/2, it.Score.Average, 0.051)
	assert.Contains(t, it.Summary, "1 stop(s) use fallback data")
}

func TestPlanMultiCityPricingFailureDegradesButScores(t *testing.T) {
	p := newTestPlanner(t, func(s *plannerSetup) {
		s.pricing.failStops = map[string]bool{"paris": true}
	})

	it, err := p.PlanMultiCity(context.Background(), twoCityRequest(10))
	require.NoError(t, err)

	for _, s := range it.Stops {
		if s.City != "Paris" {
			continue
		}
		assert.True(t, s.Degraded())
		assert.False(t, s.ForecastFailed)
		assert.True(t, s.Cost.Estimated)
		assert.Contains(t, s.Failures[0], "pricing failed")
	}
	assert.Equal(t, 2, it.Score.ScoredStops)
	assert.Equal(t, 1, it.Score.DegradedStops)
}

func TestPlanMultiCityLivePricingOutageDegradesStops(t *testing.T) {
	p := newTestPlanner(t, func(s *plannerSetup) {
		s.provider = pricing.NewResilient(unavailableBooking(t), nil)
	})

	it, err := p.PlanMultiCity(context.Background(), twoCityRequest(10))
	require.NoError(t, err)

	require.Len(t, it.Stops, 2)
	for _, s := range it.Stops {
		assert.True(t, s.Degraded(), s.City)
		assert.False(t, s.ForecastFailed, s.City)
		assert.True(t, s.Cost.Estimated, s.City)
		assert.NotEmpty(t, s.Cost.FallbackReason, s.City)
		require.NotEmpty(t, s.Failures, s.City)
		assert.Contains(t, s.Failures[0], "pricing failed", s.City)
	}
	for _, seg := range it.Costs.Segments {
		assert.Equal(t, domain.SourceEstimate, seg.Source)
	}
	assert.Equal(t, 2, it.Score.ScoredStops)
	assert.Equal(t, 2, it.Score.DegradedStops)
	assert.Contains(t, it.Summary, "use fallback data")
	assertTotals(t, it.Costs)
}

func TestPlanMultiCityForecastFallbackDegradesButScores(t *testing.T) {
	p := newTestPlanner(t, func(s *plannerSetup) {
		s.forecast.next = forecast.NewResilient(downForecast{}, forecast.NewSynthetic())
	})

	it, err := p.PlanMultiCity(context.Background(), twoCityRequest(10))
	require.NoError(t, err)

	for _, s := range it.Stops {
		assert.False(t, s.ForecastFailed, s.City)
		require.NotNil(t, s.Window, s.City)
		assert.Equal(t, domain.DataSourceSynthetic, s.DataSource)
		require.Len(t, s.Failures, 1, s.City)
		assert.Contains(t, s.Failures[0], "forecast failed")
		assert.Contains(t, s.Failures[0], "503")
	}
	assert.Equal(t, 2, it.Score.ScoredStops)
	assert.Equal(t, 2, it.Score.DegradedStops)
}

func TestPlanMultiCityEstimatesOnly(t *testing.T) {
	p := newTestPlanner(t, func(s *plannerSetup) {
		s.provider = pricing.NewResilient(unavailableBooking(t), nil)
	})

	req := twoCityRequest(10)
	useReal := false
	req.UseRealPrices = &useReal

	it, err := p.PlanMultiCity(context.Background(), req)
	require.NoError(t, err)

	assert.Zero(t, it.Score.DegradedStops)
	for _, s := range it.Stops {
		assert.Equal(t, domain.SourceEstimate, s.Cost.Source)
		assert.Empty(t, s.Cost.FallbackReason)
	}
}

func TestPlanMultiCityReportsProgress(t *testing.T) {
	var got []Progress
	req := twoCityRequest(10)
	req.Progress = func(pr Progress) { got = append(got, pr) }

	_, err := newTestPlanner(t).PlanMultiCity(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, got, 5)
	assert.Equal(t, ProgressAllocated, got[0].Stage)
	assert.Equal(t, ProgressRouted, got[1].Stage)
	assert.Equal(t, ProgressStop, got[2].Stage)
	assert.Equal(t, ProgressStop, got[3].Stage)
	assert.Equal(t, ProgressCosted, got[4].Stage)
	assert.ElementsMatch(t, []string{"Paris", "Barcelona"}, []string{got[2].City, got[3].City})
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i].Percent, got[i-1].Percent)
	}
	assert.Equal(t, 85, got[3].Percent)
}

func TestPlanMultiCityStopExplanations(t *testing.T) {
	p := newTestPlanner(t, func(s *plannerSetup) {
		s.explainer = fixedExplainer{text: "Worth the detour."}
		s.forecast.fail = map[string]error{"paris": domain.ErrSourceUnavailable}
	})

	it, err := p.PlanMultiCity(context.Background(), twoCityRequest(10))
	require.NoError(t, err)

	for _, s := range it.Stops {
		if s.City == "Paris" {
			assert.Empty(t, s.Explanation)
			continue
		}
		assert.Equal(t, "Worth the detour.", s.Explanation)
	}

	it, err = newTestPlanner(t).PlanMultiCity(context.Background(), twoCityRequest(10))
	require.NoError(t, err)
	for _, s := range it.Stops {
		assert.Contains(t, s.Explanation, s.City)
	}
}

func TestPlanMultiCityCustomCoordinates(t *testing.T) {
	p := newTestPlanner(t)
	hallstatt := domain.Coordinates{Lat: 47.5622, Lon: 13.6493}

	req := twoCityRequest(10)
	req.Stops[1] = domain.CityStopSpec{City: "Hallstatt", MinDays: 3, MaxDays: 6, PreferredDays: 4, Coordinates: &hallstatt}

	it, err := p.PlanMultiCity(context.Background(), req)
	require.NoError(t, err)

	var found bool
	for _, s := range it.Stops {
		if s.City == "Hallstatt" {
			found = true
			assert.Equal(t, hallstatt, s.Coordinates)
			assert.NotNil(t, s.Window)
		}
	}
	assert.True(t, found)

	bad := domain.Coordinates{Lat: 123, Lon: 0}
	req.Stops[1].Coordinates = &bad
	_, err = p.PlanMultiCity(context.Background(), req)
	var ir *domain.InvalidRequestError
	require.ErrorAs(t, err, &ir)
	assert.Equal(t, "coordinates", ir.Field)
}

func TestPlanMultiCityStopTimeout(t *testing.T) {
	p := newTestPlanner(t, func(s *plannerSetup) {
		s.forecast.block = map[string]bool{"barcelona": true}
		s.opts.StopTimeout = 50 * time.Millisecond
	})

	it, err := p.PlanMultiCity(context.Background(), twoCityRequest(9))
	require.NoError(t, err)

	assert.Equal(t, 1, it.Score.ScoredStops)
	for _, s := range it.Stops {
		assert.Equal(t, s.City == "Barcelona", s.ForecastFailed, s.City)
	}
}

func TestPlanMultiCityRequestErrors(t *testing.T) {
	p := newTestPlanner(t)
	ctx := context.Background()

	req := twoCityRequest(10)
	req.Stops[1].City = "Atlantis"
	_, err := p.PlanMultiCity(ctx, req)
	var uc *domain.UnknownCityError
	require.ErrorAs(t, err, &uc)
	assert.Equal(t, "Atlantis", uc.City)

	req = twoCityRequest(10)
	req.Stops[1].City = " paris"
	_, err = p.PlanMultiCity(ctx, req)
	var ir *domain.InvalidRequestError
	require.ErrorAs(t, err, &ir)

	req = twoCityRequest(10)
	req.StartDate = domain.AddDays(fixedNow, -1)
	_, err = p.PlanMultiCity(ctx, req)
	require.ErrorAs(t, err, &ir)

	req = twoCityRequest(10)
	req.Stops[0].PreferredDays = 9
	_, err = p.PlanMultiCity(ctx, req)
	var is *domain.InvalidStopError
	require.ErrorAs(t, err, &is)
}

func TestPlanMultiCityManualOrderAndStartDate(t *testing.T) {
	req := MultiCityRequest{
		Origin: "London",
		Stops: []domain.CityStopSpec{
			{City: "Rome", MinDays: 2, MaxDays: 3, PreferredDays: 2},
			{City: "Amsterdam", MinDays: 2, MaxDays: 3, PreferredDays: 2},
			{City: "Barcelona", MinDays: 2, MaxDays: 3, PreferredDays: 2},
		},
		TotalDays: 6,
		StartDate: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		MaxBudget: 1,
	}

	it, err := newTestPlanner(t).PlanMultiCity(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, domain.MethodManual, it.Route.Method)
	assert.Equal(t, []string{"Rome", "Amsterdam", "Barcelona"}, it.Route.Cities)
	assert.Equal(t, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), it.StartDate)
	assert.Equal(t, "Rome", it.Stops[1].FromCity)
	require.NotNil(t, it.WithinBudget)
	assert.False(t, *it.WithinBudget)
}

func TestOverallScoreOf(t *testing.T) {
	w := func(v float64) *domain.TravelWindow { return &domain.TravelWindow{TravelScore: v} }
	stops := []domain.ItineraryStop{
		{City: "A", Days: 2, Window: w(80)},
		{City: "B", Days: 6, Window: w(40)},
		{City: "C", Days: 3, ForecastFailed: true, Failures: []string{"x"}},
		{City: "D", Days: 1, Window: w(60), Failures: []string{"pricing"}},
	}

	got := OverallScoreOf(stops)
	assert.Equal(t, 3, got.ScoredStops)
	assert.Equal(t, 2, got.DegradedStops)
	assert.Equal(t, 60.0, got.Average)
	assert.Equal(t, 40.0, got.Min)
	assert.Equal(t, 80.0, got.Max)
	assert.InDelta(t, (160.0+240+60)/9, got.DayWeighted, 0.05)

	none := OverallScoreOf([]domain.ItineraryStop{{ForecastFailed: true, Failures: []string{"x"}}})
	assert.Zero(t, none.ScoredStops)
	assert.Zero(t, none.Min)
	assert.Equal(t, 1, none.DegradedStops)
}

func TestRankDestinations(t *testing.T) {
	p := newTestPlanner(t)
	done := 0

	entries, err := p.RankDestinations(context.Background(), SingleCityRequest{TripDays: 5},
		[]string{"Oslo", "Atlantis", "Lisbon", "Tokyo"}, func() { done++ })
	require.NoError(t, err)

	require.Len(t, entries, 4)
	assert.Equal(t, 4, done)
	assert.Equal(t, "Atlantis", entries[3].Destination)
	require.Error(t, entries[3].Err)
	for i := 1; i < 3; i++ {
		require.NoError(t, entries[i].Err)
		assert.GreaterOrEqual(t, entries[i-1].Result.Window.TravelScore, entries[i].Result.Window.TravelScore)
	}
}

func TestTemplateExplanation(t *testing.T) {
	got := TemplateExplanation(domain.ExplanationInput{
		Destination: "Lisbon",
		StartDate:   time.Date(2026, 5, 11, 0, 0, 0, 0, time.UTC),
		TripDays:    5,
		Price:       112.4,
		Temperature: 21.3,
		Crowd:       35,
		TravelScore: 81.2,
	})

	assert.Contains(t, got, "May offers excellent value for Lisbon")
	assert.Contains(t, got, "comfortable temperatures near 21.3°C")
	assert.Contains(t, got, "light tourist crowds")
	assert.Contains(t, got, "5-day window")
}

func TestTemplateExplanationFollowsScore(t *testing.T) {
	in := domain.ExplanationInput{
		Destination: "Reykjavik",
		StartDate:   time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC),
		TripDays:    4,
		Price:       180,
		Temperature: 1.5,
		Crowd:       20,
	}

	cases := []struct {
		score float64
		want  string
		not   string
	}{
		{81, "January offers excellent value for Reykjavik", ""},
		{75, "provides the best balance", ""},
		{66, "January offers good value", "excellent"},
		{50, "is a reasonable compromise", "best balance"},
		{30, "January is a difficult time to visit Reykjavik", "value"},
	}
	for _, tc := range cases {
		in.TravelScore = tc.score
		got := TemplateExplanation(in)
		assert.Contains(t, got, tc.want, "score %v", tc.score)
		if tc.not != "" {
			assert.NotContains(t, got, tc.not, "score %v", tc.score)
		}
	}
}

func TestItinerarySummary(t *testing.T) {
	it := domain.Itinerary{
		Origin:    "London",
		TotalDays: 8,
		Route:     domain.RoutePlan{Cities: []string{"Paris", "Rome"}},
		Stops:     make([]domain.ItineraryStop, 2),
		Score:     domain.OverallScore{Average: 72.5, ScoredStops: 1, DegradedStops: 1},
	}

	assert.Equal(t,
		"Multi-city trip visiting 2 cities over 8 days. Route: London → Paris → Rome → London. "+
			"Average travel score 72.5/100. 1 stop(s) use fallback data.",
		ItinerarySummary(it))
}
