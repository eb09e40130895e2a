package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"trip-window-service/internal/adapters/events"
	"trip-window-service/internal/adapters/forecast"
	"trip-window-service/internal/adapters/geocode"
	"trip-window-service/internal/adapters/pricing"
	"trip-window-service/internal/api/dto"
	"trip-window-service/internal/api/handlers"
	"trip-window-service/internal/domain"
	"trip-window-service/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	catalog, err := geocode.DefaultCatalog()
	require.NoError(t, err)
	ev, err := events.DefaultCatalog()
	require.NoError(t, err)
	resolver := geocode.NewResolver(catalog, nil, nil)

	planner, err := services.NewPlanner(services.Deps{
		Geocoder: resolver,
		Forecast: forecast.NewSynthetic(),
		Pricing:  pricing.NewEstimator(),
		Events:   ev,
	}, services.Options{
		Now: func() time.Time { return time.Date(2026, 2, 2, 8, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)

	return NewRouter(Deps{Planner: planner, Cities: resolver, Version: "test"})
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthAndRequestID(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
	assert.Equal(t, "ok", decode[map[string]any](t, rec)["status"])

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))

	rec = do(t, h, http.MethodPost, "/health", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodGet, rec.Header().Get("Allow"))
}

func TestDestinations(t *testing.T) {
	rec := do(t, newTestRouter(t), http.MethodGet, "/destinations", "")
	require.Equal(t, http.StatusOK, rec.Code)

	res := decode[dto.ListDestinationsResponse](t, rec)
	assert.Equal(t, len(res.Destinations), res.Count)
	assert.Greater(t, res.Count, 40)
}

func TestPredict(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/predict", `{"destination":"Paris","trip_days":5}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	res := decode[dto.PredictResponse](t, rec)
	assert.Equal(t, "Paris", res.Destination)
	assert.Equal(t, "London", res.OriginCity)
	assert.Equal(t, 5, res.TripDays)
	assert.Equal(t, domain.DataSourceSynthetic, res.DataSource)
	assert.True(t, res.PriceBreakdown.Estimated)
	assert.NotEmpty(t, res.Explanation)

	start, err := time.Parse(domain.DateLayout, res.BestStartDate)
	require.NoError(t, err)
	end, err := time.Parse(domain.DateLayout, res.BestEndDate)
	require.NoError(t, err)
	assert.Equal(t, 4, domain.DaysBetween(start, end))
}

func TestPredictRejectsBadInput(t *testing.T) {
	h := newTestRouter(t)

	cases := []struct {
		name   string
		body   string
		status int
		msg    string
	}{
		{"unknown field", `{"destination":"Paris","colour":"red"}`, http.StatusBadRequest, "invalid json body"},
		{"two objects", `{"destination":"Paris"}{}`, http.StatusBadRequest, "only one JSON object"},
		{"trip too long", `{"destination":"Paris","trip_days":45}`, http.StatusUnprocessableEntity, "trip_days"},
		{"negative budget", `{"destination":"Paris","max_budget":-5}`, http.StatusUnprocessableEntity, "max_budget"},
		{"unknown city", `{"destination":"Atlantis"}`, http.StatusUnprocessableEntity, "Atlantis"},
		{"budget too small", `{"destination":"Paris","max_budget":20}`, http.StatusUnprocessableEntity, "budget"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/predict", tc.body)
			assert.Equal(t, tc.status, rec.Code)
			assert.Contains(t, decode[map[string]string](t, rec)["error"], tc.msg)
		})
	}
}

func TestMultiCityExampleRoundTrip(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/multi-city/example", "")
	require.Equal(t, http.StatusOK, rec.Code)
	example := decode[dto.MultiCityExampleResponse](t, rec)

	body, err := json.Marshal(example.ExampleRequest)
	require.NoError(t, err)

	rec = do(t, h, http.MethodPost, "/multi-city/plan", string(body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	res := decode[dto.MultiCityResponse](t, rec)
	require.Len(t, res.Itinerary, 3)
	assert.Equal(t, 12, res.TotalDays)
	assert.Equal(t, "London", res.OriginCity)
	assert.Equal(t, domain.MethodExhaustive, res.RouteInfo.Method)
	assert.Len(t, res.Segments, 4)
	assert.Equal(t, 3, res.OverallScore.ScoredStops)
	assert.NotEmpty(t, res.ID)

	days := 0
	for _, s := range res.Itinerary {
		days += s.Days
		require.NotNil(t, s.TravelScore)
		assert.Contains(t, s.Explanation, s.City)
	}
	assert.Equal(t, 12, days)
}

func TestMultiCityErrors(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/multi-city/plan", `{
		"cities": [
			{"city": "Paris", "min_days": 3, "max_days": 5, "preferred_days": 4},
			{"city": "Barcelona", "min_days": 3, "max_days": 6, "preferred_days": 4}
		],
		"total_days": 12
	}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "at most 11")

	rec = do(t, h, http.MethodPost, "/multi-city/plan", `{"cities":[{"city":"Paris"}],"total_days":5}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, h, http.MethodPost, "/multi-city/plan",
		`{"cities":[{"city":"Paris"},{"city":"Rome"}],"total_days":6,"start_date":"06/01/2026"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "start_date")
}

func TestPredictWithCoordinates(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/predict",
		`{"destination":"Hallstatt","lat":47.5622,"lon":13.6493,"trip_days":3,"use_real_prices":false}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[dto.PredictResponse](t, rec)
	assert.Equal(t, "Hallstatt", res.Destination)
	assert.Equal(t, domain.Coordinates{Lat: 47.5622, Lon: 13.6493}, res.Coordinates)

	rec = do(t, h, http.MethodPost, "/predict", `{"destination":"Hallstatt","lat":47.5622}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "lat and lon")

	rec = do(t, h, http.MethodPost, "/multi-city/plan",
		`{"cities":[{"city":"Paris"},{"city":"Hallstatt","lat":95,"lon":13.6}],"total_days":6}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "out of range")
}

func TestDestinationPrices(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/destination/Rome/prices?check_in=2026-03-02&check_out=2026-03-06&origin_city=Paris", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	res := decode[dto.PriceQuoteResponse](t, rec)
	assert.Equal(t, "Rome", res.Destination)
	assert.Equal(t, "Paris", res.Origin)
	assert.Equal(t, 4, res.Nights)
	assert.Equal(t, domain.SourceEstimate, res.HotelSource)
	require.Len(t, res.Flights, 2)
	assert.Equal(t, "2026-03-06", res.Flights[1].Date)
	assert.Greater(t, res.Pricing.Total, res.Pricing.Hotel)
	assert.Empty(t, res.Warnings)

	cases := []struct {
		path string
		msg  string
	}{
		{"/destination/Rome/prices?check_in=2026-03-02", "check_out"},
		{"/destination/Rome/prices?check_in=03-02-2026&check_out=2026-03-06", "YYYY-MM-DD"},
		{"/destination/Rome/prices?check_in=2026-03-06&check_out=2026-03-02", "check_out"},
		{"/destination/Rome/prices?check_in=2026-03-02&check_out=2026-03-06&travelers=0", "travelers"},
		{"/destination/Atlantis/prices?check_in=2026-03-02&check_out=2026-03-06", "Atlantis"},
	}
	for _, tc := range cases {
		rec := do(t, h, http.MethodGet, tc.path, "")
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, tc.path)
		assert.Contains(t, decode[map[string]string](t, rec)["error"], tc.msg, tc.path)
	}

	rec = do(t, h, http.MethodPost, "/destination/Rome/prices", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func streamEvents(t *testing.T, rec *httptest.ResponseRecorder) []dto.StreamEvent {
	t.Helper()
	var events []dto.StreamEvent
	for _, chunk := range strings.Split(strings.TrimSpace(rec.Body.String()), "\n\n") {
		data, ok := strings.CutPrefix(chunk, "data: ")
		require.True(t, ok, chunk)
		var ev dto.StreamEvent
		require.NoError(t, json.Unmarshal([]byte(data), &ev), data)
		events = append(events, ev)
	}
	return events
}

func TestMultiCityStream(t *testing.T) {
	h := newTestRouter(t)

	body, err := json.Marshal(handlers.ExampleMultiCityRequest())
	require.NoError(t, err)

	rec := do(t, h, http.MethodPost, "/multi-city/plan-stream", string(body))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.True(t, rec.Flushed)

	events := streamEvents(t, rec)
	require.GreaterOrEqual(t, len(events), 3)
	for i := 1; i < len(events); i++ {
		assert.GreaterOrEqual(t, events[i].Progress, events[i-1].Progress)
	}

	var cities []string
	for _, ev := range events[:len(events)-1] {
		assert.Equal(t, "status", ev.Type)
		if ev.Stage == services.ProgressStop {
			cities = append(cities, ev.CurrentCity)
		}
	}
	assert.ElementsMatch(t, []string{"Paris", "Barcelona", "Rome"}, cities)

	last := events[len(events)-1]
	assert.Equal(t, "complete", last.Type)
	assert.Equal(t, 100, last.Progress)
	require.NotNil(t, last.Result)
	assert.Len(t, last.Result.Itinerary, 3)
	assert.Equal(t, 12, last.Result.TotalDays)
}

func TestMultiCityStreamErrors(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/multi-city/plan-stream", `{"cities":[{"city":"Paris"}],"total_days":5}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "cities")

	rec = do(t, h, http.MethodPost, "/multi-city/plan-stream", `{
		"cities": [
			{"city": "Paris", "min_days": 3, "max_days": 5},
			{"city": "Barcelona", "min_days": 3, "max_days": 6}
		],
		"total_days": 12
	}`)
	require.Equal(t, http.StatusOK, rec.Code)
	events := streamEvents(t, rec)
	last := events[len(events)-1]
	assert.Equal(t, "error", last.Type)
	assert.Contains(t, last.Message, "at most 11")
	assert.Nil(t, last.Result)

	catalog, err := geocode.DefaultCatalog()
	require.NoError(t, err)
	hidden := NewRouter(Deps{Planner: failingPlanner{err: errors.New("redis: connection pool exhausted")}, Cities: catalog})
	rec = do(t, hidden, http.MethodPost, "/multi-city/plan-stream", `{"cities":[{"city":"Paris"},{"city":"Rome"}],"total_days":6}`)
	events = streamEvents(t, rec)
	assert.Equal(t, "internal server error", events[len(events)-1].Message)

	rec = do(t, hidden, http.MethodGet, "/destination/Rome/prices?check_in=2026-03-02&check_out=2026-03-06", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

type failingPlanner struct{ err error }

func (f failingPlanner) PlanSingle(context.Context, services.SingleCityRequest) (domain.SingleCityResult, error) {
	return domain.SingleCityResult{}, f.err
}

func (f failingPlanner) PlanMultiCity(context.Context, services.MultiCityRequest) (domain.Itinerary, error) {
	return domain.Itinerary{}, f.err
}

func (f failingPlanner) QuotePrices(context.Context, services.PriceQuoteRequest) (domain.PriceQuote, error) {
	return domain.PriceQuote{}, f.err
}

func TestInternalErrorsAreHidden(t *testing.T) {
	catalog, err := geocode.DefaultCatalog()
	require.NoError(t, err)
	h := NewRouter(Deps{Planner: failingPlanner{err: errors.New("dial tcp: connection refused")}, Cities: catalog})

	rec := do(t, h, http.MethodPost, "/predict", `{"destination":"Paris"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", decode[map[string]string](t, rec)["error"])

	h = NewRouter(Deps{Planner: failingPlanner{err: context.DeadlineExceeded}, Cities: catalog})
	req := httptest.NewRequest(http.MethodPost, "/predict", bytes.NewBufferString(`{"destination":"Paris"}`))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}
