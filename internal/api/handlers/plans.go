package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"
	"trip-window-service/internal/api/dto"
	"trip-window-service/internal/domain"
	"trip-window-service/internal/services"
)

// TripPlanner is the planning surface the HTTP layer needs.
type TripPlanner interface {
	PlanSingle(ctx context.Context, req services.SingleCityRequest) (domain.SingleCityResult, error)
	PlanMultiCity(ctx context.Context, req services.MultiCityRequest) (domain.Itinerary, error)
	QuotePrices(ctx context.Context, req services.PriceQuoteRequest) (domain.PriceQuote, error)
}

// Request bounds enforced before planning.
const (
	defaultTripDays  = 7
	maxTripDays      = 30
	maxForecastWeeks = 104
	minTotalDays     = 3
	maxTotalDays     = 60
	minStops         = 2
	maxTravelers     = 20
)

type PlanHandler struct {
	Planner TripPlanner
}

// Predict returns the best travel window for one destination.
func (h *PlanHandler) Predict(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.PredictRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	svcReq, err := predictRequest(req)
	if err != nil {
		writePlanError(w, r, "predict", err)
		return
	}

	res, err := h.Planner.PlanSingle(r.Context(), svcReq)
	if err != nil {
		writePlanError(w, r, "predict", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewPredictResponse(res))
}

// PlanMultiCity returns a dated, ordered round trip through several cities.
func (h *PlanHandler) PlanMultiCity(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.MultiCityRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	svcReq, err := multiCityRequest(req)
	if err != nil {
		writePlanError(w, r, "multi-city plan", err)
		return
	}

	it, err := h.Planner.PlanMultiCity(r.Context(), svcReq)
	if err != nil {
		writePlanError(w, r, "multi-city plan", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewMultiCityResponse(it))
}

// Prices quotes a fixed stay at a destination:
// GET /destination/{name}/prices?check_in=YYYY-MM-DD&check_out=YYYY-MM-DD&origin_city=...
func (h *PlanHandler) Prices(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	svcReq, err := priceQuoteRequest(r)
	if err != nil {
		writePlanError(w, r, "prices", err)
		return
	}

	q, err := h.Planner.QuotePrices(r.Context(), svcReq)
	if err != nil {
		writePlanError(w, r, "prices", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewPriceQuoteResponse(q))
}

// Example returns a ready-to-post multi-city request.
func (h *PlanHandler) Example(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, r, http.StatusOK, dto.MultiCityExampleResponse{
		Description:    "Example multi-city trip through Europe",
		ExampleRequest: ExampleMultiCityRequest(),
	})
}

func ExampleMultiCityRequest() dto.MultiCityRequest {
	four, three := 4, 3
	optimize := true
	return dto.MultiCityRequest{
		Cities: []dto.CityStopRequest{
			{City: "Paris", MinDays: 3, MaxDays: 5, PreferredDays: &four},
			{City: "Barcelona", MinDays: 3, MaxDays: 6, PreferredDays: &four},
			{City: "Rome", MinDays: 2, MaxDays: 5, PreferredDays: &three},
		},
		TotalDays:     12,
		OriginCity:    services.DefaultOrigin,
		OptimizeRoute: &optimize,
	}
}

func predictRequest(req dto.PredictRequest) (services.SingleCityRequest, error) {
	days := req.TripDays
	if days == 0 {
		days = defaultTripDays
	}
	if days < 1 || days > maxTripDays {
		return services.SingleCityRequest{}, &domain.InvalidRequestError{
			Field: "trip_days", Reason: fmt.Sprintf("must be between 1 and %d, got %d", maxTripDays, days),
		}
	}
	if req.ForecastWeeks < 0 || req.ForecastWeeks > maxForecastWeeks {
		return services.SingleCityRequest{}, &domain.InvalidRequestError{
			Field: "forecast_weeks", Reason: fmt.Sprintf("must be between 1 and %d, got %d", maxForecastWeeks, req.ForecastWeeks),
		}
	}
	if err := checkTravelers(req.Travelers); err != nil {
		return services.SingleCityRequest{}, err
	}
	budget, err := checkBudget(req.MaxBudget)
	if err != nil {
		return services.SingleCityRequest{}, err
	}
	pos, err := coordinates(req.Destination, req.Lat, req.Lon)
	if err != nil {
		return services.SingleCityRequest{}, err
	}

	return services.SingleCityRequest{
		Destination:   req.Destination,
		Origin:        req.OriginCity,
		TripDays:      days,
		HorizonWeeks:  req.ForecastWeeks,
		Travelers:     req.Travelers,
		MaxBudget:     budget,
		Coordinates:   pos,
		UseRealPrices: req.UseRealPrices,
	}, nil
}

func multiCityRequest(req dto.MultiCityRequest) (services.MultiCityRequest, error) {
	if len(req.Cities) < minStops {
		return services.MultiCityRequest{}, &domain.InvalidRequestError{
			Field: "cities", Reason: fmt.Sprintf("must list at least %d cities", minStops),
		}
	}
	if req.TotalDays < minTotalDays || req.TotalDays > maxTotalDays {
		return services.MultiCityRequest{}, &domain.InvalidRequestError{
			Field: "total_days", Reason: fmt.Sprintf("must be between %d and %d, got %d", minTotalDays, maxTotalDays, req.TotalDays),
		}
	}
	if err := checkTravelers(req.Travelers); err != nil {
		return services.MultiCityRequest{}, err
	}
	budget, err := checkBudget(req.MaxBudget)
	if err != nil {
		return services.MultiCityRequest{}, err
	}

	var start time.Time
	if req.StartDate != nil && *req.StartDate != "" {
		start, err = time.Parse(domain.DateLayout, *req.StartDate)
		if err != nil {
			return services.MultiCityRequest{}, &domain.InvalidRequestError{
				Field: "start_date", Reason: fmt.Sprintf("must be YYYY-MM-DD, got %q", *req.StartDate),
			}
		}
	}

	stops := make([]domain.CityStopSpec, 0, len(req.Cities))
	for _, c := range req.Cities {
		if _, err := coordinates(c.City, c.Lat, c.Lon); err != nil {
			return services.MultiCityRequest{}, err
		}
		stops = append(stops, c.Spec())
	}

	optimize := true
	if req.OptimizeRoute != nil {
		optimize = *req.OptimizeRoute
	}

	return services.MultiCityRequest{
		Origin:        req.OriginCity,
		Stops:         stops,
		TotalDays:     req.TotalDays,
		StartDate:     start,
		OptimizeRoute: optimize,
		Travelers:     req.Travelers,
		MaxBudget:     budget,
		UseRealPrices: req.UseRealPrices,
	}, nil
}

func priceQuoteRequest(r *http.Request) (services.PriceQuoteRequest, error) {
	q := r.URL.Query()
	req := services.PriceQuoteRequest{
		Destination: r.PathValue("name"),
		Origin:      q.Get("origin_city"),
	}

	for _, p := range []struct {
		field string
		dst   *time.Time
	}{
		{"check_in", &req.CheckIn},
		{"check_out", &req.CheckOut},
	} {
		raw := q.Get(p.field)
		if raw == "" {
			return services.PriceQuoteRequest{}, &domain.InvalidRequestError{Field: p.field, Reason: "is required"}
		}
		t, err := time.Parse(domain.DateLayout, raw)
		if err != nil {
			return services.PriceQuoteRequest{}, &domain.InvalidRequestError{
				Field: p.field, Reason: fmt.Sprintf("must be YYYY-MM-DD, got %q", raw),
			}
		}
		*p.dst = t
	}

	if raw := q.Get("travelers"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return services.PriceQuoteRequest{}, &domain.InvalidRequestError{Field: "travelers", Reason: fmt.Sprintf("must be a positive integer, got %q", raw)}
		}
		if err := checkTravelers(n); err != nil {
			return services.PriceQuoteRequest{}, err
		}
		req.Travelers = n
	}
	return req, nil
}

// coordinates accepts both of lat and lon or neither.
func coordinates(city string, lat, lon *float64) (*domain.Coordinates, error) {
	if lat == nil && lon == nil {
		return nil, nil
	}
	if lat == nil || lon == nil {
		return nil, &domain.InvalidRequestError{Field: "coordinates", Reason: fmt.Sprintf("%s: lat and lon must be given together", city)}
	}
	c := domain.Coordinates{Lat: *lat, Lon: *lon}
	if !c.Valid() {
		return nil, &domain.InvalidRequestError{Field: "coordinates", Reason: fmt.Sprintf("%s: lat=%v lon=%v out of range", city, *lat, *lon)}
	}
	return &c, nil
}

func checkTravelers(n int) error {
	if n < 0 || n > maxTravelers {
		return &domain.InvalidRequestError{Field: "travelers", Reason: fmt.Sprintf("must be between 1 and %d, got %d", maxTravelers, n)}
	}
	return nil
}

func checkBudget(b *float64) (float64, error) {
	if b == nil {
		return 0, nil
	}
	if *b <= 0 {
		return 0, &domain.InvalidRequestError{Field: "max_budget", Reason: "must be positive"}
	}
	return *b, nil
}
