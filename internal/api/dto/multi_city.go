package dto

import (
	"time"
	"trip-window-service/internal/domain"
)

type CityStopRequest struct {
	City          string   `json:"city"`
	Lat           *float64 `json:"lat,omitempty"`
	Lon           *float64 `json:"lon,omitempty"`
	MinDays       int      `json:"min_days"`
	MaxDays       int      `json:"max_days"`
	PreferredDays *int     `json:"preferred_days"`
}

type MultiCityRequest struct {
	Cities        []CityStopRequest `json:"cities"`
	TotalDays     int               `json:"total_days"`
	OriginCity    string            `json:"origin_city"`
	StartDate     *string           `json:"start_date"`
	OptimizeRoute *bool             `json:"optimize_route"`
	Travelers     int               `json:"travelers"`
	MaxBudget     *float64          `json:"max_budget"`
	UseRealPrices *bool             `json:"use_real_prices,omitempty"`
}

// Spec converts a stop request, applying min_days=2, max_days=7 and
// preferred_days=min_days when omitted.
func (c CityStopRequest) Spec() domain.CityStopSpec {
	s := domain.CityStopSpec{City: c.City, MinDays: c.MinDays, MaxDays: c.MaxDays}
	if s.MinDays == 0 {
		s.MinDays = 2
	}
	if s.MaxDays == 0 {
		s.MaxDays = 7
	}
	s.PreferredDays = s.MinDays
	if c.PreferredDays != nil {
		s.PreferredDays = *c.PreferredDays
	}
	if c.Lat != nil && c.Lon != nil {
		s.Coordinates = &domain.Coordinates{Lat: *c.Lat, Lon: *c.Lon}
	}
	return s
}

type StopResponse struct {
	City           string              `json:"city"`
	Order          int                 `json:"order"`
	Coordinates    domain.Coordinates  `json:"coordinates"`
	FromCity       string              `json:"from_city"`
	StartDate      string              `json:"start_date"`
	EndDate        string              `json:"end_date"`
	Days           int                 `json:"days"`
	TravelScore    *float64            `json:"travel_score"`
	Confidence     *float64            `json:"confidence"`
	Scores         *SubScores          `json:"scores,omitempty"`
	PredictedPrice *float64            `json:"predicted_price,omitempty"`
	PredictedTemp  *float64            `json:"predicted_temp,omitempty"`
	PredictedRain  *float64            `json:"predicted_precipitation,omitempty"`
	PredictedCrowd *float64            `json:"predicted_crowd,omitempty"`
	HotelCost      float64             `json:"hotel_cost"`
	CostEstimated  bool                `json:"cost_estimated"`
	Events         domain.EventSummary `json:"events"`
	DataSource     string              `json:"data_source,omitempty"`
	Explanation    string              `json:"ai_explanation,omitempty"`
	Errors         []string            `json:"errors,omitempty"`
}

type SegmentResponse struct {
	From       string  `json:"from"`
	To         string  `json:"to"`
	Date       string  `json:"date"`
	DistanceKm float64 `json:"distance_km"`
	FlightCost float64 `json:"flight_cost"`
	Estimated  bool    `json:"estimated"`
}

type MultiCityResponse struct {
	ID            string                   `json:"id"`
	OriginCity    string                   `json:"origin_city"`
	Cities        []string                 `json:"cities"`
	TotalDays     int                      `json:"total_days"`
	StartDate     string                   `json:"start_date"`
	EndDate       string                   `json:"end_date"`
	RouteInfo     domain.RoutePlan         `json:"route_info"`
	Allocation    []domain.RouteAssignment `json:"allocation"`
	Itinerary     []StopResponse           `json:"itinerary"`
	CostBreakdown PriceBreakdown           `json:"cost_breakdown"`
	Segments      []SegmentResponse        `json:"segments"`
	OverallScore  domain.OverallScore      `json:"overall_score"`
	WithinBudget  *bool                    `json:"within_budget,omitempty"`
	Summary       string                   `json:"summary"`
	GeneratedAt   time.Time                `json:"generated_at"`
}

func newSegmentResponse(s domain.SegmentCost) SegmentResponse {
	return SegmentResponse{
		From:       s.From,
		To:         s.To,
		Date:       s.Date.Format(domain.DateLayout),
		DistanceKm: s.DistanceKm,
		FlightCost: s.FlightCost.InexactFloat64(),
		Estimated:  s.Estimated,
	}
}

func NewMultiCityResponse(it domain.Itinerary) MultiCityResponse {
	stops := make([]StopResponse, 0, len(it.Stops))
	for _, s := range it.Stops {
		sr := StopResponse{
			City:          s.City,
			Order:         s.Order,
			Coordinates:   s.Coordinates,
			FromCity:      s.FromCity,
			StartDate:     s.StartDate.Format(domain.DateLayout),
			EndDate:       s.EndDate.Format(domain.DateLayout),
			Days:          s.Days,
			HotelCost:     s.Cost.HotelTotal.InexactFloat64(),
			CostEstimated: s.Cost.Estimated,
			Events:        s.Events,
			DataSource:    s.DataSource,
			Explanation:   s.Explanation,
			Errors:        s.Failures,
		}
		if w := s.Window; w != nil {
			sr.TravelScore = &w.TravelScore
			sr.Confidence = &w.Confidence
			sr.Scores = &SubScores{Price: w.Scores.PriceScore, Weather: w.Scores.WeatherScore, Crowd: w.Scores.CrowdScore}
			sr.PredictedPrice = &w.Scores.Price
			sr.PredictedTemp = &w.Scores.Temperature
			sr.PredictedRain = &w.Scores.Precipitation
			sr.PredictedCrowd = &w.Scores.Crowd
		}
		stops = append(stops, sr)
	}

	segments := make([]SegmentResponse, 0, len(it.Costs.Segments))
	for _, s := range it.Costs.Segments {
		segments = append(segments, newSegmentResponse(s))
	}

	return MultiCityResponse{
		ID:            it.ID.String(),
		OriginCity:    it.Origin,
		Cities:        it.Route.Cities,
		TotalDays:     it.TotalDays,
		StartDate:     it.StartDate.Format(domain.DateLayout),
		EndDate:       it.EndDate.Format(domain.DateLayout),
		RouteInfo:     it.Route,
		Allocation:    it.Allocation,
		Itinerary:     stops,
		CostBreakdown: NewPriceBreakdown(it.Costs),
		Segments:      segments,
		OverallScore:  it.Score,
		WithinBudget:  it.WithinBudget,
		Summary:       it.Summary,
		GeneratedAt:   it.GeneratedAt,
	}
}

type MultiCityExampleResponse struct {
	Description    string           `json:"description"`
	ExampleRequest MultiCityRequest `json:"example_request"`
}

// StreamEvent is one server-sent event of a streamed multi-city plan.
// Type is "status", "complete" or "error".
type StreamEvent struct {
	Type        string             `json:"type"`
	Message     string             `json:"message"`
	Progress    int                `json:"progress"`
	Stage       string             `json:"stage,omitempty"`
	CurrentCity string             `json:"current_city,omitempty"`
	Result      *MultiCityResponse `json:"result,omitempty"`
}
