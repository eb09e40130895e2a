package dto

import (
	"time"
	"trip-window-service/internal/domain"
)

type PredictRequest struct {
	Destination   string   `json:"destination"`
	Lat           *float64 `json:"lat"`
	Lon           *float64 `json:"lon"`
	OriginCity    string   `json:"origin_city"`
	TripDays      int      `json:"trip_days"`
	ForecastWeeks int      `json:"forecast_weeks"`
	Travelers     int      `json:"travelers"`
	MaxBudget     *float64 `json:"max_budget"`
	UseRealPrices *bool    `json:"use_real_prices"`
}

type PriceBreakdown struct {
	Hotel     float64 `json:"hotel"`
	Flight    float64 `json:"flight"`
	Total     float64 `json:"total"`
	PerPerson float64 `json:"per_person"`
	Travelers int     `json:"travelers"`
	Estimated bool    `json:"estimated"`
}

type SubScores struct {
	Price   float64 `json:"price"`
	Weather float64 `json:"weather"`
	Crowd   float64 `json:"crowd"`
}

type PredictResponse struct {
	Destination            string             `json:"destination"`
	Country                string             `json:"country,omitempty"`
	Coordinates            domain.Coordinates `json:"coordinates"`
	OriginCity             string             `json:"origin_city,omitempty"`
	BestStartDate          string             `json:"best_start_date"`
	BestEndDate            string             `json:"best_end_date"`
	TripDays               int                `json:"trip_days"`
	PredictedPrice         float64            `json:"predicted_price"`
	PriceBreakdown         PriceBreakdown     `json:"price_breakdown"`
	PredictedTemp          float64            `json:"predicted_temp"`
	PredictedPrecipitation float64            `json:"predicted_precipitation"`
	PredictedCrowd         float64            `json:"predicted_crowd"`
	TravelScore            float64            `json:"travel_score"`
	Confidence             float64            `json:"confidence"`
	Scores                 SubScores          `json:"scores"`
	Explanation            string             `json:"ai_explanation"`
	DataSource             string             `json:"data_source"`
	Events                 []domain.Event     `json:"events"`
	EventImpact            string             `json:"event_impact"`
	EventWarning           string             `json:"event_warning,omitempty"`
	EventSuggestions       []string           `json:"event_suggestions"`
	GeneratedAt            time.Time          `json:"generated_at"`
}

func NewPriceBreakdown(c domain.CostBreakdown) PriceBreakdown {
	estimated := false
	for _, s := range c.Stops {
		estimated = estimated || s.Estimated
	}
	for _, s := range c.Segments {
		estimated = estimated || s.Estimated
	}
	return PriceBreakdown{
		Hotel:     c.HotelTotal.InexactFloat64(),
		Flight:    c.FlightTotal.InexactFloat64(),
		Total:     c.TotalCost.InexactFloat64(),
		PerPerson: c.PerPersonCost.InexactFloat64(),
		Travelers: c.Travelers,
		Estimated: estimated,
	}
}

func NewPredictResponse(r domain.SingleCityResult) PredictResponse {
	w := r.Window
	events := r.Events.Events
	if events == nil {
		events = []domain.Event{}
	}
	suggestions := r.Events.Suggestions
	if suggestions == nil {
		suggestions = []string{}
	}
	return PredictResponse{
		Destination:            r.Destination,
		Country:                r.Country,
		Coordinates:            r.Coordinates,
		OriginCity:             r.Origin,
		BestStartDate:          w.StartDate.Format(domain.DateLayout),
		BestEndDate:            w.EndDate.Format(domain.DateLayout),
		TripDays:               w.TripDays,
		PredictedPrice:         w.Scores.Price,
		PriceBreakdown:         NewPriceBreakdown(r.Costs),
		PredictedTemp:          w.Scores.Temperature,
		PredictedPrecipitation: w.Scores.Precipitation,
		PredictedCrowd:         w.Scores.Crowd,
		TravelScore:            w.TravelScore,
		Confidence:             w.Confidence,
		Scores:                 SubScores{Price: w.Scores.PriceScore, Weather: w.Scores.WeatherScore, Crowd: w.Scores.CrowdScore},
		Explanation:            r.Explanation,
		DataSource:             r.DataSource,
		Events:                 events,
		EventImpact:            r.Events.Impact,
		EventWarning:           r.Events.Warning,
		EventSuggestions:       suggestions,
		GeneratedAt:            r.GeneratedAt,
	}
}

type DestinationResponse struct {
	Name        string             `json:"name"`
	Country     string             `json:"country"`
	Airport     string             `json:"airport,omitempty"`
	Coordinates domain.Coordinates `json:"coordinates"`
}

type ListDestinationsResponse struct {
	Destinations []DestinationResponse `json:"destinations"`
	Count        int                   `json:"count"`
}

type PriceQuoteResponse struct {
	Destination string            `json:"destination"`
	Origin      string            `json:"origin,omitempty"`
	CheckIn     string            `json:"check_in"`
	CheckOut    string            `json:"check_out"`
	Nights      int               `json:"nights"`
	Nightly     float64           `json:"nightly_rate"`
	HotelSource string            `json:"hotel_source"`
	Pricing     PriceBreakdown    `json:"pricing"`
	Flights     []SegmentResponse `json:"flights"`
	Warnings    []string          `json:"warnings,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

func NewPriceQuoteResponse(q domain.PriceQuote) PriceQuoteResponse {
	var warnings []string
	if q.Hotel.FallbackReason != "" {
		warnings = append(warnings, "hotel: "+q.Hotel.FallbackReason)
	}
	flights := make([]SegmentResponse, 0, len(q.Flights))
	for _, s := range q.Flights {
		flights = append(flights, newSegmentResponse(s))
		if s.FallbackReason != "" {
			warnings = append(warnings, s.From+" → "+s.To+": "+s.FallbackReason)
		}
	}
	return PriceQuoteResponse{
		Destination: q.Destination,
		Origin:      q.Origin,
		CheckIn:     q.CheckIn.Format(domain.DateLayout),
		CheckOut:    q.CheckOut.Format(domain.DateLayout),
		Nights:      q.Hotel.Nights,
		Nightly:     q.Hotel.Nightly.InexactFloat64(),
		HotelSource: q.Hotel.Source,
		Pricing:     NewPriceBreakdown(q.Costs),
		Flights:     flights,
		Warnings:    warnings,
		Timestamp:   q.GeneratedAt,
	}
}
