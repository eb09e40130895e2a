package domain

import (
	"time"

	"github.com/google/uuid"
)

// Forecast data sources reported on results.
const (
	DataSourceLive      = "live"
	DataSourceSynthetic = "synthetic"
)

// SingleCityResult is the recommendation for one destination.
type SingleCityResult struct {
	Destination string        `json:"destination"`
	Country     string        `json:"country,omitempty"`
	Coordinates Coordinates   `json:"coordinates"`
	Origin      string        `json:"origin_city,omitempty"`
	Window      TravelWindow  `json:"window"`
	Costs       CostBreakdown `json:"price_breakdown"`
	Events      EventSummary  `json:"events"`
	DataSource  string        `json:"data_source"`
	Explanation string        `json:"explanation"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// ItineraryStop is one dated stop of a multi-city itinerary.
type ItineraryStop struct {
	City        string        `json:"city"`
	Order       int           `json:"order"`
	Coordinates Coordinates   `json:"coordinates"`
	FromCity    string        `json:"from_city"`
	StartDate   time.Time     `json:"start_date"`
	EndDate     time.Time     `json:"end_date"`
	Days        int           `json:"days"`
	Window      *TravelWindow `json:"window,omitempty"`
	Cost        StopCost      `json:"cost"`
	Events      EventSummary  `json:"events"`
	DataSource  string        `json:"data_source,omitempty"`
	// Failures lists per-stop collaborator failures; a forecast failure
	// excludes the stop from the overall score.
	Failures       []string `json:"errors,omitempty"`
	ForecastFailed bool     `json:"forecast_failed"`
	Explanation    string   `json:"ai_explanation,omitempty"`
}

// Degraded reports whether any collaborator failed for this stop.
func (s ItineraryStop) Degraded() bool { return len(s.Failures) > 0 }

// OverallScore summarizes per-stop TravelScores over the valid stops.
type OverallScore struct {
	Average       float64 `json:"average"`
	Min           float64 `json:"min"`
	Max           float64 `json:"max"`
	DayWeighted   float64 `json:"day_weighted"`
	ScoredStops   int     `json:"scored_stops"`
	DegradedStops int     `json:"degraded_stops"`
}

// Itinerary is the full multi-city plan.
type Itinerary struct {
	ID           uuid.UUID         `json:"id"`
	Origin       string            `json:"origin_city"`
	StartDate    time.Time         `json:"start_date"`
	EndDate      time.Time         `json:"end_date"`
	TotalDays    int               `json:"total_days"`
	Allocation   []RouteAssignment `json:"allocation"`
	Route        RoutePlan         `json:"route_info"`
	Stops        []ItineraryStop   `json:"itinerary"`
	Costs        CostBreakdown     `json:"cost_breakdown"`
	Score        OverallScore      `json:"overall_score"`
	WithinBudget *bool             `json:"within_budget,omitempty"`
	Summary      string            `json:"summary"`
	GeneratedAt  time.Time         `json:"generated_at"`
}

// ExplanationInput is the scored summary handed to an explanation generator.
type ExplanationInput struct {
	Destination string
	StartDate   time.Time
	TripDays    int
	Price       float64
	Temperature float64
	Precip      float64
	Crowd       float64
	TravelScore float64
	Confidence  float64
}

// PriceQuote prices a fixed stay and its flights without scoring any window.
type PriceQuote struct {
	Destination string        `json:"destination"`
	Origin      string        `json:"origin_city,omitempty"`
	CheckIn     time.Time     `json:"check_in"`
	CheckOut    time.Time     `json:"check_out"`
	Hotel       StopCost      `json:"hotel"`
	Flights     []SegmentCost `json:"flights,omitempty"`
	Costs       CostBreakdown `json:"pricing"`
	GeneratedAt time.Time     `json:"generated_at"`
}
