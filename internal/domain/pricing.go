package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Pricing quote sources.
const (
	SourceBooking  = "booking"
	SourceEstimate = "estimate"
)

// StopCost is the accommodation quote for one stop.
type StopCost struct {
	City       string          `json:"city"`
	Nights     int             `json:"nights"`
	Nightly    decimal.Decimal `json:"nightly"`
	HotelTotal decimal.Decimal `json:"hotel_total"`
	Source     string          `json:"source"`
	Estimated  bool            `json:"estimated"`

	// FallbackReason is set when a live quote failed and this is a substitute.
	FallbackReason string `json:"fallback_reason,omitempty"`
}

// SegmentCost is the transport quote for one leg, for all travellers.
type SegmentCost struct {
	From       string          `json:"from"`
	To         string          `json:"to"`
	Date       time.Time       `json:"date"`
	DistanceKm float64         `json:"distance_km"`
	FlightCost decimal.Decimal `json:"flight_cost"`
	Source     string          `json:"source"`
	Estimated  bool            `json:"estimated"`

	FallbackReason string `json:"fallback_reason,omitempty"`
}

// CostBreakdown aggregates hotel and flight costs for a plan.
type CostBreakdown struct {
	HotelTotal    decimal.Decimal `json:"hotel_total"`
	FlightTotal   decimal.Decimal `json:"flight_total"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	PerPersonCost decimal.Decimal `json:"per_person_cost"`
	Travelers     int             `json:"travelers"`
	Stops         []StopCost      `json:"stops,omitempty"`
	Segments      []SegmentCost   `json:"segments,omitempty"`
}

// NewCostBreakdown sums stop and segment quotes. Travelers below 1 count as 1.
func NewCostBreakdown(stops []StopCost, segments []SegmentCost, travelers int) CostBreakdown {
	if travelers < 1 {
		travelers = 1
	}

	hotel := decimal.Zero
	for _, s := range stops {
		hotel = hotel.Add(s.HotelTotal)
	}
	flights := decimal.Zero
	for _, s := range segments {
		flights = flights.Add(s.FlightCost)
	}
	total := hotel.Add(flights)

	return CostBreakdown{
		HotelTotal:    hotel.Round(2),
		FlightTotal:   flights.Round(2),
		TotalCost:     total.Round(2),
		PerPersonCost: total.Div(decimal.NewFromInt(int64(travelers))).Round(2),
		Travelers:     travelers,
		Stops:         stops,
		Segments:      segments,
	}
}

// Fallback pricing constants (USD).
const (
	peakNightlyUSD     = 150
	shoulderNightlyUSD = 100
	lowNightlyUSD      = 80
	farePerKmUSD       = 0.15
	minFareUSD         = 60
)

// SeasonalNightlyRate is the fallback nightly hotel rate for a check-in date.
func SeasonalNightlyRate(checkIn time.Time, hotelIndex float64) decimal.Decimal {
	if hotelIndex <= 0 {
		hotelIndex = 1
	}

	base := lowNightlyUSD
	switch checkIn.Month() {
	case time.June, time.July, time.August, time.December:
		base = peakNightlyUSD
	case time.April, time.May, time.September, time.October:
		base = shoulderNightlyUSD
	}

	return decimal.NewFromFloat(float64(base) * hotelIndex).Round(2)
}

// EstimateStopCost is the fallback accommodation quote for a stop.
func EstimateStopCost(city City, stay DateRange, rooms int) StopCost {
	if rooms < 1 {
		rooms = 1
	}
	nightly := SeasonalNightlyRate(stay.Start, city.HotelIndex)
	nights := stay.Nights()

	return StopCost{
		City:       city.Name,
		Nights:     nights,
		Nightly:    nightly,
		HotelTotal: nightly.Mul(decimal.NewFromInt(int64(nights * rooms))).Round(2),
		Source:     SourceEstimate,
		Estimated:  true,
	}
}

// EstimateSegmentCost is the fallback fare for a leg: a per-kilometre rate with a
// floor, multiplied by the number of travellers.
func EstimateSegmentCost(from, to City, date time.Time, travelers int) SegmentCost {
	if travelers < 1 {
		travelers = 1
	}
	km := HaversineKm(from.Coordinates, to.Coordinates)

	fare := km * farePerKmUSD
	if fare < minFareUSD {
		fare = minFareUSD
	}

	return SegmentCost{
		From:       from.Name,
		To:         to.Name,
		Date:       Day(date),
		DistanceKm: km,
		FlightCost: decimal.NewFromFloat(fare).Mul(decimal.NewFromInt(int64(travelers))).Round(2),
		Source:     SourceEstimate,
		Estimated:  true,
	}
}

// RoomsFor returns the number of double rooms needed for the travellers.
func RoomsFor(travelers int) int {
	if travelers < 1 {
		return 1
	}
	return (travelers + 1) / 2
}
