package domain

import "time"

// Route ordering methods recorded on every RoutePlan.
const (
	MethodExhaustive    = "exhaustive"
	MethodGreedyNearest = "greedy_nearest_neighbor"
	MethodManual        = "manual"
)

// CityStopSpec is a caller-supplied constraint for one city of a multi-city trip.
type CityStopSpec struct {
	City          string
	MinDays       int
	MaxDays       int
	PreferredDays int
	// Coordinates, when set, override the geocoded position and let
	// cities outside the catalog be planned.
	Coordinates *Coordinates
}

// Validate enforces 1 <= MinDays <= PreferredDays <= MaxDays.
func (s CityStopSpec) Validate() error {
	if s.MinDays < 1 || s.MinDays > s.PreferredDays || s.PreferredDays > s.MaxDays {
		return &InvalidStopError{City: s.City, MinDays: s.MinDays, MaxDays: s.MaxDays, Preferred: s.PreferredDays}
	}
	return nil
}

// RouteAssignment is the number of days allocated to one city.
type RouteAssignment struct {
	City         string `json:"city"`
	DaysAssigned int    `json:"days_assigned"`
}

// RouteSegment is one leg of the round trip.
type RouteSegment struct {
	From       string  `json:"from"`
	To         string  `json:"to"`
	DistanceKm float64 `json:"distance_km"`
}

// RoutePlan is the visiting order chosen for a set of cities.
// Order holds indexes into the input stop slice. It is immutable planning data.
type RoutePlan struct {
	Order           []int          `json:"-"`
	Cities          []string       `json:"order"`
	Method          string         `json:"optimization_method"`
	Segments        []RouteSegment `json:"segments"`
	TotalDistanceKm float64        `json:"total_distance_km"`
}

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Days returns the number of days in the inclusive range.
func (r DateRange) Days() int { return DaysBetween(r.Start, r.End) + 1 }

// Nights returns the number of hotel nights for the range.
func (r DateRange) Nights() int {
	if n := r.Days() - 1; n > 0 {
		return n
	}
	return 1
}
