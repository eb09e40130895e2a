package services

import (
	"fmt"
	"trip-window-service/internal/domain"
)

// AllocateDays assigns a day count to every stop so that the counts sum to
// totalDays, each stays within [MinDays, MaxDays], and the total deviation from
// PreferredDays is minimal.
//
// Starting from the preferred counts, the surplus or deficit is spread over the
// stops in proportion to their remaining slack until the total matches. Every
// adjustment moves in the same direction, so the total deviation equals
// |totalDays - sum(preferred)|, which is the lower bound.
func AllocateDays(stops []domain.CityStopSpec, totalDays int) ([]domain.RouteAssignment, error) {
	if len(stops) == 0 {
		return nil, &domain.InvalidRequestError{Field: "cities", Reason: "must not be empty"}
	}
	if totalDays < 1 {
		return nil, &domain.InvalidRequestError{Field: "total_days", Reason: fmt.Sprintf("must be >= 1, got %d", totalDays)}
	}

	sumMin, sumMax, sumPref := 0, 0, 0
	for _, s := range stops {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		sumMin += s.MinDays
		sumMax += s.MaxDays
		sumPref += s.PreferredDays
	}

	if totalDays < sumMin || totalDays > sumMax {
		constraints := make([]string, 0, len(stops))
		for _, s := range stops {
			constraints = append(constraints, fmt.Sprintf("%s: min_days=%d max_days=%d", s.City, s.MinDays, s.MaxDays))
		}
		return nil, &domain.InfeasibleBudgetError{
			TotalDays:   totalDays,
			SumMinDays:  sumMin,
			SumMaxDays:  sumMax,
			Constraints: constraints,
		}
	}

	days := make([]int, len(stops))
	for i, s := range stops {
		days[i] = s.PreferredDays
	}

	remaining := totalDays - sumPref
	dir := 1
	if remaining < 0 {
		dir, remaining = -1, -remaining
	}

	slack := make([]int, len(stops))
	for remaining > 0 {
		totalSlack := 0
		for i, s := range stops {
			if dir > 0 {
				slack[i] = s.MaxDays - days[i]
			} else {
				slack[i] = days[i] - s.MinDays
			}
			totalSlack += slack[i]
		}
		if totalSlack == 0 {
			// Unreachable after the feasibility check.
			return nil, fmt.Errorf("allocate days: no slack left with %d days unassigned", remaining)
		}

		moved := 0
		for i := range stops {
			share := min(remaining*slack[i]/totalSlack, slack[i])
			days[i] += dir * share
			moved += share
		}

		// All shares rounded down to zero: give one day to the stop with the most slack.
		if moved == 0 {
			best := 0
			for i := range slack {
				if slack[i] > slack[best] {
					best = i
				}
			}
			days[best] += dir
			moved = 1
		}

		remaining -= moved
	}

	out := make([]domain.RouteAssignment, len(stops))
	for i, s := range stops {
		out[i] = domain.RouteAssignment{City: s.City, DaysAssigned: days[i]}
	}
	return out, nil
}
