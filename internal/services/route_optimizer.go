package services

import (
	"math"
	"trip-window-service/internal/domain"
)

// MaxExhaustiveStops is the largest stop count searched over every permutation.
const MaxExhaustiveStops = 5

// OrderRoute picks the visiting order of stops for the round trip
// origin -> stops... -> origin.
//
// With optimize off the input order is kept. Up to MaxExhaustiveStops stops
// every permutation is tried and the shortest wins, the first one found on
// ties. Above that a greedy nearest-neighbor walk from the origin is used; it
// is not optimal but stays cheap for long lists.
func OrderRoute(origin domain.City, stops []domain.City, optimize bool) (domain.RoutePlan, error) {
	if len(stops) == 0 {
		return domain.RoutePlan{}, &domain.InvalidRequestError{Field: "cities", Reason: "must not be empty"}
	}

	var (
		order  []int
		method string
	)
	switch {
	case !optimize:
		order, method = identityOrder(len(stops)), domain.MethodManual
	case len(stops) <= MaxExhaustiveStops:
		order, method = exhaustiveOrder(origin, stops), domain.MethodExhaustive
	default:
		order, method = nearestNeighborOrder(origin, stops), domain.MethodGreedyNearest
	}

	return buildRoutePlan(origin, stops, order, method), nil
}

// RoundTripKm is the great-circle length of origin -> stops[order...] -> origin.
func RoundTripKm(origin domain.City, stops []domain.City, order []int) float64 {
	total := 0.0
	prev := origin.Coordinates
	for _, i := range order {
		total += domain.HaversineKm(prev, stops[i].Coordinates)
		prev = stops[i].Coordinates
	}
	return total + domain.HaversineKm(prev, origin.Coordinates)
}

func identityOrder(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}

func exhaustiveOrder(origin domain.City, stops []domain.City) []int {
	perm := identityOrder(len(stops))
	best := append([]int(nil), perm...)
	bestKm := RoundTripKm(origin, stops, perm)

	for nextPermutation(perm) {
		// Strictly shorter keeps the earliest permutation on ties.
		if km := RoundTripKm(origin, stops, perm); km < bestKm-scoreEpsilon {
			bestKm = km
			copy(best, perm)
		}
	}
	return best
}

// nextPermutation rearranges p into its lexicographic successor and reports
// whether one existed.
func nextPermutation(p []int) bool {
	i := len(p) - 2
	for i >= 0 && p[i] >= p[i+1] {
		i--
	}
	if i < 0 {
		return false
	}
	j := len(p) - 1
	for p[j] <= p[i] {
		j--
	}
	p[i], p[j] = p[j], p[i]
	for l, r := i+1, len(p)-1; l < r; l, r = l+1, r-1 {
		p[l], p[r] = p[r], p[l]
	}
	return true
}

func nearestNeighborOrder(origin domain.City, stops []domain.City) []int {
	visited := make([]bool, len(stops))
	order := make([]int, 0, len(stops))
	current := origin.Coordinates

	for len(order) < len(stops) {
		best := -1
		bestKm := math.Inf(1)
		// Ascending scan with strict comparison: lower input index wins ties.
		for i, s := range stops {
			if visited[i] {
				continue
			}
			if km := domain.HaversineKm(current, s.Coordinates); km < bestKm {
				best, bestKm = i, km
			}
		}

		visited[best] = true
		order = append(order, best)
		current = stops[best].Coordinates
	}
	return order
}

func buildRoutePlan(origin domain.City, stops []domain.City, order []int, method string) domain.RoutePlan {
	plan := domain.RoutePlan{
		Order:    order,
		Cities:   make([]string, 0, len(order)),
		Method:   method,
		Segments: make([]domain.RouteSegment, 0, len(order)+1),
	}

	prev := origin
	for _, i := range order {
		plan.Cities = append(plan.Cities, stops[i].Name)
		plan.Segments = append(plan.Segments, segment(prev, stops[i]))
		prev = stops[i]
	}
	plan.Segments = append(plan.Segments, segment(prev, origin))

	for _, s := range plan.Segments {
		plan.TotalDistanceKm += s.DistanceKm
	}
	return plan
}

func segment(from, to domain.City) domain.RouteSegment {
	return domain.RouteSegment{
		From:       from.Name,
		To:         to.Name,
		DistanceKm: domain.HaversineKm(from.Coordinates, to.Coordinates),
	}
}
