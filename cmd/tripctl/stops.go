package main

import (
	"fmt"
	"strconv"
	"strings"
	"trip-window-service/internal/domain"
)

// parseStops reads name:min:max[:preferred] flags. Preferred defaults to min.
func parseStops(raw []string) ([]domain.CityStopSpec, error) {
	stops := make([]domain.CityStopSpec, 0, len(raw))
	for _, r := range raw {
		parts := strings.Split(r, ":")
		if len(parts) != 3 && len(parts) != 4 {
			return nil, fmt.Errorf("--stop %q: want name:min:max[:preferred]", r)
		}
		name := strings.TrimSpace(parts[0])
		if name == "" {
			return nil, fmt.Errorf("--stop %q: empty city name", r)
		}

		nums := make([]int, 0, 3)
		for _, p := range parts[1:] {
			n, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil {
				return nil, fmt.Errorf("--stop %q: %w", r, err)
			}
			nums = append(nums, n)
		}
		pref := nums[0]
		if len(nums) == 3 {
			pref = nums[2]
		}

		s := domain.CityStopSpec{City: name, MinDays: nums[0], MaxDays: nums[1], PreferredDays: pref}
		if err := s.Validate(); err != nil {
			return nil, err
		}
		stops = append(stops, s)
	}
	return stops, nil
}
