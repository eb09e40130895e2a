package domain

import (
	"fmt"
	"strings"
)

// Event impact levels.
const (
	ImpactLow    = "low"
	ImpactMedium = "medium"
	ImpactHigh   = "high"
)

// Event is a festival, fair or sports event that can move prices and crowds.
type Event struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Category    string `json:"category" yaml:"category"`
	URL         string `json:"url,omitempty" yaml:"url"`
	Venue       string `json:"venue,omitempty" yaml:"venue"`
	IsFree      bool   `json:"is_free" yaml:"is_free"`
	Months      []int  `json:"months" yaml:"months"`
}

// EventSummary describes the events overlapping a stay.
type EventSummary struct {
	Events          []Event  `json:"events"`
	HasMajorEvents  bool     `json:"has_major_events"`
	Impact          string   `json:"impact"`
	CrowdMultiplier float64  `json:"crowd_multiplier"`
	Warning         string   `json:"warning,omitempty"`
	Suggestions     []string `json:"suggestions"`
	Generic         bool     `json:"generic"`
}

var majorEventKeywords = []string{
	"fashion week", "festival", "olympics", "world cup",
	"championship", "expo", "marathon", "conference",
	"summit", "awards", "carnival", "pride",
}

var headlineKeywords = []string{"fashion week", "festival", "olympics", "world cup"}

func containsAny(s string, keywords []string) bool {
	s = strings.ToLower(s)
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// EventImpact grades a set of events: two major events or four events of any
// kind is high, one major or two of any kind is medium.
func EventImpact(events []Event) string {
	if len(events) == 0 {
		return ImpactLow
	}

	major := 0
	for _, e := range events {
		if containsAny(e.Name, majorEventKeywords) {
			major++
		}
	}

	switch {
	case major >= 2 || len(events) >= 4:
		return ImpactHigh
	case major >= 1 || len(events) >= 2:
		return ImpactMedium
	default:
		return ImpactLow
	}
}

// CrowdMultiplier maps an impact level to the expected crowd increase.
func CrowdMultiplier(impact string) float64 {
	switch impact {
	case ImpactMedium:
		return 1.3
	case ImpactHigh:
		return 1.6
	default:
		return 1.0
	}
}

// SummarizeEvents builds the warning and suggestions shown next to a stop.
func SummarizeEvents(city string, events []Event, generic bool) EventSummary {
	impact := EventImpact(events)
	sum := EventSummary{
		Events:          events,
		HasMajorEvents:  impact != ImpactLow,
		Impact:          impact,
		CrowdMultiplier: CrowdMultiplier(impact),
		Suggestions:     []string{},
		Generic:         generic,
	}
	if sum.Events == nil {
		sum.Events = []Event{}
	}

	if len(events) > 0 {
		sum.Warning = fmt.Sprintf("%d event(s) happening during your trip may affect local crowds.", len(events))
		if len(events) >= 3 {
			sum.Warning = fmt.Sprintf("Multiple events are happening in %s during your trip, expect increased prices and crowds.", city)
		}
		for _, e := range events {
			if containsAny(e.Name, headlineKeywords) {
				sum.Warning = fmt.Sprintf("Your trip overlaps with %s, expect higher hotel prices and larger crowds.", e.Name)
				break
			}
		}
	}

	for i, e := range events {
		if i == 3 {
			break
		}
		if e.IsFree {
			sum.Suggestions = append(sum.Suggestions, fmt.Sprintf("Consider attending %s (Free %s event)", e.Name, e.Category))
		} else {
			sum.Suggestions = append(sum.Suggestions, fmt.Sprintf("Check out %s (%s event)", e.Name, e.Category))
		}
	}

	return sum
}
