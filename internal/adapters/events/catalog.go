package events

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"time"
	"trip-window-service/internal/domain"
	"trip-window-service/internal/platform/obs"

	"gopkg.in/yaml.v3"
)

//go:embed events.yaml
var defaultEventsYAML []byte

type catalogFile struct {
	Cities map[string][]domain.Event `yaml:"cities"`
}

// Catalog serves curated recurring events. Cities without entries get
// generic suggestions; that fallback content is intended.
type Catalog struct {
	byCity map[string][]domain.Event
}

// ParseCatalog decodes and validates an events YAML document.
func ParseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse events catalog: %w", err)
	}

	c := &Catalog{byCity: make(map[string][]domain.Event, len(f.Cities))}
	for city, events := range f.Cities {
		for _, e := range events {
			if strings.TrimSpace(e.Name) == "" {
				return nil, fmt.Errorf("parse events catalog: %s: event without name", city)
			}
			for _, m := range e.Months {
				if m < 1 || m > 12 {
					return nil, fmt.Errorf("parse events catalog: %s: %q: month %d out of range", city, e.Name, m)
				}
			}
		}
		c.byCity[domain.CityKey(city)] = events
	}
	return c, nil
}

// DefaultCatalog returns the catalog compiled into the binary.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultEventsYAML)
}

// EventsFor returns the events in any calendar month the stay touches.
func (c *Catalog) EventsFor(ctx context.Context, city domain.City, stay domain.DateRange) (_ domain.EventSummary, err error) {
	defer obs.Time(ctx, "events.EventsFor")(&err)

	known, ok := c.byCity[domain.CityKey(city.Name)]
	if !ok {
		return genericSummary(city.Name), nil
	}

	months := stayMonths(stay)
	var matched []domain.Event
	for _, e := range known {
		for _, m := range e.Months {
			if months[time.Month(m)] {
				matched = append(matched, e)
				break
			}
		}
	}

	if len(matched) > 0 {
		return domain.SummarizeEvents(city.Name, matched, false), nil
	}

	// Nothing during the stay: point at the city's headline events instead.
	highlights := known[:min(2, len(known))]
	sum := domain.SummarizeEvents(city.Name, nil, false)
	sum.Warning = fmt.Sprintf("No major events during your exact dates, but %s hosts great events throughout the year!", city.Name)
	for _, e := range highlights {
		sum.Suggestions = append(sum.Suggestions, "Consider timing a future visit for "+e.Name)
	}
	return sum, nil
}

func stayMonths(stay domain.DateRange) map[time.Month]bool {
	months := map[time.Month]bool{}
	end := domain.Day(stay.End)
	if end.Before(stay.Start) {
		end = domain.Day(stay.Start)
	}
	for d := domain.Day(stay.Start); !d.After(end); d = domain.AddDays(d, 1) {
		months[d.Month()] = true
		if len(months) == 12 {
			break
		}
	}
	return months
}

func genericSummary(city string) domain.EventSummary {
	events := []domain.Event{
		{
			Name:        city + " Cultural Festival",
			Description: "Experience local culture, cuisine and traditions in " + city + ".",
			Category:    "Cultural Event",
			Venue:       "Various locations, " + city,
			IsFree:      true,
		},
		{
			Name:        city + " Food Market",
			Description: "Local flavors at " + city + "'s food markets.",
			Category:    "Food & Drink",
			Venue:       "City center, " + city,
			IsFree:      true,
		},
	}

	return domain.EventSummary{
		Events:          events,
		Impact:          domain.ImpactLow,
		CrowdMultiplier: 1.0,
		Suggestions: []string{
			"Explore local markets and cultural sites in " + city,
			"Try authentic local cuisine during your visit",
		},
		Generic: true,
	}
}
