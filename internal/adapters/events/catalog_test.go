package events

import (
	"context"
	"testing"
	"time"
	"trip-window-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stayOf(start string, days int) domain.DateRange {
	s, _ := time.Parse(domain.DateLayout, start)
	return domain.DateRange{Start: s, End: domain.AddDays(s, days-1)}
}

func TestEventsForMatchesStayMonths(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)

	sum, err := c.EventsFor(context.Background(), domain.City{Name: "Paris"}, stayOf("2026-09-28", 6))
	require.NoError(t, err)

	names := []string{}
	for _, e := range sum.Events {
		names = append(names, e.Name)
	}
	// late September stay runs into October
	assert.ElementsMatch(t, []string{"Paris Fashion Week", "Nuit Blanche"}, names)
	assert.Equal(t, domain.ImpactMedium, sum.Impact)
	assert.Equal(t, 1.3, sum.CrowdMultiplier)
	assert.True(t, sum.HasMajorEvents)
	assert.Contains(t, sum.Warning, "Paris Fashion Week")
	assert.False(t, sum.Generic)
}

func TestEventsForQuietMonth(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)

	sum, err := c.EventsFor(context.Background(), domain.City{Name: "Berlin"}, stayOf("2026-05-10", 3))
	require.NoError(t, err)

	assert.Empty(t, sum.Events)
	assert.Equal(t, domain.ImpactLow, sum.Impact)
	assert.Contains(t, sum.Warning, "No major events")
	assert.Len(t, sum.Suggestions, 2)
}

func TestEventsForUnknownCityIsGeneric(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)

	sum, err := c.EventsFor(context.Background(), domain.City{Name: "Porto"}, stayOf("2026-05-10", 3))
	require.NoError(t, err)

	assert.True(t, sum.Generic)
	assert.Len(t, sum.Events, 2)
	assert.Equal(t, "Porto Cultural Festival", sum.Events[0].Name)
	assert.Equal(t, 1.0, sum.CrowdMultiplier)
}

func TestParseCatalogRejectsBadMonth(t *testing.T) {
	_, err := ParseCatalog([]byte("cities:\n  paris:\n    - name: X\n      months: [13]\n"))
	require.Error(t, err)
}
