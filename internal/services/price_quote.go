package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"trip-window-service/internal/domain"
	"trip-window-service/internal/platform/obs"
)

// MaxQuoteNights bounds a price lookup.
const MaxQuoteNights = 30

// PriceQuoteRequest asks for current prices of a fixed stay.
type PriceQuoteRequest struct {
	Destination string
	// Origin defaults to DefaultOrigin; flights are skipped when it equals Destination.
	Origin    string
	CheckIn   time.Time
	CheckOut  time.Time
	Travelers int
}

// QuotePrices prices a stay from CheckIn to CheckOut plus the outbound and
// return flights. No forecast is consulted; failed live quotes come back as
// estimates carrying their FallbackReason.
func (p *Planner) QuotePrices(ctx context.Context, req PriceQuoteRequest) (_ domain.PriceQuote, err error) {
	defer obs.Time(ctx, "planner.QuotePrices")(&err)

	if strings.TrimSpace(req.Destination) == "" {
		return domain.PriceQuote{}, &domain.InvalidRequestError{Field: "destination", Reason: "must be non-empty"}
	}
	if req.CheckIn.IsZero() || req.CheckOut.IsZero() {
		return domain.PriceQuote{}, &domain.InvalidRequestError{Field: "check_in", Reason: "check_in and check_out are required"}
	}

	checkIn, checkOut := domain.Day(req.CheckIn), domain.Day(req.CheckOut)
	now := p.opts.Now()
	if checkIn.Before(domain.Day(now)) {
		return domain.PriceQuote{}, &domain.InvalidRequestError{
			Field:  "check_in",
			Reason: fmt.Sprintf("%s is in the past", checkIn.Format(domain.DateLayout)),
		}
	}
	nights := domain.DaysBetween(checkIn, checkOut)
	if nights < 1 || nights > MaxQuoteNights {
		return domain.PriceQuote{}, &domain.InvalidRequestError{
			Field:  "check_out",
			Reason: fmt.Sprintf("must be 1 to %d nights after check_in, got %d", MaxQuoteNights, nights),
		}
	}

	origin := req.Origin
	if strings.TrimSpace(origin) == "" {
		origin = DefaultOrigin
	}
	travelers := req.Travelers
	if travelers <= 0 {
		travelers = p.opts.Travelers
	}

	cities, err := lookupCities(ctx, p.deps.Geocoder, []string{req.Destination, origin})
	if err != nil {
		return domain.PriceQuote{}, err
	}
	dest := cities[domain.CityKey(req.Destination)]
	from := cities[domain.CityKey(origin)]
	withFlights := domain.CityKey(dest.Name) != domain.CityKey(from.Name)

	stay := domain.DateRange{Start: checkIn, End: checkOut}
	costs := tripCosts(ctx, p.deps.Pricing, dest, from, withFlights, stay, travelers)

	q := domain.PriceQuote{
		Destination: dest.Name,
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		Flights:     costs.Segments,
		Costs:       costs,
		GeneratedAt: now.UTC(),
	}
	if len(costs.Stops) > 0 {
		q.Hotel = costs.Stops[0]
	}
	if withFlights {
		q.Origin = from.Name
	}
	return q, nil
}
