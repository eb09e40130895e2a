package pricing

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"trip-window-service/internal/domain"
	"trip-window-service/internal/platform/httpx"
	"trip-window-service/internal/platform/obs"

	"github.com/shopspring/decimal"
)

const (
	defaultBookingBaseURL = "https://booking-com15.p.rapidapi.com/api/v1"
	bookingHost           = "booking-com15.p.rapidapi.com"
)

type destinationResponse struct {
	Data []struct {
		DestID     string `json:"dest_id"`
		SearchType string `json:"search_type"`
	} `json:"data"`
}

type hotelsResponse struct {
	Data struct {
		Hotels []struct {
			Property struct {
				PriceBreakdown struct {
					GrossPrice struct {
						Value    float64 `json:"value"`
						Currency string  `json:"currency"`
					} `json:"grossPrice"`
				} `json:"priceBreakdown"`
			} `json:"property"`
		} `json:"hotels"`
	} `json:"data"`
}

type flightsResponse struct {
	Data struct {
		FlightOffers []struct {
			PriceBreakdown struct {
				Total struct {
					CurrencyCode string `json:"currencyCode"`
					Units        int64  `json:"units"`
					Nanos        int64  `json:"nanos"`
				} `json:"total"`
			} `json:"priceBreakdown"`
		} `json:"flightOffers"`
	} `json:"data"`
}

// Booking quotes hotels and flights through the Booking.com RapidAPI.
// Prices are requested in USD.
type Booking struct {
	client  *httpx.Client
	baseURL string
	apiKey  string
}

func NewBooking(client *httpx.Client, baseURL, apiKey string) *Booking {
	if baseURL == "" {
		baseURL = defaultBookingBaseURL
	}
	return &Booking{client: client, baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey}
}

func (b *Booking) header() http.Header {
	h := http.Header{}
	h.Set("X-RapidAPI-Key", b.apiKey)
	h.Set("X-RapidAPI-Host", bookingHost)
	return h
}

func (b *Booking) get(ctx context.Context, endpoint string, q url.Values, out any) error {
	if b.apiKey == "" {
		return domain.ErrSourceUnavailable
	}
	return b.client.GetJSON(ctx, b.baseURL+"/"+endpoint+"?"+q.Encode(), b.header(), out)
}

// GetStopCost returns the average gross price of the first page of hotels,
// for the number of rooms the travellers need.
func (b *Booking) GetStopCost(ctx context.Context, city domain.City, stay domain.DateRange, travelers int) (_ domain.StopCost, err error) {
	defer obs.Time(ctx, "booking.GetStopCost")(&err)

	var dest destinationResponse
	if err := b.get(ctx, "hotels/searchDestination", url.Values{"query": {city.Name}}, &dest); err != nil {
		return domain.StopCost{}, fmt.Errorf("booking: search destination %q: %w", city.Name, err)
	}
	if len(dest.Data) == 0 || dest.Data[0].DestID == "" {
		return domain.StopCost{}, fmt.Errorf("booking: no destination id for %q: %w", city.Name, domain.ErrSourceUnavailable)
	}

	searchType := dest.Data[0].SearchType
	if searchType == "" {
		searchType = "CITY"
	}
	rooms := domain.RoomsFor(travelers)
	nights := stay.Nights()
	checkOut := domain.AddDays(stay.Start, nights)

	q := url.Values{}
	q.Set("dest_id", dest.Data[0].DestID)
	q.Set("search_type", searchType)
	q.Set("arrival_date", stay.Start.Format(domain.DateLayout))
	q.Set("departure_date", checkOut.Format(domain.DateLayout))
	q.Set("adults", strconv.Itoa(max(1, travelers)))
	q.Set("room_qty", strconv.Itoa(rooms))
	q.Set("page_number", "1")
	q.Set("units", "metric")
	q.Set("languagecode", "en-us")
	q.Set("currency_code", "USD")

	var hotels hotelsResponse
	if err := b.get(ctx, "hotels/searchHotels", q, &hotels); err != nil {
		return domain.StopCost{}, fmt.Errorf("booking: search hotels %q: %w", city.Name, err)
	}

	sum := decimal.Zero
	n := 0
	for _, h := range hotels.Data.Hotels {
		if v := h.Property.PriceBreakdown.GrossPrice.Value; v > 0 {
			sum = sum.Add(decimal.NewFromFloat(v))
			n++
		}
	}
	if n == 0 {
		return domain.StopCost{}, fmt.Errorf("booking: no priced hotels in %q: %w", city.Name, domain.ErrSourceUnavailable)
	}

	total := sum.Div(decimal.NewFromInt(int64(n))).Round(2)
	return domain.StopCost{
		City:       city.Name,
		Nights:     nights,
		Nightly:    total.Div(decimal.NewFromInt(int64(nights * rooms))).Round(2),
		HotelTotal: total,
		Source:     domain.SourceBooking,
	}, nil
}

// GetSegmentCost returns the cheapest one-way economy offer for all travellers.
func (b *Booking) GetSegmentCost(ctx context.Context, from, to domain.City, date time.Time, travelers int) (_ domain.SegmentCost, err error) {
	defer obs.Time(ctx, "booking.GetSegmentCost")(&err)

	if from.Airport == "" || to.Airport == "" {
		return domain.SegmentCost{}, fmt.Errorf("booking: no airport for %s -> %s: %w", from.Name, to.Name, domain.ErrSourceUnavailable)
	}

	q := url.Values{}
	q.Set("fromId", from.Airport+".AIRPORT")
	q.Set("toId", to.Airport+".AIRPORT")
	q.Set("departDate", domain.Day(date).Format(domain.DateLayout))
	q.Set("adults", strconv.Itoa(max(1, travelers)))
	q.Set("cabinClass", "ECONOMY")
	q.Set("sort", "CHEAPEST")
	q.Set("currency_code", "USD")

	var flights flightsResponse
	if err := b.get(ctx, "flights/searchFlights", q, &flights); err != nil {
		return domain.SegmentCost{}, fmt.Errorf("booking: search flights %s -> %s: %w", from.Airport, to.Airport, err)
	}

	var cheapest decimal.Decimal
	found := false
	for _, o := range flights.Data.FlightOffers {
		t := o.PriceBreakdown.Total
		price := decimal.NewFromInt(t.Units).Add(decimal.New(t.Nanos, -9))
		if !price.IsPositive() {
			continue
		}
		if !found || price.LessThan(cheapest) {
			cheapest, found = price, true
		}
	}
	if !found {
		return domain.SegmentCost{}, fmt.Errorf("booking: no flight offers %s -> %s: %w", from.Airport, to.Airport, domain.ErrSourceUnavailable)
	}

	return domain.SegmentCost{
		From:       from.Name,
		To:         to.Name,
		Date:       domain.Day(date),
		DistanceKm: domain.HaversineKm(from.Coordinates, to.Coordinates),
		FlightCost: cheapest.Round(2),
		Source:     domain.SourceBooking,
	}, nil
}
