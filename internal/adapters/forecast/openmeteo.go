package forecast

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
	"trip-window-service/internal/domain"
	"trip-window-service/internal/platform/httpx"
	"trip-window-service/internal/platform/obs"
	"trip-window-service/internal/ports"
)

const (
	defaultOpenMeteoBaseURL = "https://climate-api.open-meteo.com"
	defaultClimateModel     = "EC_Earth3P_HR"
)

type climateResponse struct {
	Daily struct {
		Time        []string   `json:"time"`
		Temperature []*float64 `json:"temperature_2m_mean"`
		Precip      []*float64 `json:"precipitation_sum"`
	} `json:"daily"`
}

// OpenMeteo reads daily climate projections and aggregates them into weekly
// buckets: mean temperature and summed precipitation. No live price or crowd
// feed exists, so those fields come from the synthetic baseline.
type OpenMeteo struct {
	client  *httpx.Client
	baseURL string
	model   string
}

func NewOpenMeteo(client *httpx.Client, baseURL string) *OpenMeteo {
	if baseURL == "" {
		baseURL = defaultOpenMeteoBaseURL
	}
	return &OpenMeteo{client: client, baseURL: strings.TrimRight(baseURL, "/"), model: defaultClimateModel}
}

func (o *OpenMeteo) GetSeries(ctx context.Context, city domain.City, from time.Time, weeks int) (_ ports.ForecastSeries, err error) {
	defer obs.Time(ctx, "openmeteo.GetSeries")(&err)

	if weeks < 1 {
		return ports.ForecastSeries{}, &domain.InvalidRequestError{Field: "weeks", Reason: fmt.Sprintf("must be >= 1, got %d", weeks)}
	}

	start := domain.Day(from)
	days := weeks * domain.BucketDays
	end := domain.AddDays(start, days-1)

	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(city.Coordinates.Lat, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(city.Coordinates.Lon, 'f', 4, 64))
	q.Set("start_date", start.Format(domain.DateLayout))
	q.Set("end_date", end.Format(domain.DateLayout))
	q.Set("models", o.model)
	q.Set("daily", "temperature_2m_mean,precipitation_sum")

	var resp climateResponse
	if err := o.client.GetJSON(ctx, o.baseURL+"/v1/climate?"+q.Encode(), nil, &resp); err != nil {
		return ports.ForecastSeries{}, fmt.Errorf("openmeteo %s: %w", city.Name, err)
	}

	d := resp.Daily
	if len(d.Time) < days || len(d.Temperature) < days || len(d.Precip) < days {
		return ports.ForecastSeries{}, &domain.DataQualityError{
			Destination: city.Name,
			Field:       "daily",
			Reason:      fmt.Sprintf("has %d days, need %d", min(len(d.Time), len(d.Temperature), len(d.Precip)), days),
		}
	}

	buckets := make([]domain.ForecastBucket, weeks)
	for w := range buckets {
		weekStart := domain.AddDays(start, w*domain.BucketDays)
		var tempSum, precipSum float64
		for i := w * domain.BucketDays; i < (w+1)*domain.BucketDays; i++ {
			if d.Temperature[i] == nil {
				return ports.ForecastSeries{}, &domain.DataQualityError{Destination: city.Name, Index: w, Field: "temperature", Reason: "is missing on " + d.Time[i]}
			}
			if d.Precip[i] == nil {
				return ports.ForecastSeries{}, &domain.DataQualityError{Destination: city.Name, Index: w, Field: "precipitation", Reason: "is missing on " + d.Time[i]}
			}
			tempSum += *d.Temperature[i]
			precipSum += *d.Precip[i]
		}

		b := Baseline(city, weekStart)
		b.Temperature = tempSum / domain.BucketDays
		b.Precipitation = precipSum
		if err := b.Validate(city.Name, w); err != nil {
			return ports.ForecastSeries{}, err
		}
		buckets[w] = b
	}

	return ports.ForecastSeries{Buckets: buckets, Source: domain.DataSourceLive}, nil
}
