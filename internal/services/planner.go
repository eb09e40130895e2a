package services

import (
	"context"
	"fmt"
	"time"
	"trip-window-service/internal/domain"
	"trip-window-service/internal/ports"
)

// Options are the planner tunables. Zero values take the defaults below;
// a LeadTimeDays of 0 means trips may start today.
type Options struct {
	HorizonWeeks       int
	LeadTimeDays       int
	Travelers          int
	StopTimeout        time.Duration
	MaxConcurrentStops int
	// Now is the clock; tests pin it.
	Now func() time.Time
}

const (
	DefaultHorizonWeeks       = 52
	DefaultLeadTimeDays       = 14
	DefaultTravelers          = 2
	DefaultStopTimeout        = 8 * time.Second
	DefaultMaxConcurrentStops = 5
	DefaultOrigin             = "London"
)

func (o Options) withDefaults() Options {
	if o.HorizonWeeks <= 0 {
		o.HorizonWeeks = DefaultHorizonWeeks
	}
	if o.LeadTimeDays < 0 {
		o.LeadTimeDays = 0
	}
	if o.Travelers <= 0 {
		o.Travelers = DefaultTravelers
	}
	if o.StopTimeout <= 0 {
		o.StopTimeout = DefaultStopTimeout
	}
	if o.MaxConcurrentStops <= 0 {
		o.MaxConcurrentStops = DefaultMaxConcurrentStops
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Deps are the collaborators of the planner. Explainer may be nil.
type Deps struct {
	Geocoder  ports.Geocoder
	Forecast  ports.ForecastProvider
	Pricing   ports.PricingProvider
	Events    ports.EventSource
	Explainer ports.Explainer
	Engine    *ScoreEngine
}

// Planner runs single-city and multi-city planning. It keeps no per-request
// state and is safe for concurrent use.
type Planner struct {
	deps     Deps
	selector *WindowSelector
	opts     Options
}

func NewPlanner(deps Deps, opts Options) (*Planner, error) {
	if deps.Geocoder == nil || deps.Forecast == nil || deps.Pricing == nil || deps.Events == nil {
		return nil, fmt.Errorf("new planner: geocoder, forecast, pricing and events are required")
	}
	if deps.Engine == nil {
		deps.Engine = DefaultScoreEngine()
	}
	return &Planner{
		deps:     deps,
		selector: NewWindowSelector(deps.Engine.Policy()),
		opts:     opts.withDefaults(),
	}, nil
}

func (p *Planner) Options() Options { return p.opts }

func (p *Planner) today() time.Time { return domain.Day(p.opts.Now()) }

// pricingFor picks the provider for one request. A nil choice uses the
// configured provider; false forces seasonal estimates.
func (p *Planner) pricingFor(useReal *bool) ports.PricingProvider {
	if useReal != nil && !*useReal {
		return estimateOnly{}
	}
	return p.deps.Pricing
}

// estimateOnly quotes seasonal estimates and never calls out.
type estimateOnly struct{}

func (estimateOnly) GetStopCost(_ context.Context, city domain.City, stay domain.DateRange, travelers int) (domain.StopCost, error) {
	return domain.EstimateStopCost(city, stay, domain.RoomsFor(travelers)), nil
}

func (estimateOnly) GetSegmentCost(_ context.Context, from, to domain.City, date time.Time, travelers int) (domain.SegmentCost, error) {
	return domain.EstimateSegmentCost(from, to, date, travelers), nil
}
