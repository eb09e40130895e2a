package services

import (
	"context"
	"sort"
	"trip-window-service/internal/domain"
	"trip-window-service/internal/platform/obs"

	"golang.org/x/sync/errgroup"
)

// RankEntry is one destination of a ranking. Err is set when planning failed.
type RankEntry struct {
	Destination string
	Result      domain.SingleCityResult
	Err         error
}

// RankDestinations plans every destination with the template request and
// orders them by TravelScore, best first. Failed destinations go last, in
// input order. onDone, if set, is called once per finished destination and
// may be called from several goroutines.
func (p *Planner) RankDestinations(ctx context.Context, tmpl SingleCityRequest, destinations []string, onDone func()) (_ []RankEntry, err error) {
	defer obs.Time(ctx, "planner.RankDestinations")(&err)

	entries := make([]RankEntry, len(destinations))

	var g errgroup.Group
	g.SetLimit(p.opts.MaxConcurrentStops)
	for i, d := range destinations {
		g.Go(func() error {
			req := tmpl
			req.Destination = d
			res, err := p.PlanSingle(ctx, req)
			entries[i] = RankEntry{Destination: d, Result: res, Err: err}
			if onDone != nil {
				onDone()
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if (a.Err == nil) != (b.Err == nil) {
			return a.Err == nil
		}
		if a.Err != nil {
			return false
		}
		if a.Result.Window.TravelScore != b.Result.Window.TravelScore {
			return a.Result.Window.TravelScore > b.Result.Window.TravelScore
		}
		return a.Result.Destination < b.Result.Destination
	})

	return entries, nil
}
