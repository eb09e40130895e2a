// tripctl plans trips from the command line using the same planner as the
// HTTP service.
//
// Usage:
//
//	tripctl cities
//	tripctl predict --city Lisbon --days 5
//	tripctl plan --stop Paris:3:5:4 --stop Barcelona:3:6:4 --days 11
//	tripctl rank --days 7 Lisbon Rome Vienna
//	tripctl prices --city Rome --check-in 2026-06-01 --check-out 2026-06-05
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	"trip-window-service/internal/app"
	"trip-window-service/internal/config"
	"trip-window-service/internal/domain"
	"trip-window-service/internal/platform/obs"
	"trip-window-service/internal/services"

	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"
)

var version = "dev"

func main() {
	config.LoadDotEnv()

	cliApp := &cli.App{
		Name:    "tripctl",
		Usage:   "Find the best travel windows and plan multi-city trips",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"TRIPCTL_LOG_LEVEL"},
			},
			&cli.BoolFlag{
				Name:  "offline",
				Usage: "Use only the built-in catalog, synthetic forecasts and estimated prices",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "text",
				Usage:   "Output format (text, json)",
			},
		},
		Before: func(c *cli.Context) error {
			obs.Setup(c.String("log-level"), true)
			switch c.String("format") {
			case "text", "json":
				return nil
			default:
				return fmt.Errorf("unknown format %q", c.String("format"))
			}
		},
		Commands: []*cli.Command{
			citiesCommand(),
			predictCommand(),
			planCommand(),
			rankCommand(),
			pricesCommand(),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// build wires the planner. --offline drops every remote integration.
func build(c *cli.Context) (*app.App, context.Context, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	if c.Bool("offline") {
		cfg.DatabaseURL, cfg.RedisURL = "", ""
		cfg.ORSAPIKey, cfg.RapidAPIKey, cfg.GeminiAPIKey = "", "", ""
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	a, err := app.Build(ctx, cfg)
	if err != nil {
		stop()
		return nil, nil, nil, err
	}
	return a, ctx, func() { _ = a.Close(); stop() }, nil
}

func citiesCommand() *cli.Command {
	return &cli.Command{
		Name:  "cities",
		Usage: "List the catalogued destinations",
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			catalog, err := app.LoadCatalog(cfg)
			if err != nil {
				return err
			}
			cities := catalog.Cities()
			if c.String("format") == "json" {
				return writeJSON(c.App.Writer, cities)
			}
			for _, city := range cities {
				fmt.Fprintf(c.App.Writer, "%-16s %-16s %-4s %8.4f %9.4f\n",
					city.Name, city.Country, city.Airport, city.Coordinates.Lat, city.Coordinates.Lon)
			}
			return nil
		},
	}
}

func predictCommand() *cli.Command {
	return &cli.Command{
		Name:  "predict",
		Usage: "Find the best travel window for one destination",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "city", Aliases: []string{"c"}, Required: true, Usage: "Destination city"},
			&cli.IntFlag{Name: "days", Aliases: []string{"d"}, Value: 7, Usage: "Trip length in days"},
			&cli.StringFlag{Name: "origin", Value: services.DefaultOrigin, Usage: "Origin city for flights"},
			&cli.IntFlag{Name: "weeks", Usage: "Forecast horizon in weeks (default from HORIZON_WEEKS)"},
			&cli.IntFlag{Name: "travelers", Usage: "Number of travellers"},
			&cli.Float64Flag{Name: "budget", Usage: "Maximum total trip cost"},
			estimatesFlag,
		},
		Action: func(c *cli.Context) error {
			a, ctx, done, err := build(c)
			if err != nil {
				return err
			}
			defer done()

			res, err := a.Planner.PlanSingle(ctx, services.SingleCityRequest{
				Destination:   c.String("city"),
				Origin:        c.String("origin"),
				TripDays:      c.Int("days"),
				HorizonWeeks:  c.Int("weeks"),
				Travelers:     c.Int("travelers"),
				MaxBudget:     c.Float64("budget"),
				UseRealPrices: useRealPrices(c),
			})
			if err != nil {
				return err
			}
			if c.String("format") == "json" {
				return writeJSON(c.App.Writer, res)
			}
			printSingle(c.App.Writer, res)
			return nil
		},
	}
}

func planCommand() *cli.Command {
	return &cli.Command{
		Name:  "plan",
		Usage: "Plan a multi-city round trip",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "stop", Aliases: []string{"s"}, Required: true, Usage: "City stop as name:min:max[:preferred]; repeat per city"},
			&cli.IntFlag{Name: "days", Aliases: []string{"d"}, Required: true, Usage: "Total trip days"},
			&cli.StringFlag{Name: "origin", Value: services.DefaultOrigin, Usage: "Start and end city"},
			&cli.StringFlag{Name: "start", Usage: "Start date (YYYY-MM-DD); default is today plus the lead time"},
			&cli.BoolFlag{Name: "keep-order", Usage: "Visit stops in the given order"},
			&cli.IntFlag{Name: "travelers", Usage: "Number of travellers"},
			&cli.Float64Flag{Name: "budget", Usage: "Flag the plan when its total cost exceeds this"},
			estimatesFlag,
		},
		Action: func(c *cli.Context) error {
			stops, err := parseStops(c.StringSlice("stop"))
			if err != nil {
				return err
			}
			var start time.Time
			if s := c.String("start"); s != "" {
				if start, err = time.Parse(domain.DateLayout, s); err != nil {
					return fmt.Errorf("--start: %w", err)
				}
			}

			a, ctx, done, err := build(c)
			if err != nil {
				return err
			}
			defer done()

			bar := progressbar.NewOptions(100,
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionSetDescription("planning"),
				progressbar.OptionClearOnFinish(),
			)
			it, err := a.Planner.PlanMultiCity(ctx, services.MultiCityRequest{
				Origin:        c.String("origin"),
				Stops:         stops,
				TotalDays:     c.Int("days"),
				StartDate:     start,
				OptimizeRoute: !c.Bool("keep-order"),
				Travelers:     c.Int("travelers"),
				MaxBudget:     c.Float64("budget"),
				UseRealPrices: useRealPrices(c),
				Progress: func(p services.Progress) {
					bar.Describe(p.Message)
					_ = bar.Set(p.Percent)
				},
			})
			_ = bar.Finish()
			if err != nil {
				return err
			}
			if c.String("format") == "json" {
				return writeJSON(c.App.Writer, it)
			}
			printItinerary(c.App.Writer, it)
			return nil
		},
	}
}

func rankCommand() *cli.Command {
	return &cli.Command{
		Name:      "rank",
		Usage:     "Rank destinations by their best travel score",
		ArgsUsage: "[city...] (default: the whole catalog)",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "days", Aliases: []string{"d"}, Value: 7, Usage: "Trip length in days"},
			&cli.StringFlag{Name: "origin", Value: services.DefaultOrigin, Usage: "Origin city for flights"},
			&cli.Float64Flag{Name: "budget", Usage: "Maximum total trip cost"},
			&cli.IntFlag{Name: "top", Usage: "Show only the best N"},
		},
		Action: func(c *cli.Context) error {
			a, ctx, done, err := build(c)
			if err != nil {
				return err
			}
			defer done()

			names := c.Args().Slice()
			if len(names) == 0 {
				for _, city := range a.Resolver.Cities() {
					names = append(names, city.Name)
				}
			}

			bar := progressbar.NewOptions(len(names),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionSetDescription("scoring destinations"),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
			entries, err := a.Planner.RankDestinations(ctx, services.SingleCityRequest{
				Origin:    c.String("origin"),
				TripDays:  c.Int("days"),
				MaxBudget: c.Float64("budget"),
			}, names, func() { _ = bar.Add(1) })
			_ = bar.Finish()
			if err != nil {
				return err
			}

			if top := c.Int("top"); top > 0 && top < len(entries) {
				entries = entries[:top]
			}
			if c.String("format") == "json" {
				return writeJSON(c.App.Writer, rankRows(entries))
			}
			printRanking(c.App.Writer, entries)
			return nil
		},
	}
}

func pricesCommand() *cli.Command {
	return &cli.Command{
		Name:  "prices",
		Usage: "Quote hotel and flight prices for fixed dates",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "city", Aliases: []string{"c"}, Required: true, Usage: "Destination city"},
			&cli.StringFlag{Name: "check-in", Required: true, Usage: "Check-in date (YYYY-MM-DD)"},
			&cli.StringFlag{Name: "check-out", Required: true, Usage: "Check-out date (YYYY-MM-DD)"},
			&cli.StringFlag{Name: "origin", Value: services.DefaultOrigin, Usage: "Origin city for flights"},
			&cli.IntFlag{Name: "travelers", Usage: "Number of travellers"},
		},
		Action: func(c *cli.Context) error {
			checkIn, err := time.Parse(domain.DateLayout, c.String("check-in"))
			if err != nil {
				return fmt.Errorf("--check-in: %w", err)
			}
			checkOut, err := time.Parse(domain.DateLayout, c.String("check-out"))
			if err != nil {
				return fmt.Errorf("--check-out: %w", err)
			}

			a, ctx, done, err := build(c)
			if err != nil {
				return err
			}
			defer done()

			q, err := a.Planner.QuotePrices(ctx, services.PriceQuoteRequest{
				Destination: c.String("city"),
				Origin:      c.String("origin"),
				CheckIn:     checkIn,
				CheckOut:    checkOut,
				Travelers:   c.Int("travelers"),
			})
			if err != nil {
				return err
			}
			if c.String("format") == "json" {
				return writeJSON(c.App.Writer, q)
			}
			printQuote(c.App.Writer, q)
			return nil
		},
	}
}

var estimatesFlag = &cli.BoolFlag{Name: "estimates", Usage: "Use seasonal price estimates even when live pricing is configured"}

// useRealPrices maps --estimates onto the request toggle; nil keeps the configured provider.
func useRealPrices(c *cli.Context) *bool {
	if !c.Bool("estimates") {
		return nil
	}
	off := false
	return &off
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printSingle(w io.Writer, r domain.SingleCityResult) {
	win := r.Window
	fmt.Fprintf(w, "%s: %s to %s (%d days)\n", r.Destination,
		win.StartDate.Format(domain.DateLayout), win.EndDate.Format(domain.DateLayout), win.TripDays)
	fmt.Fprintf(w, "  score %.1f/100, confidence %.0f%%, data %s\n", win.TravelScore, win.Confidence*100, r.DataSource)
	fmt.Fprintf(w, "  weather %.1f°C, %.1f mm rain, crowd %.0f/100\n",
		win.Scores.Temperature, win.Scores.Precipitation, win.Scores.Crowd)
	fmt.Fprintf(w, "  cost %s total (%s per person)\n", r.Costs.TotalCost.StringFixed(2), r.Costs.PerPersonCost.StringFixed(2))
	if r.Events.Warning != "" {
		fmt.Fprintf(w, "  events: %s\n", r.Events.Warning)
	}
	fmt.Fprintf(w, "\n%s\n", r.Explanation)
}

func printItinerary(w io.Writer, it domain.Itinerary) {
	fmt.Fprintln(w, it.Summary)
	fmt.Fprintf(w, "%s to %s, %.0f km (%s)\n\n", it.StartDate.Format(domain.DateLayout), it.EndDate.Format(domain.DateLayout),
		it.Route.TotalDistanceKm, it.Route.Method)
	for _, s := range it.Stops {
		score := "n/a"
		if s.Window != nil {
			score = fmt.Sprintf("%.1f", s.Window.TravelScore)
		}
		fmt.Fprintf(w, "%d. %-14s %s..%s %2d days  score %-5s hotel %s\n", s.Order, s.City,
			s.StartDate.Format(domain.DateLayout), s.EndDate.Format(domain.DateLayout), s.Days, score, s.Cost.HotelTotal.StringFixed(2))
		for _, f := range s.Failures {
			fmt.Fprintf(w, "   ! %s\n", f)
		}
		if s.Explanation != "" {
			fmt.Fprintf(w, "   %s\n", s.Explanation)
		}
	}
	fmt.Fprintf(w, "\nTotal %s (%s per person)", it.Costs.TotalCost.StringFixed(2), it.Costs.PerPersonCost.StringFixed(2))
	if it.WithinBudget != nil && !*it.WithinBudget {
		fmt.Fprint(w, ", over budget")
	}
	fmt.Fprintln(w)
}

func printQuote(w io.Writer, q domain.PriceQuote) {
	fmt.Fprintf(w, "%s, %s to %s (%d nights)\n", q.Destination,
		q.CheckIn.Format(domain.DateLayout), q.CheckOut.Format(domain.DateLayout), q.Hotel.Nights)
	fmt.Fprintf(w, "  hotel   %10s (%s/night, %s)\n", q.Hotel.HotelTotal.StringFixed(2), q.Hotel.Nightly.StringFixed(2), q.Hotel.Source)
	for _, f := range q.Flights {
		fmt.Fprintf(w, "  flight  %10s %s → %s on %s (%s)\n", f.FlightCost.StringFixed(2), f.From, f.To, f.Date.Format(domain.DateLayout), f.Source)
	}
	fmt.Fprintf(w, "  total   %10s (%s per person)\n", q.Costs.TotalCost.StringFixed(2), q.Costs.PerPersonCost.StringFixed(2))
}

type rankRow struct {
	Rank        int     `json:"rank"`
	Destination string  `json:"destination"`
	StartDate   string  `json:"start_date,omitempty"`
	TravelScore float64 `json:"travel_score,omitempty"`
	TotalCost   string  `json:"total_cost,omitempty"`
	Error       string  `json:"error,omitempty"`
}

func rankRows(entries []services.RankEntry) []rankRow {
	rows := make([]rankRow, 0, len(entries))
	for i, e := range entries {
		row := rankRow{Rank: i + 1, Destination: e.Destination}
		if e.Err != nil {
			row.Error = e.Err.Error()
		} else {
			row.Destination = e.Result.Destination
			row.StartDate = e.Result.Window.StartDate.Format(domain.DateLayout)
			row.TravelScore = e.Result.Window.TravelScore
			row.TotalCost = e.Result.Costs.TotalCost.StringFixed(2)
		}
		rows = append(rows, row)
	}
	return rows
}

func printRanking(w io.Writer, entries []services.RankEntry) {
	for _, row := range rankRows(entries) {
		if row.Error != "" {
			fmt.Fprintf(w, "%3d. %-16s %s\n", row.Rank, row.Destination, strings.TrimSpace(row.Error))
			continue
		}
		fmt.Fprintf(w, "%3d. %-16s %5.1f  from %s  %10s\n", row.Rank, row.Destination, row.TravelScore, row.StartDate, row.TotalCost)
	}
}
