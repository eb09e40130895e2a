package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"trip-window-service/internal/domain"
	"trip-window-service/internal/platform/obs"
	"trip-window-service/internal/ports"
)

// TemplateExplanation is the deterministic summary used when no explainer is
// configured or the explainer fails.
func TemplateExplanation(in domain.ExplanationInput) string {
	var tempDesc string
	switch {
	case in.Temperature >= 18 && in.Temperature <= 26:
		tempDesc = "comfortable"
	case in.Temperature < 18:
		tempDesc = "mild"
	default:
		tempDesc = "warm"
	}

	var crowdDesc string
	switch {
	case in.Crowd < 40:
		crowdDesc = "light tourist crowds"
	case in.Crowd < 70:
		crowdDesc = "moderate tourist levels"
	default:
		crowdDesc = "peak season activity"
	}

	value, verdict := scoreWording(in.TravelScore)
	return fmt.Sprintf(
		"%s %s %s: hotel prices around $%.0f per night, %s temperatures near %.1f°C, and %s. "+
			"This %d-day window %s across weather, price and crowds (score %.0f/100).",
		in.StartDate.Format("January"), value, in.Destination, math.Round(in.Price), tempDesc, in.Temperature,
		crowdDesc, in.TripDays, verdict, in.TravelScore,
	)
}

// scoreWording grades the window so that a weak score is not sold as a bargain.
func scoreWording(score float64) (value, verdict string) {
	switch {
	case score >= 75:
		return "offers excellent value for", "provides the best balance"
	case score >= 60:
		return "offers good value for", "strikes a good balance"
	case score >= 45:
		return "offers fair value for", "is a reasonable compromise"
	default:
		return "is a difficult time to visit", "is the least bad option in the horizon"
	}
}

// explain asks the explainer and falls back to the template on any failure.
func explain(ctx context.Context, explainer ports.Explainer, in domain.ExplanationInput) string {
	if explainer == nil {
		return TemplateExplanation(in)
	}
	text, err := explainer.Explain(ctx, in)
	if err != nil || strings.TrimSpace(text) == "" {
		obs.Logger(ctx).Warn().Err(err).Str("destination", in.Destination).Msg("explanation generator failed, using template")
		return TemplateExplanation(in)
	}
	return text
}

// ItinerarySummary describes a multi-city plan in one or two sentences.
func ItinerarySummary(it domain.Itinerary) string {
	route := make([]string, 0, len(it.Route.Cities)+2)
	route = append(route, it.Origin)
	route = append(route, it.Route.Cities...)
	route = append(route, it.Origin)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Multi-city trip visiting %d cities over %d days. Route: %s.",
		len(it.Stops), it.TotalDays, strings.Join(route, " → "))

	if it.Score.ScoredStops > 0 {
		fmt.Fprintf(&sb, " Average travel score %.1f/100.", it.Score.Average)
	}
	if it.Score.DegradedStops > 0 {
		fmt.Fprintf(&sb, " %d stop(s) use fallback data.", it.Score.DegradedStops)
	}
	return sb.String()
}
