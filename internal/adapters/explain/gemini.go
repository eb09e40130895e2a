package explain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"trip-window-service/internal/domain"
	"trip-window-service/internal/platform/obs"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultTimeout = 8 * time.Second

// Gemini writes a short travel explanation with the Gemini API.
// Callers treat it as best-effort and fall back to a template on error.
type Gemini struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("new gemini: %w", domain.ErrSourceUnavailable)
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("new gemini: create client: %w", err)
	}
	return &Gemini{client: client, model: model, timeout: defaultTimeout}, nil
}

func (g *Gemini) Close() error { return g.client.Close() }

func (g *Gemini) Explain(ctx context.Context, in domain.ExplanationInput) (_ string, err error) {
	defer obs.Time(ctx, "gemini.Explain")(&err)

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	m := g.client.GenerativeModel(g.model)
	m.SetTemperature(0.4)
	m.SetMaxOutputTokens(160)

	resp, err := m.GenerateContent(ctx, genai.Text(Prompt(in)))
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}

	var sb strings.Builder
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
		break
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", errors.New("gemini: empty response")
	}
	return text, nil
}

// Prompt renders the scored summary as model input.
func Prompt(in domain.ExplanationInput) string {
	return fmt.Sprintf(
		"You are a travel advisor. In two or three sentences, explain why the %d-day trip to %s starting %s "+
			"is a good choice. Average price %.0f USD per night, temperature %.1f C, weekly precipitation %.0f mm, "+
			"crowd level %.0f/100, overall travel score %.0f/100, confidence %.0f%%. Be concrete and friendly.",
		in.TripDays, in.Destination, in.StartDate.Format("January 2, 2006"),
		in.Price, in.Temperature, in.Precip, in.Crowd, in.TravelScore, in.Confidence*100,
	)
}
