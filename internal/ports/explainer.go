package ports

import (
	"context"
	"trip-window-service/internal/domain"
)

// Best-effort natural-language explanation of a recommendation.
type Explainer interface {
	Explain(ctx context.Context, in domain.ExplanationInput) (string, error)
}
