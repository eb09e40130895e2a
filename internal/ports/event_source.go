package ports

import (
	"context"
	"trip-window-service/internal/domain"
)

// Contract for events overlapping a stay. Unknown cities get generic content.
type EventSource interface {
	EventsFor(ctx context.Context, city domain.City, stay domain.DateRange) (domain.EventSummary, error)
}
