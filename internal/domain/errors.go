package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrSourceUnavailable marks a data source that is not configured or cannot
// currently serve requests. Resilient wrappers treat it as a fallback trigger.
var ErrSourceUnavailable = errors.New("data source unavailable")

// DataQualityError reports a malformed or missing forecast value.
type DataQualityError struct {
	Destination string
	Field       string
	Index       int
	Reason      string
}

func (e *DataQualityError) Error() string {
	return fmt.Sprintf("%s: forecast bucket %d: field %q %s", e.Destination, e.Index, e.Field, e.Reason)
}

// InsufficientHorizonError reports a trip that does not fit into the forecast horizon.
type InsufficientHorizonError struct {
	Destination string
	TripDays    int
	HorizonDays int
}

func (e *InsufficientHorizonError) Error() string {
	return fmt.Sprintf(
		"%s: requested %d trip days but the forecast horizon only covers %d days",
		e.Destination, e.TripDays, e.HorizonDays,
	)
}

// InfeasibleBudgetError reports a total-day budget that cannot satisfy every
// per-city bound.
type InfeasibleBudgetError struct {
	TotalDays   int
	SumMinDays  int
	SumMaxDays  int
	Constraints []string
}

func (e *InfeasibleBudgetError) Error() string {
	reason := ""
	switch {
	case e.TotalDays < e.SumMinDays:
		reason = fmt.Sprintf("requested %d days but the cities need at least %d", e.TotalDays, e.SumMinDays)
	case e.TotalDays > e.SumMaxDays:
		reason = fmt.Sprintf("requested %d days but the cities allow at most %d", e.TotalDays, e.SumMaxDays)
	default:
		reason = fmt.Sprintf("requested %d days cannot be allocated", e.TotalDays)
	}
	if len(e.Constraints) == 0 {
		return "infeasible day budget: " + reason
	}
	return fmt.Sprintf("infeasible day budget: %s (%s)", reason, strings.Join(e.Constraints, "; "))
}

// UnknownCityError reports a city that no geocoder could resolve.
type UnknownCityError struct {
	City string
}

func (e *UnknownCityError) Error() string {
	return fmt.Sprintf("%s: unknown city, coordinates could not be resolved", e.City)
}

// InvalidStopError reports a CityStopSpec violating 1 <= min <= preferred <= max.
type InvalidStopError struct {
	City      string
	MinDays   int
	MaxDays   int
	Preferred int
}

func (e *InvalidStopError) Error() string {
	return fmt.Sprintf(
		"%s: invalid day range min_days=%d preferred_days=%d max_days=%d (need 1 <= min <= preferred <= max)",
		e.City, e.MinDays, e.Preferred, e.MaxDays,
	)
}

// InvalidRequestError reports a malformed planning request.
type InvalidRequestError struct {
	Field  string
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid request: %s %s", e.Field, e.Reason)
}

// BudgetExceededError reports that no travel window fits the caller's budget.
type BudgetExceededError struct {
	Destination  string
	Budget       float64
	CheapestCost float64
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf(
		"%s: no travel window within budget %.2f, cheapest estimate is %.2f",
		e.Destination, e.Budget, e.CheapestCost,
	)
}

// PartialStopFailure records a per-stop data failure in a multi-city plan.
// It never aborts the plan; it is attached to the degraded stop.
type PartialStopFailure struct {
	City  string
	Stage string
	Start time.Time
	End   time.Time
	Err   error
}

func (e *PartialStopFailure) Error() string {
	return fmt.Sprintf("%s (%s..%s): %s failed: %v",
		e.City, e.Start.Format(DateLayout), e.End.Format(DateLayout), e.Stage, e.Err)
}

func (e *PartialStopFailure) Unwrap() error { return e.Err }

// IsRequestError reports whether err makes the whole request meaningless and
// should be surfaced to the caller as a client-side problem.
func IsRequestError(err error) bool {
	var (
		dq  *DataQualityError
		ih  *InsufficientHorizonError
		ib  *InfeasibleBudgetError
		uc  *UnknownCityError
		is  *InvalidStopError
		ir  *InvalidRequestError
		bud *BudgetExceededError
	)
	return errors.As(err, &dq) ||
		errors.As(err, &ih) ||
		errors.As(err, &ib) ||
		errors.As(err, &uc) ||
		errors.As(err, &is) ||
		errors.As(err, &ir) ||
		errors.As(err, &bud)
}
