package api

import (
	"net/http"
	"trip-window-service/internal/api/handlers"
	"trip-window-service/internal/ports"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Planner      handlers.TripPlanner
	Cities       ports.CityLister
	Version      string
	Integrations map[string]bool
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	health := &handlers.HealthHandler{Version: d.Version, Integrations: d.Integrations}
	destinations := &handlers.DestinationHandler{Cities: d.Cities}
	plans := &handlers.PlanHandler{Planner: d.Planner}

	mux.HandleFunc("/health", health.Health)
	mux.HandleFunc("/destinations", destinations.List)
	mux.HandleFunc("/predict", plans.Predict)
	mux.HandleFunc("/destination/{name}/prices", plans.Prices)
	mux.HandleFunc("/multi-city/plan", plans.PlanMultiCity)
	mux.HandleFunc("/multi-city/plan-stream", plans.PlanMultiCityStream)
	mux.HandleFunc("/multi-city/example", plans.Example)

	return requestIDMiddleware(loggingMiddleware(mux))
}
