package handlers

import (
	"net/http"
	"time"
)

// HealthHandler reports liveness and which optional integrations are wired.
type HealthHandler struct {
	Version      string
	Integrations map[string]bool
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	res := map[string]any{
		"status":       "ok",
		"version":      h.Version,
		"integrations": h.Integrations,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
	}
	writeJSON(w, r, http.StatusOK, res)
}
