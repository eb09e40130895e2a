package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"trip-window-service/internal/api/dto"
	"trip-window-service/internal/platform/obs"
	"trip-window-service/internal/services"
)

// Stream event types.
const (
	eventStatus   = "status"
	eventComplete = "complete"
	eventError    = "error"
)

// PlanMultiCityStream plans like PlanMultiCity but answers with server-sent
// events: status events while planning, then one complete or error event.
// Malformed requests are rejected with a plain JSON error before streaming.
func (h *PlanHandler) PlanMultiCityStream(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.MultiCityRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	svcReq, err := multiCityRequest(req)
	if err != nil {
		writePlanError(w, r, "multi-city stream", err)
		return
	}

	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	// A failed write means the client went away; the request context is
	// cancelled with it, so planning stops on its own.
	send := func(ev dto.StreamEvent) {
		b, err := json.Marshal(ev)
		if err != nil {
			obs.Logger(r.Context()).Error().Err(err).Str("type", ev.Type).Msg("encode stream event")
			return
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", b); err != nil {
			obs.Logger(r.Context()).Debug().Err(err).Msg("stream write failed")
			return
		}
		if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
			obs.Logger(r.Context()).Debug().Err(err).Msg("stream flush failed")
		}
	}

	send(dto.StreamEvent{Type: eventStatus, Message: fmt.Sprintf("Planning a %d-day trip through %d cities", req.TotalDays, len(req.Cities))})
	svcReq.Progress = func(p services.Progress) {
		send(dto.StreamEvent{Type: eventStatus, Message: p.Message, Progress: p.Percent, Stage: p.Stage, CurrentCity: p.City})
	}

	it, err := h.Planner.PlanMultiCity(r.Context(), svcReq)
	if err != nil {
		_, msg := planError(r, "multi-city stream", err)
		send(dto.StreamEvent{Type: eventError, Message: msg})
		return
	}

	res := dto.NewMultiCityResponse(it)
	send(dto.StreamEvent{Type: eventComplete, Message: "Trip planning complete", Progress: 100, Result: &res})
}
