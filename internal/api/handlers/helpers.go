package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"trip-window-service/internal/domain"
	"trip-window-service/internal/platform/obs"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		obs.Logger(r.Context()).Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("encode failed")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// writePlanError maps domain errors to 422 with their message. Anything
// else is logged and answered with a generic 500.
func writePlanError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, msg := planError(r, op, err)
	writeError(w, r, status, msg)
}

// planError picks the status and client-safe message for a planning error.
func planError(r *http.Request, op string, err error) (int, string) {
	switch {
	case domain.IsRequestError(err):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		obs.Logger(r.Context()).Warn().Err(err).Str("op", op).Msg("request timed out")
		return http.StatusGatewayTimeout, "request timed out"
	default:
		obs.Logger(r.Context()).Error().Err(err).Str("op", op).Msg("request failed")
		return http.StatusInternalServerError, "internal server error"
	}
}

// allowMethod answers 405 and returns false unless r uses method.
func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	return false
}

// decodeJSON reads exactly one JSON object into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return false
	}
	return true
}
