package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"timetracker/internal/charts"
	"timetracker/internal/core"
	"timetracker/internal/log"
	"timetracker/internal/store"
	"timetracker/internal/transfer"
)

type errorResponse struct {
	Error string `json:"error"`
}

type successResponse struct {
	Success bool `json:"success"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusFor maps domain errors to HTTP status codes. Anything unknown is a
// server error.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrUnknownCategory), errors.Is(err, store.ErrUnknownProject):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errBadRequest),
		errors.Is(err, transfer.ErrInvalidFormat),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrInvalidHours),
		errors.Is(err, core.ErrInvalidTarget),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrEmptyColor),
		errors.Is(err, core.ErrMissingCategory),
		errors.Is(err, core.ErrMissingProject),
		errors.Is(err, core.ErrInvalidPeriod),
		errors.Is(err, core.ErrInvalidRange):
		return http.StatusBadRequest
	case errors.Is(err, charts.ErrNoData):
		return http.StatusNoContent
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with its mapped status. Server errors are logged
// and replaced by fallback so internals never reach the client.
func respondError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := statusFor(err)
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}
	if status >= http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), fallback,
			log.FieldError, err.Error(),
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)
		writeError(w, status, fallback)
		return
	}
	writeError(w, status, err.Error())
}
