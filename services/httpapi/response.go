package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"ctutimetable-backend/lib/scrapers/htql"
	"ctutimetable-backend/lib/timetable"
	"ctutimetable-backend/services/catalog"
)

// errValidation marks request errors that are detected before any upstream call.
var errValidation = errors.New("invalid request")

type errorBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.WarnContext(r.Context(), "failed to write response", "path", r.URL.Path, "err", err)
	}
}

func writeData(w http.ResponseWriter, r *http.Request, data any) {
	writeJSON(w, r, http.StatusOK, map[string]any{"data": data})
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, r, status, map[string]any{"error": errorBody{Message: message}})
}

// statusOf maps errors of the lower layers onto response codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, errValidation):
		return http.StatusBadRequest
	case errors.Is(err, timetable.ErrNoRows), errors.Is(err, catalog.ErrSubjectNotFound):
		return http.StatusNotFound
	case htql.SessionRejected(err):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status >= 500 {
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "status", status, "err", err)
	}
	writeError(w, r, status, err.Error())
}
