package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/pharmalink/golang_services/internal/messaging_service/domain"
)

// statusForError is the single mapping from domain error kinds to HTTP status.
// Everything else is a server fault so the carrier retries.
func statusForError(err error) int {
	var verr validator.ValidationErrors
	switch {
	case errors.As(err, &verr), errors.Is(err, domain.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(err error, status int) ErrorResponse {
	resp := ErrorResponse{Error: err.Error()}
	var perr *domain.ProviderError
	switch {
	case errors.As(err, &perr):
		resp.Error = "Failed to send message"
		resp.Details = perr.Message
		resp.Raw = perr.Raw
	case errors.Is(err, domain.ErrDatastore):
		resp.Error = "Datastore error"
	case status == http.StatusInternalServerError && !errors.Is(err, domain.ErrConfiguration):
		resp.Error = "Internal server error"
	}
	return resp
}

func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", "status_code", status, "error", err)
	} else {
		logger.WarnContext(r.Context(), "Request rejected", "status_code", status, "error", err)
	}
	writeJSON(w, status, errorBody(err, status))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
