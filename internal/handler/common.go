package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	chmw "github.com/go-chi/chi/v5/middleware"
	"github.com/sponsorgrid/sponsorgrid/internal/domain"
)

type ErrorResponse struct {
	BaseResponse
	Error string `json:"error"`
}

type BaseResponse struct {
	Ok bool `json:"ok"`
}

// respondWithError sends an error response with a message
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

// respondWithJSON sends a JSON response
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	// Sets content type header
	w.Header().Set("Content-Type", "application/json")

	// Sets the HTTP status code
	w.WriteHeader(code)

	// Encodes the response
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// respondWithDomainError maps the domain error taxonomy onto HTTP statuses.
// Anything unmapped is an internal error and gets logged with the request
// id.
func respondWithDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrWorkspaceNotFound),
		errors.Is(err, domain.ErrMembershipNotFound),
		errors.Is(err, domain.ErrInvitationNotFound),
		errors.Is(err, domain.ErrNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrDuplicateInvitation),
		errors.Is(err, domain.ErrInvitationNotPending),
		errors.Is(err, domain.ErrLastAdministrator):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvitationExpired):
		respondWithError(w, http.StatusGone, err.Error())
	case errors.Is(err, domain.ErrEmailMismatch),
		errors.Is(err, domain.ErrUnauthorized):
		respondWithError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrTransient):
		// Retry-safe connectivity or timeout failure; clients may retry
		// idempotent requests.
		slog.WarnContext(r.Context(), "transient storage failure",
			"error", err, "requestID", chmw.GetReqID(r.Context()))
		respondWithError(w, http.StatusServiceUnavailable, "Service temporarily unavailable")
	default:
		slog.ErrorContext(r.Context(), "request failed",
			"error", err, "requestID", chmw.GetReqID(r.Context()))
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
