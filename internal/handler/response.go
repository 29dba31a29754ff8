package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mhasan/skillbridge/internal/apperror"
)

// ErrorResponse is the standard error shape returned by every endpoint:
// a machine-readable error type plus a human-readable message.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// writeJSON sends a JSON response with the given status code.
// Headers and status must be written before the body.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent — all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to the matching HTTP status.
//
// The service layer knows nothing about HTTP; this is the single place
// where apperror sentinels become status codes:
//
//	ErrValidation          → 400  (missing field, bad role)
//	ErrInvalidCredentials  → 401  (identical for unknown user / wrong password)
//	ErrInvalidRefreshToken → 401
//	ErrExternalAuth        → 401  (Google rejected it, wrong audience, or
//	                               the provider could not be reached)
//	ErrNotFound            → 404
//	ErrConflict            → 409  (duplicate username/email)
//	anything else          → 500 with a generic message — infrastructure
//	                         detail never reaches the client
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrInvalidCredentials):
			status = http.StatusUnauthorized
			errorType = "invalid_credentials"
		case errors.Is(err, apperror.ErrInvalidRefreshToken):
			status = http.StatusUnauthorized
			errorType = "invalid_refresh_token"
		case errors.Is(err, apperror.ErrExternalAuth):
			status = http.StatusUnauthorized
			errorType = "external_verification_failed"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = "conflict"
		}

		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
			Field:   appErr.Field,
		})
		return
	}

	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}
