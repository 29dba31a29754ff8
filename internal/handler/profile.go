package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mhasan/skillbridge/internal/auth"
	"github.com/mhasan/skillbridge/internal/service"
)

// ProfileHandler serves the authenticated profile endpoints. Both routes
// sit behind auth.RequireAuth, which puts the account id in the context.
type ProfileHandler struct {
	profiles *service.ProfileService
	logger   *slog.Logger
}

func NewProfileHandler(profiles *service.ProfileService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, logger: logger}
}

// HandleGet returns the caller's profile.
//
// HTTP: GET /api/profile (auth required)
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	accountID, ok := auth.AccountIDFromContext(r.Context())
	if !ok {
		// Unreachable behind RequireAuth, but be safe.
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	view, err := h.profiles.Get(r.Context(), accountID)
	if err != nil {
		h.logger.Error("profile fetch failed", slog.Int64("accountID", accountID), slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// HandleUpdate updates the caller's mutable profile fields.
//
// HTTP: PUT /api/profile (auth required)
//
// Omitted fields are left untouched; pointer fields distinguish "absent"
// from "set to zero value".
func (h *ProfileHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	accountID, ok := auth.AccountIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	var req struct {
		UserType *string   `json:"user_type"`
		Skills   *[]string `json:"skills"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: "invalid JSON body"})
		return
	}

	view, err := h.profiles.Update(r.Context(), accountID, service.UpdateInput{
		UserType: req.UserType,
		Skills:   req.Skills,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}
