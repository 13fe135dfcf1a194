package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/larder/internal/auth"
	"github.com/dukerupert/larder/internal/model"
	"github.com/dukerupert/larder/internal/store"
)

type MeHandler struct {
	userStore      *store.UserStore
	householdStore *store.HouseholdStore
	logger         *slog.Logger
}

func NewMeHandler(us *store.UserStore, hs *store.HouseholdStore, logger *slog.Logger) *MeHandler {
	return &MeHandler{userStore: us, householdStore: hs, logger: logger}
}

type meResponse struct {
	User      *model.User                 `json:"user"`
	Household *model.HouseholdWithMembers `json:"household"`
}

// Get handles GET /api/me
func (h *MeHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	u, err := h.userStore.GetByID(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, "get user", err, "failed to load user")
		return
	}
	if u == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
		return
	}

	hh, err := h.householdStore.GetForUser(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, "get household", err, "failed to load household")
		return
	}

	writeJSON(w, http.StatusOK, meResponse{User: u, Household: hh})
}

// UpdatePreferences handles PUT /api/me/preferences
func (h *MeHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var req model.UserPreferences
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := h.userStore.UpdatePreferences(r.Context(), auth.UserID(r.Context()), req)
	if err != nil {
		writeError(w, h.logger, "update preferences", err, "failed to update preferences")
		return
	}
	writeJSON(w, http.StatusOK, u)
}
