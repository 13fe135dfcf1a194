package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/larder/internal/auth"
	"github.com/dukerupert/larder/internal/store"
	ws "github.com/dukerupert/larder/internal/websocket"
)

type HouseholdHandler struct {
	householdStore *store.HouseholdStore
	hub            *ws.Hub
	logger         *slog.Logger
}

func NewHouseholdHandler(hs *store.HouseholdStore, hub *ws.Hub, logger *slog.Logger) *HouseholdHandler {
	return &HouseholdHandler{householdStore: hs, hub: hub, logger: logger}
}

type householdNameRequest struct {
	Name string `json:"name"`
}

type joinRequest struct {
	InviteCode string `json:"invite_code"`
}

// Get handles GET /api/household
func (h *HouseholdHandler) Get(w http.ResponseWriter, r *http.Request) {
	hh, err := h.householdStore.GetForUser(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, h.logger, "get household", err, "failed to load household")
		return
	}
	if hh == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "You are not in a household"})
		return
	}
	writeJSON(w, http.StatusOK, hh)
}

// Create handles POST /api/household
func (h *HouseholdHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req householdNameRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	hh, err := h.householdStore.Create(r.Context(), auth.UserID(r.Context()), req.Name)
	if err != nil {
		writeError(w, h.logger, "create household", err, "failed to create household")
		return
	}
	writeJSON(w, http.StatusCreated, hh)
}

// Ensure handles POST /api/household/ensure
func (h *HouseholdHandler) Ensure(w http.ResponseWriter, r *http.Request) {
	hh, err := h.householdStore.Ensure(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, h.logger, "ensure household", err, "failed to create household")
		return
	}
	writeJSON(w, http.StatusOK, hh)
}

// Join handles POST /api/household/join
func (h *HouseholdHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	hh, err := h.householdStore.Join(r.Context(), auth.UserID(r.Context()), req.InviteCode)
	if err != nil {
		writeError(w, h.logger, "join household", err, "failed to join household")
		return
	}

	h.hub.Broadcast(hh.ID, ws.NewMessage("household", "updated", hh.ID))
	writeJSON(w, http.StatusOK, hh)
}

// Leave handles POST /api/household/leave
func (h *HouseholdHandler) Leave(w http.ResponseWriter, r *http.Request) {
	previous := auth.HouseholdID(r.Context())

	result, err := h.householdStore.Leave(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, h.logger, "leave household", err, "failed to leave household")
		return
	}

	if !result.HouseholdDeleted && previous != 0 {
		h.hub.Broadcast(previous, ws.NewMessage("household", "updated", previous))
	}
	writeJSON(w, http.StatusOK, result)
}

// RegenerateInviteCode handles POST /api/household/invite-code
func (h *HouseholdHandler) RegenerateInviteCode(w http.ResponseWriter, r *http.Request) {
	code, err := h.householdStore.RegenerateInviteCode(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, h.logger, "regenerate invite code", err, "failed to regenerate invite code")
		return
	}

	hid := auth.HouseholdID(r.Context())
	h.hub.Broadcast(hid, ws.NewMessage("household", "updated", hid))
	writeJSON(w, http.StatusOK, map[string]string{"invite_code": code})
}

// UpdateName handles PUT /api/household/name
func (h *HouseholdHandler) UpdateName(w http.ResponseWriter, r *http.Request) {
	var req householdNameRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	hh, err := h.householdStore.UpdateName(r.Context(), auth.UserID(r.Context()), req.Name)
	if err != nil {
		writeError(w, h.logger, "update household name", err, "failed to rename household")
		return
	}

	h.hub.Broadcast(hh.ID, ws.NewMessage("household", "updated", hh.ID))
	writeJSON(w, http.StatusOK, hh)
}
