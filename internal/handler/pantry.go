package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dukerupert/larder/internal/auth"
	"github.com/dukerupert/larder/internal/kitchen"
	"github.com/dukerupert/larder/internal/model"
	"github.com/dukerupert/larder/internal/store"
	ws "github.com/dukerupert/larder/internal/websocket"
)

const (
	defaultExpiringDays = 7
	maxExpiringDays     = 365
)

type PantryHandler struct {
	pantryStore     *store.PantryStore
	ingredientStore *store.IngredientStore
	hub             *ws.Hub
	logger          *slog.Logger
}

func NewPantryHandler(ps *store.PantryStore, is *store.IngredientStore, hub *ws.Hub, logger *slog.Logger) *PantryHandler {
	return &PantryHandler{pantryStore: ps, ingredientStore: is, hub: hub, logger: logger}
}

type pantryAddRequest struct {
	IngredientID   int64      `json:"ingredient_id"`
	Name           string     `json:"name"`
	Category       string     `json:"category"`
	Quantity       float64    `json:"quantity"`
	Unit           string     `json:"unit"`
	ExpirationDate *time.Time `json:"expiration_date"`
	Location       string     `json:"location"`
	Notes          string     `json:"notes"`
}

type batchRequest struct {
	Items []model.ParsedItem `json:"items"`
}

type batchResponse struct {
	Results   []model.BatchResult `json:"results"`
	Succeeded int                 `json:"succeeded"`
	Failed    int                 `json:"failed"`
}

func newBatchResponse(results []model.BatchResult) batchResponse {
	resp := batchResponse{Results: results}
	for _, res := range results {
		if res.Success {
			resp.Succeeded++
		} else {
			resp.Failed++
		}
	}
	return resp
}

// List handles GET /api/pantry
func (h *PantryHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.pantryStore.List(r.Context(), auth.HouseholdID(r.Context()))
	if err != nil {
		writeError(w, h.logger, "list pantry", err, "failed to list pantry")
		return
	}
	if items == nil {
		items = []model.PantryItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

// Expiring handles GET /api/pantry/expiring?days=N
func (h *PantryHandler) Expiring(w http.ResponseWriter, r *http.Request) {
	days := defaultExpiringDays
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > maxExpiringDays {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "days must be between 0 and 365"})
			return
		}
		days = n
	}

	items, err := h.pantryStore.ExpiringSoon(r.Context(), auth.HouseholdID(r.Context()), time.Duration(days)*24*time.Hour)
	if err != nil {
		writeError(w, h.logger, "list expiring", err, "failed to list expiring items")
		return
	}
	if items == nil {
		items = []model.PantryItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

// Create handles POST /api/pantry. The ingredient is named by id, or by
// name when the id is omitted.
func (h *PantryHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	householdID := auth.HouseholdID(ctx)
	userID := auth.UserID(ctx)

	var req pantryAddRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ingredientID := req.IngredientID
	if ingredientID == 0 {
		var err error
		ingredientID, err = h.ingredientStore.Resolve(ctx, req.Name, req.Category, req.Unit)
		if err != nil {
			writeError(w, h.logger, "resolve ingredient", err, "failed to add item")
			return
		}
	}

	location := strings.TrimSpace(req.Location)
	if location == "" {
		ing, err := h.ingredientStore.GetByID(ctx, ingredientID)
		if err != nil {
			writeError(w, h.logger, "get ingredient", err, "failed to add item")
			return
		}
		if ing != nil {
			location = kitchen.DefaultLocation(ing.Category)
		}
	}

	id, err := h.pantryStore.Add(ctx, householdID, model.PantryAdd{
		IngredientID:   ingredientID,
		Quantity:       req.Quantity,
		Unit:           strings.TrimSpace(req.Unit),
		ExpirationDate: req.ExpirationDate,
		Location:       location,
		Notes:          req.Notes,
		AddedBy:        &userID,
	})
	if err != nil {
		writeError(w, h.logger, "add pantry item", err, "failed to add item")
		return
	}

	item, err := h.pantryStore.GetByID(ctx, id)
	if err != nil {
		writeError(w, h.logger, "get pantry item", err, "failed to add item")
		return
	}

	h.hub.Broadcast(householdID, ws.NewMessage("pantry", "created", id))
	writeJSON(w, http.StatusCreated, item)
}

// Batch handles POST /api/pantry/batch
func (h *PantryHandler) Batch(w http.ResponseWriter, r *http.Request) {
	householdID := auth.HouseholdID(r.Context())
	userID := auth.UserID(r.Context())

	var req batchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "items are required"})
		return
	}

	resp := newBatchResponse(h.pantryStore.AddBatch(r.Context(), householdID, req.Items, &userID))
	if resp.Succeeded > 0 {
		h.hub.Broadcast(householdID, ws.NewMessage("pantry", "batch", 0))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Update handles PUT /api/pantry/{id}
func (h *PantryHandler) Update(w http.ResponseWriter, r *http.Request) {
	householdID := auth.HouseholdID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, "update pantry item", err, "invalid id")
		return
	}
	if !h.owned(w, r, id) {
		return
	}

	var patch model.PantryPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	item, err := h.pantryStore.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, h.logger, "update pantry item", err, "failed to update item")
		return
	}

	h.hub.Broadcast(householdID, ws.NewMessage("pantry", "updated", id))
	writeJSON(w, http.StatusOK, item)
}

// Delete handles DELETE /api/pantry/{id}
func (h *PantryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	householdID := auth.HouseholdID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, "delete pantry item", err, "invalid id")
		return
	}
	if !h.owned(w, r, id) {
		return
	}

	if err := h.pantryStore.Remove(r.Context(), id); err != nil {
		writeError(w, h.logger, "delete pantry item", err, "failed to delete item")
		return
	}

	h.hub.Broadcast(householdID, ws.NewMessage("pantry", "deleted", id))
	w.WriteHeader(http.StatusNoContent)
}

// owned writes 404 unless the pantry item exists in the caller's household.
func (h *PantryHandler) owned(w http.ResponseWriter, r *http.Request, id int64) bool {
	item, err := h.pantryStore.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, "get pantry item", err, "failed to get item")
		return false
	}
	if item == nil || item.HouseholdID != auth.HouseholdID(r.Context()) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
		return false
	}
	return true
}
