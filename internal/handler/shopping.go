package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dukerupert/larder/internal/auth"
	"github.com/dukerupert/larder/internal/model"
	"github.com/dukerupert/larder/internal/store"
	ws "github.com/dukerupert/larder/internal/websocket"
)

// ShoppingNotifier tells the rest of a household about new list items.
type ShoppingNotifier interface {
	NotifyShoppingItemAdded(ctx context.Context, householdID, actorID int64, itemName string)
}

type ShoppingHandler struct {
	shoppingStore *store.ShoppingStore
	notifier      ShoppingNotifier
	hub           *ws.Hub
	logger        *slog.Logger
}

// NewShoppingHandler creates a ShoppingHandler. notifier may be nil when
// push is disabled.
func NewShoppingHandler(ss *store.ShoppingStore, notifier ShoppingNotifier, hub *ws.Hub, logger *slog.Logger) *ShoppingHandler {
	return &ShoppingHandler{shoppingStore: ss, notifier: notifier, hub: hub, logger: logger}
}

type shoppingItemRequest struct {
	IngredientID int64   `json:"ingredient_id"`
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
	Notes        string  `json:"notes"`
}

type toggleRequest struct {
	AddToPantry *bool `json:"add_to_pantry"`
}

type listNameRequest struct {
	Name string `json:"name"`
}

// Active handles GET /api/shopping. The body is null when the household has
// no active list yet.
func (h *ShoppingHandler) Active(w http.ResponseWriter, r *http.Request) {
	list, err := h.shoppingStore.GetActiveList(r.Context(), auth.HouseholdID(r.Context()))
	if err != nil {
		writeError(w, h.logger, "get active list", err, "failed to load shopping list")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// History handles GET /api/shopping/lists
func (h *ShoppingHandler) History(w http.ResponseWriter, r *http.Request) {
	lists, err := h.shoppingStore.ListHistory(r.Context(), auth.HouseholdID(r.Context()))
	if err != nil {
		writeError(w, h.logger, "list shopping lists", err, "failed to list shopping lists")
		return
	}
	if lists == nil {
		lists = []model.ShoppingList{}
	}
	writeJSON(w, http.StatusOK, lists)
}

// CreateList handles POST /api/shopping/lists
func (h *ShoppingHandler) CreateList(w http.ResponseWriter, r *http.Request) {
	householdID := auth.HouseholdID(r.Context())

	var req listNameRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	list, err := h.shoppingStore.CreateList(r.Context(), householdID, req.Name)
	if err != nil {
		writeError(w, h.logger, "create shopping list", err, "failed to create list")
		return
	}

	h.hub.Broadcast(householdID, ws.NewMessage("shopping_list", "created", list.ID))
	writeJSON(w, http.StatusCreated, list)
}

// AddItem handles POST /api/shopping/items
func (h *ShoppingHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	householdID := auth.HouseholdID(r.Context())
	userID := auth.UserID(r.Context())

	var req shoppingItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	item, err := h.shoppingStore.AddItem(r.Context(), householdID, model.ShoppingItemAdd{
		IngredientID: req.IngredientID,
		Name:         req.Name,
		Category:     req.Category,
		Quantity:     req.Quantity,
		Unit:         req.Unit,
		Notes:        req.Notes,
		AddedBy:      &userID,
	})
	if err != nil {
		writeError(w, h.logger, "add shopping item", err, "failed to add item")
		return
	}

	h.hub.Broadcast(householdID, ws.NewMessage("shopping_item", "created", item.ID))
	if h.notifier != nil {
		go h.notifier.NotifyShoppingItemAdded(context.WithoutCancel(r.Context()), householdID, userID, item.IngredientName)
	}
	writeJSON(w, http.StatusCreated, item)
}

// UpdateItem handles PUT /api/shopping/items/{id}
func (h *ShoppingHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	householdID := auth.HouseholdID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, "update shopping item", err, "invalid id")
		return
	}

	var patch model.ShoppingItemPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	item, err := h.shoppingStore.UpdateItem(r.Context(), householdID, id, patch)
	if err != nil {
		writeError(w, h.logger, "update shopping item", err, "failed to update item")
		return
	}

	h.hub.Broadcast(householdID, ws.NewMessage("shopping_item", "updated", id))
	writeJSON(w, http.StatusOK, item)
}

// DeleteItem handles DELETE /api/shopping/items/{id}
func (h *ShoppingHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	householdID := auth.HouseholdID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, "delete shopping item", err, "invalid id")
		return
	}

	if err := h.shoppingStore.RemoveItem(r.Context(), householdID, id); err != nil {
		writeError(w, h.logger, "delete shopping item", err, "failed to delete item")
		return
	}

	h.hub.Broadcast(householdID, ws.NewMessage("shopping_item", "deleted", id))
	w.WriteHeader(http.StatusNoContent)
}

// TogglePurchased handles POST /api/shopping/items/{id}/toggle.
// add_to_pantry defaults to true.
func (h *ShoppingHandler) TogglePurchased(w http.ResponseWriter, r *http.Request) {
	householdID := auth.HouseholdID(r.Context())
	userID := auth.UserID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, "toggle shopping item", err, "invalid id")
		return
	}

	var req toggleRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	addToPantry := req.AddToPantry == nil || *req.AddToPantry

	result, err := h.shoppingStore.TogglePurchased(r.Context(), householdID, id, &userID, addToPantry)
	if err != nil {
		writeError(w, h.logger, "toggle shopping item", err, "failed to update item")
		return
	}

	h.hub.Broadcast(householdID, ws.NewMessage("shopping_item", "updated", id))
	if result.CreditedPantry {
		h.hub.Broadcast(householdID, ws.NewMessage("pantry", "updated", result.PantryItemID))
	}
	writeJSON(w, http.StatusOK, result)
}

// ClearPurchased handles POST /api/shopping/lists/{id}/clear-purchased
func (h *ShoppingHandler) ClearPurchased(w http.ResponseWriter, r *http.Request) {
	h.clear(w, r, h.shoppingStore.ClearPurchased)
}

// ClearList handles POST /api/shopping/lists/{id}/clear
func (h *ShoppingHandler) ClearList(w http.ResponseWriter, r *http.Request) {
	h.clear(w, r, h.shoppingStore.ClearList)
}

func (h *ShoppingHandler) clear(w http.ResponseWriter, r *http.Request, fn func(context.Context, int64, int64) (int64, error)) {
	householdID := auth.HouseholdID(r.Context())

	listID, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, "clear shopping list", err, "invalid id")
		return
	}

	n, err := fn(r.Context(), householdID, listID)
	if err != nil {
		writeError(w, h.logger, "clear shopping list", err, "failed to clear list")
		return
	}

	h.hub.Broadcast(householdID, ws.NewMessage("shopping_list", "cleared", listID))
	writeJSON(w, http.StatusOK, map[string]int64{"removed": n})
}
