package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dukerupert/larder/internal/auth"
	"github.com/dukerupert/larder/internal/ingest"
	"github.com/dukerupert/larder/internal/model"
	"github.com/dukerupert/larder/internal/store"
	ws "github.com/dukerupert/larder/internal/websocket"
)

// Ingester turns free text and photos into structured kitchen data.
type Ingester interface {
	ParseTextList(ctx context.Context, text string) ([]model.ParsedItem, error)
	ExtractItemsFromReceipt(ctx context.Context, img ingest.Image) ([]model.ParsedItem, error)
	ExtractRecipeFromImage(ctx context.Context, imageURL string) (*model.RecipeDraft, error)
	SearchRecipes(ctx context.Context, query string, pantry []string) ([]model.RecipeSuggestion, error)
}

type IngestHandler struct {
	ingester    Ingester
	userStore   *store.UserStore
	pantryStore *store.PantryStore
	hub         *ws.Hub
	logger      *slog.Logger
}

func NewIngestHandler(ing Ingester, us *store.UserStore, ps *store.PantryStore, hub *ws.Hub, logger *slog.Logger) *IngestHandler {
	return &IngestHandler{ingester: ing, userStore: us, pantryStore: ps, hub: hub, logger: logger}
}

type textRequest struct {
	Text string `json:"text"`
}

type recipeImageRequest struct {
	ImageURL string `json:"image_url"`
}

type recipeSearchRequest struct {
	Query string `json:"query"`
}

// itemsResponse carries parsed items and, when the user's auto_add_items
// preference is on, the outcome of adding them to the pantry.
type itemsResponse struct {
	Items []model.ParsedItem `json:"items"`
	Added *batchResponse     `json:"added,omitempty"`
}

// Text handles POST /api/ingest/text
func (h *IngestHandler) Text(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	items, err := h.ingester.ParseTextList(r.Context(), req.Text)
	if err != nil {
		writeUpstreamError(w, h.logger, "parse text list", err)
		return
	}
	h.respondItems(w, r, items)
}

// Receipt handles POST /api/ingest/receipt (multipart field "image").
func (h *IngestHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	data, ok := readUpload(w, r, "image")
	if !ok {
		return
	}
	img, err := ingest.Prepare(data, ingest.MaxImageDimension)
	if err != nil {
		writeError(w, h.logger, "prepare receipt", err, "invalid image")
		return
	}

	items, err := h.ingester.ExtractItemsFromReceipt(r.Context(), *img)
	if err != nil {
		writeUpstreamError(w, h.logger, "extract receipt", err)
		return
	}
	h.respondItems(w, r, items)
}

// RecipeImage handles POST /api/ingest/recipe-image. The draft is returned
// for review; POST /api/recipes/draft saves it.
func (h *IngestHandler) RecipeImage(w http.ResponseWriter, r *http.Request) {
	var req recipeImageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	draft, err := h.ingester.ExtractRecipeFromImage(r.Context(), req.ImageURL)
	if err != nil {
		writeUpstreamError(w, h.logger, "extract recipe", err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

// RecipeSearch handles POST /api/ingest/recipe-search, giving the model the
// household's pantry as context.
func (h *IngestHandler) RecipeSearch(w http.ResponseWriter, r *http.Request) {
	var req recipeSearchRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	items, err := h.pantryStore.List(r.Context(), auth.HouseholdID(r.Context()))
	if err != nil {
		writeError(w, h.logger, "list pantry", err, "failed to load pantry")
		return
	}
	names := make([]string, 0, len(items))
	for _, it := range items {
		if it.Quantity > 0 {
			names = append(names, it.IngredientName)
		}
	}

	suggestions, err := h.ingester.SearchRecipes(r.Context(), req.Query, names)
	if err != nil {
		writeUpstreamError(w, h.logger, "search recipes", err)
		return
	}
	writeJSON(w, http.StatusOK, suggestions)
}

func (h *IngestHandler) respondItems(w http.ResponseWriter, r *http.Request, items []model.ParsedItem) {
	ctx := r.Context()
	userID := auth.UserID(ctx)
	resp := itemsResponse{Items: items}

	u, err := h.userStore.GetByID(ctx, userID)
	if err != nil {
		writeError(w, h.logger, "get user", err, "failed to load preferences")
		return
	}
	if u != nil && u.Preferences.AutoAddItems && len(items) > 0 {
		householdID := auth.HouseholdID(ctx)
		added := newBatchResponse(h.pantryStore.AddBatch(ctx, householdID, items, &userID))
		resp.Added = &added
		if added.Succeeded > 0 {
			h.hub.Broadcast(householdID, ws.NewMessage("pantry", "batch", 0))
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
