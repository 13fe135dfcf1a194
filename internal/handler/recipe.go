package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/dukerupert/larder/internal/apperror"
	"github.com/dukerupert/larder/internal/auth"
	"github.com/dukerupert/larder/internal/ingest"
	"github.com/dukerupert/larder/internal/model"
	"github.com/dukerupert/larder/internal/objectstore"
	"github.com/dukerupert/larder/internal/store"
	ws "github.com/dukerupert/larder/internal/websocket"
)

// ImageStore keeps uploaded recipe photos.
type ImageStore interface {
	Put(ctx context.Context, key, mediaType string, data []byte) (string, error)
	Delete(ctx context.Context, key string) error
	KeyFromURL(u string) (string, bool)
}

type RecipeHandler struct {
	recipeStore *store.RecipeStore
	pantryStore *store.PantryStore
	images      ImageStore
	hub         *ws.Hub
	logger      *slog.Logger
}

// NewRecipeHandler creates a RecipeHandler. images may be nil when no
// object storage is configured; uploads then answer 503.
func NewRecipeHandler(rs *store.RecipeStore, ps *store.PantryStore, images ImageStore, hub *ws.Hub, logger *slog.Logger) *RecipeHandler {
	return &RecipeHandler{recipeStore: rs, pantryStore: ps, images: images, hub: hub, logger: logger}
}

type recipeRequest struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Instructions []string `json:"instructions"`
	PrepTime     *int     `json:"prep_time"`
	CookTime     *int     `json:"cook_time"`
	Servings     *int     `json:"servings"`
	Difficulty   string   `json:"difficulty"`
	Cuisine      string   `json:"cuisine"`
	ImageURL     string   `json:"image_url"`
	IsPublic     bool     `json:"is_public"`
}

type cookRequest struct {
	ServingsMultiplier *float64 `json:"servings_multiplier"`
}

type cookResponse struct {
	Results      []model.ConsumeResult `json:"results"`
	Consumed     int                   `json:"consumed"`
	Insufficient int                   `json:"insufficient"`
	NotFound     int                   `json:"not_found"`
	Error        string                `json:"error,omitempty"`
}

func newCookResponse(results []model.ConsumeResult) cookResponse {
	resp := cookResponse{Results: results}
	if resp.Results == nil {
		resp.Results = []model.ConsumeResult{}
	}
	for _, res := range results {
		switch res.Status {
		case model.ConsumeConsumed:
			resp.Consumed++
		case model.ConsumeInsufficient:
			resp.Insufficient++
		case model.ConsumeNotFound:
			resp.NotFound++
		}
	}
	return resp
}

// List handles GET /api/recipes
func (h *RecipeHandler) List(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.recipeStore.ListForHousehold(r.Context(), auth.HouseholdID(r.Context()))
	if err != nil {
		writeError(w, h.logger, "list recipes", err, "failed to list recipes")
		return
	}
	if recipes == nil {
		recipes = []model.Recipe{}
	}
	writeJSON(w, http.StatusOK, recipes)
}

// Cookable handles GET /api/recipes/cookable
func (h *RecipeHandler) Cookable(w http.ResponseWriter, r *http.Request) {
	matches, err := h.recipeStore.Cookable(r.Context(), auth.HouseholdID(r.Context()))
	if err != nil {
		writeError(w, h.logger, "cookable recipes", err, "failed to evaluate recipes")
		return
	}
	if matches == nil {
		matches = []model.RecipeMatch{}
	}
	writeJSON(w, http.StatusOK, matches)
}

// Get handles GET /api/recipes/{id}
func (h *RecipeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, "get recipe", err, "invalid id")
		return
	}

	rec, err := h.recipeStore.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, "get recipe", err, "failed to get recipe")
		return
	}
	if rec == nil || !canRead(&rec.Recipe, auth.HouseholdID(r.Context())) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "recipe not found"})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Create handles POST /api/recipes
func (h *RecipeHandler) Create(w http.ResponseWriter, r *http.Request) {
	householdID := auth.HouseholdID(r.Context())
	userID := auth.UserID(r.Context())

	var req recipeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rec, err := h.recipeStore.Create(r.Context(), model.Recipe{
		HouseholdID:  &householdID,
		Title:        req.Title,
		Description:  req.Description,
		Instructions: req.Instructions,
		PrepTime:     req.PrepTime,
		CookTime:     req.CookTime,
		Servings:     req.Servings,
		Difficulty:   req.Difficulty,
		Cuisine:      req.Cuisine,
		ImageURL:     req.ImageURL,
		IsPublic:     req.IsPublic,
		AddedBy:      &userID,
	})
	if err != nil {
		writeError(w, h.logger, "create recipe", err, "failed to create recipe")
		return
	}

	h.hub.Broadcast(householdID, ws.NewMessage("recipe", "created", rec.ID))
	writeJSON(w, http.StatusCreated, rec)
}

// SaveDraft handles POST /api/recipes/draft, storing a recipe extracted by
// the ingestion service.
func (h *RecipeHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	householdID := auth.HouseholdID(r.Context())

	var draft model.RecipeDraft
	if !decodeJSON(w, r, &draft) {
		return
	}

	rec, err := h.recipeStore.SaveDraft(r.Context(), householdID, auth.UserID(r.Context()), draft)
	if err != nil {
		writeError(w, h.logger, "save recipe draft", err, "failed to save recipe")
		return
	}

	h.hub.Broadcast(householdID, ws.NewMessage("recipe", "created", rec.ID))
	writeJSON(w, http.StatusCreated, rec)
}

// AddIngredient handles POST /api/recipes/{id}/ingredients
func (h *RecipeHandler) AddIngredient(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.modifiable(w, r)
	if !ok {
		return
	}

	var req store.RecipeIngredientAdd
	if !decodeJSON(w, r, &req) {
		return
	}

	ing, err := h.recipeStore.AddIngredient(r.Context(), rec.ID, req)
	if err != nil {
		writeError(w, h.logger, "add recipe ingredient", err, "failed to add ingredient")
		return
	}

	h.hub.Broadcast(auth.HouseholdID(r.Context()), ws.NewMessage("recipe", "updated", rec.ID))
	writeJSON(w, http.StatusCreated, ing)
}

// Delete handles DELETE /api/recipes/{id}
func (h *RecipeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.modifiable(w, r)
	if !ok {
		return
	}

	if err := h.recipeStore.Remove(r.Context(), rec.ID); err != nil {
		writeError(w, h.logger, "delete recipe", err, "failed to delete recipe")
		return
	}
	h.removeImage(r.Context(), rec.ImageURL)

	h.hub.Broadcast(auth.HouseholdID(r.Context()), ws.NewMessage("recipe", "deleted", rec.ID))
	w.WriteHeader(http.StatusNoContent)
}

// Cook handles POST /api/recipes/{id}/cook. A failure part way through
// answers 500 with the results of the ingredients already consumed.
func (h *RecipeHandler) Cook(w http.ResponseWriter, r *http.Request) {
	householdID := auth.HouseholdID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, "cook recipe", err, "invalid id")
		return
	}

	rec, err := h.recipeStore.GetRecipe(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, "get recipe", err, "failed to get recipe")
		return
	}
	if rec == nil || !canRead(rec, householdID) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "recipe not found"})
		return
	}

	var req cookRequest
	if !decodeOptionalJSON(w, r, &req) {
		return
	}
	multiplier := 1.0
	if req.ServingsMultiplier != nil {
		multiplier = *req.ServingsMultiplier
	}

	results, err := h.pantryStore.ConsumeForRecipe(r.Context(), householdID, id, multiplier)
	if err != nil && len(results) == 0 {
		writeError(w, h.logger, "cook recipe", err, "failed to consume ingredients")
		return
	}
	if len(results) > 0 {
		h.hub.Broadcast(householdID, ws.NewMessage("pantry", "batch", 0))
	}

	resp := newCookResponse(results)
	if err != nil {
		h.logger.Error("cook recipe partially applied", "recipe_id", id, "consumed", len(results), "error", err)
		resp.Error = "Cooking stopped part way; the listed ingredients were consumed"
		writeJSON(w, http.StatusInternalServerError, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// UploadImage handles PUT /api/recipes/{id}/image (multipart field "image").
func (h *RecipeHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if h.images == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "Image storage is not configured on this server"})
		return
	}

	rec, ok := h.modifiable(w, r)
	if !ok {
		return
	}

	data, ok := readUpload(w, r, "image")
	if !ok {
		return
	}
	img, err := ingest.Prepare(data, ingest.MaxImageDimension)
	if err != nil {
		writeError(w, h.logger, "prepare image", err, "invalid image")
		return
	}

	householdID := auth.HouseholdID(r.Context())
	key := objectstore.RecipeImageKey(householdID, rec.ID, img.MediaType)
	url, err := h.images.Put(r.Context(), key, img.MediaType, img.Data)
	if err != nil {
		writeError(w, h.logger, "upload recipe image", err, "failed to store image")
		return
	}
	if err := h.recipeStore.SetImageURL(r.Context(), rec.ID, url); err != nil {
		writeError(w, h.logger, "set recipe image", err, "failed to store image")
		return
	}
	h.removeImage(r.Context(), rec.ImageURL)

	h.hub.Broadcast(householdID, ws.NewMessage("recipe", "updated", rec.ID))
	writeJSON(w, http.StatusOK, map[string]string{"image_url": url})
}

// removeImage deletes a previously uploaded photo. URLs that point
// elsewhere are left alone.
func (h *RecipeHandler) removeImage(ctx context.Context, url string) {
	if h.images == nil || url == "" {
		return
	}
	key, ok := h.images.KeyFromURL(url)
	if !ok {
		return
	}
	if err := h.images.Delete(ctx, key); err != nil {
		h.logger.Warn("delete recipe image", "key", key, "error", err)
	}
}

// modifiable loads the {id} recipe and checks the caller may change it.
func (h *RecipeHandler) modifiable(w http.ResponseWriter, r *http.Request) (*model.Recipe, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, "recipe", err, "invalid id")
		return nil, false
	}

	rec, err := h.recipeStore.GetRecipe(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, "get recipe", err, "failed to get recipe")
		return nil, false
	}
	householdID := auth.HouseholdID(r.Context())
	if rec == nil || !canRead(rec, householdID) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "recipe not found"})
		return nil, false
	}
	if !canModify(rec, householdID, auth.UserID(r.Context())) {
		writeError(w, h.logger, "recipe", apperror.Forbidden("You can only change your household's recipes"), "")
		return nil, false
	}
	return rec, true
}

func canRead(rec *model.Recipe, householdID int64) bool {
	return rec.IsPublic || (rec.HouseholdID != nil && *rec.HouseholdID == householdID)
}

func canModify(rec *model.Recipe, householdID, userID int64) bool {
	if rec.HouseholdID != nil && *rec.HouseholdID == householdID {
		return true
	}
	return rec.AddedBy != nil && *rec.AddedBy == userID
}

// readUpload returns the bytes of a multipart file field, bounded by
// ingest.MaxImageBytes.
func readUpload(w http.ResponseWriter, r *http.Request, field string) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, ingest.MaxImageBytes+1<<20)
	f, _, err := r.FormFile(field)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": field + " file is required"})
		return nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, ingest.MaxImageBytes+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read " + field})
		return nil, false
	}
	return data, true
}
