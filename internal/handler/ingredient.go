package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/larder/internal/model"
	"github.com/dukerupert/larder/internal/store"
)

type IngredientHandler struct {
	ingredientStore *store.IngredientStore
	logger          *slog.Logger
}

func NewIngredientHandler(is *store.IngredientStore, logger *slog.Logger) *IngredientHandler {
	return &IngredientHandler{ingredientStore: is, logger: logger}
}

// List handles GET /api/ingredients?q=&category=
func (h *IngredientHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.ingredientStore.List(r.Context(), q.Get("q"), q.Get("category"))
	if err != nil {
		writeError(w, h.logger, "list ingredients", err, "failed to list ingredients")
		return
	}
	if items == nil {
		items = []model.Ingredient{}
	}
	writeJSON(w, http.StatusOK, items)
}
