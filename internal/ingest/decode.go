package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/dukerupert/larder/internal/kitchen"
	"github.com/dukerupert/larder/internal/model"
)

// Reply shapes. Models answer in camelCase; these are converted to the
// snake_case model types after validation.

type replyItem struct {
	Name                    string   `json:"name"`
	Quantity                *float64 `json:"quantity"`
	Unit                    string   `json:"unit"`
	EstimatedExpirationDays *float64 `json:"estimatedExpirationDays"`
	Category                string   `json:"category"`
	Price                   *float64 `json:"price"`
}

type replyIngredient struct {
	Name     string   `json:"name"`
	Quantity *float64 `json:"quantity"`
	Unit     string   `json:"unit"`
	Notes    string   `json:"notes"`
}

type replyRecipe struct {
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	PrepTime     *float64          `json:"prepTime"`
	CookTime     *float64          `json:"cookTime"`
	Servings     *float64          `json:"servings"`
	Difficulty   string            `json:"difficulty"`
	Cuisine      string            `json:"cuisine"`
	Ingredients  []replyIngredient `json:"ingredients"`
	Instructions []string          `json:"instructions"`
}

type replySuggestion struct {
	replyRecipe
	CanMakeWithPantry  bool     `json:"canMakeWithPantry"`
	MatchPercentage    *float64 `json:"matchPercentage"`
	MissingIngredients []string `json:"missingIngredients"`
}

// extractJSON strips markdown fences and surrounding prose, returning the
// text from the first open to the last close delimiter.
func extractJSON(reply string, opening, closing byte) ([]byte, error) {
	s := strings.TrimSpace(reply)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.IndexByte(s, opening)
	end := strings.LastIndexByte(s, closing)
	if start == -1 || end == -1 || start > end {
		return nil, fmt.Errorf("%w: no JSON %c...%c in reply", ErrMalformed, opening, closing)
	}
	return []byte(s[start : end+1]), nil
}

func unmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
}

func decodeItems(reply string) ([]model.ParsedItem, error) {
	data, err := extractJSON(reply, '{', '}')
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Items *[]replyItem `json:"items"`
	}
	if err := unmarshal(data, &envelope); err != nil {
		return nil, err
	}
	if envelope.Items == nil {
		return nil, malformed(`missing "items"`)
	}

	items := make([]model.ParsedItem, 0, len(*envelope.Items))
	for i, ri := range *envelope.Items {
		item, err := ri.toModel()
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i+1, err)
		}
		items = append(items, item)
	}
	return items, nil
}

func (ri replyItem) toModel() (model.ParsedItem, error) {
	name := strings.TrimSpace(ri.Name)
	if name == "" {
		return model.ParsedItem{}, malformed("item has no name")
	}
	if ri.Quantity == nil || !finite(*ri.Quantity) || *ri.Quantity <= 0 {
		return model.ParsedItem{}, malformed("%s: quantity must be a positive number", name)
	}
	unit := strings.TrimSpace(ri.Unit)
	if unit == "" {
		return model.ParsedItem{}, malformed("%s: unit is required", name)
	}

	item := model.ParsedItem{
		Name:     name,
		Quantity: *ri.Quantity,
		Unit:     unit,
		Category: kitchen.NormalizeCategory(ri.Category),
	}
	if ri.EstimatedExpirationDays != nil {
		days := *ri.EstimatedExpirationDays
		if !finite(days) || days < 0 {
			return model.ParsedItem{}, malformed("%s: estimatedExpirationDays must not be negative", name)
		}
		item.EstimatedExpirationDays = math.Round(days)
	}
	if ri.Price != nil && finite(*ri.Price) && *ri.Price > 0 {
		item.Price = *ri.Price
	}
	return item, nil
}

func decodeRecipe(reply string) (*model.RecipeDraft, error) {
	data, err := extractJSON(reply, '{', '}')
	if err != nil {
		return nil, err
	}
	var rr replyRecipe
	if err := unmarshal(data, &rr); err != nil {
		return nil, err
	}
	draft, err := rr.toModel()
	if err != nil {
		return nil, err
	}
	return &draft, nil
}

func (rr replyRecipe) toModel() (model.RecipeDraft, error) {
	title := strings.TrimSpace(rr.Title)
	if title == "" {
		return model.RecipeDraft{}, malformed("recipe has no title")
	}

	draft := model.RecipeDraft{
		Title:        title,
		Description:  strings.TrimSpace(rr.Description),
		Difficulty:   strings.ToLower(strings.TrimSpace(rr.Difficulty)),
		Cuisine:      strings.TrimSpace(rr.Cuisine),
		Ingredients:  make([]model.DraftIngredient, 0, len(rr.Ingredients)),
		Instructions: make([]string, 0, len(rr.Instructions)),
	}

	var err error
	if draft.PrepTime, err = minutes("prepTime", rr.PrepTime); err != nil {
		return model.RecipeDraft{}, err
	}
	if draft.CookTime, err = minutes("cookTime", rr.CookTime); err != nil {
		return model.RecipeDraft{}, err
	}
	if draft.Servings, err = minutes("servings", rr.Servings); err != nil {
		return model.RecipeDraft{}, err
	}

	for _, ing := range rr.Ingredients {
		name := strings.TrimSpace(ing.Name)
		if name == "" {
			return model.RecipeDraft{}, malformed("%s: ingredient has no name", title)
		}
		if ing.Quantity == nil || !finite(*ing.Quantity) || *ing.Quantity <= 0 {
			return model.RecipeDraft{}, malformed("%s: quantity must be a positive number", name)
		}
		draft.Ingredients = append(draft.Ingredients, model.DraftIngredient{
			Name:     name,
			Quantity: *ing.Quantity,
			Unit:     strings.TrimSpace(ing.Unit),
			Notes:    strings.TrimSpace(ing.Notes),
		})
	}
	for _, step := range rr.Instructions {
		if step = strings.TrimSpace(step); step != "" {
			draft.Instructions = append(draft.Instructions, step)
		}
	}
	return draft, nil
}

func decodeSuggestions(reply string) ([]model.RecipeSuggestion, error) {
	data, err := extractJSON(reply, '[', ']')
	if err != nil {
		return nil, err
	}
	var rs []replySuggestion
	if err := unmarshal(data, &rs); err != nil {
		return nil, err
	}

	out := make([]model.RecipeSuggestion, 0, len(rs))
	for i, r := range rs {
		draft, err := r.replyRecipe.toModel()
		if err != nil {
			return nil, fmt.Errorf("suggestion %d: %w", i+1, err)
		}
		s := model.RecipeSuggestion{
			RecipeDraft:        draft,
			CanMakeWithPantry:  r.CanMakeWithPantry,
			MissingIngredients: []string{},
		}
		if r.MatchPercentage != nil {
			pct := *r.MatchPercentage
			if !finite(pct) || pct < 0 || pct > 100 {
				return nil, malformed("%s: matchPercentage out of range", draft.Title)
			}
			s.MatchPercentage = int(math.Round(pct))
		}
		for _, m := range r.MissingIngredients {
			if m = strings.TrimSpace(m); m != "" {
				s.MissingIngredients = append(s.MissingIngredients, m)
			}
		}
		out = append(out, s)
	}
	return out, nil
}

// minutes converts an optional whole-number field, rejecting negatives.
func minutes(field string, v *float64) (*int, error) {
	if v == nil {
		return nil, nil
	}
	if !finite(*v) || *v < 0 {
		return nil, malformed("%s must not be negative", field)
	}
	n := int(math.Round(*v))
	return &n, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
