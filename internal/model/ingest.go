package model

// ParsedItem is a proposed pantry entry, as produced by ingestion adapters
// or submitted directly to a batch add. EstimatedExpirationDays may be
// fractional; it is rounded to whole days when the item is stored.
type ParsedItem struct {
	Name                    string  `json:"name"`
	Quantity                float64 `json:"quantity"`
	Unit                    string  `json:"unit"`
	EstimatedExpirationDays float64 `json:"estimated_expiration_days,omitempty"`
	Category                string  `json:"category,omitempty"`
	Location                string  `json:"location,omitempty"`
	Notes                   string  `json:"notes,omitempty"`
	Price                   float64 `json:"price,omitempty"`
}

type DraftIngredient struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Notes    string  `json:"notes,omitempty"`
}

// RecipeDraft is an unsaved recipe, typically extracted from a photo.
type RecipeDraft struct {
	Title        string            `json:"title"`
	Description  string            `json:"description,omitempty"`
	PrepTime     *int              `json:"prep_time,omitempty"`
	CookTime     *int              `json:"cook_time,omitempty"`
	Servings     *int              `json:"servings,omitempty"`
	Difficulty   string            `json:"difficulty,omitempty"`
	Cuisine      string            `json:"cuisine,omitempty"`
	ImageURL     string            `json:"image_url,omitempty"`
	Ingredients  []DraftIngredient `json:"ingredients"`
	Instructions []string          `json:"instructions"`
}

// RecipeSuggestion is a ranked idea returned by a recipe search.
type RecipeSuggestion struct {
	RecipeDraft
	CanMakeWithPantry  bool     `json:"can_make_with_pantry"`
	MatchPercentage    int      `json:"match_percentage"`
	MissingIngredients []string `json:"missing_ingredients"`
}
