package model

import "time"

type Recipe struct {
	ID           int64     `json:"id"`
	HouseholdID  *int64    `json:"household_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Instructions []string  `json:"instructions"`
	PrepTime     *int      `json:"prep_time,omitempty"`
	CookTime     *int      `json:"cook_time,omitempty"`
	Servings     *int      `json:"servings,omitempty"`
	Difficulty   string    `json:"difficulty,omitempty"`
	Cuisine      string    `json:"cuisine,omitempty"`
	ImageURL     string    `json:"image_url,omitempty"`
	IsPublic     bool      `json:"is_public"`
	AddedBy      *int64    `json:"added_by"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type RecipeIngredient struct {
	ID           int64   `json:"id"`
	RecipeID     int64   `json:"recipe_id"`
	IngredientID int64   `json:"ingredient_id"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
	Notes        string  `json:"notes,omitempty"`

	IngredientName string `json:"ingredient_name,omitempty"`
	Category       string `json:"category,omitempty"`
}

type RecipeWithIngredients struct {
	Recipe
	Ingredients []RecipeIngredient `json:"ingredients"`
}

// MissingIngredient is a recipe requirement with no pantry stock at all.
type MissingIngredient struct {
	Name   string  `json:"name"`
	Needed float64 `json:"needed"`
	Unit   string  `json:"unit"`
}

// InsufficientIngredient is a requirement the pantry only partly covers.
type InsufficientIngredient struct {
	Name   string  `json:"name"`
	Needed float64 `json:"needed"`
	Have   float64 `json:"have"`
	Unit   string  `json:"unit"`
}

// RecipeMatch annotates a recipe with how well the pantry covers it.
type RecipeMatch struct {
	Recipe
	MissingIngredients      []MissingIngredient      `json:"missing_ingredients"`
	InsufficientIngredients []InsufficientIngredient `json:"insufficient_ingredients"`
	TotalIngredients        int                      `json:"total_ingredients"`
	SufficientCount         int                      `json:"sufficient_count"`
	MatchPercentage         int                      `json:"match_percentage"`
	CanMake                 bool                     `json:"can_make"`
}
