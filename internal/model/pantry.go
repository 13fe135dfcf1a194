package model

import "time"

// Storage locations.
const (
	LocationFridge  = "fridge"
	LocationFreezer = "freezer"
	LocationPantry  = "pantry"
)

type PantryItem struct {
	ID             int64      `json:"id"`
	HouseholdID    int64      `json:"household_id"`
	IngredientID   int64      `json:"ingredient_id"`
	Quantity       float64    `json:"quantity"`
	Unit           string     `json:"unit"`
	ExpirationDate *time.Time `json:"expiration_date"`
	Location       string     `json:"location,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	AddedBy        *int64     `json:"added_by"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	// Populated by list queries.
	IngredientName string `json:"ingredient_name,omitempty"`
	Category       string `json:"category,omitempty"`
}

// PantryAdd is the input to a single merge-or-insert.
type PantryAdd struct {
	IngredientID   int64
	Quantity       float64
	Unit           string
	ExpirationDate *time.Time
	Location       string
	Notes          string
	AddedBy        *int64
}

// PantryPatch carries the fields of a partial update; nil means unchanged.
type PantryPatch struct {
	Quantity       *float64   `json:"quantity"`
	Unit           *string    `json:"unit"`
	ExpirationDate *time.Time `json:"expiration_date"`
	Location       *string    `json:"location"`
	Notes          *string    `json:"notes"`
}

// BatchResult is the outcome of one addBatch entry.
type BatchResult struct {
	Success bool   `json:"success"`
	Name    string `json:"name"`
	ID      int64  `json:"id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Consumption statuses.
const (
	ConsumeConsumed     = "consumed"
	ConsumeInsufficient = "insufficient"
	ConsumeNotFound     = "not-found"
)

type ConsumeResult struct {
	IngredientID   int64    `json:"ingredient_id"`
	IngredientName string   `json:"ingredient_name"`
	Status         string   `json:"status"`
	Requested      float64  `json:"requested"`
	Available      *float64 `json:"available,omitempty"`
	Consumed       float64  `json:"consumed"`
	Unit           string   `json:"unit"`
}
