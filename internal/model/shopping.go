package model

import "time"

type ShoppingList struct {
	ID          int64     `json:"id"`
	HouseholdID int64     `json:"household_id"`
	Name        string    `json:"name"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ShoppingListItem struct {
	ID           int64     `json:"id"`
	ListID       int64     `json:"list_id"`
	IngredientID int64     `json:"ingredient_id"`
	Quantity     float64   `json:"quantity"`
	Unit         string    `json:"unit"`
	IsPurchased  bool      `json:"is_purchased"`
	Notes        string    `json:"notes,omitempty"`
	AddedBy      *int64    `json:"added_by"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	IngredientName string `json:"ingredient_name,omitempty"`
	Category       string `json:"category,omitempty"`
}

type ShoppingListWithItems struct {
	ShoppingList
	Items []ShoppingListItem `json:"items"`
}

// ShoppingItemAdd is the input to AddItem. The ingredient is resolved by
// IngredientID when set, otherwise by Name.
type ShoppingItemAdd struct {
	IngredientID int64
	Name         string
	Category     string
	Quantity     float64
	Unit         string
	Notes        string
	AddedBy      *int64
}

type ShoppingItemPatch struct {
	Quantity *float64 `json:"quantity"`
	Unit     *string  `json:"unit"`
	Notes    *string  `json:"notes"`
}

// ToggleResult reports the new purchased state of an item.
type ToggleResult struct {
	IsPurchased    bool  `json:"is_purchased"`
	CreditedPantry bool  `json:"credited_pantry"`
	PantryItemID   int64 `json:"pantry_item_id,omitempty"`
}
