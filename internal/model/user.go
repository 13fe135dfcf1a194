package model

import "time"

type User struct {
	ID          int64           `json:"id"`
	ExternalID  string          `json:"external_id"`
	Email       string          `json:"email"`
	Name        string          `json:"name,omitempty"`
	HouseholdID *int64          `json:"household_id"`
	Preferences UserPreferences `json:"preferences"`
	CreatedAt   time.Time       `json:"created_at"`
}

type UserPreferences struct {
	// AutoAddItems sends ingestion results straight to the pantry instead of
	// returning them for review.
	AutoAddItems bool `json:"auto_add_items"`
}
