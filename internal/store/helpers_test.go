package store

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/dukerupert/larder/internal/database"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// seedHousehold creates a user who owns a fresh household and returns both ids.
func seedHousehold(t *testing.T, db *sql.DB, name string) (userID, householdID int64) {
	t.Helper()
	ctx := context.Background()
	u, err := NewUserStore(db).Upsert(ctx, fmt.Sprintf("ext-%s", name), name+"@example.com", name)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	h, err := NewHouseholdStore(db).Create(ctx, u.ID, name+" Household")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	return u.ID, h.ID
}

func pantryRowCount(t *testing.T, db *sql.DB, householdID, ingredientID int64) int {
	t.Helper()
	var n int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM pantry_items WHERE household_id = ? AND ingredient_id = ?`,
		householdID, ingredientID,
	).Scan(&n)
	if err != nil {
		t.Fatalf("count pantry rows: %v", err)
	}
	return n
}

func ptr[T any](v T) *T {
	return &v
}
