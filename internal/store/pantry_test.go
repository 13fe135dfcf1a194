package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dukerupert/larder/internal/apperror"
	"github.com/dukerupert/larder/internal/model"
)

func TestPantryAddMergesQuantity(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	s := NewPantryStore(db)
	_, hh := seedHousehold(t, db, "alice")
	milk, _ := NewIngredientStore(db).Resolve(ctx, "Milk", "dairy", "ml")

	first, err := s.Add(ctx, hh, model.PantryAdd{IngredientID: milk, Quantity: 500, Unit: "ml", Location: "fridge", Notes: "2%"})
	if err != nil {
		t.Fatalf("first add: %v", err)
	}
	second, err := s.Add(ctx, hh, model.PantryAdd{IngredientID: milk, Quantity: 250, Unit: "cups", Location: "pantry", Notes: "whole"})
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if first != second {
		t.Errorf("merge created a second row: %d vs %d", first, second)
	}

	item, _ := s.GetByID(ctx, first)
	if item.Quantity != 750 {
		t.Errorf("quantity = %v, want 750", item.Quantity)
	}
	if item.Unit != "ml" || item.Location != "fridge" || item.Notes != "2%" {
		t.Errorf("merge changed metadata: %+v", item)
	}
	if item.IngredientName != "Milk" || item.Category != "dairy" {
		t.Errorf("joined fields = %q/%q", item.IngredientName, item.Category)
	}
	if n := pantryRowCount(t, db, hh, milk); n != 1 {
		t.Errorf("rows = %d, want 1", n)
	}
}

func TestPantryAddValidation(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	s := NewPantryStore(db)
	_, hh := seedHousehold(t, db, "alice")
	milk, _ := NewIngredientStore(db).Resolve(ctx, "Milk", "dairy", "ml")

	for _, qty := range []float64{0, -1} {
		if _, err := s.Add(ctx, hh, model.PantryAdd{IngredientID: milk, Quantity: qty}); !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("quantity %v: err = %v, want validation", qty, err)
		}
	}
	if _, err := s.Add(ctx, hh, model.PantryAdd{IngredientID: 999, Quantity: 1}); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("unknown ingredient: err = %v, want not found", err)
	}
}

func TestPantryHouseholdsAreSeparate(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	s := NewPantryStore(db)
	_, a := seedHousehold(t, db, "alice")
	_, b := seedHousehold(t, db, "bob")
	milk, _ := NewIngredientStore(db).Resolve(ctx, "Milk", "dairy", "ml")

	s.Add(ctx, a, model.PantryAdd{IngredientID: milk, Quantity: 1})
	s.Add(ctx, b, model.PantryAdd{IngredientID: milk, Quantity: 2})

	listA, _ := s.List(ctx, a)
	listB, _ := s.List(ctx, b)
	if len(listA) != 1 || listA[0].Quantity != 1 {
		t.Errorf("household a = %+v", listA)
	}
	if len(listB) != 1 || listB[0].Quantity != 2 {
		t.Errorf("household b = %+v", listB)
	}
}

func TestPantryAddBatch(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	s := NewPantryStore(db)
	user, hh := seedHousehold(t, db, "alice")

	results := s.AddBatch(ctx, hh, []model.ParsedItem{
		{Name: "Eggs", Quantity: 12, Unit: "pieces", EstimatedExpirationDays: 14},
		{Name: "BadItem", Quantity: -1, Unit: "pieces"},
		{Name: "Rice", Quantity: 2},
	}, &user)

	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	if !results[0].Success || results[0].ID == 0 {
		t.Errorf("eggs = %+v, want success", results[0])
	}
	if results[1].Success || results[1].Error == "" || results[1].Name != "BadItem" {
		t.Errorf("bad item = %+v, want failure with message", results[1])
	}
	if !results[2].Success {
		t.Errorf("rice = %+v, want success", results[2])
	}

	eggs, _ := s.GetByID(ctx, results[0].ID)
	if eggs.Location != model.LocationFridge {
		t.Errorf("eggs location = %q, want fridge", eggs.Location)
	}
	if eggs.ExpirationDate == nil {
		t.Fatal("eggs should have an expiration date")
	}
	want := time.Now().Add(14 * 24 * time.Hour)
	if d := eggs.ExpirationDate.Sub(want); d > time.Minute || d < -time.Minute {
		t.Errorf("expiration = %v, want about %v", eggs.ExpirationDate, want)
	}
	if eggs.AddedBy == nil || *eggs.AddedBy != user {
		t.Errorf("added_by = %v, want %d", eggs.AddedBy, user)
	}

	rice, _ := s.GetByID(ctx, results[2].ID)
	if rice.Unit != "pieces" {
		t.Errorf("rice unit = %q, want default %q", rice.Unit, "pieces")
	}
	if rice.Location != model.LocationPantry {
		t.Errorf("rice location = %q, want pantry", rice.Location)
	}
	if rice.ExpirationDate != nil {
		t.Errorf("rice expiration = %v, want none", rice.ExpirationDate)
	}

	items, _ := s.List(ctx, hh)
	if len(items) != 2 {
		t.Errorf("pantry rows = %d, want 2", len(items))
	}
}

func TestPantryAddBatchExplicitLocationAndNegativeDays(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	s := NewPantryStore(db)
	_, hh := seedHousehold(t, db, "alice")

	results := s.AddBatch(ctx, hh, []model.ParsedItem{
		{Name: "Peas", Quantity: 1, Unit: "bag", Location: "freezer"},
		{Name: "Bread", Quantity: 1, EstimatedExpirationDays: -2},
		{Name: "  ", Quantity: 1},
	}, nil)

	peas, _ := s.GetByID(ctx, results[0].ID)
	if peas.Location != "freezer" {
		t.Errorf("peas location = %q, want freezer", peas.Location)
	}
	if results[1].Success {
		t.Error("negative expiration days should fail")
	}
	if results[2].Success {
		t.Error("blank name should fail")
	}
}

func TestPantryUpdate(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	s := NewPantryStore(db)
	_, hh := seedHousehold(t, db, "alice")
	milk, _ := NewIngredientStore(db).Resolve(ctx, "Milk", "dairy", "ml")
	id, _ := s.Add(ctx, hh, model.PantryAdd{IngredientID: milk, Quantity: 1, Unit: "l", Location: "fridge"})

	updated, err := s.Update(ctx, id, model.PantryPatch{Quantity: ptr(0.0), Notes: ptr("opened")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Quantity != 0 || updated.Notes != "opened" {
		t.Errorf("updated = %+v", updated)
	}
	if updated.Unit != "l" || updated.Location != "fridge" {
		t.Errorf("unpatched fields changed: %+v", updated)
	}

	if _, err := s.Update(ctx, id, model.PantryPatch{Quantity: ptr(-1.0)}); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("negative quantity: err = %v, want validation", err)
	}
	if _, err := s.Update(ctx, 999, model.PantryPatch{Notes: ptr("x")}); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("missing item: err = %v, want not found", err)
	}
}

func TestPantryExpiringSoon(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	s := NewPantryStore(db)
	_, hh := seedHousehold(t, db, "alice")

	s.AddBatch(ctx, hh, []model.ParsedItem{
		{Name: "Spinach", Quantity: 1, EstimatedExpirationDays: 1},
		{Name: "Yogurt", Quantity: 1, EstimatedExpirationDays: 10},
		{Name: "Salt", Quantity: 1},
	}, nil)

	soon, err := s.ExpiringSoon(ctx, hh, 3*24*time.Hour)
	if err != nil {
		t.Fatalf("expiring soon: %v", err)
	}
	if len(soon) != 1 || soon[0].IngredientName != "Spinach" {
		t.Errorf("expiring = %+v, want only Spinach", soon)
	}
}

// cookingFixture builds a recipe needing tomato 3, salt 10 and onion 1.
func cookingFixture(t *testing.T) (ctx context.Context, s *PantryStore, hh, recipeID int64, ids map[string]int64) {
	t.Helper()
	db := openTestDB(t)
	ctx = context.Background()
	s = NewPantryStore(db)
	_, hh = seedHousehold(t, db, "alice")

	recipes := NewRecipeStore(db)
	r, err := recipes.Create(ctx, model.Recipe{Title: "Salsa", HouseholdID: &hh})
	if err != nil {
		t.Fatalf("create recipe: %v", err)
	}
	ids = make(map[string]int64)
	for _, ing := range []struct {
		name string
		qty  float64
	}{{"Tomato", 3}, {"Salt", 10}, {"Onion", 1}} {
		ri, err := recipes.AddIngredient(ctx, r.ID, RecipeIngredientAdd{Name: ing.name, Quantity: ing.qty, Unit: "pieces"})
		if err != nil {
			t.Fatalf("add %s: %v", ing.name, err)
		}
		ids[ing.name] = ri.IngredientID
	}
	return ctx, s, hh, r.ID, ids
}

func TestPantryConsumeForRecipe(t *testing.T) {
	ctx, s, hh, recipeID, ids := cookingFixture(t)
	s.Add(ctx, hh, model.PantryAdd{IngredientID: ids["Tomato"], Quantity: 5})
	s.Add(ctx, hh, model.PantryAdd{IngredientID: ids["Salt"], Quantity: 4})

	results, err := s.ConsumeForRecipe(ctx, hh, recipeID, 1)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}

	tomato, salt, onion := results[0], results[1], results[2]
	if tomato.Status != model.ConsumeConsumed || tomato.Consumed != 3 {
		t.Errorf("tomato = %+v", tomato)
	}
	if salt.Status != model.ConsumeInsufficient || salt.Consumed != 4 || salt.Available == nil || *salt.Available != 4 {
		t.Errorf("salt = %+v", salt)
	}
	if onion.Status != model.ConsumeNotFound || onion.Available != nil {
		t.Errorf("onion = %+v", onion)
	}

	left, _ := s.Find(ctx, hh, ids["Tomato"])
	if left == nil || left.Quantity != 2 {
		t.Errorf("tomato left = %+v, want 2", left)
	}
	drained, _ := s.Find(ctx, hh, ids["Salt"])
	if drained == nil || drained.Quantity != 0 {
		t.Errorf("salt left = %+v, want drained row at 0", drained)
	}
}

func TestPantryConsumeExactDeletesRow(t *testing.T) {
	ctx, s, hh, recipeID, ids := cookingFixture(t)
	s.Add(ctx, hh, model.PantryAdd{IngredientID: ids["Tomato"], Quantity: 6})

	results, err := s.ConsumeForRecipe(ctx, hh, recipeID, 2)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if results[0].Requested != 6 || results[0].Status != model.ConsumeConsumed {
		t.Errorf("tomato = %+v, want 6 consumed", results[0])
	}
	if item, _ := s.Find(ctx, hh, ids["Tomato"]); item != nil {
		t.Errorf("tomato row = %+v, want deleted", item)
	}
}

func TestPantryConsumeValidation(t *testing.T) {
	ctx, s, hh, recipeID, _ := cookingFixture(t)

	if _, err := s.ConsumeForRecipe(ctx, hh, recipeID, 0); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("zero multiplier: err = %v, want validation", err)
	}
	if _, err := s.ConsumeForRecipe(ctx, hh, 999, 1); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("missing recipe: err = %v, want not found", err)
	}
}

func TestPantryConsumePartialFailureKeepsEarlierDeductions(t *testing.T) {
	ctx, s, hh, recipeID, ids := cookingFixture(t)
	s.Add(ctx, hh, model.PantryAdd{IngredientID: ids["Tomato"], Quantity: 5})
	s.Add(ctx, hh, model.PantryAdd{IngredientID: ids["Salt"], Quantity: 50})
	s.Add(ctx, hh, model.PantryAdd{IngredientID: ids["Onion"], Quantity: 5})

	trigger := fmt.Sprintf(
		`CREATE TRIGGER fail_salt BEFORE UPDATE ON pantry_items WHEN NEW.ingredient_id = %d
		 BEGIN SELECT RAISE(ABORT, 'salt is locked'); END`, ids["Salt"])
	if _, err := s.db.Exec(trigger); err != nil {
		t.Fatalf("create trigger: %v", err)
	}

	results, err := s.ConsumeForRecipe(ctx, hh, recipeID, 1)
	if err == nil {
		t.Fatal("expected an error")
	}
	if len(results) != 1 || results[0].IngredientID != ids["Tomato"] {
		t.Fatalf("results = %+v, want only tomato", results)
	}

	tomato, _ := s.Find(ctx, hh, ids["Tomato"])
	if tomato.Quantity != 2 {
		t.Errorf("tomato = %v, want 2 (deduction kept)", tomato.Quantity)
	}
	salt, _ := s.Find(ctx, hh, ids["Salt"])
	if salt.Quantity != 50 {
		t.Errorf("salt = %v, want 50 (rolled back)", salt.Quantity)
	}
	onion, _ := s.Find(ctx, hh, ids["Onion"])
	if onion.Quantity != 5 {
		t.Errorf("onion = %v, want 5 (not reached)", onion.Quantity)
	}
}

func TestPantryConsumeNeverNegative(t *testing.T) {
	ctx, s, hh, recipeID, ids := cookingFixture(t)
	s.Add(ctx, hh, model.PantryAdd{IngredientID: ids["Tomato"], Quantity: 1})

	for i := 0; i < 3; i++ {
		if _, err := s.ConsumeForRecipe(ctx, hh, recipeID, 1.5); err != nil {
			t.Fatalf("consume %d: %v", i, err)
		}
	}
	items, _ := s.List(ctx, hh)
	for _, item := range items {
		if item.Quantity < 0 {
			t.Errorf("%s quantity = %v, want >= 0", item.IngredientName, item.Quantity)
		}
	}
}

func TestPantryRemove(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	s := NewPantryStore(db)
	_, hh := seedHousehold(t, db, "alice")
	milk, _ := NewIngredientStore(db).Resolve(ctx, "Milk", "dairy", "ml")
	id, _ := s.Add(ctx, hh, model.PantryAdd{IngredientID: milk, Quantity: 1})

	if err := s.Remove(ctx, id); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if item, _ := s.GetByID(ctx, id); item != nil {
		t.Error("item should be gone")
	}
}
