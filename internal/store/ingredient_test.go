package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/dukerupert/larder/internal/apperror"
	"github.com/dukerupert/larder/internal/kitchen"
	"github.com/dukerupert/larder/internal/model"
)

func TestIngredientResolveCaseInsensitive(t *testing.T) {
	s := NewIngredientStore(openTestDB(t))
	ctx := context.Background()

	first, err := s.Resolve(ctx, "Milk", "dairy", "ml")
	if err != nil {
		t.Fatalf("resolve Milk: %v", err)
	}
	second, err := s.Resolve(ctx, "  milk ", "", "")
	if err != nil {
		t.Fatalf("resolve milk: %v", err)
	}
	if first != second {
		t.Errorf("ids differ: %d vs %d", first, second)
	}

	ing, _ := s.GetByID(ctx, first)
	if ing.Name != "Milk" {
		t.Errorf("name = %q, want the first spelling %q", ing.Name, "Milk")
	}
	if ing.Category != "dairy" || ing.CommonUnit != "ml" {
		t.Errorf("got category %q unit %q, want dairy/ml", ing.Category, ing.CommonUnit)
	}
}

func TestIngredientResolveKeepsExistingCategory(t *testing.T) {
	s := NewIngredientStore(openTestDB(t))
	ctx := context.Background()

	id, _ := s.Resolve(ctx, "Basil", "spices", "bunch")
	again, _ := s.Resolve(ctx, "BASIL", "vegetables", "g")
	if again != id {
		t.Fatalf("ids differ: %d vs %d", id, again)
	}
	ing, _ := s.GetByID(ctx, id)
	if ing.Category != "spices" || ing.CommonUnit != "bunch" {
		t.Errorf("existing record changed: %+v", ing)
	}
}

func TestIngredientResolveGuessesCategory(t *testing.T) {
	s := NewIngredientStore(openTestDB(t))
	ctx := context.Background()

	id, err := s.Resolve(ctx, "Cheddar Cheese", "", "g")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	ing, _ := s.GetByID(ctx, id)
	if ing.Category != kitchen.GuessCategory("Cheddar Cheese") {
		t.Errorf("category = %q, want %q", ing.Category, kitchen.GuessCategory("Cheddar Cheese"))
	}

	id, _ = s.Resolve(ctx, "Pepper Jack", "DAIRY", "")
	ing, _ = s.GetByID(ctx, id)
	if ing.Category != "dairy" {
		t.Errorf("category = %q, want lowercased %q", ing.Category, "dairy")
	}
}

func TestIngredientResolveRejectsBlankName(t *testing.T) {
	s := NewIngredientStore(openTestDB(t))
	if _, err := s.Resolve(context.Background(), "   ", "other", ""); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("err = %v, want validation", err)
	}
}

func TestIngredientList(t *testing.T) {
	s := NewIngredientStore(openTestDB(t))
	ctx := context.Background()
	s.Resolve(ctx, "Tomato", "vegetables", "pieces")
	s.Resolve(ctx, "Cherry Tomatoes", "vegetables", "g")
	s.Resolve(ctx, "Milk", "dairy", "ml")

	all, err := s.List(ctx, "", "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	if all[0].Name != "Cherry Tomatoes" || all[2].Name != "Tomato" {
		t.Errorf("order = %s, %s, %s", all[0].Name, all[1].Name, all[2].Name)
	}

	tomatoes, _ := s.List(ctx, "TOMAT", "")
	if len(tomatoes) != 2 {
		t.Errorf("query match = %d, want 2", len(tomatoes))
	}
	dairy, _ := s.List(ctx, "", "Dairy")
	if len(dairy) != 1 || dairy[0].Name != "Milk" {
		t.Errorf("category match = %+v", dairy)
	}
}

func TestIngredientSeed(t *testing.T) {
	s := NewIngredientStore(openTestDB(t))
	ctx := context.Background()

	n, err := s.Seed(ctx)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if n != len(kitchen.DefaultIngredients) {
		t.Errorf("inserted = %d, want %d", n, len(kitchen.DefaultIngredients))
	}

	n, err = s.Seed(ctx)
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if n != 0 {
		t.Errorf("second seed inserted %d, want 0", n)
	}
}

// insertDuplicate bypasses Resolve to simulate a row left by a concurrent
// creation.
func insertDuplicate(t *testing.T, db *sql.DB, name string) int64 {
	t.Helper()
	result, err := db.Exec(
		`INSERT INTO ingredients (name, name_key, category, common_unit) VALUES (?, ?, 'other', '')`,
		name, nameKey(name),
	)
	if err != nil {
		t.Fatalf("insert duplicate: %v", err)
	}
	id, _ := result.LastInsertId()
	return id
}

func TestIngredientDedup(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	s := NewIngredientStore(db)
	pantry := NewPantryStore(db)
	_, hh := seedHousehold(t, db, "alice")

	keep, _ := s.Resolve(ctx, "Milk", "dairy", "ml")
	dup := insertDuplicate(t, db, "MILK")
	other := insertDuplicate(t, db, "Eggs")

	if _, err := pantry.Add(ctx, hh, model.PantryAdd{IngredientID: keep, Quantity: 500, Unit: "ml"}); err != nil {
		t.Fatalf("add keep: %v", err)
	}
	if _, err := pantry.Add(ctx, hh, model.PantryAdd{IngredientID: dup, Quantity: 250, Unit: "ml"}); err != nil {
		t.Fatalf("add dup: %v", err)
	}

	groups, err := s.Dedup(ctx, true)
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if len(groups) != 1 || groups[0].KeepID != keep || len(groups[0].MergedIDs) != 1 || groups[0].MergedIDs[0] != dup {
		t.Fatalf("groups = %+v", groups)
	}
	if ing, _ := s.GetByID(ctx, dup); ing == nil {
		t.Fatal("dry run must not delete")
	}

	if _, err := s.Dedup(ctx, false); err != nil {
		t.Fatalf("dedup: %v", err)
	}
	if ing, _ := s.GetByID(ctx, dup); ing != nil {
		t.Error("duplicate should be deleted")
	}
	if ing, _ := s.GetByID(ctx, other); ing == nil {
		t.Error("unrelated ingredient should survive")
	}

	item, _ := pantry.Find(ctx, hh, keep)
	if item == nil || item.Quantity != 750 {
		t.Errorf("merged pantry = %+v, want quantity 750", item)
	}
	if n := pantryRowCount(t, db, hh, dup); n != 0 {
		t.Errorf("dup pantry rows = %d, want 0", n)
	}

	groups, _ = s.Dedup(ctx, true)
	if len(groups) != 0 {
		t.Errorf("groups after merge = %+v, want none", groups)
	}
}

func TestIngredientDedupRepointsRecipes(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	s := NewIngredientStore(db)
	recipes := NewRecipeStore(db)

	keep, _ := s.Resolve(ctx, "Onion", "vegetables", "pieces")
	dup := insertDuplicate(t, db, "onion")

	r, err := recipes.Create(ctx, model.Recipe{Title: "Soup", IsPublic: true})
	if err != nil {
		t.Fatalf("create recipe: %v", err)
	}
	if _, err := recipes.AddIngredient(ctx, r.ID, RecipeIngredientAdd{IngredientID: dup, Quantity: 1, Unit: "pieces"}); err != nil {
		t.Fatalf("add ingredient: %v", err)
	}

	if _, err := s.Dedup(ctx, false); err != nil {
		t.Fatalf("dedup: %v", err)
	}
	full, _ := recipes.Get(ctx, r.ID)
	if len(full.Ingredients) != 1 || full.Ingredients[0].IngredientID != keep {
		t.Errorf("recipe ingredients = %+v, want ingredient %d", full.Ingredients, keep)
	}
}
