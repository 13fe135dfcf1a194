package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dukerupert/larder/internal/apperror"
	"github.com/dukerupert/larder/internal/availability"
	"github.com/dukerupert/larder/internal/kitchen"
	"github.com/dukerupert/larder/internal/model"
)

type RecipeStore struct {
	db *sql.DB
}

func NewRecipeStore(db *sql.DB) *RecipeStore {
	return &RecipeStore{db: db}
}

func scanRecipe(scanner interface{ Scan(...any) error }) (*model.Recipe, error) {
	var r model.Recipe
	var householdID, prep, cook, servings, addedBy sql.NullInt64
	var instructions string
	var public int
	err := scanner.Scan(
		&r.ID, &householdID, &r.Title, &r.Description, &instructions,
		&prep, &cook, &servings, &r.Difficulty, &r.Cuisine, &r.ImageURL,
		&public, &addedBy, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(instructions), &r.Instructions); err != nil {
		return nil, fmt.Errorf("decode instructions: %w", err)
	}
	if r.Instructions == nil {
		r.Instructions = []string{}
	}
	r.HouseholdID = int64Ptr(householdID)
	r.PrepTime = intPtr(prep)
	r.CookTime = intPtr(cook)
	r.Servings = intPtr(servings)
	r.IsPublic = public != 0
	r.AddedBy = int64Ptr(addedBy)
	return &r, nil
}

const recipeCols = `id, household_id, title, description, instructions,
	prep_time, cook_time, servings, difficulty, cuisine, image_url,
	is_public, added_by, created_at, updated_at`

// Create inserts a recipe. A nil HouseholdID makes it shared with everyone.
func (s *RecipeStore) Create(ctx context.Context, r model.Recipe) (*model.Recipe, error) {
	var id int64
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		id, err = insertRecipe(ctx, tx, r)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetRecipe(ctx, id)
}

func insertRecipe(ctx context.Context, tx *sql.Tx, r model.Recipe) (int64, error) {
	title := strings.TrimSpace(r.Title)
	if title == "" {
		return 0, apperror.Validation("title", "recipe title is required")
	}
	steps := r.Instructions
	if steps == nil {
		steps = []string{}
	}
	instructions, err := json.Marshal(steps)
	if err != nil {
		return 0, fmt.Errorf("encode instructions: %w", err)
	}

	ts := now()
	result, err := tx.ExecContext(ctx,
		`INSERT INTO recipes (household_id, title, description, instructions, prep_time, cook_time, servings,
		                      difficulty, cuisine, image_url, is_public, added_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nullInt64(r.HouseholdID), title, r.Description, string(instructions),
		nullInt(r.PrepTime), nullInt(r.CookTime), nullInt(r.Servings),
		r.Difficulty, r.Cuisine, r.ImageURL, boolToInt(r.IsPublic), nullInt64(r.AddedBy), ts, ts,
	)
	if err != nil {
		return 0, fmt.Errorf("insert recipe: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

func (s *RecipeStore) GetRecipe(ctx context.Context, id int64) (*model.Recipe, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recipeCols+` FROM recipes WHERE id = ?`, id)
	r, err := scanRecipe(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get recipe: %w", err)
	}
	return r, nil
}

// Get returns the recipe with its ingredients, or nil.
func (s *RecipeStore) Get(ctx context.Context, id int64) (*model.RecipeWithIngredients, error) {
	r, err := s.GetRecipe(ctx, id)
	if err != nil || r == nil {
		return nil, err
	}
	ings, err := recipeIngredients(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if ings == nil {
		ings = []model.RecipeIngredient{}
	}
	return &model.RecipeWithIngredients{Recipe: *r, Ingredients: ings}, nil
}

// ListForHousehold returns the household's recipes followed by public ones,
// each id once.
func (s *RecipeStore) ListForHousehold(ctx context.Context, householdID int64) ([]model.Recipe, error) {
	own, err := s.listWhere(ctx, `household_id = ?`, householdID)
	if err != nil {
		return nil, err
	}
	public, err := s.listWhere(ctx, `is_public = 1`)
	if err != nil {
		return nil, err
	}
	return availability.Dedupe(own, public), nil
}

func (s *RecipeStore) listWhere(ctx context.Context, where string, args ...any) ([]model.Recipe, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+recipeCols+` FROM recipes WHERE `+where+` ORDER BY created_at DESC, id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	defer rows.Close()

	var out []model.Recipe
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recipe: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// Remove deletes a recipe; its ingredient rows go with it.
func (s *RecipeStore) Remove(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM recipes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	return nil
}

func (s *RecipeStore) SetImageURL(ctx context.Context, id int64, url string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE recipes SET image_url = ?, updated_at = ? WHERE id = ?`, url, now(), id,
	)
	if err != nil {
		return fmt.Errorf("set recipe image: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperror.NotFound("recipe", id)
	}
	return nil
}

// RecipeIngredientAdd names the ingredient by IngredientID, or by Name when
// the id is zero.
type RecipeIngredientAdd struct {
	IngredientID int64   `json:"ingredient_id"`
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
	Notes        string  `json:"notes"`
}

func (s *RecipeStore) AddIngredient(ctx context.Context, recipeID int64, in RecipeIngredientAdd) (*model.RecipeIngredient, error) {
	if err := validatePositive("quantity", in.Quantity); err != nil {
		return nil, err
	}

	var id int64
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM recipes WHERE id = ?`, recipeID).Scan(&exists); err != nil {
			return fmt.Errorf("check recipe: %w", err)
		}
		if exists == 0 {
			return apperror.NotFound("recipe", recipeID)
		}

		ingredientID := in.IngredientID
		if ingredientID == 0 {
			var err error
			ingredientID, err = resolveIngredient(ctx, tx, in.Name, in.Category, in.Unit)
			if err != nil {
				return err
			}
		}

		var err error
		id, err = insertRecipeIngredient(ctx, tx, recipeID, ingredientID, in.Quantity, in.Unit, in.Notes)
		return err
	})
	if err != nil {
		return nil, err
	}

	ings, err := recipeIngredients(ctx, s.db, recipeID)
	if err != nil {
		return nil, err
	}
	for i := range ings {
		if ings[i].ID == id {
			return &ings[i], nil
		}
	}
	return nil, apperror.NotFound("recipe ingredient", id)
}

func insertRecipeIngredient(ctx context.Context, tx *sql.Tx, recipeID, ingredientID int64, qty float64, unit, notes string) (int64, error) {
	result, err := tx.ExecContext(ctx,
		`INSERT INTO recipe_ingredients (recipe_id, ingredient_id, quantity, unit, notes) VALUES (?, ?, ?, ?, ?)`,
		recipeID, ingredientID, qty, unit, notes,
	)
	if err != nil {
		return 0, fmt.Errorf("insert recipe ingredient: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// SaveDraft stores an extracted recipe as private to the household.
// Unknown ingredients are created in the "other" category.
func (s *RecipeStore) SaveDraft(ctx context.Context, householdID, userID int64, d model.RecipeDraft) (*model.RecipeWithIngredients, error) {
	for i, ing := range d.Ingredients {
		if strings.TrimSpace(ing.Name) == "" {
			return nil, apperror.Validation("ingredients", fmt.Sprintf("ingredient %d has no name", i+1))
		}
		if err := validatePositive("quantity", ing.Quantity); err != nil {
			return nil, apperror.Validation("ingredients", fmt.Sprintf("ingredient %q: %v", ing.Name, err))
		}
	}

	var id int64
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		id, err = insertRecipe(ctx, tx, model.Recipe{
			HouseholdID:  &householdID,
			Title:        d.Title,
			Description:  d.Description,
			Instructions: d.Instructions,
			PrepTime:     d.PrepTime,
			CookTime:     d.CookTime,
			Servings:     d.Servings,
			Difficulty:   d.Difficulty,
			Cuisine:      d.Cuisine,
			ImageURL:     d.ImageURL,
			AddedBy:      &userID,
		})
		if err != nil {
			return err
		}

		for _, ing := range d.Ingredients {
			ingredientID, err := resolveIngredient(ctx, tx, ing.Name, kitchen.Other, ing.Unit)
			if err != nil {
				return err
			}
			if _, err := insertRecipeIngredient(ctx, tx, id, ingredientID, ing.Quantity, ing.Unit, ing.Notes); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Cookable evaluates every recipe visible to the household against its
// current pantry.
func (s *RecipeStore) Cookable(ctx context.Context, householdID int64) ([]model.RecipeMatch, error) {
	pantry, err := pantryQuantities(ctx, s.db, householdID)
	if err != nil {
		return nil, err
	}

	recipes, err := s.ListForHousehold(ctx, householdID)
	if err != nil {
		return nil, err
	}

	byRecipe, err := s.visibleIngredients(ctx, householdID)
	if err != nil {
		return nil, err
	}

	candidates := make([]availability.Candidate, 0, len(recipes))
	for _, r := range recipes {
		candidates = append(candidates, availability.Candidate{Recipe: r, Ingredients: byRecipe[r.ID]})
	}
	return availability.Evaluate(pantry, candidates), nil
}

func (s *RecipeStore) visibleIngredients(ctx context.Context, householdID int64) (map[int64][]model.RecipeIngredient, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recipeIngredientCols+recipeIngredientFrom+`
		 JOIN recipes r ON r.id = ri.recipe_id
		 WHERE r.household_id = ? OR r.is_public = 1
		 ORDER BY ri.id`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list recipe ingredients: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]model.RecipeIngredient)
	for rows.Next() {
		ri, err := scanRecipeIngredient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recipe ingredient: %w", err)
		}
		out[ri.RecipeID] = append(out[ri.RecipeID], *ri)
	}
	return out, rows.Err()
}

func scanRecipeIngredient(scanner interface{ Scan(...any) error }) (*model.RecipeIngredient, error) {
	var ri model.RecipeIngredient
	err := scanner.Scan(&ri.ID, &ri.RecipeID, &ri.IngredientID, &ri.Quantity, &ri.Unit, &ri.Notes, &ri.IngredientName, &ri.Category)
	if err != nil {
		return nil, err
	}
	return &ri, nil
}

const recipeIngredientCols = `ri.id, ri.recipe_id, ri.ingredient_id, ri.quantity, ri.unit, ri.notes, i.name, i.category`

const recipeIngredientFrom = ` FROM recipe_ingredients ri JOIN ingredients i ON i.id = ri.ingredient_id`

func recipeIngredients(ctx context.Context, q querier, recipeID int64) ([]model.RecipeIngredient, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+recipeIngredientCols+recipeIngredientFrom+` WHERE ri.recipe_id = ? ORDER BY ri.id`,
		recipeID,
	)
	if err != nil {
		return nil, fmt.Errorf("list recipe ingredients: %w", err)
	}
	defer rows.Close()

	var out []model.RecipeIngredient
	for rows.Next() {
		ri, err := scanRecipeIngredient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recipe ingredient: %w", err)
		}
		out = append(out, *ri)
	}
	return out, rows.Err()
}
