package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dukerupert/larder/internal/apperror"
	"github.com/dukerupert/larder/internal/kitchen"
	"github.com/dukerupert/larder/internal/model"
)

const defaultBatchUnit = "pieces"

type PantryStore struct {
	db *sql.DB
}

func NewPantryStore(db *sql.DB) *PantryStore {
	return &PantryStore{db: db}
}

func scanPantryItem(scanner interface{ Scan(...any) error }) (*model.PantryItem, error) {
	var p model.PantryItem
	var expiration sql.NullTime
	var addedBy sql.NullInt64
	err := scanner.Scan(
		&p.ID, &p.HouseholdID, &p.IngredientID, &p.Quantity, &p.Unit,
		&expiration, &p.Location, &p.Notes, &addedBy, &p.CreatedAt, &p.UpdatedAt,
		&p.IngredientName, &p.Category,
	)
	if err != nil {
		return nil, err
	}
	p.ExpirationDate = timePtr(expiration)
	p.AddedBy = int64Ptr(addedBy)
	return &p, nil
}

const pantryCols = `p.id, p.household_id, p.ingredient_id, p.quantity, p.unit,
	p.expiration_date, p.location, p.notes, p.added_by, p.created_at, p.updated_at,
	i.name, i.category`

const pantryFrom = ` FROM pantry_items p JOIN ingredients i ON i.id = p.ingredient_id`

func (s *PantryStore) GetByID(ctx context.Context, id int64) (*model.PantryItem, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+pantryCols+pantryFrom+` WHERE p.id = ?`, id)
	p, err := scanPantryItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get pantry item: %w", err)
	}
	return p, nil
}

// Find returns the household's row for an ingredient, or nil.
func (s *PantryStore) Find(ctx context.Context, householdID, ingredientID int64) (*model.PantryItem, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+pantryCols+pantryFrom+` WHERE p.household_id = ? AND p.ingredient_id = ?`,
		householdID, ingredientID,
	)
	p, err := scanPantryItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find pantry item: %w", err)
	}
	return p, nil
}

func (s *PantryStore) List(ctx context.Context, householdID int64) ([]model.PantryItem, error) {
	return s.list(ctx, `WHERE p.household_id = ? ORDER BY i.name_key ASC, p.id ASC`, householdID)
}

// ExpiringSoon returns items whose expiration falls before now+within,
// already-expired ones included, soonest first.
func (s *PantryStore) ExpiringSoon(ctx context.Context, householdID int64, within time.Duration) ([]model.PantryItem, error) {
	return s.list(ctx,
		`WHERE p.household_id = ? AND p.expiration_date IS NOT NULL AND p.expiration_date <= ?
		 ORDER BY p.expiration_date ASC, p.id ASC`,
		householdID, now().Add(within),
	)
}

func (s *PantryStore) list(ctx context.Context, where string, args ...any) ([]model.PantryItem, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+pantryCols+pantryFrom+` `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("list pantry items: %w", err)
	}
	defer rows.Close()

	var items []model.PantryItem
	for rows.Next() {
		p, err := scanPantryItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pantry item: %w", err)
		}
		items = append(items, *p)
	}
	return items, rows.Err()
}

// Quantities maps ingredient id to stocked quantity for a household.
func (s *PantryStore) Quantities(ctx context.Context, householdID int64) (map[int64]float64, error) {
	return pantryQuantities(ctx, s.db, householdID)
}

func pantryQuantities(ctx context.Context, q querier, householdID int64) (map[int64]float64, error) {
	rows, err := q.QueryContext(ctx, `SELECT ingredient_id, quantity FROM pantry_items WHERE household_id = ?`, householdID)
	if err != nil {
		return nil, fmt.Errorf("load pantry quantities: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]float64)
	for rows.Next() {
		var id int64
		var qty float64
		if err := rows.Scan(&id, &qty); err != nil {
			return nil, fmt.Errorf("scan pantry quantity: %w", err)
		}
		out[id] += qty
	}
	return out, rows.Err()
}

// Add merges quantity into the household's row for the ingredient, or
// inserts a new row. Only quantity changes on merge.
func (s *PantryStore) Add(ctx context.Context, householdID int64, in model.PantryAdd) (int64, error) {
	if err := validatePositive("quantity", in.Quantity); err != nil {
		return 0, err
	}

	var id int64
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM ingredients WHERE id = ?`, in.IngredientID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check ingredient: %w", err)
		}
		if exists == 0 {
			return apperror.NotFound("ingredient", in.IngredientID)
		}
		id, err = creditPantry(ctx, tx, householdID, in)
		return err
	})
	return id, err
}

func creditPantry(ctx context.Context, q querier, householdID int64, in model.PantryAdd) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx,
		`SELECT id FROM pantry_items WHERE household_id = ? AND ingredient_id = ?`,
		householdID, in.IngredientID,
	).Scan(&id)

	switch {
	case err == nil:
		_, err = q.ExecContext(ctx,
			`UPDATE pantry_items SET quantity = quantity + ?, updated_at = ? WHERE id = ?`,
			in.Quantity, now(), id,
		)
		if err != nil {
			return 0, fmt.Errorf("merge pantry item: %w", err)
		}
		return id, nil

	case err == sql.ErrNoRows:
		ts := now()
		result, err := q.ExecContext(ctx,
			`INSERT INTO pantry_items (household_id, ingredient_id, quantity, unit, expiration_date, location, notes, added_by, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			householdID, in.IngredientID, in.Quantity, in.Unit, nullTime(in.ExpirationDate),
			in.Location, in.Notes, nullInt64(in.AddedBy), ts, ts,
		)
		if err != nil {
			return 0, fmt.Errorf("insert pantry item: %w", err)
		}
		id, err = result.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("last insert id: %w", err)
		}
		return id, nil

	default:
		return 0, fmt.Errorf("find pantry item: %w", err)
	}
}

// AddBatch adds each parsed item independently, in its own transaction.
// A failing item is reported in its result slot and does not stop the rest.
func (s *PantryStore) AddBatch(ctx context.Context, householdID int64, items []model.ParsedItem, addedBy *int64) []model.BatchResult {
	results := make([]model.BatchResult, 0, len(items))
	for _, item := range items {
		res := model.BatchResult{Name: item.Name}
		id, err := s.addParsed(ctx, householdID, item, addedBy)
		if err != nil {
			res.Error = err.Error()
		} else {
			res.Success = true
			res.ID = id
		}
		results = append(results, res)
	}
	return results
}

func (s *PantryStore) addParsed(ctx context.Context, householdID int64, item model.ParsedItem, addedBy *int64) (int64, error) {
	name := strings.TrimSpace(item.Name)
	if name == "" {
		return 0, apperror.Validation("name", "item name is required")
	}
	if err := validatePositive("quantity", item.Quantity); err != nil {
		return 0, err
	}
	days := math.Round(item.EstimatedExpirationDays)
	if days < 0 {
		return 0, apperror.Validation("estimated_expiration_days", "expiration days cannot be negative")
	}

	unit := strings.TrimSpace(item.Unit)
	if unit == "" {
		unit = defaultBatchUnit
	}
	category := item.Category
	if strings.TrimSpace(category) == "" {
		category = kitchen.GuessCategory(name)
	}
	location := strings.TrimSpace(item.Location)
	if location == "" {
		location = kitchen.DefaultLocation(category)
	}

	var expiration *time.Time
	if days > 0 {
		t := now().Add(time.Duration(days) * 24 * time.Hour)
		expiration = &t
	}

	var id int64
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		ingredientID, err := resolveIngredient(ctx, tx, name, category, unit)
		if err != nil {
			return err
		}
		id, err = creditPantry(ctx, tx, householdID, model.PantryAdd{
			IngredientID:   ingredientID,
			Quantity:       item.Quantity,
			Unit:           unit,
			ExpirationDate: expiration,
			Location:       location,
			Notes:          item.Notes,
			AddedBy:        addedBy,
		})
		return err
	})
	return id, err
}

// Update applies a partial patch and always touches updated_at.
func (s *PantryStore) Update(ctx context.Context, id int64, patch model.PantryPatch) (*model.PantryItem, error) {
	var qty sql.NullFloat64
	if patch.Quantity != nil {
		if err := validateNonNegative("quantity", *patch.Quantity); err != nil {
			return nil, err
		}
		qty = sql.NullFloat64{Float64: *patch.Quantity, Valid: true}
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE pantry_items SET
		   quantity = COALESCE(?, quantity),
		   unit = COALESCE(?, unit),
		   expiration_date = COALESCE(?, expiration_date),
		   location = COALESCE(?, location),
		   notes = COALESCE(?, notes),
		   updated_at = ?
		 WHERE id = ?`,
		qty, nullString(patch.Unit), nullTime(patch.ExpirationDate),
		nullString(patch.Location), nullString(patch.Notes), now(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update pantry item: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, apperror.NotFound("pantry item", id)
	}
	return s.GetByID(ctx, id)
}

func (s *PantryStore) Remove(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM pantry_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete pantry item: %w", err)
	}
	return nil
}

// ConsumeForRecipe deducts the recipe's ingredients, scaled by multiplier,
// from the household's pantry.
//
// Each ingredient is its own transaction. When one fails, the results for
// the ingredients already processed are returned along with the error and
// their deductions stay applied.
func (s *PantryStore) ConsumeForRecipe(ctx context.Context, householdID, recipeID int64, multiplier float64) ([]model.ConsumeResult, error) {
	if err := validatePositive("servings_multiplier", multiplier); err != nil {
		return nil, err
	}

	ingredients, err := recipeIngredients(ctx, s.db, recipeID)
	if err != nil {
		return nil, err
	}
	if ingredients == nil {
		var exists int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM recipes WHERE id = ?`, recipeID).Scan(&exists); err != nil {
			return nil, fmt.Errorf("check recipe: %w", err)
		}
		if exists == 0 {
			return nil, apperror.NotFound("recipe", recipeID)
		}
	}

	results := make([]model.ConsumeResult, 0, len(ingredients))
	for _, ri := range ingredients {
		res, err := s.consumeOne(ctx, householdID, ri, ri.Quantity*multiplier)
		if err != nil {
			return results, fmt.Errorf("consume %s: %w", ri.IngredientName, err)
		}
		results = append(results, res)
	}
	return results, nil
}

func (s *PantryStore) consumeOne(ctx context.Context, householdID int64, ri model.RecipeIngredient, required float64) (model.ConsumeResult, error) {
	res := model.ConsumeResult{
		IngredientID:   ri.IngredientID,
		IngredientName: ri.IngredientName,
		Requested:      required,
		Unit:           ri.Unit,
	}

	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		var id int64
		var have float64
		err := tx.QueryRowContext(ctx,
			`SELECT id, quantity FROM pantry_items WHERE household_id = ? AND ingredient_id = ?`,
			householdID, ri.IngredientID,
		).Scan(&id, &have)
		if err == sql.ErrNoRows {
			res.Status = model.ConsumeNotFound
			return nil
		}
		if err != nil {
			return fmt.Errorf("find pantry item: %w", err)
		}
		res.Available = &have

		if have < required {
			if _, err := tx.ExecContext(ctx,
				`UPDATE pantry_items SET quantity = 0, updated_at = ? WHERE id = ?`, now(), id,
			); err != nil {
				return fmt.Errorf("drain pantry item: %w", err)
			}
			res.Status = model.ConsumeInsufficient
			res.Consumed = have
			return nil
		}

		remaining := have - required
		if remaining == 0 {
			_, err = tx.ExecContext(ctx, `DELETE FROM pantry_items WHERE id = ?`, id)
		} else {
			_, err = tx.ExecContext(ctx,
				`UPDATE pantry_items SET quantity = ?, updated_at = ? WHERE id = ?`, remaining, now(), id,
			)
		}
		if err != nil {
			return fmt.Errorf("deduct pantry item: %w", err)
		}
		res.Status = model.ConsumeConsumed
		res.Consumed = required
		return nil
	})
	return res, err
}

func validatePositive(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return apperror.Validation(field, field+" must be a positive number")
	}
	return nil
}

func validateNonNegative(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return apperror.Validation(field, field+" cannot be negative")
	}
	return nil
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}
