package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dukerupert/larder/internal/apperror"
	"github.com/dukerupert/larder/internal/kitchen"
	"github.com/dukerupert/larder/internal/model"
)

type IngredientStore struct {
	db *sql.DB
}

func NewIngredientStore(db *sql.DB) *IngredientStore {
	return &IngredientStore{db: db}
}

func scanIngredient(scanner interface{ Scan(...any) error }) (*model.Ingredient, error) {
	var i model.Ingredient
	err := scanner.Scan(&i.ID, &i.Name, &i.Category, &i.CommonUnit, &i.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

const ingredientCols = `id, name, category, common_unit, created_at`

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Resolve returns the id of the ingredient whose name matches
// case-insensitively, creating it when none exists. An existing record's
// category and unit are left as they are.
func (s *IngredientStore) Resolve(ctx context.Context, name, category, unit string) (int64, error) {
	var id int64
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		id, err = resolveIngredient(ctx, tx, name, category, unit)
		return err
	})
	return id, err
}

// resolveIngredient is shared by every path that names an ingredient. With
// several matching rows the oldest wins, so duplicates left by concurrent
// creation resolve consistently until they are merged.
func resolveIngredient(ctx context.Context, q querier, name, category, unit string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, apperror.Validation("name", "ingredient name is required")
	}
	key := nameKey(name)

	var id int64
	err := q.QueryRowContext(ctx, `SELECT id FROM ingredients WHERE name_key = ? ORDER BY id LIMIT 1`, key).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("find ingredient: %w", err)
	}

	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		category = kitchen.GuessCategory(name)
	}

	result, err := q.ExecContext(ctx,
		`INSERT INTO ingredients (name, name_key, category, common_unit) VALUES (?, ?, ?, ?)`,
		name, key, category, strings.TrimSpace(unit),
	)
	if err != nil {
		return 0, fmt.Errorf("insert ingredient: %w", err)
	}
	id, err = result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

func (s *IngredientStore) GetByID(ctx context.Context, id int64) (*model.Ingredient, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+ingredientCols+` FROM ingredients WHERE id = ?`, id)
	i, err := scanIngredient(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get ingredient: %w", err)
	}
	return i, nil
}

// List returns ingredients ordered by name. A non-empty query filters by
// case-insensitive substring; a non-empty category filters exactly.
func (s *IngredientStore) List(ctx context.Context, query, category string) ([]model.Ingredient, error) {
	var where []string
	var args []any
	if q := nameKey(query); q != "" {
		where = append(where, `instr(name_key, ?) > 0`)
		args = append(args, q)
	}
	if c := strings.ToLower(strings.TrimSpace(category)); c != "" {
		where = append(where, `category = ?`)
		args = append(args, c)
	}

	sqlText := `SELECT ` + ingredientCols + ` FROM ingredients`
	if len(where) > 0 {
		sqlText += ` WHERE ` + strings.Join(where, " AND ")
	}
	sqlText += ` ORDER BY name_key ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	defer rows.Close()

	var out []model.Ingredient
	for rows.Next() {
		i, err := scanIngredient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ingredient: %w", err)
		}
		out = append(out, *i)
	}
	return out, rows.Err()
}

// Seed loads the default catalog into an empty table. It returns the number
// of ingredients inserted, zero when the table already had rows.
func (s *IngredientStore) Seed(ctx context.Context) (int, error) {
	inserted := 0
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM ingredients`).Scan(&n); err != nil {
			return fmt.Errorf("count ingredients: %w", err)
		}
		if n > 0 {
			return nil
		}

		for _, ing := range kitchen.DefaultIngredients {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO ingredients (name, name_key, category, common_unit) VALUES (?, ?, ?, ?)`,
				ing.Name, nameKey(ing.Name), ing.Category, ing.CommonUnit,
			)
			if err != nil {
				return fmt.Errorf("seed ingredient %s: %w", ing.Name, err)
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// Dedup folds ingredients with the same case-insensitive name into the
// oldest one. References from recipes are repointed; pantry rows and
// shopping items that would collide are merged by summing quantity.
// With dryRun the groups are reported and nothing is changed.
func (s *IngredientStore) Dedup(ctx context.Context, dryRun bool) ([]model.DedupGroup, error) {
	var groups []model.DedupGroup
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		groups, err = duplicateGroups(ctx, tx)
		if err != nil || dryRun {
			return err
		}

		for _, g := range groups {
			for _, dup := range g.MergedIDs {
				if err := mergeIngredient(ctx, tx, g.KeepID, dup); err != nil {
					return fmt.Errorf("merge ingredient %d into %d: %w", dup, g.KeepID, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return groups, nil
}

func duplicateGroups(ctx context.Context, tx *sql.Tx) ([]model.DedupGroup, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, name, name_key FROM ingredients
		 WHERE name_key IN (SELECT name_key FROM ingredients GROUP BY name_key HAVING COUNT(*) > 1)
		 ORDER BY name_key, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("find duplicate ingredients: %w", err)
	}
	defer rows.Close()

	var groups []model.DedupGroup
	var lastKey string
	for rows.Next() {
		var id int64
		var name, key string
		if err := rows.Scan(&id, &name, &key); err != nil {
			return nil, fmt.Errorf("scan duplicate ingredient: %w", err)
		}
		if len(groups) == 0 || key != lastKey {
			groups = append(groups, model.DedupGroup{KeepID: id, Name: name, Names: []string{name}})
			lastKey = key
			continue
		}
		g := &groups[len(groups)-1]
		g.MergedIDs = append(g.MergedIDs, id)
		g.Names = append(g.Names, name)
	}
	return groups, rows.Err()
}

func mergeIngredient(ctx context.Context, tx *sql.Tx, keep, dup int64) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE recipe_ingredients SET ingredient_id = ? WHERE ingredient_id = ?`, keep, dup,
	); err != nil {
		return fmt.Errorf("repoint recipe ingredients: %w", err)
	}
	if err := mergeQuantities(ctx, tx, "pantry_items", "household_id", keep, dup); err != nil {
		return err
	}
	if err := mergeQuantities(ctx, tx, "shopping_list_items", "list_id", keep, dup); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM ingredients WHERE id = ?`, dup); err != nil {
		return fmt.Errorf("delete duplicate ingredient: %w", err)
	}
	return nil
}

// mergeQuantities moves rows of table from ingredient dup to keep. Where the
// owner (scope column) already has a keep row, quantities are summed and
// the dup row is dropped. table and scope are fixed identifiers.
func mergeQuantities(ctx context.Context, tx *sql.Tx, table, scope string, keep, dup int64) error {
	stmts := []string{
		`UPDATE ` + table + ` SET
		   quantity = quantity + (SELECT d.quantity FROM ` + table + ` d WHERE d.` + scope + ` = ` + table + `.` + scope + ` AND d.ingredient_id = ?),
		   updated_at = ?
		 WHERE ingredient_id = ? AND EXISTS (SELECT 1 FROM ` + table + ` d WHERE d.` + scope + ` = ` + table + `.` + scope + ` AND d.ingredient_id = ?)`,
		`DELETE FROM ` + table + ` WHERE ingredient_id = ? AND ` + scope + ` IN (SELECT ` + scope + ` FROM ` + table + ` WHERE ingredient_id = ?)`,
		`UPDATE ` + table + ` SET ingredient_id = ? WHERE ingredient_id = ?`,
	}
	args := [][]any{
		{dup, now(), keep, dup},
		{dup, keep},
		{keep, dup},
	}
	for i, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt, args[i]...); err != nil {
			return fmt.Errorf("merge %s: %w", table, err)
		}
	}
	return nil
}
