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

type ShoppingStore struct {
	db *sql.DB
}

func NewShoppingStore(db *sql.DB) *ShoppingStore {
	return &ShoppingStore{db: db}
}

// --- List methods ---

func scanShoppingList(scanner interface{ Scan(...any) error }) (*model.ShoppingList, error) {
	var l model.ShoppingList
	var active int
	err := scanner.Scan(&l.ID, &l.HouseholdID, &l.Name, &active, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	l.IsActive = active != 0
	return &l, nil
}

const shoppingListCols = `id, household_id, name, is_active, created_at, updated_at`

func defaultListName() string {
	return "Shopping List " + now().Format("Jan 2, 2006")
}

// GetActiveList returns the household's active list with its items, or nil.
func (s *ShoppingStore) GetActiveList(ctx context.Context, householdID int64) (*model.ShoppingListWithItems, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+shoppingListCols+` FROM shopping_lists WHERE household_id = ? AND is_active = 1`, householdID,
	)
	l, err := scanShoppingList(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active list: %w", err)
	}

	items, err := s.listItems(ctx, `WHERE si.list_id = ? ORDER BY si.is_purchased ASC, i.name_key ASC, si.id ASC`, l.ID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.ShoppingListItem{}
	}
	return &model.ShoppingListWithItems{ShoppingList: *l, Items: items}, nil
}

func (s *ShoppingStore) GetList(ctx context.Context, id int64) (*model.ShoppingList, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+shoppingListCols+` FROM shopping_lists WHERE id = ?`, id)
	l, err := scanShoppingList(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get list: %w", err)
	}
	return l, nil
}

// ListHistory returns every list of the household, newest first.
func (s *ShoppingStore) ListHistory(ctx context.Context, householdID int64) ([]model.ShoppingList, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+shoppingListCols+` FROM shopping_lists WHERE household_id = ? ORDER BY created_at DESC, id DESC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list shopping lists: %w", err)
	}
	defer rows.Close()

	var out []model.ShoppingList
	for rows.Next() {
		l, err := scanShoppingList(rows)
		if err != nil {
			return nil, fmt.Errorf("scan shopping list: %w", err)
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

// CreateList starts a new active list. The previous active list is kept as
// history.
func (s *ShoppingStore) CreateList(ctx context.Context, householdID int64, name string) (*model.ShoppingList, error) {
	var id int64
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		id, err = createList(ctx, tx, householdID, name)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetList(ctx, id)
}

func createList(ctx context.Context, tx *sql.Tx, householdID int64, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultListName()
	}
	ts := now()

	if _, err := tx.ExecContext(ctx,
		`UPDATE shopping_lists SET is_active = 0, updated_at = ? WHERE household_id = ? AND is_active = 1`,
		ts, householdID,
	); err != nil {
		return 0, fmt.Errorf("deactivate list: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO shopping_lists (household_id, name, is_active, created_at, updated_at) VALUES (?, ?, 1, ?, ?)`,
		householdID, name, ts, ts,
	)
	if err != nil {
		return 0, fmt.Errorf("insert list: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// --- Item methods ---

func scanShoppingItem(scanner interface{ Scan(...any) error }) (*model.ShoppingListItem, error) {
	var item model.ShoppingListItem
	var purchased int
	var addedBy sql.NullInt64
	err := scanner.Scan(
		&item.ID, &item.ListID, &item.IngredientID, &item.Quantity, &item.Unit,
		&purchased, &item.Notes, &addedBy, &item.CreatedAt, &item.UpdatedAt,
		&item.IngredientName, &item.Category,
	)
	if err != nil {
		return nil, err
	}
	item.IsPurchased = purchased != 0
	item.AddedBy = int64Ptr(addedBy)
	return &item, nil
}

const shoppingItemCols = `si.id, si.list_id, si.ingredient_id, si.quantity, si.unit,
	si.is_purchased, si.notes, si.added_by, si.created_at, si.updated_at,
	i.name, i.category`

const shoppingItemFrom = ` FROM shopping_list_items si JOIN ingredients i ON i.id = si.ingredient_id`

func (s *ShoppingStore) listItems(ctx context.Context, where string, args ...any) ([]model.ShoppingListItem, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+shoppingItemCols+shoppingItemFrom+` `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []model.ShoppingListItem
	for rows.Next() {
		item, err := scanShoppingItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (s *ShoppingStore) GetItem(ctx context.Context, id int64) (*model.ShoppingListItem, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+shoppingItemCols+shoppingItemFrom+` WHERE si.id = ?`, id)
	item, err := scanShoppingItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// AddItem puts an ingredient on the household's active list, creating the
// list if needed. Re-adding an ingredient sums the quantity.
func (s *ShoppingStore) AddItem(ctx context.Context, householdID int64, in model.ShoppingItemAdd) (*model.ShoppingListItem, error) {
	if err := validatePositive("quantity", in.Quantity); err != nil {
		return nil, err
	}

	var id int64
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		var listID int64
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM shopping_lists WHERE household_id = ? AND is_active = 1`, householdID,
		).Scan(&listID)
		if err == sql.ErrNoRows {
			listID, err = createList(ctx, tx, householdID, "")
		}
		if err != nil {
			return fmt.Errorf("active list: %w", err)
		}

		ingredientID := in.IngredientID
		if ingredientID == 0 {
			ingredientID, err = resolveIngredient(ctx, tx, in.Name, in.Category, in.Unit)
			if err != nil {
				return err
			}
		} else {
			var exists int
			if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM ingredients WHERE id = ?`, ingredientID).Scan(&exists); err != nil {
				return fmt.Errorf("check ingredient: %w", err)
			}
			if exists == 0 {
				return apperror.NotFound("ingredient", ingredientID)
			}
		}

		err = tx.QueryRowContext(ctx,
			`SELECT id FROM shopping_list_items WHERE list_id = ? AND ingredient_id = ?`, listID, ingredientID,
		).Scan(&id)
		switch {
		case err == nil:
			_, err = tx.ExecContext(ctx,
				`UPDATE shopping_list_items SET quantity = quantity + ?, updated_at = ? WHERE id = ?`,
				in.Quantity, now(), id,
			)
			if err != nil {
				return fmt.Errorf("merge item: %w", err)
			}
			return nil
		case err != sql.ErrNoRows:
			return fmt.Errorf("find item: %w", err)
		}

		ts := now()
		result, err := tx.ExecContext(ctx,
			`INSERT INTO shopping_list_items (list_id, ingredient_id, quantity, unit, notes, added_by, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			listID, ingredientID, in.Quantity, in.Unit, in.Notes, nullInt64(in.AddedBy), ts, ts,
		)
		if err != nil {
			return fmt.Errorf("insert item: %w", err)
		}
		id, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetItem(ctx, id)
}

// UpdateItem patches quantity, unit and notes of an item on one of the
// household's lists.
func (s *ShoppingStore) UpdateItem(ctx context.Context, householdID, id int64, patch model.ShoppingItemPatch) (*model.ShoppingListItem, error) {
	var qty sql.NullFloat64
	if patch.Quantity != nil {
		if err := validatePositive("quantity", *patch.Quantity); err != nil {
			return nil, err
		}
		qty = sql.NullFloat64{Float64: *patch.Quantity, Valid: true}
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE shopping_list_items SET
		   quantity = COALESCE(?, quantity),
		   unit = COALESCE(?, unit),
		   notes = COALESCE(?, notes),
		   updated_at = ?
		 WHERE id = ? AND list_id IN (SELECT id FROM shopping_lists WHERE household_id = ?)`,
		qty, nullString(patch.Unit), nullString(patch.Notes), now(), id, householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, apperror.NotFound("shopping list item", id)
	}
	return s.GetItem(ctx, id)
}

func (s *ShoppingStore) RemoveItem(ctx context.Context, householdID, id int64) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM shopping_list_items
		 WHERE id = ? AND list_id IN (SELECT id FROM shopping_lists WHERE household_id = ?)`,
		id, householdID,
	)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperror.NotFound("shopping list item", id)
	}
	return nil
}

// TogglePurchased flips the purchased flag. Marking an item purchased with
// addToPantry credits its quantity to the pantry. Un-marking never takes
// the credit back.
func (s *ShoppingStore) TogglePurchased(ctx context.Context, householdID, id int64, userID *int64, addToPantry bool) (*model.ToggleResult, error) {
	result := &model.ToggleResult{}
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		var purchased int
		var ingredientID int64
		var qty float64
		var unit, category string
		err := tx.QueryRowContext(ctx,
			`SELECT si.is_purchased, si.ingredient_id, si.quantity, si.unit, i.category
			 FROM shopping_list_items si
			 JOIN shopping_lists l ON l.id = si.list_id
			 JOIN ingredients i ON i.id = si.ingredient_id
			 WHERE si.id = ? AND l.household_id = ?`,
			id, householdID,
		).Scan(&purchased, &ingredientID, &qty, &unit, &category)
		if err == sql.ErrNoRows {
			return apperror.NotFound("shopping list item", id)
		}
		if err != nil {
			return fmt.Errorf("get item: %w", err)
		}

		result.IsPurchased = purchased == 0
		if _, err := tx.ExecContext(ctx,
			`UPDATE shopping_list_items SET is_purchased = ?, updated_at = ? WHERE id = ?`,
			boolToInt(result.IsPurchased), now(), id,
		); err != nil {
			return fmt.Errorf("toggle item: %w", err)
		}

		if !result.IsPurchased || !addToPantry {
			return nil
		}

		pantryID, err := creditPantry(ctx, tx, householdID, model.PantryAdd{
			IngredientID: ingredientID,
			Quantity:     qty,
			Unit:         unit,
			Location:     kitchen.DefaultLocation(category),
			AddedBy:      userID,
		})
		if err != nil {
			return err
		}
		result.CreditedPantry = true
		result.PantryItemID = pantryID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ClearPurchased deletes the purchased items of a list and returns how many
// were removed.
func (s *ShoppingStore) ClearPurchased(ctx context.Context, householdID, listID int64) (int64, error) {
	return s.clear(ctx, householdID, listID, ` AND is_purchased = 1`)
}

// ClearList deletes every item of a list.
func (s *ShoppingStore) ClearList(ctx context.Context, householdID, listID int64) (int64, error) {
	return s.clear(ctx, householdID, listID, ``)
}

func (s *ShoppingStore) clear(ctx context.Context, householdID, listID int64, filter string) (int64, error) {
	l, err := s.GetList(ctx, listID)
	if err != nil {
		return 0, err
	}
	if l == nil || l.HouseholdID != householdID {
		return 0, apperror.NotFound("shopping list", listID)
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM shopping_list_items WHERE list_id = ?`+filter, listID)
	if err != nil {
		return 0, fmt.Errorf("clear list: %w", err)
	}
	return result.RowsAffected()
}
