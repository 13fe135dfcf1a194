package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dukerupert/larder/internal/apperror"
	"github.com/dukerupert/larder/internal/model"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var householdID sql.NullInt64
	var autoAdd int
	err := scanner.Scan(&u.ID, &u.ExternalID, &u.Email, &u.Name, &householdID, &autoAdd, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	u.HouseholdID = int64Ptr(householdID)
	u.Preferences.AutoAddItems = autoAdd != 0
	return &u, nil
}

const userCols = `id, external_id, email, name, household_id, auto_add_items, created_at`

// Upsert returns the user for an external identity, creating it on first
// sign-in. A changed display name or email is written back.
func (s *UserStore) Upsert(ctx context.Context, externalID, email, name string) (*model.User, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, apperror.Validation("external_id", "identity subject is required")
	}
	name = strings.TrimSpace(name)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (external_id, email, name) VALUES (?, ?, ?)
		 ON CONFLICT(external_id) DO UPDATE SET
		   name = CASE WHEN excluded.name != '' THEN excluded.name ELSE users.name END,
		   email = CASE WHEN excluded.email != '' THEN excluded.email ELSE users.email END`,
		externalID, email, name,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return s.GetByExternalID(ctx, externalID)
}

func (s *UserStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE external_id = ?`, externalID)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by external id: %w", err)
	}
	return u, nil
}

func (s *UserStore) UpdatePreferences(ctx context.Context, id int64, prefs model.UserPreferences) (*model.User, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET auto_add_items = ? WHERE id = ?`,
		boolToInt(prefs.AutoAddItems), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update preferences: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, apperror.NotFound("user", id)
	}
	return s.GetByID(ctx, id)
}
