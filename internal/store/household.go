package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dukerupert/larder/internal/apperror"
	"github.com/dukerupert/larder/internal/invite"
	"github.com/dukerupert/larder/internal/model"
)

const (
	msgAlreadyInHousehold = "You are already in a household. Leave it first to create a new one."
	msgAlreadyJoined      = "You are already in a household. Leave it first to join another."
	msgInvalidInvite      = "Invalid invite code. Please check and try again."
	msgNotInHousehold     = "You are not in a household."
)

type HouseholdStore struct {
	db    *sql.DB
	codes *invite.Generator
}

func NewHouseholdStore(db *sql.DB) *HouseholdStore {
	return &HouseholdStore{db: db, codes: invite.NewGenerator()}
}

// SetCodeGenerator replaces the invite code source.
func (s *HouseholdStore) SetCodeGenerator(g *invite.Generator) {
	s.codes = g
}

func scanHousehold(scanner interface{ Scan(...any) error }) (*model.Household, error) {
	var h model.Household
	err := scanner.Scan(&h.ID, &h.Name, &h.InviteCode, &h.CreatedBy, &h.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

const householdCols = `id, name, invite_code, created_by, created_at`

func (s *HouseholdStore) GetByID(ctx context.Context, id int64) (*model.Household, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+householdCols+` FROM households WHERE id = ?`, id)
	h, err := scanHousehold(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get household: %w", err)
	}
	return h, nil
}

// GetForUser returns the user's household with its members, or nil when the
// user has none.
func (s *HouseholdStore) GetForUser(ctx context.Context, userID int64) (*model.HouseholdWithMembers, error) {
	householdID, err := userHousehold(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if householdID == 0 {
		return nil, nil
	}

	h, err := s.GetByID(ctx, householdID)
	if err != nil || h == nil {
		return nil, err
	}

	members, err := s.Members(ctx, h.ID)
	if err != nil {
		return nil, err
	}
	return &model.HouseholdWithMembers{Household: *h, Members: members}, nil
}

func (s *HouseholdStore) Members(ctx context.Context, householdID int64) ([]model.HouseholdMember, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT u.id, u.email, u.name, u.id = h.created_by
		 FROM users u JOIN households h ON h.id = u.household_id
		 WHERE u.household_id = ? ORDER BY u.id`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	members := []model.HouseholdMember{}
	for rows.Next() {
		var m model.HouseholdMember
		if err := rows.Scan(&m.UserID, &m.Email, &m.Name, &m.IsCreator); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// Create makes a new household with userID as creator and sole member.
func (s *HouseholdStore) Create(ctx context.Context, userID int64, name string) (*model.Household, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.Validation("name", "household name is required")
	}

	var id int64
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		current, err := userHousehold(ctx, tx, userID)
		if err != nil {
			return err
		}
		if current != 0 {
			return apperror.Conflict(msgAlreadyInHousehold)
		}
		id, err = s.insertHousehold(ctx, tx, userID, name)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// Ensure returns the user's household, creating one named after the user
// when they have none.
func (s *HouseholdStore) Ensure(ctx context.Context, userID int64) (*model.Household, error) {
	var id int64
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		var name string
		var current sql.NullInt64
		err := tx.QueryRowContext(ctx, `SELECT name, household_id FROM users WHERE id = ?`, userID).Scan(&name, &current)
		if err == sql.ErrNoRows {
			return apperror.NotFound("user", userID)
		}
		if err != nil {
			return fmt.Errorf("get user: %w", err)
		}
		if current.Valid {
			id = current.Int64
			return nil
		}

		householdName := "My Household"
		if name != "" {
			householdName = name + "'s Household"
		}
		id, err = s.insertHousehold(ctx, tx, userID, householdName)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func (s *HouseholdStore) insertHousehold(ctx context.Context, tx *sql.Tx, userID int64, name string) (int64, error) {
	code, err := s.codes.Unique(func(code string) (bool, error) {
		return inviteCodeExists(ctx, tx, code)
	})
	if err != nil {
		return 0, err
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO households (name, invite_code, created_by) VALUES (?, ?, ?)`,
		name, code, userID,
	)
	if err != nil {
		return 0, fmt.Errorf("insert household: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE users SET household_id = ? WHERE id = ?`, id, userID); err != nil {
		return 0, fmt.Errorf("assign household: %w", err)
	}
	return id, nil
}

// Join adds the user to the household holding code.
func (s *HouseholdStore) Join(ctx context.Context, userID int64, code string) (*model.Household, error) {
	code = invite.Normalize(code)

	var id int64
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		current, err := userHousehold(ctx, tx, userID)
		if err != nil {
			return err
		}
		if current != 0 {
			return apperror.Conflict(msgAlreadyJoined)
		}

		err = tx.QueryRowContext(ctx, `SELECT id FROM households WHERE invite_code = ?`, code).Scan(&id)
		if err == sql.ErrNoRows {
			return apperror.Conflict(msgInvalidInvite)
		}
		if err != nil {
			return fmt.Errorf("find household by code: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `UPDATE users SET household_id = ? WHERE id = ?`, id, userID); err != nil {
			return fmt.Errorf("join household: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// Leave removes the user from their household. The last member leaving
// deletes the household along with its private recipes; its public recipes
// remain with no owning household. A departing creator hands ownership to
// the remaining member with the lowest id.
func (s *HouseholdStore) Leave(ctx context.Context, userID int64) (*model.LeaveResult, error) {
	result := &model.LeaveResult{}
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		householdID, err := userHousehold(ctx, tx, userID)
		if err != nil {
			return err
		}
		if householdID == 0 {
			return apperror.Conflict(msgNotInHousehold)
		}

		var members int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE household_id = ?`, householdID).Scan(&members); err != nil {
			return fmt.Errorf("count members: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `UPDATE users SET household_id = NULL WHERE id = ?`, userID); err != nil {
			return fmt.Errorf("leave household: %w", err)
		}

		if members <= 1 {
			// Public recipes stay shared and lose their owner.
			if _, err := tx.ExecContext(ctx, `DELETE FROM recipes WHERE household_id = ? AND is_public = 0`, householdID); err != nil {
				return fmt.Errorf("delete private recipes: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM households WHERE id = ?`, householdID); err != nil {
				return fmt.Errorf("delete household: %w", err)
			}
			result.HouseholdDeleted = true
			return nil
		}

		var createdBy int64
		if err := tx.QueryRowContext(ctx, `SELECT created_by FROM households WHERE id = ?`, householdID).Scan(&createdBy); err != nil {
			return fmt.Errorf("get household creator: %w", err)
		}
		if createdBy != userID {
			return nil
		}

		var successor int64
		err = tx.QueryRowContext(ctx,
			`SELECT id FROM users WHERE household_id = ? ORDER BY id LIMIT 1`, householdID,
		).Scan(&successor)
		if err != nil {
			return fmt.Errorf("find successor: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE households SET created_by = ? WHERE id = ?`, successor, householdID); err != nil {
			return fmt.Errorf("transfer ownership: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RegenerateInviteCode replaces the invite code of the user's household.
func (s *HouseholdStore) RegenerateInviteCode(ctx context.Context, userID int64) (string, error) {
	var code string
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		householdID, err := userHousehold(ctx, tx, userID)
		if err != nil {
			return err
		}
		if householdID == 0 {
			return apperror.Conflict(msgNotInHousehold)
		}

		code, err = s.codes.Unique(func(c string) (bool, error) {
			return inviteCodeExists(ctx, tx, c)
		})
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `UPDATE households SET invite_code = ? WHERE id = ?`, code, householdID); err != nil {
			return fmt.Errorf("update invite code: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return code, nil
}

// UpdateName renames the user's household.
func (s *HouseholdStore) UpdateName(ctx context.Context, userID int64, name string) (*model.Household, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.Validation("name", "household name is required")
	}

	householdID, err := userHousehold(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if householdID == 0 {
		return nil, apperror.Conflict(msgNotInHousehold)
	}

	if _, err := s.db.ExecContext(ctx, `UPDATE households SET name = ? WHERE id = ?`, name, householdID); err != nil {
		return nil, fmt.Errorf("update household name: %w", err)
	}
	return s.GetByID(ctx, householdID)
}

// List returns every household with its member count.
func (s *HouseholdStore) List(ctx context.Context) ([]model.HouseholdSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT h.id, h.name, h.invite_code, h.created_by, h.created_at,
		        (SELECT COUNT(*) FROM users u WHERE u.household_id = h.id)
		 FROM households h ORDER BY h.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list households: %w", err)
	}
	defer rows.Close()

	var out []model.HouseholdSummary
	for rows.Next() {
		var hs model.HouseholdSummary
		if err := rows.Scan(&hs.ID, &hs.Name, &hs.InviteCode, &hs.CreatedBy, &hs.CreatedAt, &hs.MemberCount); err != nil {
			return nil, fmt.Errorf("scan household: %w", err)
		}
		out = append(out, hs)
	}
	return out, rows.Err()
}

// userHousehold returns the user's household id, or 0 when they have none.
func userHousehold(ctx context.Context, q querier, userID int64) (int64, error) {
	var householdID sql.NullInt64
	err := q.QueryRowContext(ctx, `SELECT household_id FROM users WHERE id = ?`, userID).Scan(&householdID)
	if err == sql.ErrNoRows {
		return 0, apperror.NotFound("user", userID)
	}
	if err != nil {
		return 0, fmt.Errorf("get user household: %w", err)
	}
	return householdID.Int64, nil
}

func inviteCodeExists(ctx context.Context, q querier, code string) (bool, error) {
	var n int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM households WHERE invite_code = ?`, code).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}
