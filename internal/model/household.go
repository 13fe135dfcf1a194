package model

import "time"

type Household struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	InviteCode string    `json:"invite_code"`
	CreatedBy  int64     `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
}

// HouseholdMember is a user as seen from the household that contains them.
type HouseholdMember struct {
	UserID    int64  `json:"user_id"`
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	IsCreator bool   `json:"is_creator"`
}

type HouseholdWithMembers struct {
	Household
	Members []HouseholdMember `json:"members"`
}

type LeaveResult struct {
	HouseholdDeleted bool `json:"household_deleted"`
}

type HouseholdSummary struct {
	Household
	MemberCount int `json:"member_count"`
}
