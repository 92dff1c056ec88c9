package model

import (
	"time"

	"paintball2go-backend/internal/domain"
)

type MembershipTier string

const (
	TierBronze   MembershipTier = "bronze"
	TierSilver   MembershipTier = "silver"
	TierGold     MembershipTier = "gold"
	TierPlatinum MembershipTier = "platinum"
)

var tierOrder = map[MembershipTier]int{
	TierBronze: 0, TierSilver: 1, TierGold: 2, TierPlatinum: 3,
}

// loyalty thresholds; tiers are only ever promoted, never downgraded.
const (
	silverThreshold   = 200
	goldThreshold     = 500
	platinumThreshold = 1000
)

// ActivityRecord is one completed activity in a user's history.
type ActivityRecord struct {
	Activity Activity
	Date     time.Time
	Rating   *int
	Feedback string
}

// User is the registered customer. Authentication lives outside this core;
// the fields here serve loyalty, campaigns, and ownership checks.
type User struct {
	ID              string
	Name            string
	Email           string
	Phone           string
	Role            string // "customer" | "staff" | "admin"
	Tags            []string
	Newsletter      bool // opted in to marketing email
	IsActive        bool
	LoyaltyPoints   int
	MembershipTier  MembershipTier
	ActivityHistory []ActivityRecord
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewUser validates and constructs an active customer.
func NewUser(id, name, email string) (*User, error) {
	if id == "" || name == "" || email == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &User{
		ID:             id,
		Name:           name,
		Email:          email,
		Role:           "customer",
		IsActive:       true,
		Newsletter:     true,
		MembershipTier: TierBronze,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// AddActivity appends a history entry and awards loyalty points for it,
// promoting the membership tier when a threshold is crossed.
func (u *User) AddActivity(rec ActivityRecord) {
	u.ActivityHistory = append(u.ActivityHistory, rec)
	u.LoyaltyPoints += rec.Activity.LoyaltyPoints()
	u.promoteTier()
	u.UpdatedAt = time.Now()
}

// promoteTier raises the tier to match the points balance. Tiers never move
// down automatically.
func (u *User) promoteTier() {
	target := TierBronze
	switch {
	case u.LoyaltyPoints >= platinumThreshold:
		target = TierPlatinum
	case u.LoyaltyPoints >= goldThreshold:
		target = TierGold
	case u.LoyaltyPoints >= silverThreshold:
		target = TierSilver
	}
	if tierOrder[target] > tierOrder[u.MembershipTier] {
		u.MembershipTier = target
	}
}
