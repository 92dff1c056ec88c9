//go:build !integration

package model_test

import (
	"testing"
	"time"

	"paintball2go-backend/internal/domain/model"
)

func TestUserLoyalty(t *testing.T) {
	t.Run("should award activity points and promote across thresholds", func(t *testing.T) {
		u, err := model.NewUser("u-1", "Jordan Reyes", "jordan@example.com")
		if err != nil {
			t.Fatalf("new user: %v", err)
		}
		if u.MembershipTier != model.TierBronze {
			t.Fatalf("tier = %s, want bronze", u.MembershipTier)
		}

		// Paintball is worth 50 points; four visits crosses the silver
		// threshold at 200.
		for i := 0; i < 4; i++ {
			u.AddActivity(model.ActivityRecord{Activity: model.ActivityPaintball, Date: time.Now()})
		}
		if u.LoyaltyPoints != 200 {
			t.Errorf("points = %d, want 200", u.LoyaltyPoints)
		}
		if u.MembershipTier != model.TierSilver {
			t.Errorf("tier = %s, want silver", u.MembershipTier)
		}

		for i := 0; i < 16; i++ {
			u.AddActivity(model.ActivityRecord{Activity: model.ActivityPaintball, Date: time.Now()})
		}
		if u.LoyaltyPoints != 1000 {
			t.Errorf("points = %d, want 1000", u.LoyaltyPoints)
		}
		if u.MembershipTier != model.TierPlatinum {
			t.Errorf("tier = %s, want platinum", u.MembershipTier)
		}
		if len(u.ActivityHistory) != 20 {
			t.Errorf("history = %d entries, want 20", len(u.ActivityHistory))
		}
	})

	t.Run("should never demote a tier", func(t *testing.T) {
		u, _ := model.NewUser("u-2", "Sam", "sam@example.com")
		u.MembershipTier = model.TierGold
		u.AddActivity(model.ActivityRecord{Activity: model.ActivityCornhole, Date: time.Now()})
		if u.MembershipTier != model.TierGold {
			t.Errorf("tier = %s, want gold preserved", u.MembershipTier)
		}
	})
}
