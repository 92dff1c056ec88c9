package repository

import (
	"context"

	"paintball2go-backend/internal/domain/model"
)

// SubscriptionRepository is the port for user subscriptions.
type SubscriptionRepository interface {
	Save(ctx context.Context, tx Tx, s *model.Subscription) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Subscription, error)
	// FindActiveLikeByUser returns the user's subscription in any of the
	// active-like statuses (active, trialing, past_due), or ErrNotFound.
	FindActiveLikeByUser(ctx context.Context, tx Tx, userID string) (*model.Subscription, error)
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.Subscription, error)

	// CountByTier returns active-like subscription counts per plan tier.
	CountByTier(ctx context.Context, tx Tx) (map[model.PlanTier]int, error)
}

// PlanRepository is the port for the plan catalog.
type PlanRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Plan) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Plan, error)
	FindByTierAndCycle(ctx context.Context, tx Tx, tier model.PlanTier, cycle model.BillingCycle) (*model.Plan, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.Plan, error)
	Delete(ctx context.Context, tx Tx, id string) error
}
