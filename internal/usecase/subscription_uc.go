package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"paintball2go-backend/internal/domain"
	"paintball2go-backend/internal/domain/model"
	"paintball2go-backend/internal/domain/ports/repository"
	"paintball2go-backend/internal/infra/metrics"
)

// SubscribeInput selects a catalog plan for a user.
type SubscribeInput struct {
	UserID               string
	PlanID               string
	StripeSubscriptionID string
	StripeCustomerID     string
	TrialDays            int
}

// SubscriptionUseCase enforces the one-active-subscription-per-user rule and
// drives plan changes, usage metering, and cancellation.
type SubscriptionUseCase interface {
	Subscribe(ctx context.Context, in SubscribeInput) (*model.Subscription, error)
	Get(ctx context.Context, id string) (*model.Subscription, error)
	GetActiveForUser(ctx context.Context, userID string) (*model.Subscription, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Subscription, error)
	ChangePlan(ctx context.Context, id, planID string) (*model.Subscription, error)
	RecordSession(ctx context.Context, id string) (*model.Subscription, error)
	Cancel(ctx context.Context, id, reason string) (*model.Subscription, error)
	CountByTier(ctx context.Context) (map[model.PlanTier]int, error)

	Plans(ctx context.Context) ([]*model.Plan, error)
	CreatePlan(ctx context.Context, tier model.PlanTier, priceCents int64, cycle model.BillingCycle, features []string, sessionsAllowed int) (*model.Plan, error)
	DeletePlan(ctx context.Context, id string) error
}

var _ SubscriptionUseCase = (*subscriptionUC)(nil)

type subscriptionUC struct {
	subs     repository.SubscriptionRepository
	plans    repository.PlanRepository
	users    repository.UserRepository
	tx       repository.TransactionManager
	invoices InvoiceUseCase
	log      *zerolog.Logger
}

func NewSubscriptionUseCase(
	subs repository.SubscriptionRepository,
	plans repository.PlanRepository,
	users repository.UserRepository,
	tx repository.TransactionManager,
	invoices InvoiceUseCase,
	logger *zerolog.Logger,
) SubscriptionUseCase {
	return &subscriptionUC{subs: subs, plans: plans, users: users, tx: tx, invoices: invoices, log: logger}
}

// Subscribe creates the subscription inside a transaction holding a per-user
// advisory lock, so two concurrent attempts can never both pass the
// active-like check. An existing active, trialing, or past_due subscription
// rejects the request.
func (uc *subscriptionUC) Subscribe(ctx context.Context, in SubscribeInput) (*model.Subscription, error) {
	if in.UserID == "" || in.PlanID == "" {
		return nil, domain.ErrInvalidArgument
	}
	plan, err := uc.plans.FindByID(ctx, repository.NoTX, in.PlanID)
	if err != nil {
		return nil, err
	}

	var sub *model.Subscription
	err = uc.tx.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := lockKey(ctx, tx, hashToInt64(in.UserID)); err != nil {
			return err
		}
		existing, err := uc.subs.FindActiveLikeByUser(ctx, tx, in.UserID)
		if err != nil && err != domain.ErrNotFound {
			return err
		}
		if existing != nil {
			return domain.ErrActiveSubscriptionExists
		}

		sub, err = model.NewSubscription(uuid.NewString(), in.UserID, plan, in.StripeSubscriptionID, in.StripeCustomerID)
		if err != nil {
			return err
		}
		if in.TrialDays > 0 {
			now := sub.StartDate
			end := now.Add(time.Duration(in.TrialDays) * 24 * time.Hour)
			sub.Status = model.SubscriptionStatusTrialing
			sub.TrialStart = &now
			sub.TrialEnd = &end
		}
		return uc.subs.Save(ctx, tx, sub)
	})
	if err != nil {
		return nil, err
	}
	metrics.IncSubscription(string(sub.Tier), string(sub.Status))

	// First-period billing is secondary: a failed invoice never unwinds the
	// subscription, it is re-raised by staff.
	if sub.Status == model.SubscriptionStatusActive {
		customer := uc.customerInfo(ctx, in.UserID)
		if _, err := uc.invoices.CreateForSubscription(ctx, sub, customer); err != nil {
			uc.log.Error().Err(err).Str("subscription_id", sub.ID).Msg("failed to issue first-period invoice")
		}
	}
	return sub, nil
}

func (uc *subscriptionUC) Get(ctx context.Context, id string) (*model.Subscription, error) {
	return uc.subs.FindByID(ctx, repository.NoTX, id)
}

func (uc *subscriptionUC) GetActiveForUser(ctx context.Context, userID string) (*model.Subscription, error) {
	return uc.subs.FindActiveLikeByUser(ctx, repository.NoTX, userID)
}

func (uc *subscriptionUC) ListByUser(ctx context.Context, userID string) ([]*model.Subscription, error) {
	return uc.subs.ListByUser(ctx, repository.NoTX, userID)
}

func (uc *subscriptionUC) ChangePlan(ctx context.Context, id, planID string) (*model.Subscription, error) {
	sub, err := uc.subs.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if !sub.Status.ActiveLike() {
		return nil, domain.ErrConflict
	}
	plan, err := uc.plans.FindByID(ctx, repository.NoTX, planID)
	if err != nil {
		return nil, err
	}
	if err := sub.ChangePlan(plan, time.Now()); err != nil {
		return nil, err
	}
	if err := uc.subs.Save(ctx, repository.NoTX, sub); err != nil {
		return nil, err
	}
	metrics.IncSubscription(string(sub.Tier), "plan_changed")
	return sub, nil
}

func (uc *subscriptionUC) RecordSession(ctx context.Context, id string) (*model.Subscription, error) {
	sub, err := uc.subs.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if err := sub.RecordSession(time.Now()); err != nil {
		return nil, err
	}
	if err := uc.subs.Save(ctx, repository.NoTX, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (uc *subscriptionUC) Cancel(ctx context.Context, id, reason string) (*model.Subscription, error) {
	sub, err := uc.subs.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if sub.Status == model.SubscriptionStatusCancelled {
		return nil, domain.ErrConflict
	}
	sub.Cancel(reason, time.Now())
	if err := uc.subs.Save(ctx, repository.NoTX, sub); err != nil {
		return nil, err
	}
	metrics.IncSubscription(string(sub.Tier), string(sub.Status))
	return sub, nil
}

func (uc *subscriptionUC) CountByTier(ctx context.Context) (map[model.PlanTier]int, error) {
	return uc.subs.CountByTier(ctx, repository.NoTX)
}

func (uc *subscriptionUC) Plans(ctx context.Context) ([]*model.Plan, error) {
	return uc.plans.ListAll(ctx, repository.NoTX)
}

func (uc *subscriptionUC) CreatePlan(ctx context.Context, tier model.PlanTier, priceCents int64, cycle model.BillingCycle, features []string, sessionsAllowed int) (*model.Plan, error) {
	plan, err := model.NewPlan(uuid.NewString(), tier, priceCents, cycle, features, sessionsAllowed)
	if err != nil {
		return nil, err
	}
	if err := uc.plans.Save(ctx, repository.NoTX, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (uc *subscriptionUC) DeletePlan(ctx context.Context, id string) error {
	return uc.plans.Delete(ctx, repository.NoTX, id)
}

func (uc *subscriptionUC) customerInfo(ctx context.Context, userID string) model.CustomerInfo {
	user, err := uc.users.FindByID(ctx, repository.NoTX, userID)
	if err != nil {
		uc.log.Warn().Err(err).Str("user_id", userID).Msg("subscription billing without user record")
		return model.CustomerInfo{}
	}
	return model.CustomerInfo{Name: user.Name, Email: user.Email, Phone: user.Phone}
}
