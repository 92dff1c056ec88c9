package model

import (
	"time"

	"paintball2go-backend/internal/domain"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive     SubscriptionStatus = "active"
	SubscriptionStatusTrialing   SubscriptionStatus = "trialing"
	SubscriptionStatusPastDue    SubscriptionStatus = "past_due"
	SubscriptionStatusIncomplete SubscriptionStatus = "incomplete"
	SubscriptionStatusCancelled  SubscriptionStatus = "cancelled"
)

// ActiveLikeStatuses are the states that count against the one-subscription-
// per-user rule.
var ActiveLikeStatuses = []SubscriptionStatus{
	SubscriptionStatusActive,
	SubscriptionStatusTrialing,
	SubscriptionStatusPastDue,
}

func (s SubscriptionStatus) ActiveLike() bool {
	for _, a := range ActiveLikeStatuses {
		if s == a {
			return true
		}
	}
	return false
}

type PlanTier string

// Plan tiers are ordered: basic < premium < enterprise.
const (
	PlanBasic      PlanTier = "basic"
	PlanPremium    PlanTier = "premium"
	PlanEnterprise PlanTier = "enterprise"
)

var planOrder = map[PlanTier]int{PlanBasic: 0, PlanPremium: 1, PlanEnterprise: 2}

func (p PlanTier) Valid() bool { _, ok := planOrder[p]; return ok }

type BillingCycle string

const (
	BillingMonthly BillingCycle = "monthly"
	BillingYearly  BillingCycle = "yearly"
)

// Plan is one purchasable recurring tier from the catalog.
type Plan struct {
	ID              string
	Tier            PlanTier
	PriceCents      int64
	BillingCycle    BillingCycle
	Features        []string
	SessionsAllowed int
	StripePriceID   string
	CreatedAt       time.Time
}

func (p *Plan) IsZero() bool { return p == nil || p.ID == "" }

// NewPlan validates and constructs a catalog plan.
func NewPlan(id string, tier PlanTier, priceCents int64, cycle BillingCycle, features []string, sessionsAllowed int) (*Plan, error) {
	if id == "" || !tier.Valid() || priceCents <= 0 || sessionsAllowed < 0 {
		return nil, domain.ErrInvalidArgument
	}
	if cycle != BillingMonthly && cycle != BillingYearly {
		return nil, domain.ErrInvalidArgument
	}
	return &Plan{
		ID:              id,
		Tier:            tier,
		PriceCents:      priceCents,
		BillingCycle:    cycle,
		Features:        features,
		SessionsAllowed: sessionsAllowed,
		CreatedAt:       time.Now(),
	}, nil
}

type UsageMetrics struct {
	SessionsUsed    int
	SessionsAllowed int
	LastSessionAt   *time.Time
}

type SubscriptionDiscount struct {
	Code      string
	Type      DiscountType
	Value     int64
	ExpiresAt *time.Time
}

// Subscription is one user's recurring plan instance. At most one
// subscription per user may be in an active-like status.
type Subscription struct {
	ID                   string
	UserID               string
	Tier                 PlanTier
	Status               SubscriptionStatus
	StripeSubscriptionID string
	StripeCustomerID     string
	StartDate            time.Time
	RenewalDate          time.Time
	EndDate              *time.Time
	AmountCents          int64
	Currency             string
	BillingCycle         BillingCycle
	Features             []string
	Usage                UsageMetrics
	Discounts            []SubscriptionDiscount
	CancellationReason   string
	CancelledAt          *time.Time
	TrialStart           *time.Time
	TrialEnd             *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// RenewalDateFor computes start+30d (monthly) or start+365d (yearly).
func RenewalDateFor(start time.Time, cycle BillingCycle) time.Time {
	if cycle == BillingYearly {
		return start.Add(365 * 24 * time.Hour)
	}
	return start.Add(30 * 24 * time.Hour)
}

// NewSubscription constructs an active subscription from a catalog plan.
func NewSubscription(id, userID string, plan *Plan, stripeSubID, stripeCustID string) (*Subscription, error) {
	if id == "" || userID == "" || plan.IsZero() {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Subscription{
		ID:                   id,
		UserID:               userID,
		Tier:                 plan.Tier,
		Status:               SubscriptionStatusActive,
		StripeSubscriptionID: stripeSubID,
		StripeCustomerID:     stripeCustID,
		StartDate:            now,
		RenewalDate:          RenewalDateFor(now, plan.BillingCycle),
		AmountCents:          plan.PriceCents,
		Currency:             "usd",
		BillingCycle:         plan.BillingCycle,
		Features:             plan.Features,
		Usage:                UsageMetrics{SessionsAllowed: plan.SessionsAllowed},
		CreatedAt:            now,
		UpdatedAt:            now,
	}, nil
}

// ChangePlan moves the subscription to a new catalog plan. Amount, features
// and allowance follow the plan; SessionsUsed deliberately survives the
// change, so usage persists across upgrades within the billing period.
func (s *Subscription) ChangePlan(plan *Plan, now time.Time) error {
	if plan.IsZero() {
		return domain.ErrInvalidArgument
	}
	s.Tier = plan.Tier
	s.AmountCents = plan.PriceCents
	s.Features = plan.Features
	s.Usage.SessionsAllowed = plan.SessionsAllowed
	if s.BillingCycle != plan.BillingCycle {
		s.BillingCycle = plan.BillingCycle
		s.RenewalDate = RenewalDateFor(s.StartDate, plan.BillingCycle)
	}
	s.UpdatedAt = now
	return nil
}

// RecordSession meters one usage session against the allowance.
func (s *Subscription) RecordSession(now time.Time) error {
	if !s.Status.ActiveLike() {
		return domain.ErrConflict
	}
	if s.Usage.SessionsAllowed > 0 && s.Usage.SessionsUsed >= s.Usage.SessionsAllowed {
		return domain.ErrUsageExhausted
	}
	s.Usage.SessionsUsed++
	s.Usage.LastSessionAt = &now
	s.UpdatedAt = now
	return nil
}

// Cancel stamps cancellation metadata and ends the term now. No proration.
func (s *Subscription) Cancel(reason string, now time.Time) {
	s.Status = SubscriptionStatusCancelled
	s.CancellationReason = reason
	s.CancelledAt = &now
	s.EndDate = &now
	s.UpdatedAt = now
}
