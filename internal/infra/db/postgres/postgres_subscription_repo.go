package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"paintball2go-backend/internal/domain"
	"paintball2go-backend/internal/domain/model"
	"paintball2go-backend/internal/domain/ports/repository"
)

var _ repository.SubscriptionRepository = (*subscriptionRepo)(nil)

type subscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepo(pool *pgxpool.Pool) *subscriptionRepo {
	return &subscriptionRepo{pool: pool}
}

const subscriptionColumns = `id, user_id, tier, status, stripe_subscription_id, stripe_customer_id,
start_date, renewal_date, end_date, amount_cents, currency, billing_cycle, features, usage_metrics,
discounts, cancellation_reason, cancelled_at, trial_start, trial_end, created_at, updated_at`

func (r *subscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	usage, err := json.Marshal(s.Usage)
	if err != nil {
		return domain.ErrInvalidArgument
	}
	discounts, err := json.Marshal(s.Discounts)
	if err != nil {
		return domain.ErrInvalidArgument
	}

	const q = `
INSERT INTO subscriptions (id, user_id, tier, status, stripe_subscription_id, stripe_customer_id,
  start_date, renewal_date, end_date, amount_cents, currency, billing_cycle, features, usage_metrics,
  discounts, cancellation_reason, cancelled_at, trial_start, trial_end, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
ON CONFLICT (id) DO UPDATE SET
  tier=$3, status=$4, stripe_subscription_id=$5, stripe_customer_id=$6,
  renewal_date=$8, end_date=$9, amount_cents=$10, billing_cycle=$12, features=$13,
  usage_metrics=$14, discounts=$15, cancellation_reason=$16, cancelled_at=$17,
  trial_start=$18, trial_end=$19, updated_at=$21;`

	_, err = execSQL(ctx, r.pool, tx, q,
		s.ID, s.UserID, string(s.Tier), string(s.Status), s.StripeSubscriptionID, s.StripeCustomerID,
		s.StartDate, s.RenewalDate, s.EndDate, s.AmountCents, s.Currency, string(s.BillingCycle), s.Features, usage,
		discounts, s.CancellationReason, s.CancelledAt, s.TrialStart, s.TrialEnd, s.CreatedAt, s.UpdatedAt,
	)
	return mapSaveErr(err, domain.ErrActiveSubscriptionExists)
}

func (r *subscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	return r.queryOne(ctx, tx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE id=$1;`, id)
}

func (r *subscriptionRepo) FindActiveLikeByUser(ctx context.Context, tx repository.Tx, userID string) (*model.Subscription, error) {
	const q = `
SELECT ` + subscriptionColumns + `
  FROM subscriptions
 WHERE user_id=$1 AND status IN ('active','trialing','past_due')
 ORDER BY created_at DESC
 LIMIT 1;`
	return r.queryOne(ctx, tx, q, userID)
}

func (r *subscriptionRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Subscription, error) {
	const q = `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE user_id=$1 ORDER BY created_at DESC;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()
	var out []*model.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *subscriptionRepo) CountByTier(ctx context.Context, tx repository.Tx) (map[model.PlanTier]int, error) {
	const q = `
SELECT tier, COUNT(*)
  FROM subscriptions
 WHERE status IN ('active','trialing','past_due')
 GROUP BY tier;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()
	counts := make(map[model.PlanTier]int)
	for rows.Next() {
		var tier string
		var c int
		if err := rows.Scan(&tier, &c); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		counts[model.PlanTier(tier)] = c
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return counts, nil
}

func (r *subscriptionRepo) queryOne(ctx context.Context, tx repository.Tx, sql string, args ...any) (*model.Subscription, error) {
	row, err := pickRow(ctx, r.pool, tx, sql, args...)
	if err != nil {
		return nil, err
	}
	return scanSubscription(row)
}

func scanSubscription(row rowScanner) (*model.Subscription, error) {
	s := &model.Subscription{}
	var tier, status, cycle string
	var usage, discounts []byte
	if err := row.Scan(
		&s.ID, &s.UserID, &tier, &status, &s.StripeSubscriptionID, &s.StripeCustomerID,
		&s.StartDate, &s.RenewalDate, &s.EndDate, &s.AmountCents, &s.Currency, &cycle, &s.Features, &usage,
		&discounts, &s.CancellationReason, &s.CancelledAt, &s.TrialStart, &s.TrialEnd, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	s.Tier = model.PlanTier(tier)
	s.Status = model.SubscriptionStatus(status)
	s.BillingCycle = model.BillingCycle(cycle)
	if len(usage) > 0 {
		if err := json.Unmarshal(usage, &s.Usage); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
	}
	if len(discounts) > 0 {
		if err := json.Unmarshal(discounts, &s.Discounts); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
	}
	return s, nil
}
