package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"paintball2go-backend/internal/domain"
	"paintball2go-backend/internal/domain/model"
	"paintball2go-backend/internal/domain/ports/repository"
)

var _ repository.PlanRepository = (*planRepo)(nil)

type planRepo struct {
	pool *pgxpool.Pool
}

func NewPlanRepo(pool *pgxpool.Pool) *planRepo {
	return &planRepo{pool: pool}
}

const planColumns = `id, tier, price_cents, billing_cycle, features, sessions_allowed, stripe_price_id, created_at`

func (r *planRepo) Save(ctx context.Context, tx repository.Tx, p *model.Plan) error {
	const q = `
INSERT INTO plans (id, tier, price_cents, billing_cycle, features, sessions_allowed, stripe_price_id, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET
  tier=$2, price_cents=$3, billing_cycle=$4, features=$5, sessions_allowed=$6, stripe_price_id=$7;`

	_, err := execSQL(ctx, r.pool, tx, q,
		p.ID, string(p.Tier), p.PriceCents, string(p.BillingCycle), p.Features, p.SessionsAllowed, p.StripePriceID, p.CreatedAt,
	)
	return mapSaveErr(err, domain.ErrAlreadyExists)
}

func (r *planRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Plan, error) {
	return r.queryOne(ctx, tx, `SELECT `+planColumns+` FROM plans WHERE id=$1;`, id)
}

func (r *planRepo) FindByTierAndCycle(ctx context.Context, tx repository.Tx, tier model.PlanTier, cycle model.BillingCycle) (*model.Plan, error) {
	const q = `SELECT ` + planColumns + ` FROM plans WHERE tier=$1 AND billing_cycle=$2 LIMIT 1;`
	return r.queryOne(ctx, tx, q, string(tier), string(cycle))
}

func (r *planRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Plan, error) {
	rows, err := queryRows(ctx, r.pool, tx, `SELECT `+planColumns+` FROM plans ORDER BY price_cents;`)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()
	var out []*model.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *planRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	// Refuse to delete a plan that live subscriptions still reference.
	const countSQL = `
SELECT COUNT(1) FROM subscriptions
WHERE tier = (SELECT tier FROM plans WHERE id=$1)
  AND status IN ('active','trialing','past_due');`
	row, err := pickRow(ctx, r.pool, tx, countSQL, id)
	if err != nil {
		return err
	}
	var cnt int
	if err := row.Scan(&cnt); err != nil {
		return domain.ErrReadDatabaseRow
	}
	if cnt > 0 {
		return fmt.Errorf("%w: %d live subscriptions on plan %s", domain.ErrConflict, cnt, id)
	}

	ct, err := execSQL(ctx, r.pool, tx, `DELETE FROM plans WHERE id=$1;`, id)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *planRepo) queryOne(ctx context.Context, tx repository.Tx, sql string, args ...any) (*model.Plan, error) {
	row, err := pickRow(ctx, r.pool, tx, sql, args...)
	if err != nil {
		return nil, err
	}
	return scanPlan(row)
}

func scanPlan(row rowScanner) (*model.Plan, error) {
	p := &model.Plan{}
	var tier, cycle string
	if err := row.Scan(&p.ID, &tier, &p.PriceCents, &cycle, &p.Features, &p.SessionsAllowed, &p.StripePriceID, &p.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	p.Tier = model.PlanTier(tier)
	p.BillingCycle = model.BillingCycle(cycle)
	return p, nil
}
