package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"paintball2go-backend/internal/domain"
	"paintball2go-backend/internal/domain/model"
	"paintball2go-backend/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*userRepo)(nil)

type userRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *userRepo {
	return &userRepo{pool: pool}
}

const userColumns = `id, name, email, phone, role, tags, newsletter, is_active, loyalty_points, membership_tier, activity_history, created_at, updated_at`

func (r *userRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	history, err := json.Marshal(u.ActivityHistory)
	if err != nil {
		return domain.ErrInvalidArgument
	}
	const q = `
INSERT INTO users (id, name, email, phone, role, tags, newsletter, is_active, loyalty_points, membership_tier, activity_history, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
ON CONFLICT (id) DO UPDATE SET
  name=$2, email=$3, phone=$4, role=$5, tags=$6, newsletter=$7, is_active=$8,
  loyalty_points=$9, membership_tier=$10, activity_history=$11, updated_at=$13;`

	_, err = execSQL(ctx, r.pool, tx, q,
		u.ID, u.Name, u.Email, u.Phone, u.Role, u.Tags, u.Newsletter, u.IsActive,
		u.LoyaltyPoints, string(u.MembershipTier), history, u.CreatedAt, u.UpdatedAt,
	)
	return mapSaveErr(err, domain.ErrAlreadyExists)
}

func (r *userRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	return r.queryOne(ctx, tx, `SELECT `+userColumns+` FROM users WHERE id=$1;`, id)
}

func (r *userRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.User, error) {
	return r.queryOne(ctx, tx, `SELECT `+userColumns+` FROM users WHERE email=$1;`, email)
}

func (r *userRepo) ListOptedIn(ctx context.Context, tx repository.Tx) ([]*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE is_active=true AND newsletter=true ORDER BY created_at;`
	return r.queryMany(ctx, tx, q)
}

func (r *userRepo) ListByIDs(ctx context.Context, tx repository.Tx, ids []string) ([]*model.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const q = `SELECT ` + userColumns + ` FROM users WHERE is_active=true AND id = ANY($1) ORDER BY created_at;`
	return r.queryMany(ctx, tx, q, ids)
}

func (r *userRepo) ListByTags(ctx context.Context, tx repository.Tx, tags []string) ([]*model.User, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	const q = `SELECT ` + userColumns + ` FROM users WHERE is_active=true AND newsletter=true AND tags && $1 ORDER BY created_at;`
	return r.queryMany(ctx, tx, q, tags)
}

func (r *userRepo) queryOne(ctx context.Context, tx repository.Tx, sql string, args ...any) (*model.User, error) {
	row, err := pickRow(ctx, r.pool, tx, sql, args...)
	if err != nil {
		return nil, err
	}
	return scanUser(row)
}

func (r *userRepo) queryMany(ctx context.Context, tx repository.Tx, sql string, args ...any) ([]*model.User, error) {
	rows, err := queryRows(ctx, r.pool, tx, sql, args...)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()
	var out []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*model.User, error) {
	u := &model.User{}
	var tier string
	var history []byte
	var created, updated time.Time
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Role, &u.Tags, &u.Newsletter, &u.IsActive, &u.LoyaltyPoints, &tier, &history, &created, &updated); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	u.MembershipTier = model.MembershipTier(tier)
	u.CreatedAt = created
	u.UpdatedAt = updated
	if len(history) > 0 {
		if err := json.Unmarshal(history, &u.ActivityHistory); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
	}
	return u, nil
}
