package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"paintball2go-backend/internal/domain"
	"paintball2go-backend/internal/domain/model"
	"paintball2go-backend/internal/domain/ports/repository"
)

var _ repository.TemplateRepository = (*templateRepo)(nil)

type templateRepo struct {
	pool *pgxpool.Pool
}

func NewTemplateRepo(pool *pgxpool.Pool) *templateRepo {
	return &templateRepo{pool: pool}
}

func (r *templateRepo) Save(ctx context.Context, tx repository.Tx, t *model.EmailTemplate) error {
	const q = `
INSERT INTO email_templates (id, name, subject, content, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (id) DO UPDATE SET
  name=$2, subject=$3, content=$4, updated_at=$6;`

	_, err := execSQL(ctx, r.pool, tx, q, t.ID, t.Name, t.Subject, t.Content, t.CreatedAt, t.UpdatedAt)
	return mapSaveErr(err, domain.ErrAlreadyExists)
}

func (r *templateRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.EmailTemplate, error) {
	const q = `SELECT id, name, subject, content, created_at, updated_at FROM email_templates WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	t := &model.EmailTemplate{}
	if err := row.Scan(&t.ID, &t.Name, &t.Subject, &t.Content, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return t, nil
}
