package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"paintball2go-backend/internal/domain"
	"paintball2go-backend/internal/domain/model"
	"paintball2go-backend/internal/domain/ports/repository"
)

var _ repository.CampaignRepository = (*campaignRepo)(nil)

type campaignRepo struct {
	pool *pgxpool.Pool
}

func NewCampaignRepo(pool *pgxpool.Pool) *campaignRepo {
	return &campaignRepo{pool: pool}
}

const campaignColumns = `id, name, subject, template_id, filter, status, scheduled_at, sent_at,
recipient_count, delivered_count, opened_count, clicked_count, failed_count, open_rate, click_rate,
created_by, created_at, updated_at`

func (r *campaignRepo) Save(ctx context.Context, tx repository.Tx, c *model.EmailCampaign) error {
	filter, err := json.Marshal(c.Filter)
	if err != nil {
		return domain.ErrInvalidArgument
	}

	const q = `
INSERT INTO campaigns (id, name, subject, template_id, filter, status, scheduled_at, sent_at,
  recipient_count, delivered_count, opened_count, clicked_count, failed_count, open_rate, click_rate,
  created_by, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
ON CONFLICT (id) DO UPDATE SET
  name=$2, subject=$3, template_id=$4, filter=$5, status=$6, scheduled_at=$7, sent_at=$8,
  recipient_count=$9, delivered_count=$10, opened_count=$11, clicked_count=$12, failed_count=$13,
  open_rate=$14, click_rate=$15, updated_at=$18;`

	_, err = execSQL(ctx, r.pool, tx, q,
		c.ID, c.Name, c.Subject, c.TemplateID, filter, string(c.Status), c.ScheduledAt, c.SentAt,
		c.RecipientCount, c.DeliveredCount, c.OpenedCount, c.ClickedCount, c.FailedCount, c.OpenRate, c.ClickRate,
		c.CreatedBy, c.CreatedAt, c.UpdatedAt,
	)
	return mapSaveErr(err, domain.ErrAlreadyExists)
}

func (r *campaignRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.EmailCampaign, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+campaignColumns+` FROM campaigns WHERE id=$1;`, id)
	if err != nil {
		return nil, err
	}
	return scanCampaign(row)
}

func (r *campaignRepo) List(ctx context.Context, tx repository.Tx, status model.CampaignStatus, offset, limit int) ([]*model.EmailCampaign, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `SELECT ` + campaignColumns + ` FROM campaigns`
	args := []any{}
	if status != "" {
		q += ` WHERE status=$1`
		args = append(args, string(status))
	}
	args = append(args, offset, limit)
	q += fmt.Sprintf(` ORDER BY created_at DESC OFFSET $%d LIMIT $%d;`, len(args)-1, len(args))

	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()
	var out []*model.EmailCampaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func scanCampaign(row rowScanner) (*model.EmailCampaign, error) {
	c := &model.EmailCampaign{}
	var status string
	var filter []byte
	if err := row.Scan(
		&c.ID, &c.Name, &c.Subject, &c.TemplateID, &filter, &status, &c.ScheduledAt, &c.SentAt,
		&c.RecipientCount, &c.DeliveredCount, &c.OpenedCount, &c.ClickedCount, &c.FailedCount, &c.OpenRate, &c.ClickRate,
		&c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	c.Status = model.CampaignStatus(status)
	if len(filter) > 0 {
		if err := json.Unmarshal(filter, &c.Filter); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
	}
	return c, nil
}
