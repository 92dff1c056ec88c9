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

var _ repository.InvoiceRepository = (*invoiceRepo)(nil)

type invoiceRepo struct {
	pool *pgxpool.Pool
}

func NewInvoiceRepo(pool *pgxpool.Pool) *invoiceRepo {
	return &invoiceRepo{pool: pool}
}

const invoiceColumns = `id, user_id, booking_id, subscription_id, number, amount_cents, tax_cents, total_cents,
status, method, payment_intent_id, due_date, paid_at, description, line_items, customer, notes,
created_at, updated_at`

func (r *invoiceRepo) Save(ctx context.Context, tx repository.Tx, inv *model.Invoice) error {
	items, err := json.Marshal(inv.LineItems)
	if err != nil {
		return domain.ErrInvalidArgument
	}
	customer, err := json.Marshal(inv.Customer)
	if err != nil {
		return domain.ErrInvalidArgument
	}

	const q = `
INSERT INTO invoices (id, user_id, booking_id, subscription_id, number, amount_cents, tax_cents, total_cents,
  status, method, payment_intent_id, due_date, paid_at, description, line_items, customer, notes,
  created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
ON CONFLICT (id) DO UPDATE SET
  status=$9, method=$10, payment_intent_id=$11, due_date=$12, paid_at=$13,
  notes=$17, updated_at=$19;`

	_, err = execSQL(ctx, r.pool, tx, q,
		inv.ID, inv.UserID, inv.BookingID, inv.SubscriptionID, inv.Number, inv.AmountCents, inv.TaxCents, inv.TotalCents,
		string(inv.Status), string(inv.Method), inv.PaymentIntentID, inv.DueDate, inv.PaidAt, inv.Description, items, customer, inv.Notes,
		inv.CreatedAt, inv.UpdatedAt,
	)
	return mapSaveErr(err, domain.ErrAlreadyExists)
}

func (r *invoiceRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Invoice, error) {
	return r.queryOne(ctx, tx, `SELECT `+invoiceColumns+` FROM invoices WHERE id=$1;`, id)
}

func (r *invoiceRepo) FindByNumber(ctx context.Context, tx repository.Tx, number string) (*model.Invoice, error) {
	return r.queryOne(ctx, tx, `SELECT `+invoiceColumns+` FROM invoices WHERE number=$1;`, number)
}

func (r *invoiceRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, offset, limit int) ([]*model.Invoice, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `SELECT ` + invoiceColumns + ` FROM invoices WHERE user_id=$1 ORDER BY created_at DESC OFFSET $2 LIMIT $3;`
	return r.queryMany(ctx, tx, q, userID, offset, limit)
}

func (r *invoiceRepo) ListOverdue(ctx context.Context, tx repository.Tx, cutoff time.Time) ([]*model.Invoice, error) {
	const q = `SELECT ` + invoiceColumns + ` FROM invoices WHERE status='sent' AND due_date IS NOT NULL AND due_date < $1 ORDER BY due_date;`
	return r.queryMany(ctx, tx, q, cutoff)
}

func (r *invoiceRepo) queryOne(ctx context.Context, tx repository.Tx, sql string, args ...any) (*model.Invoice, error) {
	row, err := pickRow(ctx, r.pool, tx, sql, args...)
	if err != nil {
		return nil, err
	}
	return scanInvoice(row)
}

func (r *invoiceRepo) queryMany(ctx context.Context, tx repository.Tx, sql string, args ...any) ([]*model.Invoice, error) {
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
	var out []*model.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func scanInvoice(row rowScanner) (*model.Invoice, error) {
	inv := &model.Invoice{}
	var status, method string
	var items, customer []byte
	if err := row.Scan(
		&inv.ID, &inv.UserID, &inv.BookingID, &inv.SubscriptionID, &inv.Number, &inv.AmountCents, &inv.TaxCents, &inv.TotalCents,
		&status, &method, &inv.PaymentIntentID, &inv.DueDate, &inv.PaidAt, &inv.Description, &items, &customer, &inv.Notes,
		&inv.CreatedAt, &inv.UpdatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	inv.Status = model.InvoiceStatus(status)
	inv.Method = model.PaymentMethod(method)
	if len(items) > 0 {
		if err := json.Unmarshal(items, &inv.LineItems); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
	}
	if len(customer) > 0 {
		if err := json.Unmarshal(customer, &inv.Customer); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
	}
	return inv, nil
}
