package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"paintball2go-backend/internal/domain"
	"paintball2go-backend/internal/domain/ports/repository"
)

var _ repository.InvoiceSequenceRepository = (*invoiceSequenceRepo)(nil)

// invoiceSequenceRepo hands out the monthly invoice sequence from a dedicated
// counter table. The upsert increments and returns in one statement, so two
// concurrent issuers can never observe the same value, with or without a
// surrounding transaction.
type invoiceSequenceRepo struct {
	pool *pgxpool.Pool
}

func NewInvoiceSequenceRepo(pool *pgxpool.Pool) *invoiceSequenceRepo {
	return &invoiceSequenceRepo{pool: pool}
}

func (r *invoiceSequenceRepo) NextSequence(ctx context.Context, tx repository.Tx, year int, month time.Month) (int64, error) {
	const q = `
INSERT INTO invoice_sequences (year, month, n)
VALUES ($1, $2, 1)
ON CONFLICT (year, month) DO UPDATE SET n = invoice_sequences.n + 1
RETURNING n;`

	row, err := pickRow(ctx, r.pool, tx, q, year, int(month))
	if err != nil {
		return 0, err
	}
	var n int64
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}
