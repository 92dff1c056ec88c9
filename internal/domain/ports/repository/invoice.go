package repository

import (
	"context"
	"time"

	"paintball2go-backend/internal/domain/model"
)

// InvoiceRepository is the port for invoice persistence. Invoice numbers are
// uniquely indexed by the store.
type InvoiceRepository interface {
	Save(ctx context.Context, tx Tx, inv *model.Invoice) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Invoice, error)
	FindByNumber(ctx context.Context, tx Tx, number string) (*model.Invoice, error)
	ListByUser(ctx context.Context, tx Tx, userID string, offset, limit int) ([]*model.Invoice, error)
	// ListOverdue returns sent invoices whose due date passed before cutoff.
	ListOverdue(ctx context.Context, tx Tx, cutoff time.Time) ([]*model.Invoice, error)
}

// InvoiceSequenceRepository hands out the per-month invoice sequence.
// NextSequence must be atomic: two concurrent calls in the same month must
// never observe the same value.
type InvoiceSequenceRepository interface {
	NextSequence(ctx context.Context, tx Tx, year int, month time.Month) (int64, error)
}
