package model

import (
	"fmt"
	"time"

	"paintball2go-backend/internal/domain"
)

type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

type PaymentMethod string

const (
	PaymentMethodCard    PaymentMethod = "card"
	PaymentMethodCashApp PaymentMethod = "cashapp"
	PaymentMethodCash    PaymentMethod = "cash"
	PaymentMethodCheck   PaymentMethod = "check"
)

type LineItem struct {
	Description    string
	Quantity       int
	UnitPriceCents int64
	TotalCents     int64
}

// Invoice bills a user for a booking or a subscription period. Once paid it
// is immutable except for notes.
type Invoice struct {
	ID              string
	UserID          string
	BookingID       *string
	SubscriptionID  *string
	Number          string // INV-YYYYMM-NNNN, globally unique
	AmountCents     int64
	TaxCents        int64
	TotalCents      int64 // AmountCents + TaxCents
	Status          InvoiceStatus
	Method          PaymentMethod
	PaymentIntentID *string
	DueDate         *time.Time
	PaidAt          *time.Time
	Description     string
	LineItems       []LineItem
	Customer        CustomerInfo
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// FormatInvoiceNumber renders the human-readable monthly sequence number.
func FormatInvoiceNumber(at time.Time, seq int64) string {
	return fmt.Sprintf("INV-%04d%02d-%04d", at.Year(), int(at.Month()), seq)
}

// NewInvoice validates and constructs a draft invoice. The tax line is
// derived from the amount at the configured sales tax rate.
func NewInvoice(id, userID, number, description string, amountCents int64, items []LineItem, customer CustomerInfo) (*Invoice, error) {
	if id == "" || userID == "" || number == "" || description == "" || amountCents < 0 {
		return nil, domain.ErrInvalidArgument
	}
	for _, it := range items {
		if it.Description == "" || it.Quantity < 1 || it.UnitPriceCents < 0 {
			return nil, domain.ErrInvalidArgument
		}
	}
	now := time.Now()
	tax := SalesTaxCents(amountCents)
	return &Invoice{
		ID:          id,
		UserID:      userID,
		Number:      number,
		AmountCents: amountCents,
		TaxCents:    tax,
		TotalCents:  amountCents + tax,
		Status:      InvoiceStatusDraft,
		Description: description,
		LineItems:   items,
		Customer:    customer,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Payable reports whether a payment intent may be created for the invoice.
func (i *Invoice) Payable() bool {
	switch i.Status {
	case InvoiceStatusSent, InvoiceStatusOverdue, InvoiceStatusDraft:
		return true
	default:
		return false
	}
}

// MarkPaid stamps the paid state. The presented intent id must match the one
// stored when the intent was created, so a confirmation can never settle the
// wrong invoice.
func (i *Invoice) MarkPaid(intentID string, method PaymentMethod, at time.Time) error {
	if i.Status == InvoiceStatusPaid {
		return domain.ErrInvoiceImmutable
	}
	if i.Status == InvoiceStatusCancelled {
		return domain.ErrInvoiceNotPayable
	}
	if i.PaymentIntentID == nil || *i.PaymentIntentID != intentID {
		return domain.ErrPaymentIntentMatch
	}
	i.Status = InvoiceStatusPaid
	i.Method = method
	i.PaidAt = &at
	i.UpdatedAt = at
	return nil
}

// Cancel is allowed from any non-paid state.
func (i *Invoice) Cancel(at time.Time) error {
	if i.Status == InvoiceStatusPaid {
		return domain.ErrInvoiceImmutable
	}
	i.Status = InvoiceStatusCancelled
	i.UpdatedAt = at
	return nil
}
