package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"paintball2go-backend/internal/domain"
	"paintball2go-backend/internal/domain/model"
	"paintball2go-backend/internal/domain/ports/adapter"
	"paintball2go-backend/internal/domain/ports/repository"
	"paintball2go-backend/internal/infra/metrics"
)

// CreateInvoiceInput covers staff-raised invoices; booking and subscription
// invoices are issued through the dedicated helpers.
type CreateInvoiceInput struct {
	UserID      string
	Description string
	AmountCents int64
	LineItems   []model.LineItem
	Customer    model.CustomerInfo
	DueDate     *time.Time
}

// InvoiceUseCase issues sequential invoice numbers, tracks payment status,
// and drives the payment-intent flow against the gateway.
type InvoiceUseCase interface {
	Create(ctx context.Context, in CreateInvoiceInput) (*model.Invoice, error)
	CreateForBooking(ctx context.Context, b *model.Booking) (*model.Invoice, error)
	CreateForSubscription(ctx context.Context, s *model.Subscription, customer model.CustomerInfo) (*model.Invoice, error)
	Get(ctx context.Context, id string) (*model.Invoice, error)
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]*model.Invoice, error)
	// Send emails the invoice; the email is the point of the operation, so a
	// delivery failure fails the request and the invoice stays unsent.
	Send(ctx context.Context, id string) (*model.Invoice, error)
	CreatePaymentIntent(ctx context.Context, id string) (*model.Invoice, string, error)
	// ConfirmPayment settles the invoice only when intentID matches the one
	// stored at intent creation.
	ConfirmPayment(ctx context.Context, id, intentID string, method model.PaymentMethod) (*model.Invoice, error)
	HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error
	Cancel(ctx context.Context, id string) (*model.Invoice, error)
	UpdateNotes(ctx context.Context, id, notes string) (*model.Invoice, error)
	// MarkOverdueDue flips sent invoices past their due date; driven by the
	// scheduler, not by reads.
	MarkOverdueDue(ctx context.Context, now time.Time) (int, error)
}

var _ InvoiceUseCase = (*invoiceUC)(nil)

type invoiceUC struct {
	invoices repository.InvoiceRepository
	seq      repository.InvoiceSequenceRepository
	tx       repository.TransactionManager
	gateway  adapter.PaymentGateway
	mailer   adapter.EmailSender
	log      *zerolog.Logger
}

func NewInvoiceUseCase(
	invoices repository.InvoiceRepository,
	seq repository.InvoiceSequenceRepository,
	tx repository.TransactionManager,
	gateway adapter.PaymentGateway,
	mailer adapter.EmailSender,
	logger *zerolog.Logger,
) InvoiceUseCase {
	return &invoiceUC{invoices: invoices, seq: seq, tx: tx, gateway: gateway, mailer: mailer, log: logger}
}

// nextNumber reserves the next monthly sequence slot. The sequence repo
// increments a dedicated counter row atomically, so concurrent issuers in
// the same month can never collide on a number.
func (uc *invoiceUC) nextNumber(ctx context.Context, tx repository.Tx, at time.Time) (string, error) {
	seq, err := uc.seq.NextSequence(ctx, tx, at.Year(), at.Month())
	if err != nil {
		return "", err
	}
	return model.FormatInvoiceNumber(at, seq), nil
}

func (uc *invoiceUC) Create(ctx context.Context, in CreateInvoiceInput) (*model.Invoice, error) {
	now := time.Now()
	number, err := uc.nextNumber(ctx, repository.NoTX, now)
	if err != nil {
		return nil, err
	}
	inv, err := model.NewInvoice(uuid.NewString(), in.UserID, number, in.Description, in.AmountCents, in.LineItems, in.Customer)
	if err != nil {
		return nil, err
	}
	inv.DueDate = in.DueDate
	if err := uc.invoices.Save(ctx, repository.NoTX, inv); err != nil {
		return nil, err
	}
	metrics.IncInvoice("issued")
	return inv, nil
}

// CreateForBooking issues the invoice that accompanies a new booking. The
// quoted total becomes the invoice amount; line items mirror the breakdown.
func (uc *invoiceUC) CreateForBooking(ctx context.Context, b *model.Booking) (*model.Invoice, error) {
	items := []model.LineItem{{
		Description:    fmt.Sprintf("%s for %d participants", b.Activity, b.Participants),
		Quantity:       1,
		UnitPriceCents: b.Pricing.TotalCents,
		TotalCents:     b.Pricing.TotalCents,
	}}
	for _, a := range b.Pricing.AddOns {
		items = append(items, model.LineItem{
			Description:    a.Name,
			Quantity:       a.Quantity,
			UnitPriceCents: a.UnitPriceCents,
			TotalCents:     a.UnitPriceCents * int64(a.Quantity),
		})
	}

	owner := b.Customer.Email
	if b.UserID != nil {
		owner = *b.UserID
	}
	now := time.Now()
	number, err := uc.nextNumber(ctx, repository.NoTX, now)
	if err != nil {
		return nil, err
	}
	inv, err := model.NewInvoice(uuid.NewString(), owner, number, fmt.Sprintf("Booking %s", b.Reference), b.Pricing.TotalCents, items, b.Customer)
	if err != nil {
		return nil, err
	}
	inv.BookingID = &b.ID
	due := b.EventDate.Add(-model.CancellationWindow)
	if due.After(now) {
		inv.DueDate = &due
	}
	if err := uc.invoices.Save(ctx, repository.NoTX, inv); err != nil {
		return nil, err
	}
	metrics.IncInvoice("issued")
	return inv, nil
}

// CreateForSubscription bills one subscription period.
func (uc *invoiceUC) CreateForSubscription(ctx context.Context, s *model.Subscription, customer model.CustomerInfo) (*model.Invoice, error) {
	now := time.Now()
	number, err := uc.nextNumber(ctx, repository.NoTX, now)
	if err != nil {
		return nil, err
	}
	desc := fmt.Sprintf("%s plan (%s)", s.Tier, s.BillingCycle)
	items := []model.LineItem{{Description: desc, Quantity: 1, UnitPriceCents: s.AmountCents, TotalCents: s.AmountCents}}
	inv, err := model.NewInvoice(uuid.NewString(), s.UserID, number, desc, s.AmountCents, items, customer)
	if err != nil {
		return nil, err
	}
	inv.SubscriptionID = &s.ID
	inv.DueDate = &s.RenewalDate
	if err := uc.invoices.Save(ctx, repository.NoTX, inv); err != nil {
		return nil, err
	}
	metrics.IncInvoice("issued")
	return inv, nil
}

func (uc *invoiceUC) Get(ctx context.Context, id string) (*model.Invoice, error) {
	return uc.invoices.FindByID(ctx, repository.NoTX, id)
}

func (uc *invoiceUC) ListByUser(ctx context.Context, userID string, offset, limit int) ([]*model.Invoice, error) {
	return uc.invoices.ListByUser(ctx, repository.NoTX, userID, offset, limit)
}

func (uc *invoiceUC) Send(ctx context.Context, id string) (*model.Invoice, error) {
	inv, err := uc.invoices.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if inv.Status == model.InvoiceStatusPaid || inv.Status == model.InvoiceStatusCancelled {
		return nil, domain.ErrInvoiceNotPayable
	}

	subject := fmt.Sprintf("Invoice %s from Paintball 2 Go", inv.Number)
	html := fmt.Sprintf("<p>Hi %s,</p><p>Your invoice %s for $%.2f is ready.</p>", inv.Customer.Name, inv.Number, float64(inv.TotalCents)/100)
	if err := uc.mailer.Send(ctx, inv.Customer.Email, subject, html); err != nil {
		return nil, fmt.Errorf("%w: invoice email: %v", domain.ErrUpstream, err)
	}

	inv.Status = model.InvoiceStatusSent
	inv.UpdatedAt = time.Now()
	if err := uc.invoices.Save(ctx, repository.NoTX, inv); err != nil {
		return nil, err
	}
	metrics.IncInvoice("sent")
	return inv, nil
}

func (uc *invoiceUC) CreatePaymentIntent(ctx context.Context, id string) (*model.Invoice, string, error) {
	inv, err := uc.invoices.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, "", err
	}
	if !inv.Payable() {
		return nil, "", domain.ErrInvoiceNotPayable
	}
	intent, err := uc.gateway.CreateIntent(ctx, inv.TotalCents, "usd", map[string]string{
		"invoice_id":     inv.ID,
		"invoice_number": inv.Number,
	})
	if err != nil {
		return nil, "", fmt.Errorf("%w: create intent: %v", domain.ErrUpstream, err)
	}
	inv.PaymentIntentID = &intent.ID
	inv.UpdatedAt = time.Now()
	if err := uc.invoices.Save(ctx, repository.NoTX, inv); err != nil {
		return nil, "", err
	}
	return inv, intent.ClientSecret, nil
}

func (uc *invoiceUC) ConfirmPayment(ctx context.Context, id, intentID string, method model.PaymentMethod) (*model.Invoice, error) {
	inv, err := uc.invoices.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if err := inv.MarkPaid(intentID, method, time.Now()); err != nil {
		return nil, err
	}
	if err := uc.invoices.Save(ctx, repository.NoTX, inv); err != nil {
		return nil, err
	}
	metrics.IncInvoice("paid")
	metrics.AddInvoiceRevenue("usd", inv.TotalCents)
	return inv, nil
}

// HandleWebhook settles invoices from verified provider events. Unknown event
// types are acknowledged and dropped.
func (uc *invoiceUC) HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	event, err := uc.gateway.VerifyWebhook(payload, sigHeader)
	if err != nil {
		return fmt.Errorf("%w: webhook verification: %v", domain.ErrUnauthorized, err)
	}
	if event.Type != "payment_intent.succeeded" {
		return nil
	}
	invoiceID := event.Metadata["invoice_id"]
	if invoiceID == "" {
		uc.log.Warn().Str("intent_id", event.IntentID).Msg("webhook event without invoice metadata")
		return nil
	}
	_, err = uc.ConfirmPayment(ctx, invoiceID, event.IntentID, model.PaymentMethodCard)
	return err
}

func (uc *invoiceUC) Cancel(ctx context.Context, id string) (*model.Invoice, error) {
	inv, err := uc.invoices.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if err := inv.Cancel(time.Now()); err != nil {
		return nil, err
	}
	if inv.PaymentIntentID != nil {
		if err := uc.gateway.CancelIntent(ctx, *inv.PaymentIntentID); err != nil {
			uc.log.Warn().Err(err).Str("invoice_id", inv.ID).Msg("failed to cancel payment intent")
		}
	}
	if err := uc.invoices.Save(ctx, repository.NoTX, inv); err != nil {
		return nil, err
	}
	metrics.IncInvoice("cancelled")
	return inv, nil
}

// UpdateNotes is the one mutation allowed on paid invoices.
func (uc *invoiceUC) UpdateNotes(ctx context.Context, id, notes string) (*model.Invoice, error) {
	inv, err := uc.invoices.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	inv.Notes = notes
	inv.UpdatedAt = time.Now()
	if err := uc.invoices.Save(ctx, repository.NoTX, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (uc *invoiceUC) MarkOverdueDue(ctx context.Context, now time.Time) (int, error) {
	due, err := uc.invoices.ListOverdue(ctx, repository.NoTX, now)
	if err != nil {
		return 0, err
	}
	var n int
	for _, inv := range due {
		inv.Status = model.InvoiceStatusOverdue
		inv.UpdatedAt = now
		if err := uc.invoices.Save(ctx, repository.NoTX, inv); err != nil {
			uc.log.Error().Err(err).Str("invoice_id", inv.ID).Msg("failed to mark invoice overdue")
			continue
		}
		metrics.IncInvoice("overdue")
		n++
	}
	return n, nil
}
