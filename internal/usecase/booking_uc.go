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

// CreateBookingInput carries everything needed to open a booking.
// UserID is empty for guest bookings.
type CreateBookingInput struct {
	UserID       string
	Activity     model.Activity
	EventDate    time.Time
	StartTime    string
	EndTime      string
	Participants int
	Customer     model.CustomerInfo
	AddOns       []model.AddOn
	Discounts    []model.Discount
	Notes        string
}

// BookingUseCase implements the booking lifecycle: creation with pricing and
// waiver flag, the status machine, the cancellation window, and loyalty
// awards on completion.
type BookingUseCase interface {
	Create(ctx context.Context, in CreateBookingInput) (*model.Booking, error)
	Get(ctx context.Context, id string) (*model.Booking, error)
	List(ctx context.Context, f repository.BookingListFilter) ([]*model.Booking, int, error)
	Confirm(ctx context.Context, id, authorID string) (*model.Booking, error)
	Start(ctx context.Context, id, authorID string) (*model.Booking, error)
	Complete(ctx context.Context, id, authorID string, rating *int, feedback string) (*model.Booking, error)
	Cancel(ctx context.Context, id, reason, cancelledBy string) (*model.Booking, error)
	Refund(ctx context.Context, id, authorID string) (*model.Booking, error)
}

var _ BookingUseCase = (*bookingUC)(nil)

type bookingUC struct {
	bookings repository.BookingRepository
	waivers  repository.WaiverRepository
	users    repository.UserRepository
	pricing  PricingUseCase
	invoices InvoiceUseCase
	mailer   adapter.EmailSender
	log      *zerolog.Logger
}

func NewBookingUseCase(
	bookings repository.BookingRepository,
	waivers repository.WaiverRepository,
	users repository.UserRepository,
	pricing PricingUseCase,
	invoices InvoiceUseCase,
	mailer adapter.EmailSender,
	logger *zerolog.Logger,
) BookingUseCase {
	return &bookingUC{
		bookings: bookings,
		waivers:  waivers,
		users:    users,
		pricing:  pricing,
		invoices: invoices,
		mailer:   mailer,
		log:      logger,
	}
}

// Create quotes pricing, records the waiver flag, persists the booking, and
// issues the linked invoice. The waiver check is a soft gate: a missing
// waiver sets the flag false but never rejects the booking — compliance is
// enforced at check-in, not here.
func (uc *bookingUC) Create(ctx context.Context, in CreateBookingInput) (*model.Booking, error) {
	breakdown, err := uc.pricing.Quote(ctx, in.Activity, in.Participants, in.AddOns, in.Discounts)
	if err != nil {
		return nil, err
	}

	b, err := model.NewBooking(uuid.NewString(), in.UserID, in.Activity, in.EventDate, in.StartTime, in.EndTime, in.Participants, in.Customer, breakdown)
	if err != nil {
		return nil, err
	}
	b.Notes = in.Notes

	if w, err := uc.waivers.FindValid(ctx, repository.NoTX, in.Customer.Email, in.UserID, in.Activity, time.Now()); err == nil && w != nil {
		b.WaiverOnFile = true
	}

	if err := uc.bookings.Save(ctx, repository.NoTX, b); err != nil {
		return nil, err
	}
	metrics.IncBooking(string(b.Activity), string(b.Status))
	metrics.AddBookingRevenue(string(b.Activity), b.Pricing.TotalCents)

	// The booking is the primary write; invoice issuance and the confirmation
	// email are secondary and never roll it back.
	inv, err := uc.invoices.CreateForBooking(ctx, b)
	if err != nil {
		uc.log.Error().Err(err).Str("booking_id", b.ID).Msg("failed to issue invoice for booking")
	} else {
		b.InvoiceID = &inv.ID
		if err := uc.bookings.Save(ctx, repository.NoTX, b); err != nil {
			uc.log.Error().Err(err).Str("booking_id", b.ID).Msg("failed to link invoice to booking")
		}
	}

	uc.notify(ctx, b, "Your booking request was received")
	return b, nil
}

func (uc *bookingUC) Get(ctx context.Context, id string) (*model.Booking, error) {
	return uc.bookings.FindByID(ctx, repository.NoTX, id)
}

func (uc *bookingUC) List(ctx context.Context, f repository.BookingListFilter) ([]*model.Booking, int, error) {
	items, err := uc.bookings.List(ctx, repository.NoTX, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := uc.bookings.Count(ctx, repository.NoTX, f)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Confirm moves the booking to confirmed and dispatches the confirmation
// email. Notification failure is logged, never propagated.
func (uc *bookingUC) Confirm(ctx context.Context, id, authorID string) (*model.Booking, error) {
	b, err := uc.transition(ctx, id, model.BookingStatusConfirmed, "Booking confirmed", authorID)
	if err != nil {
		return nil, err
	}
	uc.notify(ctx, b, fmt.Sprintf("Your %s booking on %s is confirmed", b.Activity, b.EventDate.Format("Jan 2, 2006")))
	return b, nil
}

func (uc *bookingUC) Start(ctx context.Context, id, authorID string) (*model.Booking, error) {
	return uc.transition(ctx, id, model.BookingStatusInProgress, "Event started", authorID)
}

// Complete finishes the booking and, for registered users, appends the
// activity-history entry and awards loyalty points. The loyalty update is a
// secondary write: its failure is logged, never rolled back into the booking.
func (uc *bookingUC) Complete(ctx context.Context, id, authorID string, rating *int, feedback string) (*model.Booking, error) {
	b, err := uc.transition(ctx, id, model.BookingStatusCompleted, "Event completed", authorID)
	if err != nil {
		return nil, err
	}

	if b.UserID != nil {
		user, err := uc.users.FindByID(ctx, repository.NoTX, *b.UserID)
		if err != nil {
			uc.log.Warn().Err(err).Str("booking_id", b.ID).Msg("loyalty update skipped: user not found")
			return b, nil
		}
		user.AddActivity(model.ActivityRecord{
			Activity: b.Activity,
			Date:     b.EventDate,
			Rating:   rating,
			Feedback: feedback,
		})
		if err := uc.users.Save(ctx, repository.NoTX, user); err != nil {
			uc.log.Error().Err(err).Str("user_id", user.ID).Msg("failed to persist loyalty update")
		}
	}
	return b, nil
}

// Cancel enforces the cancellation window: more than 24 hours before the
// event, and not already cancelled or completed. Violations surface to the
// caller, they are not silently ignored.
func (uc *bookingUC) Cancel(ctx context.Context, id, reason, cancelledBy string) (*model.Booking, error) {
	b, err := uc.bookings.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if !b.CanBeCancelled(now) {
		return nil, domain.ErrCancellationClosed
	}
	if reason == "" {
		reason = "Cancelled by user"
	}
	if err := b.Transition(model.BookingStatusCancelled, reason, cancelledBy); err != nil {
		return nil, err
	}
	b.Cancellation = &model.Cancellation{Reason: reason, CancelledBy: cancelledBy, CancelledAt: now}
	if err := uc.bookings.Save(ctx, repository.NoTX, b); err != nil {
		return nil, err
	}
	metrics.IncBooking(string(b.Activity), string(b.Status))
	return b, nil
}

func (uc *bookingUC) Refund(ctx context.Context, id, authorID string) (*model.Booking, error) {
	b, err := uc.transition(ctx, id, model.BookingStatusRefunded, "Booking refunded", authorID)
	if err != nil {
		return nil, err
	}
	b.PaymentState = model.PaymentStateRefunded
	if err := uc.bookings.Save(ctx, repository.NoTX, b); err != nil {
		return nil, err
	}
	return b, nil
}

// transition runs the status machine and persists the result, so every
// status change carries its timeline entry.
func (uc *bookingUC) transition(ctx context.Context, id string, to model.BookingStatus, details, authorID string) (*model.Booking, error) {
	b, err := uc.bookings.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if err := b.Transition(to, details, authorID); err != nil {
		return nil, err
	}
	if err := uc.bookings.Save(ctx, repository.NoTX, b); err != nil {
		return nil, err
	}
	metrics.IncBooking(string(b.Activity), string(b.Status))
	return b, nil
}

func (uc *bookingUC) notify(ctx context.Context, b *model.Booking, line string) {
	subject := fmt.Sprintf("Paintball 2 Go — booking %s", b.Reference)
	html := fmt.Sprintf("<p>Hi %s,</p><p>%s.</p><p>Reference: %s</p>", b.Customer.Name, line, b.Reference)
	if err := uc.mailer.Send(ctx, b.Customer.Email, subject, html); err != nil {
		uc.log.Warn().Err(err).Str("booking_id", b.ID).Msg("failed to send booking notification")
	}
}
