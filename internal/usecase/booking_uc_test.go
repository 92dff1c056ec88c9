//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"paintball2go-backend/internal/domain"
	"paintball2go-backend/internal/domain/model"
	"paintball2go-backend/internal/domain/ports/repository"
	"paintball2go-backend/internal/usecase"
)

type bookingFixture struct {
	uc       usecase.BookingUseCase
	bookings *MockBookingRepo
	waivers  *MockWaiverRepo
	users    *MockUserRepo
	invoices *MockInvoiceRepo
	mailer   *MockEmailSender
}

func newBookingFixture() *bookingFixture {
	f := &bookingFixture{
		bookings: NewMockBookingRepo(),
		waivers:  NewMockWaiverRepo(),
		users:    NewMockUserRepo(),
		invoices: NewMockInvoiceRepo(),
		mailer:   &MockEmailSender{},
	}
	invoiceUC := usecase.NewInvoiceUseCase(f.invoices, NewMockInvoiceSequenceRepo(), NewMockTxManager(), &MockPaymentGateway{}, f.mailer, newTestLogger())
	f.uc = usecase.NewBookingUseCase(f.bookings, f.waivers, f.users, usecase.NewPricingUseCase(), invoiceUC, f.mailer, newTestLogger())
	return f
}

func createInput(eventDate time.Time) usecase.CreateBookingInput {
	return usecase.CreateBookingInput{
		UserID:       "u-1",
		Activity:     model.ActivityPaintball,
		EventDate:    eventDate,
		StartTime:    "14:00",
		EndTime:      "16:00",
		Participants: 4,
		Customer:     model.CustomerInfo{Name: "Jordan Reyes", Email: "jordan@example.com", Phone: "555-0101"},
	}
}

func TestBookingUseCase_Create(t *testing.T) {
	ctx := context.Background()
	eventDate := time.Now().Add(72 * time.Hour)

	t.Run("should create a priced pending booking with a linked invoice", func(t *testing.T) {
		// Arrange
		f := newBookingFixture()

		// Act
		b, err := f.uc.Create(ctx, createInput(eventDate))

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if b.Status != model.BookingStatusPending {
			t.Errorf("status = %s, want pending", b.Status)
		}
		if b.Pricing.TotalCents != 10000 {
			t.Errorf("total = %d, want 10000", b.Pricing.TotalCents)
		}
		if b.InvoiceID == nil {
			t.Fatal("invoice not linked")
		}
		inv, err := f.invoices.FindByID(ctx, repository.NoTX, *b.InvoiceID)
		if err != nil {
			t.Fatalf("invoice lookup: %v", err)
		}
		if inv.BookingID == nil || *inv.BookingID != b.ID {
			t.Errorf("invoice booking id = %v, want %s", inv.BookingID, b.ID)
		}
		if inv.AmountCents != 10000 {
			t.Errorf("invoice amount = %d, want 10000", inv.AmountCents)
		}
	})

	t.Run("should flag a waiver on file when the customer holds one", func(t *testing.T) {
		// Arrange
		f := newBookingFixture()
		now := time.Now()
		_ = f.waivers.Save(ctx, repository.NoTX, &model.Waiver{
			ID:          "w-1",
			Participant: model.ParticipantInfo{Name: "Jordan Reyes", Email: "jordan@example.com"},
			Activities:  []model.Activity{model.ActivityPaintball},
			Status:      model.WaiverStatusActive,
			ExpiresAt:   now.AddDate(1, 0, 0),
		})

		// Act
		b, err := f.uc.Create(ctx, createInput(eventDate))

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !b.WaiverOnFile {
			t.Error("expected waiver flagged on file")
		}
	})

	t.Run("should not reject a booking without a waiver", func(t *testing.T) {
		f := newBookingFixture()
		b, err := f.uc.Create(ctx, createInput(eventDate))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if b.WaiverOnFile {
			t.Error("expected waiver flag false")
		}
	})

	t.Run("should survive an invoice issuance failure", func(t *testing.T) {
		f := newBookingFixture()
		f.invoices.SaveFunc = func(ctx context.Context, tx repository.Tx, inv *model.Invoice) error {
			return domain.ErrOperationFailed
		}
		b, err := f.uc.Create(ctx, createInput(eventDate))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if b.InvoiceID != nil {
			t.Error("expected no invoice link after issuance failure")
		}
	})
}

func TestBookingUseCase_Transitions(t *testing.T) {
	ctx := context.Background()
	eventDate := time.Now().Add(72 * time.Hour)

	t.Run("should reject starting a pending booking", func(t *testing.T) {
		f := newBookingFixture()
		b, _ := f.uc.Create(ctx, createInput(eventDate))

		_, err := f.uc.Start(ctx, b.ID, "staff-1")
		if !errors.Is(err, domain.ErrInvalidTransition) {
			t.Errorf("err = %v, want ErrInvalidTransition", err)
		}
	})

	t.Run("should award loyalty points on completion", func(t *testing.T) {
		// Arrange
		f := newBookingFixture()
		user, _ := model.NewUser("u-1", "Jordan Reyes", "jordan@example.com")
		_ = f.users.Save(ctx, repository.NoTX, user)
		b, _ := f.uc.Create(ctx, createInput(eventDate))

		// Act
		if _, err := f.uc.Confirm(ctx, b.ID, "staff-1"); err != nil {
			t.Fatalf("confirm: %v", err)
		}
		if _, err := f.uc.Start(ctx, b.ID, "staff-1"); err != nil {
			t.Fatalf("start: %v", err)
		}
		rating := 5
		done, err := f.uc.Complete(ctx, b.ID, "staff-1", &rating, "great day")

		// Assert
		if err != nil {
			t.Fatalf("complete: %v", err)
		}
		if done.Status != model.BookingStatusCompleted {
			t.Errorf("status = %s, want completed", done.Status)
		}
		got, _ := f.users.FindByID(ctx, repository.NoTX, "u-1")
		if got.LoyaltyPoints != model.ActivityPaintball.LoyaltyPoints() {
			t.Errorf("points = %d, want %d", got.LoyaltyPoints, model.ActivityPaintball.LoyaltyPoints())
		}
		if len(got.ActivityHistory) != 1 {
			t.Errorf("history = %d entries, want 1", len(got.ActivityHistory))
		}
	})

	t.Run("should not fail completion for a guest booking", func(t *testing.T) {
		f := newBookingFixture()
		in := createInput(eventDate)
		in.UserID = ""
		b, _ := f.uc.Create(ctx, in)
		_, _ = f.uc.Confirm(ctx, b.ID, "staff-1")
		_, _ = f.uc.Start(ctx, b.ID, "staff-1")
		if _, err := f.uc.Complete(ctx, b.ID, "staff-1", nil, ""); err != nil {
			t.Fatalf("complete: %v", err)
		}
	})

	t.Run("should mark payment refunded on refund", func(t *testing.T) {
		f := newBookingFixture()
		b, _ := f.uc.Create(ctx, createInput(eventDate))
		got, err := f.uc.Refund(ctx, b.ID, "staff-1")
		if err != nil {
			t.Fatalf("refund: %v", err)
		}
		if got.PaymentState != model.PaymentStateRefunded {
			t.Errorf("payment state = %s, want refunded", got.PaymentState)
		}
	})
}

func TestBookingUseCase_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("should cancel outside the window and record why", func(t *testing.T) {
		f := newBookingFixture()
		b, _ := f.uc.Create(ctx, createInput(time.Now().Add(72*time.Hour)))

		got, err := f.uc.Cancel(ctx, b.ID, "weather", "u-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Status != model.BookingStatusCancelled {
			t.Errorf("status = %s, want cancelled", got.Status)
		}
		if got.Cancellation == nil || got.Cancellation.Reason != "weather" {
			t.Errorf("cancellation = %+v, want reason recorded", got.Cancellation)
		}
	})

	t.Run("should refuse inside the 24h window", func(t *testing.T) {
		f := newBookingFixture()
		b, _ := f.uc.Create(ctx, createInput(time.Now().Add(12*time.Hour)))

		_, err := f.uc.Cancel(ctx, b.ID, "", "u-1")
		if !errors.Is(err, domain.ErrCancellationClosed) {
			t.Errorf("err = %v, want ErrCancellationClosed", err)
		}
		got, _ := f.bookings.FindByID(ctx, repository.NoTX, b.ID)
		if got.Status != model.BookingStatusPending {
			t.Errorf("status = %s, want pending untouched", got.Status)
		}
	})

	t.Run("should surface not found", func(t *testing.T) {
		f := newBookingFixture()
		_, err := f.uc.Cancel(ctx, "missing", "", "u-1")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}
