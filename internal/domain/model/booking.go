package model

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"paintball2go-backend/internal/domain"
)

type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "pending"
	BookingStatusConfirmed  BookingStatus = "confirmed"
	BookingStatusInProgress BookingStatus = "in-progress"
	BookingStatusCompleted  BookingStatus = "completed"
	BookingStatusCancelled  BookingStatus = "cancelled"
	BookingStatusRefunded   BookingStatus = "refunded"
)

type PaymentState string

const (
	PaymentStatePending  PaymentState = "pending"
	PaymentStatePartial  PaymentState = "partial"
	PaymentStatePaid     PaymentState = "paid"
	PaymentStateRefunded PaymentState = "refunded"
)

// CancellationWindow is how far ahead of the event a booking must be to be
// cancelled by the customer.
const CancellationWindow = 24 * time.Hour

type CustomerInfo struct {
	Name            string
	Email           string
	Phone           string
	Organization    string
	SpecialRequests string
}

// TimelineEntry is one append-only audit record of a status change.
type TimelineEntry struct {
	Event     string
	Timestamp time.Time
	Details   string
	AuthorID  string // empty for system transitions
}

type Cancellation struct {
	Reason      string
	CancelledBy string
	CancelledAt time.Time
}

// Booking is one timed activity reservation. Bookings are never physically
// deleted; terminal states are cancelled/refunded/completed.
type Booking struct {
	ID            string
	Reference     string // human-facing, e.g. PB2G-01J4...
	UserID        *string // nil for guest bookings
	Activity      Activity
	EventDate     time.Time
	StartTime     string // "14:00"
	EndTime       string // "16:00"
	Participants  int
	Customer      CustomerInfo
	Pricing       PricingBreakdown
	Status        BookingStatus
	PaymentState  PaymentState
	WaiverOnFile  bool
	Notes         string
	Timeline      []TimelineEntry
	Cancellation  *Cancellation
	InvoiceID     *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewBooking validates inputs and constructs a pending booking with a priced
// breakdown attached. userID may be empty for guest bookings.
func NewBooking(id, userID string, activity Activity, eventDate time.Time, startTime, endTime string, participants int, customer CustomerInfo, pricing *PricingBreakdown) (*Booking, error) {
	if id == "" || startTime == "" || endTime == "" || pricing == nil {
		return nil, domain.ErrInvalidArgument
	}
	if !activity.Valid() {
		return nil, domain.ErrUnknownActivity
	}
	if participants < 1 {
		return nil, domain.ErrInvalidArgument
	}
	if customer.Name == "" || customer.Email == "" || customer.Phone == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	b := &Booking{
		ID:           id,
		Reference:    NewBookingReference(now),
		Activity:     activity,
		EventDate:    eventDate,
		StartTime:    startTime,
		EndTime:      endTime,
		Participants: participants,
		Customer:     customer,
		Pricing:      *pricing,
		Status:       BookingStatusPending,
		PaymentState: PaymentStatePending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if userID != "" {
		b.UserID = &userID
	}
	return b, nil
}

// NewBookingReference returns a sortable human-facing booking reference.
func NewBookingReference(at time.Time) string {
	return fmt.Sprintf("PB2G-%s", ulid.MustNew(ulid.Timestamp(at), rand.Reader))
}

// legal status-machine edges; cancelled/refunded reachable from any
// non-terminal state.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:    {BookingStatusConfirmed, BookingStatusCancelled, BookingStatusRefunded},
	BookingStatusConfirmed:  {BookingStatusInProgress, BookingStatusCancelled, BookingStatusRefunded},
	BookingStatusInProgress: {BookingStatusCompleted, BookingStatusCancelled, BookingStatusRefunded},
	BookingStatusCompleted:  {BookingStatusRefunded},
	BookingStatusCancelled:  {},
	BookingStatusRefunded:   {},
}

// CanTransition reports whether the status machine permits the edge.
func (b *Booking) CanTransition(to BookingStatus) bool {
	for _, s := range bookingTransitions[b.Status] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition validates the edge, applies it, and appends the audit entry.
// This is the only way status should change on a persisted booking.
func (b *Booking) Transition(to BookingStatus, details, authorID string) error {
	if !b.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, b.Status, to)
	}
	b.Status = to
	b.UpdatedAt = time.Now()
	b.Timeline = append(b.Timeline, TimelineEntry{
		Event:     fmt.Sprintf("Status changed to %s", to),
		Timestamp: b.UpdatedAt,
		Details:   details,
		AuthorID:  authorID,
	})
	return nil
}

// CanBeCancelled is true iff the event is strictly more than
// CancellationWindow away and the booking is not already terminal.
func (b *Booking) CanBeCancelled(now time.Time) bool {
	if b.Status == BookingStatusCancelled || b.Status == BookingStatusCompleted {
		return false
	}
	return b.EventDate.Sub(now) > CancellationWindow
}
