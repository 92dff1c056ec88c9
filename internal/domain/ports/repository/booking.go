package repository

import (
	"context"
	"time"

	"paintball2go-backend/internal/domain/model"
)

// BookingListFilter narrows booking listings; zero values mean "any".
type BookingListFilter struct {
	Status    model.BookingStatus
	Activity  model.Activity
	UserID    string
	DateFrom  *time.Time
	DateTo    *time.Time
	Offset    int
	Limit     int
}

// BookingRepository is the port for booking persistence.
type BookingRepository interface {
	Save(ctx context.Context, tx Tx, b *model.Booking) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Booking, error)
	List(ctx context.Context, tx Tx, f BookingListFilter) ([]*model.Booking, error)
	Count(ctx context.Context, tx Tx, f BookingListFilter) (int, error)
}
