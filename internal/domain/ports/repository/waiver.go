package repository

import (
	"context"
	"time"

	"paintball2go-backend/internal/domain/model"
)

// WaiverRepository is the port for liability waiver persistence.
type WaiverRepository interface {
	Save(ctx context.Context, tx Tx, w *model.Waiver) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Waiver, error)
	// FindValid returns a waiver matching (participant email OR owning user
	// id) that is active, unexpired at `now`, and covers the activity.
	FindValid(ctx context.Context, tx Tx, email, userID string, activity model.Activity, now time.Time) (*model.Waiver, error)
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.Waiver, error)
	// ExpireDue flips active waivers past their expiry to expired, returning
	// how many rows changed.
	ExpireDue(ctx context.Context, tx Tx, now time.Time) (int, error)
}
