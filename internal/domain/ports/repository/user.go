package repository

import (
	"context"

	"paintball2go-backend/internal/domain/model"
)

// UserRepository is the port for registered customers.
type UserRepository interface {
	Save(ctx context.Context, tx Tx, u *model.User) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
	FindByEmail(ctx context.Context, tx Tx, email string) (*model.User, error)

	// Recipient resolution for campaign dispatch. All three filter to active
	// users; ListOptedIn and ListByTags additionally require newsletter opt-in.
	ListOptedIn(ctx context.Context, tx Tx) ([]*model.User, error)
	ListByIDs(ctx context.Context, tx Tx, ids []string) ([]*model.User, error)
	ListByTags(ctx context.Context, tx Tx, tags []string) ([]*model.User, error)
}
