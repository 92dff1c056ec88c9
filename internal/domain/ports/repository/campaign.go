package repository

import (
	"context"

	"paintball2go-backend/internal/domain/model"
)

// CampaignRepository is the port for email campaigns and templates.
type CampaignRepository interface {
	Save(ctx context.Context, tx Tx, c *model.EmailCampaign) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.EmailCampaign, error)
	List(ctx context.Context, tx Tx, status model.CampaignStatus, offset, limit int) ([]*model.EmailCampaign, error)
}

type TemplateRepository interface {
	Save(ctx context.Context, tx Tx, t *model.EmailTemplate) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.EmailTemplate, error)
}
