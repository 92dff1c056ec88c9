package usecase

import (
	"context"

	"paintball2go-backend/internal/domain"
	"paintball2go-backend/internal/domain/model"
)

// PricingUseCase quotes activity pricing. The arithmetic itself is a pure
// function on the model; this layer owns caller-facing validation.
type PricingUseCase interface {
	Quote(ctx context.Context, activity model.Activity, participants int, addOns []model.AddOn, discounts []model.Discount) (*model.PricingBreakdown, error)
}

var _ PricingUseCase = (*pricingUC)(nil)

type pricingUC struct{}

func NewPricingUseCase() PricingUseCase { return &pricingUC{} }

// Quote validates the inputs and computes the breakdown. Invalid activity or
// participant count is a validation error raised here, not inside the
// calculator.
func (p *pricingUC) Quote(_ context.Context, activity model.Activity, participants int, addOns []model.AddOn, discounts []model.Discount) (*model.PricingBreakdown, error) {
	if !activity.Valid() {
		return nil, domain.ErrUnknownActivity
	}
	if participants < 1 {
		return nil, domain.ErrInvalidArgument
	}
	return model.QuotePricing(activity, participants, addOns, discounts)
}
