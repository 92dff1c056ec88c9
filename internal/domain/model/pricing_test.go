//go:build !integration

package model_test

import (
	"errors"
	"testing"

	"paintball2go-backend/internal/domain"
	"paintball2go-backend/internal/domain/model"
)

func TestQuotePricing(t *testing.T) {
	t.Run("should price per head with add-ons and sequential discounts", func(t *testing.T) {
		// Arrange
		addOns := []model.AddOn{{Name: "Rental vest", UnitPriceCents: 500, Quantity: 4}}
		discounts := []model.Discount{
			{Name: "Coupon", Type: model.DiscountFixed, Value: 1000},
			{Name: "Group", Type: model.DiscountPercentage, Value: 10},
		}

		// Act
		got, err := model.QuotePricing(model.ActivityPaintball, 4, addOns, discounts)

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.BasePriceCents != 10000 {
			t.Errorf("base = %d, want 10000", got.BasePriceCents)
		}
		if got.AddOnTotalCents != 2000 {
			t.Errorf("add-on total = %d, want 2000", got.AddOnTotalCents)
		}
		if got.SubtotalCents != 12000 {
			t.Errorf("subtotal = %d, want 12000", got.SubtotalCents)
		}
		// 12000 - 1000 = 11000, then -10% = 9900. Order matters.
		if got.TotalCents != 9900 {
			t.Errorf("total = %d, want 9900", got.TotalCents)
		}
	})

	t.Run("should round lanes up for per-lane activities", func(t *testing.T) {
		got, err := model.QuotePricing(model.ActivityAxeThrowing, 7, nil, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// 7 players need 2 lanes of 6.
		if got.BasePriceCents != 12000 {
			t.Errorf("base = %d, want 12000", got.BasePriceCents)
		}
	})

	t.Run("should charge one lane for exactly six players", func(t *testing.T) {
		got, err := model.QuotePricing(model.ActivityAxeThrowing, 6, nil, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.BasePriceCents != 6000 {
			t.Errorf("base = %d, want 6000", got.BasePriceCents)
		}
	})

	t.Run("should clamp the total at zero", func(t *testing.T) {
		discounts := []model.Discount{{Name: "Comp", Type: model.DiscountFixed, Value: 999999}}
		got, err := model.QuotePricing(model.ActivityGellyball, 1, nil, discounts)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.TotalCents != 0 {
			t.Errorf("total = %d, want 0", got.TotalCents)
		}
	})

	t.Run("should reject unknown activities", func(t *testing.T) {
		_, err := model.QuotePricing(model.Activity("laser-tag"), 4, nil, nil)
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("err = %v, want ErrInvalidArgument", err)
		}
	})

	t.Run("should reject non-positive participants", func(t *testing.T) {
		_, err := model.QuotePricing(model.ActivityPaintball, 0, nil, nil)
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("err = %v, want ErrInvalidArgument", err)
		}
	})

	t.Run("should reject malformed add-ons", func(t *testing.T) {
		addOns := []model.AddOn{{Name: "Bad", UnitPriceCents: 500, Quantity: 0}}
		_, err := model.QuotePricing(model.ActivityPaintball, 2, addOns, nil)
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("err = %v, want ErrInvalidArgument", err)
		}
	})
}

func TestSalesTaxCents(t *testing.T) {
	if got := model.SalesTaxCents(10000); got != 600 {
		t.Errorf("tax on 10000 = %d, want 600", got)
	}
	if got := model.SalesTaxCents(0); got != 0 {
		t.Errorf("tax on 0 = %d, want 0", got)
	}
}
