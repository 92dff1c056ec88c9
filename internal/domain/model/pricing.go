package model

import (
	"paintball2go-backend/internal/domain"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// AddOn is an extra charged alongside the base activity rate.
type AddOn struct {
	Name           string
	UnitPriceCents int64
	Quantity       int
}

// Discount reduces the running total. Percentage discounts take value as a
// whole percent (10 = 10%); fixed discounts take value in cents.
type Discount struct {
	Name  string
	Type  DiscountType
	Value int64
}

// PricingBreakdown is stored on the booking (and copied to the invoice)
// together with its inputs, so the quoted amount is auditable. It is never
// recomputed after creation unless explicitly re-triggered.
type PricingBreakdown struct {
	BasePriceCents  int64
	AddOns          []AddOn
	Discounts       []Discount
	AddOnTotalCents int64
	SubtotalCents   int64
	TotalCents      int64
}

// QuotePricing computes the price for an activity booking.
//
// Base price is rate × participants, except per-lane activities which charge
// rate × ceil(participants/LaneSize). Discounts apply sequentially in the
// order given; the final total never goes below zero.
//
// Inputs are assumed validated by the caller; an unknown activity or a
// non-positive participant count returns ErrInvalidArgument.
func QuotePricing(activity Activity, participants int, addOns []AddOn, discounts []Discount) (*PricingBreakdown, error) {
	if !activity.Valid() || participants < 1 {
		return nil, domain.ErrInvalidArgument
	}

	base := activity.RateCents() * int64(participants)
	if activity.PricedPerLane() {
		lanes := int64((participants + LaneSize - 1) / LaneSize)
		base = activity.RateCents() * lanes
	}

	var addOnTotal int64
	for _, a := range addOns {
		if a.UnitPriceCents < 0 || a.Quantity < 1 {
			return nil, domain.ErrInvalidArgument
		}
		addOnTotal += a.UnitPriceCents * int64(a.Quantity)
	}

	subtotal := base + addOnTotal
	total := subtotal
	for _, d := range discounts {
		switch d.Type {
		case DiscountPercentage:
			total -= total * d.Value / 100
		case DiscountFixed:
			total -= d.Value
		default:
			return nil, domain.ErrInvalidArgument
		}
	}
	if total < 0 {
		total = 0
	}

	return &PricingBreakdown{
		BasePriceCents:  base,
		AddOns:          addOns,
		Discounts:       discounts,
		AddOnTotalCents: addOnTotal,
		SubtotalCents:   subtotal,
		TotalCents:      total,
	}, nil
}

// SalesTaxPercent is applied when an invoice is issued for a quote.
const SalesTaxPercent = 6

// SalesTaxCents returns the tax line for an amount.
func SalesTaxCents(amountCents int64) int64 {
	return amountCents * SalesTaxPercent / 100
}
