package model

import "github.com/shopspring/decimal"

// PromotionType distinguishes the supported discount rules.
type PromotionType string

const (
	// PromotionPercentage discounts a percentage of the subtotal,
	// optionally capped by MaxDiscount.
	PromotionPercentage PromotionType = "percentage"
	// PromotionFixed discounts a fixed amount, clamped to the subtotal.
	PromotionFixed PromotionType = "fixed"
)

// Promotion is a discount rule applied against the cart subtotal.
type Promotion struct {
	// Code is the coupon code the shopper entered, carried for display.
	Code string        `json:"code"`
	Type PromotionType `json:"type"`
	// Value is a percentage for PromotionPercentage, an amount for
	// PromotionFixed.
	Value decimal.Decimal `json:"value"`
	// MaxDiscount caps a percentage discount when positive.
	MaxDiscount decimal.Decimal `json:"maxDiscount,omitempty"`
	// MinimumPurchase is the subtotal required before the promotion
	// applies. Zero means no minimum.
	MinimumPurchase decimal.Decimal `json:"minimumPurchase,omitempty"`
}

// DerivedTotals is the pure output of the totals calculator. It is never
// stored durably; views recompute it from the current snapshot.
type DerivedTotals struct {
	// Subtotal is the sum of all line totals, rounded for display.
	Subtotal decimal.Decimal `json:"subtotal"`
	// Discount is the promotion amount, clamped to [0, subtotal].
	Discount decimal.Decimal `json:"discount"`
	// Shipping is zero at or above the free-shipping threshold.
	Shipping decimal.Decimal `json:"shipping"`
	// GrandTotal is round2(subtotal - discount + shipping), computed from
	// the unrounded intermediates.
	GrandTotal decimal.Decimal `json:"grandTotal"`
	// ItemCount is the total number of units in the cart.
	ItemCount int `json:"itemCount"`
	// Savings is the total reference-price savings across all items.
	Savings decimal.Decimal `json:"savings"`
}
