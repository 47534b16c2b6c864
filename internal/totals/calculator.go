// Package totals derives display totals (subtotal, discount, shipping,
// grand total) from a cart snapshot and an optional promotion. The
// calculation is pure: identical inputs always yield identical outputs.
package totals

import (
	"github.com/shopspring/decimal"

	"github.com/soleshop/cart-sync/internal/domain/model"
)

var (
	// DefaultFreeShippingThreshold is the subtotal at which shipping
	// becomes free.
	DefaultFreeShippingThreshold = decimal.NewFromInt(5000)
	// DefaultShippingFee is the flat fee charged below the threshold.
	DefaultShippingFee = decimal.NewFromInt(250)

	hundred = decimal.NewFromInt(100)
)

// Calculator defines the totals derivation contract.
type Calculator interface {
	Calculate(snapshot model.CartSnapshot) model.DerivedTotals
}

// Option configures a CalculatorService.
type Option func(*CalculatorService)

// CalculatorService implements Calculator with a configurable free-shipping
// threshold and flat shipping fee.
type CalculatorService struct {
	freeShippingThreshold decimal.Decimal
	shippingFee           decimal.Decimal
}

// NewCalculatorService creates a CalculatorService with the given options.
func NewCalculatorService(opts ...Option) *CalculatorService {
	s := &CalculatorService{
		freeShippingThreshold: DefaultFreeShippingThreshold,
		shippingFee:           DefaultShippingFee,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithFreeShippingThreshold sets the subtotal at which shipping is waived.
func WithFreeShippingThreshold(threshold decimal.Decimal) Option {
	return func(s *CalculatorService) {
		s.freeShippingThreshold = threshold
	}
}

// WithShippingFee sets the flat shipping fee charged below the threshold.
func WithShippingFee(fee decimal.Decimal) Option {
	return func(s *CalculatorService) {
		s.shippingFee = fee
	}
}

// Calculate derives totals from the snapshot's items, its applied coupon
// and its shipping-fee override.
//
// The grand total is computed from the unrounded subtotal and discount and
// rounded to two decimals only at the end; the displayed subtotal and
// discount are rounded independently so intermediate rounding never drifts
// into the grand total. An empty cart ships for free: there is nothing to
// deliver, so no fee applies.
func (s *CalculatorService) Calculate(snapshot model.CartSnapshot) model.DerivedTotals {
	subtotal := decimal.Zero
	savings := decimal.Zero
	itemCount := 0
	for _, item := range snapshot.Items {
		subtotal = subtotal.Add(item.LineTotal())
		savings = savings.Add(item.Savings())
		itemCount += item.Quantity
	}

	discount := discountFor(snapshot.Coupon, subtotal)
	shipping := s.shippingFor(subtotal, snapshot.ShippingFeeOverride, itemCount)

	return model.DerivedTotals{
		Subtotal:   subtotal.Round(2),
		Discount:   discount.Round(2),
		Shipping:   shipping.Round(2),
		GrandTotal: subtotal.Sub(discount).Add(shipping).Round(2),
		ItemCount:  itemCount,
		Savings:    savings.Round(2),
	}
}

// discountFor computes the promotion amount, clamped to [0, subtotal].
func discountFor(promo *model.Promotion, subtotal decimal.Decimal) decimal.Decimal {
	if promo == nil {
		return decimal.Zero
	}
	if promo.MinimumPurchase.IsPositive() && subtotal.LessThan(promo.MinimumPurchase) {
		return decimal.Zero
	}

	var discount decimal.Decimal
	switch promo.Type {
	case model.PromotionPercentage:
		discount = subtotal.Mul(promo.Value).Div(hundred)
		if promo.MaxDiscount.IsPositive() && discount.GreaterThan(promo.MaxDiscount) {
			discount = promo.MaxDiscount
		}
	case model.PromotionFixed:
		discount = promo.Value
	default:
		return decimal.Zero
	}

	if discount.IsNegative() {
		return decimal.Zero
	}
	if discount.GreaterThan(subtotal) {
		return subtotal
	}
	return discount
}

// shippingFor applies the free-shipping threshold, honoring a per-cart fee
// override when a non-default shipping method was chosen.
func (s *CalculatorService) shippingFor(subtotal decimal.Decimal, override *decimal.Decimal, itemCount int) decimal.Decimal {
	if itemCount == 0 {
		return decimal.Zero
	}
	if subtotal.GreaterThanOrEqual(s.freeShippingThreshold) {
		return decimal.Zero
	}
	if override != nil {
		return *override
	}
	return s.shippingFee
}
