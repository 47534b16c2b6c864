//go:build !integration

package totals

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/soleshop/cart-sync/internal/domain/model"
)

func snapshotWith(items ...model.LineItem) model.CartSnapshot {
	s := model.EmptyCart()
	for _, item := range items {
		s.Items[item.ProductID] = item
	}
	return s
}

func line(id string, qty int, unit, reference float64) model.LineItem {
	return model.LineItem{
		ProductID:      id,
		Quantity:       qty,
		UnitPrice:      decimal.NewFromFloat(unit),
		ReferencePrice: decimal.NewFromFloat(reference),
	}
}

func TestCalculate_EmptyCart(t *testing.T) {
	calc := NewCalculatorService()
	got := calc.Calculate(model.EmptyCart())

	assert.True(t, got.Subtotal.IsZero())
	assert.True(t, got.Discount.IsZero())
	assert.True(t, got.Shipping.IsZero(), "an empty cart ships for free")
	assert.True(t, got.GrandTotal.IsZero())
	assert.Equal(t, 0, got.ItemCount)
}

func TestCalculate_PercentageCouponCappedByMaxDiscount(t *testing.T) {
	// Two items, subtotal 6000, 10% coupon capped at 300: discount is
	// min(600, 300) = 300 and shipping is free above the threshold.
	snapshot := snapshotWith(
		line("p1", 2, 2000, 2000),
		line("p2", 1, 2000, 2000),
	)
	snapshot.Coupon = &model.Promotion{
		Code:        "SAVE10",
		Type:        model.PromotionPercentage,
		Value:       decimal.NewFromInt(10),
		MaxDiscount: decimal.NewFromInt(300),
	}

	got := NewCalculatorService().Calculate(snapshot)

	assert.Equal(t, "6000.00", got.Subtotal.StringFixed(2))
	assert.Equal(t, "300.00", got.Discount.StringFixed(2))
	assert.Equal(t, "0.00", got.Shipping.StringFixed(2))
	assert.Equal(t, "5700.00", got.GrandTotal.StringFixed(2))
	assert.Equal(t, 3, got.ItemCount)
}

func TestCalculate_Discounts(t *testing.T) {
	tests := []struct {
		name         string
		snapshot     model.CartSnapshot
		coupon       *model.Promotion
		wantDiscount string
	}{
		{
			name:         "no coupon",
			snapshot:     snapshotWith(line("p1", 1, 1000, 1000)),
			wantDiscount: "0.00",
		},
		{
			name:     "percentage without cap",
			snapshot: snapshotWith(line("p1", 2, 1000, 1000)),
			coupon: &model.Promotion{
				Code:  "SAVE10",
				Type:  model.PromotionPercentage,
				Value: decimal.NewFromInt(10),
			},
			wantDiscount: "200.00",
		},
		{
			name:     "percentage below cap keeps computed amount",
			snapshot: snapshotWith(line("p1", 1, 1000, 1000)),
			coupon: &model.Promotion{
				Code:        "SAVE10",
				Type:        model.PromotionPercentage,
				Value:       decimal.NewFromInt(10),
				MaxDiscount: decimal.NewFromInt(300),
			},
			wantDiscount: "100.00",
		},
		{
			name:     "fixed amount",
			snapshot: snapshotWith(line("p1", 1, 1000, 1000)),
			coupon: &model.Promotion{
				Code:  "FLAT250",
				Type:  model.PromotionFixed,
				Value: decimal.NewFromInt(250),
			},
			wantDiscount: "250.00",
		},
		{
			name:     "fixed amount clamped to subtotal",
			snapshot: snapshotWith(line("p1", 1, 100, 100)),
			coupon: &model.Promotion{
				Code:  "FLAT250",
				Type:  model.PromotionFixed,
				Value: decimal.NewFromInt(250),
			},
			wantDiscount: "100.00",
		},
		{
			name:     "minimum purchase not met",
			snapshot: snapshotWith(line("p1", 1, 1000, 1000)),
			coupon: &model.Promotion{
				Code:            "BIG",
				Type:            model.PromotionPercentage,
				Value:           decimal.NewFromInt(10),
				MinimumPurchase: decimal.NewFromInt(2000),
			},
			wantDiscount: "0.00",
		},
		{
			name:     "negative value yields no discount",
			snapshot: snapshotWith(line("p1", 1, 1000, 1000)),
			coupon: &model.Promotion{
				Code:  "BROKEN",
				Type:  model.PromotionFixed,
				Value: decimal.NewFromInt(-50),
			},
			wantDiscount: "0.00",
		},
		{
			name:     "unknown type yields no discount",
			snapshot: snapshotWith(line("p1", 1, 1000, 1000)),
			coupon: &model.Promotion{
				Code:  "WAT",
				Type:  model.PromotionType("bogus"),
				Value: decimal.NewFromInt(10),
			},
			wantDiscount: "0.00",
		},
	}

	calc := NewCalculatorService()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.snapshot.Coupon = tt.coupon
			got := calc.Calculate(tt.snapshot)
			assert.Equal(t, tt.wantDiscount, got.Discount.StringFixed(2))
		})
	}
}

func TestCalculate_ShippingThreshold(t *testing.T) {
	tests := []struct {
		name         string
		subtotal     float64
		wantShipping string
	}{
		{name: "just below threshold", subtotal: 4999, wantShipping: "250.00"},
		{name: "at threshold", subtotal: 5000, wantShipping: "0.00"},
		{name: "above threshold", subtotal: 9000, wantShipping: "0.00"},
	}

	calc := NewCalculatorService()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.Calculate(snapshotWith(line("p1", 1, tt.subtotal, tt.subtotal)))
			assert.Equal(t, tt.wantShipping, got.Shipping.StringFixed(2))
		})
	}
}

func TestCalculate_ShippingFeeOverride(t *testing.T) {
	calc := NewCalculatorService()

	express := decimal.NewFromInt(500)
	snapshot := snapshotWith(line("p1", 1, 1000, 1000))
	snapshot.ShippingFeeOverride = &express

	got := calc.Calculate(snapshot)
	assert.Equal(t, "500.00", got.Shipping.StringFixed(2))
	assert.Equal(t, "1500.00", got.GrandTotal.StringFixed(2))

	// Above the threshold the override is moot: shipping is waived.
	snapshot = snapshotWith(line("p1", 1, 6000, 6000))
	snapshot.ShippingFeeOverride = &express
	got = calc.Calculate(snapshot)
	assert.Equal(t, "0.00", got.Shipping.StringFixed(2))
}

func TestCalculate_CustomOptions(t *testing.T) {
	calc := NewCalculatorService(
		WithFreeShippingThreshold(decimal.NewFromInt(100)),
		WithShippingFee(decimal.NewFromInt(15)),
	)

	got := calc.Calculate(snapshotWith(line("p1", 1, 50, 50)))
	assert.Equal(t, "15.00", got.Shipping.StringFixed(2))

	got = calc.Calculate(snapshotWith(line("p1", 2, 50, 50)))
	assert.Equal(t, "0.00", got.Shipping.StringFixed(2))
}

func TestCalculate_RoundsAtTheEnd(t *testing.T) {
	// Three units at 33.335 give an unrounded subtotal of 100.005. The
	// grand total must come from the unrounded intermediates, not from the
	// already-rounded display subtotal.
	snapshot := snapshotWith(line("p1", 3, 33.335, 33.335))
	snapshot.Coupon = &model.Promotion{
		Code:  "HALF",
		Type:  model.PromotionPercentage,
		Value: decimal.NewFromInt(50),
	}

	got := NewCalculatorService().Calculate(snapshot)

	assert.Equal(t, "100.01", got.Subtotal.StringFixed(2))
	assert.Equal(t, "50.00", got.Discount.StringFixed(2))
	// 100.005 - 50.0025 + 250 = 300.0025 -> 300.00
	assert.Equal(t, "300.00", got.GrandTotal.StringFixed(2))
}

func TestCalculate_Savings(t *testing.T) {
	got := NewCalculatorService().Calculate(snapshotWith(line("p1", 2, 800, 1000)))
	assert.Equal(t, "400.00", got.Savings.StringFixed(2))
}

func TestCalculate_IsPure(t *testing.T) {
	snapshot := snapshotWith(line("p1", 2, 800, 1000))
	snapshot.Coupon = &model.Promotion{
		Code:  "SAVE10",
		Type:  model.PromotionPercentage,
		Value: decimal.NewFromInt(10),
	}

	calc := NewCalculatorService()
	first := calc.Calculate(snapshot)
	second := calc.Calculate(snapshot)

	assert.Equal(t, first, second)
	assert.Equal(t, 2, snapshot.Items["p1"].Quantity, "input snapshot must not be mutated")
}
