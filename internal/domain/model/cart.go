// Package model defines the core domain entities for the cart sync engine.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductSnapshot holds denormalized display data captured at add-time.
// It is used only for rendering, never for price computation.
type ProductSnapshot struct {
	Title     string `json:"title"`
	ImageURL  string `json:"image,omitempty"`
	Brand     string `json:"brand,omitempty"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
	Condition string `json:"condition,omitempty"`
}

// LineItem is one product entry in the cart.
//
// Invariant: LineTotal() == UnitPrice * Quantity, and no two LineItems in a
// cart share a ProductID (repeated adds merge quantities instead).
type LineItem struct {
	// ProductID is the opaque catalog identifier, unique per line item.
	ProductID string `json:"productId"`
	// Quantity is always >= 1. The stock upper bound is enforced by the
	// caller at mutation time, not by the cart itself.
	Quantity int `json:"quantity"`
	// UnitPrice is the price actually charged per unit (post-discount).
	UnitPrice decimal.Decimal `json:"unitPrice"`
	// ReferencePrice is the pre-discount price, used only to display
	// savings. ReferencePrice >= UnitPrice.
	ReferencePrice decimal.Decimal `json:"referencePrice"`
	// Product is the display snapshot captured at add-time or refreshed
	// from the server.
	Product ProductSnapshot `json:"product"`

	// Revalidation flags, set when a catalog refresh disagrees with the
	// data captured at add-time.
	PriceChanged   bool            `json:"priceChanged,omitempty"`
	OldUnitPrice   decimal.Decimal `json:"oldUnitPrice,omitempty"`
	StockIssue     bool            `json:"stockIssue,omitempty"`
	AvailableStock int             `json:"availableStock,omitempty"`
	Unavailable    bool            `json:"unavailable,omitempty"`
}

// LineTotal returns UnitPrice * Quantity.
func (li LineItem) LineTotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Savings returns (ReferencePrice - UnitPrice) * Quantity.
func (li LineItem) Savings() decimal.Decimal {
	return li.ReferencePrice.Sub(li.UnitPrice).Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// SavedItem is a line item parked in the saved-for-later list.
type SavedItem struct {
	LineItem
	SavedAt time.Time `json:"savedAt"`
}

// RemovedItem is the most recently removed line item, kept around so the
// removal can be undone.
type RemovedItem struct {
	LineItem
	RemovedAt time.Time `json:"removedAt"`
}

// CartSnapshot is the complete local cart state at a point in time.
//
// It is created empty at session start, populated by an initial load from
// the remote gateway, and mutated exclusively through the mutation engine.
type CartSnapshot struct {
	// Items is the line-item set keyed by product id.
	Items map[string]LineItem `json:"items"`
	// AuthoritativeTotal is the last total confirmed by the remote cart
	// service. It may transiently diverge from the locally derived total
	// while optimistic mutations are in flight.
	AuthoritativeTotal decimal.Decimal `json:"authoritativeTotal"`
	// PendingOperations counts in-flight mutations and drives
	// loading-indicator semantics.
	PendingOperations int `json:"pendingOperations"`

	// Coupon is the currently applied promotion, if any.
	Coupon *Promotion `json:"coupon,omitempty"`
	// SavedForLater holds items parked outside the purchasable cart.
	SavedForLater []SavedItem `json:"savedForLater,omitempty"`
	// RecentlyRemoved buffers the last removed item for undo.
	RecentlyRemoved *RemovedItem `json:"recentlyRemoved,omitempty"`
	// ShippingFeeOverride replaces the configured shipping fee when a
	// non-default shipping method is selected.
	ShippingFeeOverride *decimal.Decimal `json:"shippingFeeOverride,omitempty"`

	LastUpdated time.Time `json:"lastUpdated,omitempty"`
}

// EmptyCart returns a snapshot with no items and zero totals.
func EmptyCart() CartSnapshot {
	return CartSnapshot{
		Items:              make(map[string]LineItem),
		AuthoritativeTotal: decimal.Zero,
	}
}

// ItemCount returns the total number of units across all line items.
func (c CartSnapshot) ItemCount() int {
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// Subtotal returns the sum of all line totals, unrounded.
func (c CartSnapshot) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range c.Items {
		sum = sum.Add(item.LineTotal())
	}
	return sum
}

// Clone returns a deep copy of the snapshot. Mutating the copy never
// affects the original.
func (c CartSnapshot) Clone() CartSnapshot {
	out := c
	out.Items = make(map[string]LineItem, len(c.Items))
	for id, item := range c.Items {
		out.Items[id] = item
	}
	if c.Coupon != nil {
		coupon := *c.Coupon
		out.Coupon = &coupon
	}
	if len(c.SavedForLater) > 0 {
		out.SavedForLater = make([]SavedItem, len(c.SavedForLater))
		copy(out.SavedForLater, c.SavedForLater)
	} else {
		out.SavedForLater = nil
	}
	if c.RecentlyRemoved != nil {
		removed := *c.RecentlyRemoved
		out.RecentlyRemoved = &removed
	}
	if c.ShippingFeeOverride != nil {
		fee := *c.ShippingFeeOverride
		out.ShippingFeeOverride = &fee
	}
	return out
}

// Equal reports whether two snapshots hold the same item set and totals.
// Display timestamps and the pending-operation count are ignored so a
// rolled-back snapshot compares equal to the pre-mutation one.
func (c CartSnapshot) Equal(other CartSnapshot) bool {
	if len(c.Items) != len(other.Items) {
		return false
	}
	for id, item := range c.Items {
		o, ok := other.Items[id]
		if !ok {
			return false
		}
		if item.ProductID != o.ProductID || item.Quantity != o.Quantity {
			return false
		}
		if !item.UnitPrice.Equal(o.UnitPrice) || !item.ReferencePrice.Equal(o.ReferencePrice) {
			return false
		}
	}
	return c.AuthoritativeTotal.Equal(other.AuthoritativeTotal)
}
