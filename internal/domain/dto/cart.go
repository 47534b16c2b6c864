// Package dto defines the wire shapes exchanged with the remote cart
// service and normalizes them into strict domain models at the ingestion
// boundary. Every field on an inbound shape is treated as optional;
// malformed fields are defaulted or dropped here rather than propagated.
package dto

import (
	"github.com/shopspring/decimal"

	"github.com/soleshop/cart-sync/internal/domain/model"
)

// ProductInfo is the denormalized display payload attached to a wire item.
type ProductInfo struct {
	Title     string `json:"title,omitempty"`
	Image     string `json:"image,omitempty"`
	Brand     string `json:"brand,omitempty"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
	Condition string `json:"condition,omitempty"`
}

// CartItem is one line item as returned by the cart service. Prices travel
// as JSON numbers; they are converted to decimals during normalization.
type CartItem struct {
	ProductID  string       `json:"productId"`
	Quantity   int          `json:"quantity"`
	FinalPrice float64      `json:"finalPrice"`
	Price      float64      `json:"price,omitempty"`
	Product    *ProductInfo `json:"product,omitempty"`
}

// Cart is the item container inside a cart envelope.
type Cart struct {
	Items []CartItem `json:"items"`
}

// CartEnvelope is the full response shape shared by every cart operation:
// fetch, add, update, remove and clear all return the post-mutation cart
// and its authoritative total.
type CartEnvelope struct {
	Cart  *Cart   `json:"cart"`
	Total float64 `json:"total"`
}

// Normalize converts a wire envelope into a strict CartSnapshot.
//
// Defaulting rules: a missing cart yields an empty item set; items without a
// product id or with a non-positive quantity are dropped; a non-positive
// final price falls back to the reference price; a reference price below the
// final price is clamped up to it; duplicate product ids merge quantities so
// the snapshot never violates the uniqueness invariant.
func (e CartEnvelope) Normalize() model.CartSnapshot {
	snapshot := model.EmptyCart()
	snapshot.AuthoritativeTotal = decimal.NewFromFloat(e.Total)

	if e.Cart == nil {
		return snapshot
	}

	for _, item := range e.Cart.Items {
		if item.ProductID == "" || item.Quantity <= 0 {
			continue
		}

		unit := decimal.NewFromFloat(item.FinalPrice)
		reference := decimal.NewFromFloat(item.Price)
		if !unit.IsPositive() {
			unit = reference
		}
		if unit.IsNegative() {
			unit = decimal.Zero
		}
		if reference.LessThan(unit) {
			reference = unit
		}

		if existing, ok := snapshot.Items[item.ProductID]; ok {
			existing.Quantity += item.Quantity
			snapshot.Items[item.ProductID] = existing
			continue
		}

		line := model.LineItem{
			ProductID:      item.ProductID,
			Quantity:       item.Quantity,
			UnitPrice:      unit,
			ReferencePrice: reference,
		}
		if item.Product != nil {
			line.Product = model.ProductSnapshot{
				Title:     item.Product.Title,
				ImageURL:  item.Product.Image,
				Brand:     item.Product.Brand,
				Size:      item.Product.Size,
				Color:     item.Product.Color,
				Condition: item.Product.Condition,
			}
		}
		snapshot.Items[item.ProductID] = line
	}

	return snapshot
}

// FromSnapshot builds a wire envelope from a domain snapshot. Used by the
// development gateway to answer with the same shape the production cart
// service produces.
func FromSnapshot(snapshot model.CartSnapshot) CartEnvelope {
	cart := &Cart{Items: make([]CartItem, 0, len(snapshot.Items))}
	for _, item := range snapshot.Items {
		cart.Items = append(cart.Items, CartItem{
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			FinalPrice: item.UnitPrice.InexactFloat64(),
			Price:      item.ReferencePrice.InexactFloat64(),
			Product: &ProductInfo{
				Title:     item.Product.Title,
				Image:     item.Product.ImageURL,
				Brand:     item.Product.Brand,
				Size:      item.Product.Size,
				Color:     item.Product.Color,
				Condition: item.Product.Condition,
			},
		})
	}
	return CartEnvelope{
		Cart:  cart,
		Total: snapshot.Subtotal().InexactFloat64(),
	}
}
