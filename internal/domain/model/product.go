package model

import "github.com/shopspring/decimal"

// Product is the read-only catalog input consumed at add-time. It mirrors
// the shape supplied by the external catalog collaborator.
type Product struct {
	ID        string          `json:"_id"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	// FinalPrice is the discounted price. When zero it defaults to Price.
	FinalPrice decimal.Decimal `json:"finalPrice"`
	ImageURL   string          `json:"image,omitempty"`
	Brand      string          `json:"brand,omitempty"`
	Size       string          `json:"size,omitempty"`
	Color      string          `json:"color,omitempty"`
	Condition  string          `json:"condition,omitempty"`
	// Stock is the available quantity at mutation time.
	Stock int `json:"quantity"`
	// Available reports whether the product is still purchasable.
	Available bool `json:"isAvailable"`
}

// EffectivePrice returns FinalPrice when set and positive, otherwise Price.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.FinalPrice.IsPositive() {
		return p.FinalPrice
	}
	return p.Price
}

// Snapshot captures the display fields denormalized onto a line item.
func (p Product) Snapshot() ProductSnapshot {
	return ProductSnapshot{
		Title:     p.Title,
		ImageURL:  p.ImageURL,
		Brand:     p.Brand,
		Size:      p.Size,
		Color:     p.Color,
		Condition: p.Condition,
	}
}
