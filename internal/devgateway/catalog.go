package devgateway

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/soleshop/cart-sync/internal/domain/model"
)

// Catalog is the seeded product set the development gateway prices carts
// against. Stock bounds the quantity a cart may hold so the
// insufficient-stock rejection path can be exercised locally.
type Catalog struct {
	mu       sync.RWMutex
	products map[string]model.Product
}

// NewCatalog creates a catalog with the given products.
func NewCatalog(products []model.Product) *Catalog {
	c := &Catalog{products: make(map[string]model.Product, len(products))}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return c
}

// SeedProducts returns the default footwear catalog.
func SeedProducts() []model.Product {
	return []model.Product{
		{
			ID:         "prd-runner-001",
			Title:      "Velocity Street Runner",
			Price:      decimal.NewFromInt(1000),
			FinalPrice: decimal.NewFromInt(800),
			ImageURL:   "https://cdn.example.com/shoes/velocity-street-runner.jpg",
			Brand:      "Velocity",
			Size:       "42",
			Color:      "black",
			Condition:  "new",
			Stock:      25,
			Available:  true,
		},
		{
			ID:         "prd-trail-002",
			Title:      "Ridgeline Trail Pro",
			Price:      decimal.NewFromInt(2400),
			FinalPrice: decimal.NewFromInt(2150),
			ImageURL:   "https://cdn.example.com/shoes/ridgeline-trail-pro.jpg",
			Brand:      "Ridgeline",
			Size:       "43",
			Color:      "olive",
			Condition:  "new",
			Stock:      12,
			Available:  true,
		},
		{
			ID:        "prd-court-003",
			Title:     "Baseline Court Classic",
			Price:     decimal.NewFromInt(1800),
			ImageURL:  "https://cdn.example.com/shoes/baseline-court-classic.jpg",
			Brand:     "Baseline",
			Size:      "41",
			Color:     "white",
			Condition: "new",
			Stock:     3,
			Available: true,
		},
		{
			ID:         "prd-retro-004",
			Title:      "Heritage '84 Retro",
			Price:      decimal.NewFromInt(3200),
			FinalPrice: decimal.NewFromInt(2560),
			ImageURL:   "https://cdn.example.com/shoes/heritage-84-retro.jpg",
			Brand:      "Heritage",
			Size:       "44",
			Color:      "navy",
			Condition:  "refurbished",
			Stock:      6,
			Available:  true,
		},
	}
}

// Get returns a product by id.
func (c *Catalog) Get(productID string) (model.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[productID]
	return p, ok
}

// List returns all products.
func (c *Catalog) List() []model.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Product, 0, len(c.products))
	for _, p := range c.products {
		out = append(out, p)
	}
	return out
}

// Upsert adds or replaces a product. Tests use this to stage stock edge
// cases.
func (c *Catalog) Upsert(p model.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[p.ID] = p
}
