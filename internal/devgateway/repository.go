// Package devgateway is an in-process stub of the remote cart service. It
// implements the same five-operation wire contract the SDK consumes, with a
// seeded catalog and per-session carts, so storefront development and tests
// never need the production backend.
package devgateway

import (
	"context"
	"errors"
	"time"
)

// ErrCartNotFound is returned when no cart exists for a session.
var ErrCartNotFound = errors.New("cart not found")

// StoredItem is one line of a server-side cart. Prices are not stored: the
// gateway prices items from the catalog when it answers, the same way the
// production service joins cart rows against products.
type StoredItem struct {
	ProductID string    `bson:"product_id" json:"productId"`
	Quantity  int       `bson:"quantity" json:"quantity"`
	AddedAt   time.Time `bson:"added_at" json:"addedAt"`
}

// StoredCart is the authoritative cart for one session.
type StoredCart struct {
	SessionID string       `bson:"_id" json:"sessionId"`
	Items     []StoredItem `bson:"items" json:"items"`
	UpdatedAt time.Time    `bson:"updated_at" json:"updatedAt"`
}

// Item returns a pointer to the stored item with the given product id, or
// nil when absent.
func (c *StoredCart) Item(productID string) *StoredItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i]
		}
	}
	return nil
}

// RemoveItem deletes the item with the given product id. It reports
// whether an item was removed.
func (c *StoredCart) RemoveItem(productID string) bool {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

// CartRepository persists per-session carts. The in-memory implementation
// is the default; MongoDB is opt-in by configuration.
type CartRepository interface {
	// Get returns the cart for a session, or ErrCartNotFound.
	Get(ctx context.Context, sessionID string) (*StoredCart, error)
	// Save upserts a cart.
	Save(ctx context.Context, cart *StoredCart) error
	// Delete removes a session's cart. Deleting a missing cart is not an
	// error.
	Delete(ctx context.Context, sessionID string) error
}
