// Package gateway defines the client contract for the remote cart service
// and provides its HTTP implementation. The gateway is the only suspension
// point in the cart model: everything else is synchronous local state.
package gateway

import (
	"context"

	"github.com/soleshop/cart-sync/internal/domain/model"
)

// Gateway is the five-operation contract the cart core consumes. Every
// mutation returns the full post-mutation cart and its authoritative total,
// already normalized into the strict domain shape.
type Gateway interface {
	// FetchCart loads the authoritative cart for the current session.
	FetchCart(ctx context.Context) (model.CartSnapshot, error)
	// AddItem adds quantity units of a product to the cart.
	AddItem(ctx context.Context, productID string, quantity int) (model.CartSnapshot, error)
	// UpdateItem sets the quantity of an existing line item.
	UpdateItem(ctx context.Context, productID string, quantity int) (model.CartSnapshot, error)
	// RemoveItem deletes a line item.
	RemoveItem(ctx context.Context, productID string) (model.CartSnapshot, error)
	// ClearCart empties the cart.
	ClearCart(ctx context.Context) (model.CartSnapshot, error)
}
