package gateway

import (
	"context"

	"github.com/soleshop/cart-sync/internal/circuitbreaker"
	"github.com/soleshop/cart-sync/internal/domain/model"
)

// BreakerGateway wraps a Gateway with circuit breaker protection so a
// flapping backend fails fast instead of tying up every mutation in a slow
// timeout. A breaker rejection surfaces as the same transient error class
// as any other remote failure, so the engine's rollback path is unchanged.
type BreakerGateway struct {
	inner   Gateway
	breaker *circuitbreaker.CircuitBreaker
}

// NewBreakerGateway wraps inner with the given breaker. A nil breaker gets
// the default gateway configuration.
func NewBreakerGateway(inner Gateway, breaker *circuitbreaker.CircuitBreaker) *BreakerGateway {
	if breaker == nil {
		breaker = circuitbreaker.New(circuitbreaker.DefaultConfig())
	}
	return &BreakerGateway{inner: inner, breaker: breaker}
}

// Breaker exposes the underlying breaker for health reporting.
func (g *BreakerGateway) Breaker() *circuitbreaker.CircuitBreaker {
	return g.breaker
}

func (g *BreakerGateway) execute(ctx context.Context, op string, fn func() (model.CartSnapshot, error)) (model.CartSnapshot, error) {
	var snapshot model.CartSnapshot
	err := g.breaker.Execute(ctx, func() error {
		var innerErr error
		snapshot, innerErr = fn()
		return innerErr
	})
	if err != nil {
		if err == circuitbreaker.ErrCircuitOpen {
			return model.CartSnapshot{}, &RemoteError{Op: op, Message: "Cart service temporarily unavailable", Err: err}
		}
		return model.CartSnapshot{}, err
	}
	return snapshot, nil
}

// FetchCart implements Gateway.
func (g *BreakerGateway) FetchCart(ctx context.Context) (model.CartSnapshot, error) {
	return g.execute(ctx, "fetch", func() (model.CartSnapshot, error) { return g.inner.FetchCart(ctx) })
}

// AddItem implements Gateway.
func (g *BreakerGateway) AddItem(ctx context.Context, productID string, quantity int) (model.CartSnapshot, error) {
	return g.execute(ctx, "add", func() (model.CartSnapshot, error) { return g.inner.AddItem(ctx, productID, quantity) })
}

// UpdateItem implements Gateway.
func (g *BreakerGateway) UpdateItem(ctx context.Context, productID string, quantity int) (model.CartSnapshot, error) {
	return g.execute(ctx, "update", func() (model.CartSnapshot, error) { return g.inner.UpdateItem(ctx, productID, quantity) })
}

// RemoveItem implements Gateway.
func (g *BreakerGateway) RemoveItem(ctx context.Context, productID string) (model.CartSnapshot, error) {
	return g.execute(ctx, "remove", func() (model.CartSnapshot, error) { return g.inner.RemoveItem(ctx, productID) })
}

// ClearCart implements Gateway.
func (g *BreakerGateway) ClearCart(ctx context.Context) (model.CartSnapshot, error) {
	return g.execute(ctx, "clear", func() (model.CartSnapshot, error) { return g.inner.ClearCart(ctx) })
}
