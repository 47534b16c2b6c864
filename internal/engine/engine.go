// Package engine orchestrates optimistic cart mutations: every
// user-initiated change applies to the local store instantly, then
// reconciles with the remote cart service, rolling back to the captured
// pre-mutation snapshot when the remote call fails.
package engine

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/soleshop/cart-sync/internal/domain/model"
	"github.com/soleshop/cart-sync/internal/gateway"
	"github.com/soleshop/cart-sync/internal/metrics"
	"github.com/soleshop/cart-sync/internal/store"
)

// Fallback messages surfaced when the remote side provides none. They match
// what the storefront shows in its failure toasts.
const (
	msgAddFailed    = "Failed to add"
	msgUpdateFailed = "Update failed"
	msgRemoveFailed = "Failed to remove"
	msgClearFailed  = "Failed to clear cart"
	msgLoadFailed   = "Failed to load cart"
)

// Option configures an Engine.
type Option func(*Engine)

// Engine is the only writer of the cart store. Mutations are safe to call
// from concurrent goroutines: local effects serialize through the store
// lock and always apply against the most recent local snapshot, while
// remote calls proceed independently.
type Engine struct {
	store   *store.Store
	gateway gateway.Gateway
	// seq numbers remote calls for the stale-response guard.
	seq atomic.Uint64
	// guardStale discards remote confirmations that arrive after a newer
	// one has already been applied. Off by default: without it the last
	// confirmation to arrive wins, which is the storefront's observed
	// behavior.
	guardStale bool
}

// New creates an Engine writing to st and reconciling through gw.
func New(st *store.Store, gw gateway.Gateway, opts ...Option) *Engine {
	e := &Engine{store: st, gateway: gw}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithStaleResponseGuard enables monotonic sequence tagging of remote
// calls: a confirmation older than the last applied one is discarded
// instead of overwriting newer state.
func WithStaleResponseGuard() Option {
	return func(e *Engine) {
		e.guardStale = true
	}
}

// Store exposes the underlying store for read access and subscriptions.
func (e *Engine) Store() *store.Store {
	return e.store
}

// Load fetches the authoritative cart and replaces the local snapshot.
// Called once at session start and whenever a view forces a refresh.
func (e *Engine) Load(ctx context.Context) error {
	if e.store.Closed() {
		return ErrSessionClosed
	}
	e.store.BeginOperation()
	defer e.store.EndOperation()

	seq := e.seq.Add(1)
	snapshot, err := e.gateway.FetchCart(ctx)
	if err != nil {
		metrics.RecordMutation("load", "error")
		log.Warn().Err(err).Msg("cart load failed")
		return remoteFailure(msgLoadFailed, err)
	}
	e.applyAuthoritative(snapshot, seq)
	metrics.RecordMutation("load", "success")
	return nil
}

// Add merges quantity units of product into the cart. The local effect is
// visible before the remote call is issued; a remote failure restores the
// pre-mutation snapshot and the returned error carries a user-displayable
// message.
func (e *Engine) Add(ctx context.Context, product model.Product, quantity int) error {
	if quantity < 1 {
		return validationf("quantity must be at least 1")
	}
	if product.ID == "" {
		return validationf("product id is required")
	}
	if e.store.Closed() {
		return ErrSessionClosed
	}

	current := e.store.Snapshot()
	if product.Stock > 0 {
		inCart := current.Items[product.ID].Quantity
		if inCart+quantity > product.Stock {
			return validationf("Only %d items available in stock", product.Stock)
		}
	}

	unit := product.EffectivePrice()
	reference := product.Price
	if reference.LessThan(unit) {
		reference = unit
	}

	e.store.BeginOperation()
	defer e.store.EndOperation()

	seq := e.seq.Add(1)
	prev := e.store.ApplyLocalPatch(func(s *model.CartSnapshot) {
		if existing, ok := s.Items[product.ID]; ok {
			existing.Quantity += quantity
			s.Items[product.ID] = existing
		} else {
			s.Items[product.ID] = model.LineItem{
				ProductID:      product.ID,
				Quantity:       quantity,
				UnitPrice:      unit,
				ReferencePrice: reference,
				Product:        product.Snapshot(),
			}
		}
		s.AuthoritativeTotal = s.AuthoritativeTotal.Add(unit.Mul(decimal.NewFromInt(int64(quantity))))
	})

	snapshot, err := e.gateway.AddItem(ctx, product.ID, quantity)
	if err != nil {
		e.rollback("add", prev, err)
		return remoteFailure(msgAddFailed, err)
	}
	e.applyAuthoritative(snapshot, seq)
	metrics.RecordMutation("add", "success")
	return nil
}

// Update sets the quantity of an existing line item. A quantity below 1 is
// rejected locally and never reaches the remote service; removal is a
// distinct operation.
func (e *Engine) Update(ctx context.Context, productID string, quantity int) error {
	if quantity < 1 {
		return validationf("quantity must be at least 1")
	}
	if e.store.Closed() {
		return ErrSessionClosed
	}
	if _, ok := e.store.Snapshot().Items[productID]; !ok {
		return validationf("item %q is not in the cart", productID)
	}

	e.store.BeginOperation()
	defer e.store.EndOperation()

	seq := e.seq.Add(1)
	prev := e.store.ApplyLocalPatch(func(s *model.CartSnapshot) {
		item, ok := s.Items[productID]
		if !ok {
			return
		}
		diff := int64(quantity - item.Quantity)
		item.Quantity = quantity
		s.Items[productID] = item
		s.AuthoritativeTotal = s.AuthoritativeTotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(diff)))
	})

	snapshot, err := e.gateway.UpdateItem(ctx, productID, quantity)
	if err != nil {
		e.rollback("update", prev, err)
		return remoteFailure(msgUpdateFailed, err)
	}
	e.applyAuthoritative(snapshot, seq)
	metrics.RecordMutation("update", "success")
	return nil
}

// Remove deletes a line item. On remote failure the snapshot is restored
// silently; the error is still returned for callers that opt in to
// surfacing it.
func (e *Engine) Remove(ctx context.Context, productID string) error {
	if e.store.Closed() {
		return ErrSessionClosed
	}
	if _, ok := e.store.Snapshot().Items[productID]; !ok {
		return validationf("item %q is not in the cart", productID)
	}

	e.store.BeginOperation()
	defer e.store.EndOperation()

	seq := e.seq.Add(1)
	prev := e.store.ApplyLocalPatch(func(s *model.CartSnapshot) {
		item, ok := s.Items[productID]
		if !ok {
			return
		}
		delete(s.Items, productID)
		s.AuthoritativeTotal = s.AuthoritativeTotal.Sub(item.LineTotal())
		s.RecentlyRemoved = &model.RemovedItem{LineItem: item, RemovedAt: time.Now()}
	})

	snapshot, err := e.gateway.RemoveItem(ctx, productID)
	if err != nil {
		e.rollback("remove", prev, err)
		return remoteFailure(msgRemoveFailed, err)
	}
	e.applyAuthoritative(snapshot, seq)
	metrics.RecordMutation("remove", "success")
	return nil
}

// Clear empties the cart. The applied coupon and the undo buffer are
// dropped with the items; the saved-for-later list survives.
func (e *Engine) Clear(ctx context.Context) error {
	if e.store.Closed() {
		return ErrSessionClosed
	}

	e.store.BeginOperation()
	defer e.store.EndOperation()

	seq := e.seq.Add(1)
	prev := e.store.ApplyLocalPatch(func(s *model.CartSnapshot) {
		s.Items = make(map[string]model.LineItem)
		s.AuthoritativeTotal = decimal.Zero
		s.Coupon = nil
		s.RecentlyRemoved = nil
	})

	snapshot, err := e.gateway.ClearCart(ctx)
	if err != nil {
		e.rollback("clear", prev, err)
		return remoteFailure(msgClearFailed, err)
	}
	e.applyAuthoritative(snapshot, seq)
	metrics.RecordMutation("clear", "success")
	return nil
}

// rollback restores the captured pre-mutation snapshot after a remote
// failure. No retries: the snapshot either reflects a fully applied
// optimistic mutation or the last known good state, never anything in
// between.
func (e *Engine) rollback(operation string, prev model.CartSnapshot, cause error) {
	e.store.Restore(prev)
	metrics.RecordMutation(operation, "error")
	metrics.RecordRollback(operation)
	metrics.SetCartItems(prev.ItemCount())
	log.Warn().Err(cause).Str("operation", operation).Msg("optimistic mutation rolled back")
}

// applyAuthoritative installs a server-confirmed snapshot, honoring the
// stale-response guard when enabled.
func (e *Engine) applyAuthoritative(snapshot model.CartSnapshot, seq uint64) {
	if e.guardStale {
		if !e.store.ReplaceIfNewer(snapshot, seq) {
			metrics.StaleResponsesTotal.Inc()
			log.Debug().Uint64("seq", seq).Msg("discarded stale cart confirmation")
			return
		}
	} else {
		e.store.Replace(snapshot)
	}
	metrics.SetCartItems(e.store.Snapshot().ItemCount())
}
