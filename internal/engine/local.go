package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/soleshop/cart-sync/internal/domain/model"
	"github.com/soleshop/cart-sync/internal/metrics"
)

// Local-only operations. These never round-trip to the remote cart
// service: coupons, the saved-for-later list, the undo buffer and the
// shipping override live purely in the storefront session. They still go
// through the engine because the store accepts writes from nowhere else.

// ApplyCoupon validates and applies a promotion against the current
// subtotal.
func (e *Engine) ApplyCoupon(promo model.Promotion) error {
	if promo.Code == "" {
		return validationf("Invalid coupon code")
	}
	if e.store.Closed() {
		return ErrSessionClosed
	}

	subtotal := e.store.Snapshot().Subtotal()
	if promo.MinimumPurchase.IsPositive() && subtotal.LessThan(promo.MinimumPurchase) {
		return validationf("Minimum purchase of %s required", promo.MinimumPurchase.StringFixed(2))
	}

	e.store.ApplyLocalPatch(func(s *model.CartSnapshot) {
		s.Coupon = &promo
	})
	metrics.RecordMutation("apply_coupon", "success")
	return nil
}

// RemoveCoupon clears the applied promotion.
func (e *Engine) RemoveCoupon() {
	e.store.ApplyLocalPatch(func(s *model.CartSnapshot) {
		s.Coupon = nil
	})
}

// SaveForLater parks a cart item in the saved-for-later list.
func (e *Engine) SaveForLater(productID string) error {
	if e.store.Closed() {
		return ErrSessionClosed
	}
	if _, ok := e.store.Snapshot().Items[productID]; !ok {
		return validationf("item %q is not in the cart", productID)
	}

	e.store.ApplyLocalPatch(func(s *model.CartSnapshot) {
		item, ok := s.Items[productID]
		if !ok {
			return
		}
		delete(s.Items, productID)
		s.AuthoritativeTotal = s.AuthoritativeTotal.Sub(item.LineTotal())
		s.SavedForLater = append(s.SavedForLater, model.SavedItem{LineItem: item, SavedAt: time.Now()})
	})
	return nil
}

// MoveToCart returns a saved item to the purchasable cart, merging
// quantities if the product was re-added in the meantime.
func (e *Engine) MoveToCart(productID string) error {
	if e.store.Closed() {
		return ErrSessionClosed
	}

	found := false
	e.store.ApplyLocalPatch(func(s *model.CartSnapshot) {
		for i, saved := range s.SavedForLater {
			if saved.ProductID != productID {
				continue
			}
			found = true
			s.SavedForLater = append(s.SavedForLater[:i], s.SavedForLater[i+1:]...)
			if existing, ok := s.Items[productID]; ok {
				existing.Quantity += saved.Quantity
				s.Items[productID] = existing
			} else {
				s.Items[productID] = saved.LineItem
			}
			s.AuthoritativeTotal = s.AuthoritativeTotal.Add(saved.LineTotal())
			return
		}
	})
	if !found {
		return validationf("item %q is not saved for later", productID)
	}
	return nil
}

// RemoveFromSaved drops an item from the saved-for-later list.
func (e *Engine) RemoveFromSaved(productID string) {
	e.store.ApplyLocalPatch(func(s *model.CartSnapshot) {
		kept := s.SavedForLater[:0]
		for _, saved := range s.SavedForLater {
			if saved.ProductID != productID {
				kept = append(kept, saved)
			}
		}
		if len(kept) == 0 {
			s.SavedForLater = nil
		} else {
			s.SavedForLater = kept
		}
	})
}

// RestoreRemoved undoes the last removal, reinserting the buffered item
// into the local cart.
func (e *Engine) RestoreRemoved() error {
	if e.store.Closed() {
		return ErrSessionClosed
	}

	restored := false
	e.store.ApplyLocalPatch(func(s *model.CartSnapshot) {
		if s.RecentlyRemoved == nil {
			return
		}
		item := s.RecentlyRemoved.LineItem
		if existing, ok := s.Items[item.ProductID]; ok {
			existing.Quantity += item.Quantity
			s.Items[item.ProductID] = existing
		} else {
			s.Items[item.ProductID] = item
		}
		s.AuthoritativeTotal = s.AuthoritativeTotal.Add(item.LineTotal())
		s.RecentlyRemoved = nil
		restored = true
	})
	if !restored {
		return validationf("nothing to restore")
	}
	return nil
}

// SetShippingFee overrides the configured shipping fee for this cart, used
// when the shopper picks a non-default shipping method.
func (e *Engine) SetShippingFee(fee decimal.Decimal) {
	e.store.ApplyLocalPatch(func(s *model.CartSnapshot) {
		s.ShippingFeeOverride = &fee
	})
}

// ClearShippingFee reverts to the configured shipping fee.
func (e *Engine) ClearShippingFee() {
	e.store.ApplyLocalPatch(func(s *model.CartSnapshot) {
		s.ShippingFeeOverride = nil
	})
}

// Merge folds a guest cart into the current one at login, summing
// quantities for products present in both.
func (e *Engine) Merge(items []model.LineItem) {
	e.store.ApplyLocalPatch(func(s *model.CartSnapshot) {
		for _, item := range items {
			if item.ProductID == "" || item.Quantity < 1 {
				continue
			}
			if existing, ok := s.Items[item.ProductID]; ok {
				existing.Quantity += item.Quantity
				s.Items[item.ProductID] = existing
				s.AuthoritativeTotal = s.AuthoritativeTotal.Add(existing.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
			} else {
				s.Items[item.ProductID] = item
				s.AuthoritativeTotal = s.AuthoritativeTotal.Add(item.LineTotal())
			}
		}
	})
}

// Revalidate re-checks cart items against refreshed catalog data, flagging
// price changes, stock shortfalls and unavailable products so views can
// warn the shopper before checkout.
func (e *Engine) Revalidate(products []model.Product) {
	byID := make(map[string]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	e.store.ApplyLocalPatch(func(s *model.CartSnapshot) {
		for id, item := range s.Items {
			product, ok := byID[id]
			if !ok {
				continue
			}
			if !product.EffectivePrice().Equal(item.UnitPrice) {
				item.PriceChanged = true
				item.OldUnitPrice = item.UnitPrice
				item.UnitPrice = product.EffectivePrice()
				item.ReferencePrice = product.Price
			} else {
				item.PriceChanged = false
				item.OldUnitPrice = decimal.Zero
			}
			if product.Stock < item.Quantity {
				item.StockIssue = true
				item.AvailableStock = product.Stock
			} else {
				item.StockIssue = false
				item.AvailableStock = 0
			}
			item.Unavailable = !product.Available
			s.Items[id] = item
		}
	})
}
