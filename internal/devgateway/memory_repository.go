package devgateway

import (
	"context"
	"sync"
	"time"
)

// MemoryCartRepository keeps carts in a map. It is the default repository
// for development and tests.
type MemoryCartRepository struct {
	mu    sync.RWMutex
	carts map[string]*StoredCart
}

// NewMemoryCartRepository creates an empty in-memory repository.
func NewMemoryCartRepository() *MemoryCartRepository {
	return &MemoryCartRepository{carts: make(map[string]*StoredCart)}
}

// Get implements CartRepository.
func (r *MemoryCartRepository) Get(_ context.Context, sessionID string) (*StoredCart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cart, ok := r.carts[sessionID]
	if !ok {
		return nil, ErrCartNotFound
	}
	clone := *cart
	clone.Items = make([]StoredItem, len(cart.Items))
	copy(clone.Items, cart.Items)
	return &clone, nil
}

// Save implements CartRepository.
func (r *MemoryCartRepository) Save(_ context.Context, cart *StoredCart) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *cart
	clone.Items = make([]StoredItem, len(cart.Items))
	copy(clone.Items, cart.Items)
	clone.UpdatedAt = time.Now()
	r.carts[cart.SessionID] = &clone
	return nil
}

// Delete implements CartRepository.
func (r *MemoryCartRepository) Delete(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.carts, sessionID)
	return nil
}
