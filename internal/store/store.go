// Package store holds the single source of truth for the local cart state.
// All reads go through deep-copied snapshots; writes are reserved for the
// mutation engine. Every write notifies subscribed views.
package store

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/soleshop/cart-sync/internal/domain/model"
)

// Subscriber receives a copy of the snapshot after every completed write.
type Subscriber func(model.CartSnapshot)

// Store is the cart state container. The zero value is not usable; create
// instances with New. A Store is created at session start and torn down
// with Close at session end; it is never a package-level singleton.
type Store struct {
	mu       sync.Mutex
	snapshot model.CartSnapshot
	// lastSeq is the sequence number of the last applied authoritative
	// replacement, used to discard stale remote confirmations.
	lastSeq     uint64
	closed      bool
	subscribers map[int]Subscriber
	nextSubID   int
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		snapshot:    model.EmptyCart(),
		subscribers: make(map[int]Subscriber),
	}
}

// Snapshot returns a deep copy of the current state. It always reflects the
// most recent completed write.
func (s *Store) Snapshot() model.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot.Clone()
}

// Replace atomically swaps the item set and authoritative total, typically
// with the state returned by the remote cart service. State the server does
// not know about, such as the applied coupon, the saved-for-later list and
// the pending-operation count, is carried over from the current snapshot.
// Replace is a no-op after Close.
func (s *Store) Replace(snapshot model.CartSnapshot) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.carryLocalOnlyLocked(&snapshot)
	snapshot.LastUpdated = time.Now()
	s.snapshot = snapshot.Clone()
	subs, current := s.notifyLocked()
	s.mu.Unlock()

	dispatch(subs, current)
}

// ReplaceIfNewer swaps the snapshot only when seq is not older than the
// last applied replacement's sequence number. It returns false when the
// replacement was discarded as stale. Used by the mutation engine's
// stale-response guard.
func (s *Store) ReplaceIfNewer(snapshot model.CartSnapshot, seq uint64) bool {
	s.mu.Lock()
	if s.closed || seq < s.lastSeq {
		s.mu.Unlock()
		return false
	}
	s.lastSeq = seq
	s.carryLocalOnlyLocked(&snapshot)
	snapshot.LastUpdated = time.Now()
	s.snapshot = snapshot.Clone()
	subs, current := s.notifyLocked()
	s.mu.Unlock()

	dispatch(subs, current)
	return true
}

// ApplyLocalPatch applies a synchronous transform to the current snapshot
// and returns the previous snapshot for rollback capture. The transform
// receives a private copy, so it may mutate its argument freely.
func (s *Store) ApplyLocalPatch(patch func(*model.CartSnapshot)) model.CartSnapshot {
	s.mu.Lock()
	if s.closed {
		prev := s.snapshot.Clone()
		s.mu.Unlock()
		return prev
	}
	prev := s.snapshot.Clone()
	next := s.snapshot.Clone()
	patch(&next)
	next.LastUpdated = time.Now()
	s.snapshot = next
	subs, current := s.notifyLocked()
	s.mu.Unlock()

	dispatch(subs, current)
	return prev
}

// Restore reinstates a previously captured snapshot. It is the rollback
// path and deliberately bypasses the staleness guard: a restore always
// applies, even when guarded replacements have happened since.
func (s *Store) Restore(snapshot model.CartSnapshot) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	snapshot.PendingOperations = s.snapshot.PendingOperations
	s.snapshot = snapshot.Clone()
	subs, current := s.notifyLocked()
	s.mu.Unlock()

	dispatch(subs, current)
}

// BeginOperation increments the pending-operation counter.
func (s *Store) BeginOperation() {
	s.adjustPending(1)
}

// EndOperation decrements the pending-operation counter.
func (s *Store) EndOperation() {
	s.adjustPending(-1)
}

func (s *Store) adjustPending(delta int) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.snapshot.PendingOperations += delta
	if s.snapshot.PendingOperations < 0 {
		s.snapshot.PendingOperations = 0
	}
	subs, current := s.notifyLocked()
	s.mu.Unlock()

	dispatch(subs, current)
}

// Subscribe registers fn to be called after every write. The returned
// function unsubscribes it.
func (s *Store) Subscribe(fn Subscriber) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// Close tears the store down. Subsequent writes, including late remote
// confirmations from requests still in flight, become no-ops.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.subscribers = make(map[int]Subscriber)
	s.mu.Unlock()

	log.Debug().Msg("cart store closed")
}

// Closed reports whether the store has been torn down.
func (s *Store) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// carryLocalOnlyLocked copies client-side-only state from the current
// snapshot onto an incoming authoritative one.
func (s *Store) carryLocalOnlyLocked(snapshot *model.CartSnapshot) {
	snapshot.PendingOperations = s.snapshot.PendingOperations
	snapshot.Coupon = s.snapshot.Coupon
	snapshot.SavedForLater = s.snapshot.SavedForLater
	snapshot.RecentlyRemoved = s.snapshot.RecentlyRemoved
	snapshot.ShippingFeeOverride = s.snapshot.ShippingFeeOverride
}

// notifyLocked collects the current subscribers and snapshot while the lock
// is held. Subscribers run outside the lock so they may read the store
// without deadlocking.
func (s *Store) notifyLocked() ([]Subscriber, model.CartSnapshot) {
	if len(s.subscribers) == 0 {
		return nil, model.CartSnapshot{}
	}
	subs := make([]Subscriber, 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	return subs, s.snapshot.Clone()
}

func dispatch(subs []Subscriber, snapshot model.CartSnapshot) {
	for _, fn := range subs {
		fn(snapshot)
	}
}
