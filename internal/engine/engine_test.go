//go:build !integration

package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soleshop/cart-sync/internal/domain/model"
	"github.com/soleshop/cart-sync/internal/gateway"
	"github.com/soleshop/cart-sync/internal/store"
)

const (
	testWait = 2 * time.Second
	testTick = 5 * time.Millisecond
)

// fakeGateway implements gateway.Gateway with injectable behavior per
// operation.
type fakeGateway struct {
	mu       sync.Mutex
	calls    []string
	fetchFn  func(ctx context.Context) (model.CartSnapshot, error)
	addFn    func(ctx context.Context, productID string, quantity int) (model.CartSnapshot, error)
	updateFn func(ctx context.Context, productID string, quantity int) (model.CartSnapshot, error)
	removeFn func(ctx context.Context, productID string) (model.CartSnapshot, error)
	clearFn  func(ctx context.Context) (model.CartSnapshot, error)
}

func (f *fakeGateway) record(op string) {
	f.mu.Lock()
	f.calls = append(f.calls, op)
	f.mu.Unlock()
}

func (f *fakeGateway) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeGateway) FetchCart(ctx context.Context) (model.CartSnapshot, error) {
	f.record("fetch")
	if f.fetchFn != nil {
		return f.fetchFn(ctx)
	}
	return model.EmptyCart(), nil
}

func (f *fakeGateway) AddItem(ctx context.Context, productID string, quantity int) (model.CartSnapshot, error) {
	f.record("add")
	if f.addFn != nil {
		return f.addFn(ctx, productID, quantity)
	}
	return model.EmptyCart(), nil
}

func (f *fakeGateway) UpdateItem(ctx context.Context, productID string, quantity int) (model.CartSnapshot, error) {
	f.record("update")
	if f.updateFn != nil {
		return f.updateFn(ctx, productID, quantity)
	}
	return model.EmptyCart(), nil
}

func (f *fakeGateway) RemoveItem(ctx context.Context, productID string) (model.CartSnapshot, error) {
	f.record("remove")
	if f.removeFn != nil {
		return f.removeFn(ctx, productID)
	}
	return model.EmptyCart(), nil
}

func (f *fakeGateway) ClearCart(ctx context.Context) (model.CartSnapshot, error) {
	f.record("clear")
	if f.clearFn != nil {
		return f.clearFn(ctx)
	}
	return model.EmptyCart(), nil
}

func runner(id string, price, finalPrice int64, stock int) model.Product {
	return model.Product{
		ID:         id,
		Title:      "Trail Runner",
		Price:      decimal.NewFromInt(price),
		FinalPrice: decimal.NewFromInt(finalPrice),
		Stock:      stock,
		Available:  true,
	}
}

// confirming returns a snapshot echoing the given item, the shape a healthy
// remote confirmation has.
func confirming(id string, qty int, unit int64) model.CartSnapshot {
	s := model.EmptyCart()
	s.Items[id] = model.LineItem{
		ProductID:      id,
		Quantity:       qty,
		UnitPrice:      decimal.NewFromInt(unit),
		ReferencePrice: decimal.NewFromInt(unit),
	}
	s.AuthoritativeTotal = decimal.NewFromInt(unit * int64(qty))
	return s
}

func seedCart(t *testing.T, e *Engine, id string, qty int, unit int64) {
	t.Helper()
	e.store.Replace(confirming(id, qty, unit))
}

func TestAdd_OptimisticEffectIsImmediate(t *testing.T) {
	st := store.New()
	release := make(chan struct{})
	gw := &fakeGateway{
		addFn: func(context.Context, string, int) (model.CartSnapshot, error) {
			<-release
			return confirming("p1", 2, 800), nil
		},
	}
	e := New(st, gw)

	done := make(chan error, 1)
	go func() {
		done <- e.Add(context.Background(), runner("p1", 1000, 800, 10), 2)
	}()

	// The local effect must be visible while the remote call is still in
	// flight.
	assert.Eventually(t, func() bool {
		item, ok := st.Snapshot().Items["p1"]
		return ok && item.Quantity == 2
	}, testWait, testTick)

	item := st.Snapshot().Items["p1"]
	assert.Equal(t, "800", item.UnitPrice.String())
	assert.Equal(t, "1600", item.LineTotal().String())
	assert.Equal(t, 1, st.Snapshot().PendingOperations)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 0, st.Snapshot().PendingOperations)
}

func TestAdd_MergesQuantityForExistingItem(t *testing.T) {
	st := store.New()
	gw := &fakeGateway{
		addFn: func(context.Context, string, int) (model.CartSnapshot, error) {
			return confirming("p1", 3, 800), nil
		},
	}
	e := New(st, gw)
	seedCart(t, e, "p1", 2, 800)

	require.NoError(t, e.Add(context.Background(), runner("p1", 1000, 800, 10), 1))

	got := st.Snapshot()
	assert.Len(t, got.Items, 1)
	assert.Equal(t, 3, got.Items["p1"].Quantity)
}

func TestAdd_RollsBackOnRemoteFailure(t *testing.T) {
	st := store.New()
	gw := &fakeGateway{
		addFn: func(context.Context, string, int) (model.CartSnapshot, error) {
			return model.CartSnapshot{}, &gateway.RemoteError{Op: "add", StatusCode: 500}
		},
	}
	e := New(st, gw)

	err := e.Add(context.Background(), runner("p1", 1000, 800, 10), 2)

	require.Error(t, err)
	assert.Equal(t, "Failed to add", err.Error())
	assert.Empty(t, st.Snapshot().Items, "failed add must leave no trace")
}

func TestAdd_SurfacesServerMessageOnFailure(t *testing.T) {
	st := store.New()
	gw := &fakeGateway{
		addFn: func(context.Context, string, int) (model.CartSnapshot, error) {
			return model.CartSnapshot{}, &gateway.RemoteError{
				Op:         "add",
				StatusCode: 409,
				Message:    "Only 3 items available in stock",
			}
		},
	}
	e := New(st, gw)

	err := e.Add(context.Background(), runner("p1", 1000, 800, 0), 5)

	require.Error(t, err)
	assert.Equal(t, "Only 3 items available in stock", err.Error())
	var me *MutationError
	assert.ErrorAs(t, err, &me)
	assert.ErrorIs(t, err, gateway.ErrRemote)
}

func TestAdd_ValidationNeverReachesGateway(t *testing.T) {
	tests := []struct {
		name     string
		product  model.Product
		quantity int
	}{
		{name: "zero quantity", product: runner("p1", 1000, 800, 10), quantity: 0},
		{name: "negative quantity", product: runner("p1", 1000, 800, 10), quantity: -1},
		{name: "missing product id", product: runner("", 1000, 800, 10), quantity: 1},
		{name: "exceeds stock", product: runner("p1", 1000, 800, 3), quantity: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := store.New()
			gw := &fakeGateway{}
			e := New(st, gw)

			err := e.Add(context.Background(), tt.product, tt.quantity)

			require.Error(t, err)
			assert.True(t, IsValidation(err))
			assert.Equal(t, 0, gw.callCount())
			assert.Empty(t, st.Snapshot().Items)
		})
	}
}

func TestAdd_StockBoundCountsUnitsAlreadyInCart(t *testing.T) {
	st := store.New()
	gw := &fakeGateway{}
	e := New(st, gw)
	seedCart(t, e, "p1", 2, 800)

	err := e.Add(context.Background(), runner("p1", 1000, 800, 3), 2)

	require.Error(t, err)
	assert.Equal(t, "Only 3 items available in stock", err.Error())
	assert.Equal(t, 0, gw.callCount())
}

func TestUpdate_AppliesRemoteConfirmation(t *testing.T) {
	st := store.New()
	gw := &fakeGateway{
		updateFn: func(_ context.Context, productID string, quantity int) (model.CartSnapshot, error) {
			return confirming(productID, quantity, 800), nil
		},
	}
	e := New(st, gw)
	seedCart(t, e, "p1", 2, 800)

	require.NoError(t, e.Update(context.Background(), "p1", 5))

	item := st.Snapshot().Items["p1"]
	assert.Equal(t, 5, item.Quantity)
	assert.Equal(t, "4000", item.LineTotal().String())
}

func TestUpdate_RevertsOnRemoteRejection(t *testing.T) {
	st := store.New()
	gw := &fakeGateway{
		updateFn: func(context.Context, string, int) (model.CartSnapshot, error) {
			return model.CartSnapshot{}, &gateway.RemoteError{Op: "update", StatusCode: 500}
		},
	}
	e := New(st, gw)
	seedCart(t, e, "p1", 2, 800)
	before := st.Snapshot()

	err := e.Update(context.Background(), "p1", 5)

	require.Error(t, err)
	assert.Equal(t, "Update failed", err.Error())
	after := st.Snapshot()
	assert.Equal(t, 2, after.Items["p1"].Quantity)
	assert.Equal(t, "1600", after.Items["p1"].LineTotal().String())
	assert.True(t, before.Equal(after), "rollback must restore the pre-mutation snapshot")
}

func TestUpdate_RejectsQuantityBelowOne(t *testing.T) {
	st := store.New()
	gw := &fakeGateway{}
	e := New(st, gw)
	seedCart(t, e, "p1", 2, 800)

	err := e.Update(context.Background(), "p1", 0)

	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Equal(t, 0, gw.callCount())
	assert.Equal(t, 2, st.Snapshot().Items["p1"].Quantity)
}

func TestUpdate_RejectsUnknownItem(t *testing.T) {
	st := store.New()
	gw := &fakeGateway{}
	e := New(st, gw)

	err := e.Update(context.Background(), "ghost", 2)

	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Equal(t, 0, gw.callCount())
}

func TestRemove_BuffersItemForUndo(t *testing.T) {
	st := store.New()
	gw := &fakeGateway{
		removeFn: func(context.Context, string) (model.CartSnapshot, error) {
			return model.EmptyCart(), nil
		},
	}
	e := New(st, gw)
	seedCart(t, e, "p1", 2, 800)

	require.NoError(t, e.Remove(context.Background(), "p1"))

	got := st.Snapshot()
	assert.Empty(t, got.Items)
	require.NotNil(t, got.RecentlyRemoved)
	assert.Equal(t, "p1", got.RecentlyRemoved.ProductID)
	assert.Equal(t, 2, got.RecentlyRemoved.Quantity)
}

func TestRemove_RestoresItemOnRemoteFailure(t *testing.T) {
	st := store.New()
	gw := &fakeGateway{
		removeFn: func(context.Context, string) (model.CartSnapshot, error) {
			return model.CartSnapshot{}, &gateway.RemoteError{Op: "remove", StatusCode: 500}
		},
	}
	e := New(st, gw)
	seedCart(t, e, "p1", 2, 800)

	err := e.Remove(context.Background(), "p1")

	require.Error(t, err)
	got := st.Snapshot()
	assert.Equal(t, 2, got.Items["p1"].Quantity)
	assert.Nil(t, got.RecentlyRemoved)
}

func TestClear_DropsCouponAndUndoKeepsSaved(t *testing.T) {
	st := store.New()
	gw := &fakeGateway{}
	e := New(st, gw)
	seedCart(t, e, "p1", 2, 800)
	require.NoError(t, e.ApplyCoupon(model.Promotion{
		Code: "SAVE10", Type: model.PromotionPercentage, Value: decimal.NewFromInt(10),
	}))
	require.NoError(t, e.SaveForLater("p1"))
	seedCart(t, e, "p2", 1, 500)

	require.NoError(t, e.Clear(context.Background()))

	got := st.Snapshot()
	assert.Empty(t, got.Items)
	assert.Nil(t, got.Coupon)
	assert.Nil(t, got.RecentlyRemoved)
	assert.Len(t, got.SavedForLater, 1, "saved-for-later survives a clear")
}

func TestClear_RollsBackOnRemoteFailure(t *testing.T) {
	st := store.New()
	gw := &fakeGateway{
		clearFn: func(context.Context) (model.CartSnapshot, error) {
			return model.CartSnapshot{}, &gateway.RemoteError{Op: "clear", StatusCode: 500}
		},
	}
	e := New(st, gw)
	seedCart(t, e, "p1", 2, 800)

	err := e.Clear(context.Background())

	require.Error(t, err)
	assert.Equal(t, "Failed to clear cart", err.Error())
	assert.Equal(t, 2, st.Snapshot().Items["p1"].Quantity)
}

func TestLoad_ReplacesLocalState(t *testing.T) {
	st := store.New()
	gw := &fakeGateway{
		fetchFn: func(context.Context) (model.CartSnapshot, error) {
			return confirming("p1", 4, 800), nil
		},
	}
	e := New(st, gw)

	require.NoError(t, e.Load(context.Background()))

	got := st.Snapshot()
	assert.Equal(t, 4, got.Items["p1"].Quantity)
	assert.Equal(t, "3200", got.AuthoritativeTotal.String())
}

func TestLoad_FailureLeavesStateUntouched(t *testing.T) {
	st := store.New()
	gw := &fakeGateway{
		fetchFn: func(context.Context) (model.CartSnapshot, error) {
			return model.CartSnapshot{}, errors.New("connection refused")
		},
	}
	e := New(st, gw)
	seedCart(t, e, "p1", 2, 800)

	err := e.Load(context.Background())

	require.Error(t, err)
	assert.Equal(t, "Failed to load cart", err.Error())
	assert.Equal(t, 2, st.Snapshot().Items["p1"].Quantity)
}

func TestMutations_FailAfterClose(t *testing.T) {
	st := store.New()
	gw := &fakeGateway{}
	e := New(st, gw)
	st.Close()

	ctx := context.Background()
	assert.ErrorIs(t, e.Load(ctx), ErrSessionClosed)
	assert.ErrorIs(t, e.Add(ctx, runner("p1", 1000, 800, 10), 1), ErrSessionClosed)
	assert.ErrorIs(t, e.Clear(ctx), ErrSessionClosed)
	assert.Equal(t, 0, gw.callCount())
}

func TestStaleResponseGuard_DiscardsOutOfOrderConfirmation(t *testing.T) {
	st := store.New()

	// The first update's confirmation is held back until a second, newer
	// update has already been confirmed and applied.
	firstIssued := make(chan struct{})
	releaseFirst := make(chan struct{})
	var callN int
	var mu sync.Mutex
	gw := &fakeGateway{
		updateFn: func(_ context.Context, productID string, quantity int) (model.CartSnapshot, error) {
			mu.Lock()
			callN++
			n := callN
			mu.Unlock()
			if n == 1 {
				close(firstIssued)
				<-releaseFirst
			}
			return confirming(productID, quantity, 800), nil
		},
	}
	e := New(st, gw, WithStaleResponseGuard())
	seedCart(t, e, "p1", 1, 800)

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- e.Update(context.Background(), "p1", 2)
	}()
	<-firstIssued

	require.NoError(t, e.Update(context.Background(), "p1", 3))
	assert.Equal(t, 3, st.Snapshot().Items["p1"].Quantity)

	close(releaseFirst)
	require.NoError(t, <-firstDone)

	// The late confirmation for quantity 2 must not clobber the newer one.
	assert.Equal(t, 3, st.Snapshot().Items["p1"].Quantity)
}

func TestWithoutGuard_LastResponseWins(t *testing.T) {
	st := store.New()
	gw := &fakeGateway{
		updateFn: func(_ context.Context, productID string, quantity int) (model.CartSnapshot, error) {
			return confirming(productID, quantity, 800), nil
		},
	}
	e := New(st, gw)
	seedCart(t, e, "p1", 1, 800)

	require.NoError(t, e.Update(context.Background(), "p1", 2))
	require.NoError(t, e.Update(context.Background(), "p1", 3))

	assert.Equal(t, 3, st.Snapshot().Items["p1"].Quantity)
}
