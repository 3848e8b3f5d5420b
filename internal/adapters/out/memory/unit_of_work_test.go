package memory_test

import (
	"context"
	"testing"
	"time"

	"dispatch/internal/adapters/out/memory"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedBread(t *testing.T, store *memory.Store, quantity int) (ports.Store, ports.Product) {
	t.Helper()

	s := ports.Store{ID: kernel.NewUUID(), OwnerID: kernel.NewUUID(), Name: "Corner Bakery"}
	p := ports.Product{ID: kernel.NewUUID(), StoreID: s.ID, Name: "bread", Price: decimal.NewFromInt(10), Quantity: quantity}
	require.NoError(t, store.Seed(t.Context(), []ports.Store{s}, []ports.Product{p}))
	return s, p
}

func newOrder(t *testing.T, storeID, productID kernel.UUID) *order.Order {
	t.Helper()

	item, err := order.NewItem(productID, storeID, "bread", 2, decimal.NewFromInt(10))
	require.NoError(t, err)
	point, err := kernel.NewGeoPoint(30.0444, 31.2357)
	require.NoError(t, err)
	address, err := kernel.NewAddress(point, "12 Tahrir St", "", "", "")
	require.NoError(t, err)

	o, err := order.NewOrder(kernel.NewUUID(), kernel.NewUUID(), storeID, []order.Item{item}, address, order.Cash, "", testNow)
	require.NoError(t, err)
	return o
}

func TestUnitOfWork_RollbackUndoesEveryWrite(t *testing.T) {
	store := memory.NewStore(fixedClock)
	s, bread := seedBread(t, store, 5)
	factory := memory.NewUnitOfWorkFactory(store)
	ctx := t.Context()

	uow := factory.Create()
	require.NoError(t, uow.Begin(ctx))
	require.NoError(t, uow.Catalog().ReserveStock(ctx, []ports.StockLine{{ProductID: bread.ID, Quantity: 2}}))
	o := newOrder(t, s.ID, bread.ID)
	require.NoError(t, uow.OrderRepository().Add(ctx, o))
	require.NoError(t, uow.Rollback(ctx))

	reader := factory.Create()
	_, err := reader.OrderRepository().Get(ctx, o.ID())
	require.ErrorIs(t, err, errs.ErrObjectNotFound)
	product, err := reader.Catalog().GetProduct(ctx, bread.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, product.Quantity)
}

func TestUnitOfWork_CommitKeepsWrites(t *testing.T) {
	store := memory.NewStore(fixedClock)
	s, bread := seedBread(t, store, 5)
	factory := memory.NewUnitOfWorkFactory(store)
	ctx := t.Context()

	uow := factory.Create()
	require.NoError(t, uow.Begin(ctx))
	require.NoError(t, uow.Catalog().ReserveStock(ctx, []ports.StockLine{{ProductID: bread.ID, Quantity: 2}}))
	o := newOrder(t, s.ID, bread.ID)
	require.NoError(t, uow.OrderRepository().Add(ctx, o))
	require.NoError(t, uow.Commit(ctx))
	require.NoError(t, uow.Rollback(ctx))

	product, err := factory.Create().Catalog().GetProduct(ctx, bread.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, product.Quantity)
	require.ErrorIs(t, uow.Commit(ctx), memory.ErrNoTransaction)
}

func TestUnitOfWork_BeginWaitsForOpenUnit(t *testing.T) {
	factory := memory.NewUnitOfWorkFactory(memory.NewStore(fixedClock))

	first := factory.Create()
	require.NoError(t, first.Begin(t.Context()))

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, factory.Create().Begin(ctx), context.DeadlineExceeded)

	require.NoError(t, first.Commit(t.Context()))
	second := factory.Create()
	require.NoError(t, second.Begin(t.Context()))
	require.NoError(t, second.Rollback(t.Context()))
}

func TestOrderRepository_StaleVersionIsAConflict(t *testing.T) {
	store := memory.NewStore(fixedClock)
	s, bread := seedBread(t, store, 5)
	repo := memory.NewUnitOfWorkFactory(store).Create().OrderRepository()
	ctx := t.Context()

	o := newOrder(t, s.ID, bread.ID)
	require.NoError(t, repo.Add(ctx, o))
	first, err := repo.Get(ctx, o.ID())
	require.NoError(t, err)
	second, err := repo.Get(ctx, o.ID())
	require.NoError(t, err)

	_, err = first.ChangeStatus(order.Confirmed, "", testNow)
	require.NoError(t, err)
	require.NoError(t, repo.Update(ctx, first))
	assert.Equal(t, 1, first.Version())

	_, err = second.ChangeStatus(order.Cancelled, "duplicate", testNow)
	require.NoError(t, err)
	err = repo.Update(ctx, second)

	require.ErrorIs(t, err, errs.ErrConflict)
	require.ErrorIs(t, err, errs.ErrVersionIsInvalid)
}

func TestCatalog_ReserveStockIsAllOrNothing(t *testing.T) {
	store := memory.NewStore(fixedClock)
	s, bread := seedBread(t, store, 5)
	cheese := ports.Product{ID: kernel.NewUUID(), StoreID: s.ID, Name: "cheese", Price: decimal.NewFromInt(40), Quantity: 3}
	require.NoError(t, store.Seed(t.Context(), nil, []ports.Product{cheese}))
	catalog := memory.NewUnitOfWorkFactory(store).Create().Catalog()

	err := catalog.ReserveStock(t.Context(), []ports.StockLine{
		{ProductID: bread.ID, Quantity: 1},
		{ProductID: cheese.ID, Quantity: 5},
	})

	require.ErrorIs(t, err, errs.ErrConflict)
	product, err := catalog.GetProduct(t.Context(), bread.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, product.Quantity)
}

func TestCourierRepository_LockHeldUntilCommit(t *testing.T) {
	store := memory.NewStore(fixedClock)
	registry := memory.NewStaffRegistry(store)
	c := addCourier(t, store, 30.05, 31.24)
	ctx := t.Context()

	uow := memory.NewUnitOfWorkFactory(store).Create()
	require.NoError(t, uow.Begin(ctx))
	_, err := uow.CourierRepository().Get(ctx, c.ID())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, claimErr := registry.Claim(ctx, c.ID(), kernel.NewUUID())
		done <- claimErr
	}()

	select {
	case <-done:
		t.Fatal("claim ran while the courier was locked")
	case <-time.After(20 * time.Millisecond):
	}

	require.NoError(t, uow.Commit(ctx))
	require.NoError(t, <-done)
}

func TestCourierRepository_SecondProfileForUserIsAConflict(t *testing.T) {
	store := memory.NewStore(fixedClock)
	c := addCourier(t, store, 30.05, 31.24)
	repo := memory.NewUnitOfWorkFactory(store).Create().CourierRepository()

	found, err := repo.GetByUserID(t.Context(), c.UserID())
	require.NoError(t, err)
	assert.True(t, found.ID().IsEqual(c.ID()))

	twin, err := repo.Get(t.Context(), c.ID())
	require.NoError(t, err)
	err = repo.Add(t.Context(), twin)
	require.ErrorIs(t, err, errs.ErrConflict)
}
