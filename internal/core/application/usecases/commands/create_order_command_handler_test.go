package commands_test

import (
	"errors"
	"testing"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type createOrderFixture struct {
	uow      *MockUoW
	factory  *MockOrderUoWFactory
	catalog  *MockCatalog
	orders   *MockOrderRepository
	notifier *MockNotifier
	assigner *MockCourierAssigner
	handler  commands.CreateOrderCommandHandler
}

func newCreateOrderFixture(t *testing.T) *createOrderFixture {
	t.Helper()
	pricing, err := services.NewDeliveryPricing(services.DefaultPlatformFee)
	require.NoError(t, err)

	f := &createOrderFixture{
		uow:      new(MockUoW),
		factory:  new(MockOrderUoWFactory),
		catalog:  new(MockCatalog),
		orders:   new(MockOrderRepository),
		notifier: new(MockNotifier),
		assigner: new(MockCourierAssigner),
	}
	f.handler = commands.NewCreateOrderCommandHandler(f.factory, pricing, f.assigner, f.notifier, fixedClock, discardLogger())
	return f
}

func (f *createOrderFixture) assertAll(t *testing.T) {
	t.Helper()
	f.factory.AssertExpectations(t)
	f.uow.AssertExpectations(t)
	f.catalog.AssertExpectations(t)
	f.orders.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
	f.assigner.AssertExpectations(t)
}

func testProduct(storeID kernel.UUID, price int64, stock int) ports.Product {
	return ports.Product{
		ID:       kernel.NewUUID(),
		StoreID:  storeID,
		Name:     "item",
		Price:    decimal.NewFromInt(price),
		Quantity: stock,
	}
}

func createOrderCommand(t *testing.T, lines ...commands.OrderLine) commands.CreateOrderCommand {
	t.Helper()
	cmd, err := commands.NewCreateOrderCommand(kernel.NewUUID(), lines, testAddress(t), order.Card, "")
	require.NoError(t, err)
	return cmd
}

func TestCreateOrderCommandHandler_StoreDeliveryAboveThreshold(t *testing.T) {
	ctx := t.Context()
	f := newCreateOrderFixture(t)

	store := ports.Store{
		ID:                      kernel.NewUUID(),
		OwnerID:                 kernel.NewUUID(),
		HasDelivery:             true,
		DeliveryFee:             decimal.NewFromInt(15),
		MinOrderForFreeDelivery: decimal.NewFromInt(100),
	}
	product := testProduct(store.ID, 60, 10)
	cmd := createOrderCommand(t, commands.OrderLine{ProductID: product.ID, Quantity: 2})

	mock.InOrder(
		f.factory.On("Create").Return(f.uow).Once(),
		f.uow.On("Begin", ctx).Return(nil).Once(),
		f.uow.On("Catalog").Return(f.catalog).Once(),
		f.catalog.On("GetProduct", ctx, product.ID).Return(product, nil).Once(),
		f.catalog.On("GetStore", ctx, store.ID).Return(store, nil).Once(),
		f.catalog.On("ReserveStock", ctx, []ports.StockLine{{ProductID: product.ID, Quantity: 2}}).Return(nil).Once(),
		f.uow.On("OrderRepository").Return(f.orders).Once(),
		f.orders.On("Add", ctx, mock.AnythingOfType("*order.Order")).Return(nil).Once(),
		f.uow.On("Commit", ctx).Return(nil).Once(),
	)
	f.uow.On("Rollback", ctx).Return(nil).Once()
	f.notifier.On("Notify", ctx, recipientIs(store.OwnerID)).Return(nil).Once()

	result, err := f.handler.Handle(ctx, cmd)

	require.NoError(t, err)
	assert.True(t, result.OrderID.IsEqual(cmd.OrderID()))
	assert.Equal(t, order.StoreDelivery, result.DeliveryType)
	assert.True(t, result.DeliveryFee.IsZero())
	assert.True(t, result.Subtotal.Equal(decimal.NewFromInt(120)))
	assert.True(t, result.Total.Equal(decimal.NewFromInt(120)))
	assert.Nil(t, result.Assignment)
	f.assigner.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
	f.assertAll(t)
}

func TestCreateOrderCommandHandler_PlatformDeliveryTriggersAssignment(t *testing.T) {
	ctx := t.Context()
	f := newCreateOrderFixture(t)

	store := ports.Store{ID: kernel.NewUUID(), OwnerID: kernel.NewUUID()}
	product := testProduct(store.ID, 25, 5)
	cmd := createOrderCommand(t, commands.OrderLine{ProductID: product.ID, Quantity: 2})
	courierID := kernel.NewUUID()

	mock.InOrder(
		f.factory.On("Create").Return(f.uow).Once(),
		f.uow.On("Begin", ctx).Return(nil).Once(),
		f.uow.On("Catalog").Return(f.catalog).Once(),
		f.catalog.On("GetProduct", ctx, product.ID).Return(product, nil).Once(),
		f.catalog.On("GetStore", ctx, store.ID).Return(store, nil).Once(),
		f.catalog.On("ReserveStock", ctx, mock.Anything).Return(nil).Once(),
		f.uow.On("OrderRepository").Return(f.orders).Once(),
		f.orders.On("Add", ctx, mock.MatchedBy(func(o *order.Order) bool {
			return o.DeliveryType() == order.PlatformDelivery && o.Status() == order.Pending
		})).Return(nil).Once(),
		f.uow.On("Commit", ctx).Return(nil).Once(),
	)
	f.uow.On("Rollback", ctx).Return(nil).Once()
	f.notifier.On("Notify", ctx, recipientIs(store.OwnerID)).Return(nil).Once()
	f.assigner.On("Handle", ctx, mock.MatchedBy(func(c commands.AssignCourierCommand) bool {
		return c.OrderID().IsEqual(cmd.OrderID())
	})).Return(commands.AssignCourierResult{Assigned: true, OrderID: cmd.OrderID(), CourierID: courierID}, nil).Once()

	result, err := f.handler.Handle(ctx, cmd)

	require.NoError(t, err)
	assert.Equal(t, order.PlatformDelivery, result.DeliveryType)
	assert.True(t, result.DeliveryFee.Equal(decimal.NewFromInt(10)))
	assert.True(t, result.Total.Equal(decimal.NewFromInt(60)))
	require.NotNil(t, result.Assignment)
	assert.True(t, result.Assignment.CourierID.IsEqual(courierID))
	f.assertAll(t)
}

func TestCreateOrderCommandHandler_ItemsFromTwoStores(t *testing.T) {
	ctx := t.Context()
	f := newCreateOrderFixture(t)

	first := testProduct(kernel.NewUUID(), 10, 5)
	second := testProduct(kernel.NewUUID(), 10, 5)
	cmd := createOrderCommand(t,
		commands.OrderLine{ProductID: first.ID, Quantity: 1},
		commands.OrderLine{ProductID: second.ID, Quantity: 1},
	)

	mock.InOrder(
		f.factory.On("Create").Return(f.uow).Once(),
		f.uow.On("Begin", ctx).Return(nil).Once(),
		f.uow.On("Catalog").Return(f.catalog).Once(),
		f.catalog.On("GetProduct", ctx, first.ID).Return(first, nil).Once(),
		f.catalog.On("GetProduct", ctx, second.ID).Return(second, nil).Once(),
		f.uow.On("Rollback", ctx).Return(nil).Once(),
	)

	_, err := f.handler.Handle(ctx, cmd)

	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	f.catalog.AssertNotCalled(t, "ReserveStock", mock.Anything, mock.Anything)
	f.uow.AssertNotCalled(t, "Commit", mock.Anything)
	f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
	f.assertAll(t)
}

func TestCreateOrderCommandHandler_InsufficientStock(t *testing.T) {
	ctx := t.Context()
	f := newCreateOrderFixture(t)

	product := testProduct(kernel.NewUUID(), 10, 3)
	cmd := createOrderCommand(t, commands.OrderLine{ProductID: product.ID, Quantity: 5})

	mock.InOrder(
		f.factory.On("Create").Return(f.uow).Once(),
		f.uow.On("Begin", ctx).Return(nil).Once(),
		f.uow.On("Catalog").Return(f.catalog).Once(),
		f.catalog.On("GetProduct", ctx, product.ID).Return(product, nil).Once(),
		f.uow.On("Rollback", ctx).Return(nil).Once(),
	)

	_, err := f.handler.Handle(ctx, cmd)

	require.ErrorIs(t, err, errs.ErrConflict)
	f.catalog.AssertNotCalled(t, "ReserveStock", mock.Anything, mock.Anything)
	f.catalog.AssertNotCalled(t, "GetStore", mock.Anything, mock.Anything)
	f.assertAll(t)
}

func TestCreateOrderCommandHandler_MergesRepeatedProducts(t *testing.T) {
	ctx := t.Context()
	f := newCreateOrderFixture(t)

	product := testProduct(kernel.NewUUID(), 10, 4)
	cmd := createOrderCommand(t,
		commands.OrderLine{ProductID: product.ID, Quantity: 3},
		commands.OrderLine{ProductID: product.ID, Quantity: 2},
	)

	mock.InOrder(
		f.factory.On("Create").Return(f.uow).Once(),
		f.uow.On("Begin", ctx).Return(nil).Once(),
		f.uow.On("Catalog").Return(f.catalog).Once(),
		f.catalog.On("GetProduct", ctx, product.ID).Return(product, nil).Once(),
		f.uow.On("Rollback", ctx).Return(nil).Once(),
	)

	_, err := f.handler.Handle(ctx, cmd)

	require.ErrorIs(t, err, errs.ErrConflict)
	f.assertAll(t)
}

func TestCreateOrderCommandHandler_UnknownProduct(t *testing.T) {
	ctx := t.Context()
	f := newCreateOrderFixture(t)

	productID := kernel.NewUUID()
	cmd := createOrderCommand(t, commands.OrderLine{ProductID: productID, Quantity: 1})

	f.factory.On("Create").Return(f.uow).Once()
	f.uow.On("Begin", ctx).Return(nil).Once()
	f.uow.On("Catalog").Return(f.catalog).Once()
	f.catalog.On("GetProduct", ctx, productID).
		Return(ports.Product{}, errs.NewObjectNotFoundError("product", productID)).Once()
	f.uow.On("Rollback", ctx).Return(nil).Once()

	_, err := f.handler.Handle(ctx, cmd)

	require.ErrorIs(t, err, errs.ErrObjectNotFound)
	f.assertAll(t)
}

func TestCreateOrderCommandHandler_NotificationFailureIsSwallowed(t *testing.T) {
	ctx := t.Context()
	f := newCreateOrderFixture(t)

	store := ports.Store{ID: kernel.NewUUID(), OwnerID: kernel.NewUUID(), HasDelivery: true, IsFreeDelivery: true}
	product := testProduct(store.ID, 10, 5)
	cmd := createOrderCommand(t, commands.OrderLine{ProductID: product.ID, Quantity: 1})

	f.factory.On("Create").Return(f.uow).Once()
	f.uow.On("Begin", ctx).Return(nil).Once()
	f.uow.On("Catalog").Return(f.catalog).Once()
	f.catalog.On("GetProduct", ctx, product.ID).Return(product, nil).Once()
	f.catalog.On("GetStore", ctx, store.ID).Return(store, nil).Once()
	f.catalog.On("ReserveStock", ctx, mock.Anything).Return(nil).Once()
	f.uow.On("OrderRepository").Return(f.orders).Once()
	f.orders.On("Add", ctx, mock.Anything).Return(nil).Once()
	f.uow.On("Commit", ctx).Return(nil).Once()
	f.uow.On("Rollback", ctx).Return(nil).Once()
	f.notifier.On("Notify", ctx, mock.Anything).Return(errors.New("broker down")).Once()

	result, err := f.handler.Handle(ctx, cmd)

	require.NoError(t, err)
	assert.True(t, result.DeliveryFee.IsZero())
	f.assertAll(t)
}

func TestCreateOrderCommandHandler_InvalidCommand(t *testing.T) {
	f := newCreateOrderFixture(t)

	_, err := f.handler.Handle(t.Context(), commands.CreateOrderCommand{})

	require.ErrorIs(t, err, commands.ErrCreateOrderCommandIsNotConstructed)
	f.factory.AssertNotCalled(t, "Create")
}
