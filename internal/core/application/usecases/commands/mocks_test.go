package commands_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

// kmPerDegreeLat is the length of one degree of latitude on a 6371 km sphere.
const kmPerDegreeLat = 111.19492664455873

func fixedClock() time.Time {
	return testNow
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Update(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

type MockCourierRepository struct{ mock.Mock }

func (m *MockCourierRepository) Add(ctx context.Context, c *courier.Courier) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCourierRepository) Update(ctx context.Context, c *courier.Courier) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCourierRepository) Get(ctx context.Context, id kernel.UUID) (*courier.Courier, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*courier.Courier), args.Error(1)
}

func (m *MockCourierRepository) GetByUserID(ctx context.Context, userID kernel.UUID) (*courier.Courier, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*courier.Courier), args.Error(1)
}

type MockCatalog struct{ mock.Mock }

func (m *MockCatalog) GetStore(ctx context.Context, id kernel.UUID) (ports.Store, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(ports.Store), args.Error(1)
}

func (m *MockCatalog) GetProduct(ctx context.Context, id kernel.UUID) (ports.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(ports.Product), args.Error(1)
}

func (m *MockCatalog) ReserveStock(ctx context.Context, lines []ports.StockLine) error {
	args := m.Called(ctx, lines)
	return args.Error(0)
}

func (m *MockCatalog) RestockItems(ctx context.Context, lines []ports.StockLine) error {
	args := m.Called(ctx, lines)
	return args.Error(0)
}

type MockStaffRegistry struct{ mock.Mock }

func (m *MockStaffRegistry) SnapshotEligible(ctx context.Context) ([]courier.Candidate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]courier.Candidate), args.Error(1)
}

func (m *MockStaffRegistry) Claim(ctx context.Context, courierID, orderID kernel.UUID) (bool, error) {
	args := m.Called(ctx, courierID, orderID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStaffRegistry) Release(ctx context.Context, courierID, orderID kernel.UUID) error {
	args := m.Called(ctx, courierID, orderID)
	return args.Error(0)
}

func (m *MockStaffRegistry) CompleteDelivery(ctx context.Context, courierID, orderID kernel.UUID) error {
	args := m.Called(ctx, courierID, orderID)
	return args.Error(0)
}

func (m *MockStaffRegistry) UpdateLocation(ctx context.Context, courierID kernel.UUID, point kernel.GeoPoint, label string) error {
	args := m.Called(ctx, courierID, point, label)
	return args.Error(0)
}

func (m *MockStaffRegistry) UpdateAvailability(ctx context.Context, courierID kernel.UUID, available bool) error {
	args := m.Called(ctx, courierID, available)
	return args.Error(0)
}

type MockNotifier struct{ mock.Mock }

func (m *MockNotifier) Notify(ctx context.Context, n ports.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

// MockUoW satisfies every narrowed unit of work interface.
type MockUoW struct{ mock.Mock }

func (m *MockUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) OrderRepository() ports.OrderRepository {
	args := m.Called()
	return args.Get(0).(ports.OrderRepository)
}

func (m *MockUoW) CourierRepository() ports.CourierRepository {
	args := m.Called()
	return args.Get(0).(ports.CourierRepository)
}

func (m *MockUoW) Catalog() ports.Catalog {
	args := m.Called()
	return args.Get(0).(ports.Catalog)
}

type MockUoWFactory struct{ mock.Mock }

func (m *MockUoWFactory) Create() commands.UoW {
	args := m.Called()
	return args.Get(0).(commands.UoW)
}

type MockOrderUoWFactory struct{ mock.Mock }

func (m *MockOrderUoWFactory) Create() commands.OrderUoW {
	args := m.Called()
	return args.Get(0).(commands.OrderUoW)
}

type MockCourierUoWFactory struct{ mock.Mock }

func (m *MockCourierUoWFactory) Create() commands.CourierUoW {
	args := m.Called()
	return args.Get(0).(commands.CourierUoW)
}

type MockCourierAssigner struct{ mock.Mock }

func (m *MockCourierAssigner) Handle(ctx context.Context, cmd commands.AssignCourierCommand) (commands.AssignCourierResult, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(commands.AssignCourierResult), args.Error(1)
}

func testAddress(t *testing.T) kernel.Address {
	t.Helper()
	point, err := kernel.NewGeoPoint(30.0, 31.0)
	require.NoError(t, err)
	address, err := kernel.NewAddress(point, "12 Tahrir St", "floor 3", "Mona", "+20100")
	require.NoError(t, err)
	return address
}

func newTestOrder(t *testing.T, storeID kernel.UUID) *order.Order {
	t.Helper()
	item, err := order.NewItem(kernel.NewUUID(), storeID, "bread", 2, decimal.NewFromInt(10))
	require.NoError(t, err)
	o, err := order.NewOrder(kernel.NewUUID(), kernel.NewUUID(), storeID, []order.Item{item},
		testAddress(t), order.Cash, "", testNow)
	require.NoError(t, err)
	return o
}

func assignTestOrder(t *testing.T, o *order.Order, courierID kernel.UUID) {
	t.Helper()
	record, err := order.NewAssignmentRecord(o.ID(), courierID, 2, 5, testNow)
	require.NoError(t, err)
	require.NoError(t, o.AssignCourier(record))
}

func testGeoIndex(t *testing.T) services.GeoIndex {
	t.Helper()
	margin, err := services.NewFixedMargin(1.2)
	require.NoError(t, err)
	return services.NewGeoIndex(margin)
}

// candidateNorth places a courier distanceKm due north of the test address.
func candidateNorth(t *testing.T, distanceKm float64, vehicle courier.VehicleType) courier.Candidate {
	t.Helper()
	loc, err := kernel.NewGeoPoint(30.0+distanceKm/kmPerDegreeLat, 31.0)
	require.NoError(t, err)
	return courier.Candidate{
		CourierID: kernel.NewUUID(),
		UserID:    kernel.NewUUID(),
		Location:  &loc,
		Vehicle:   vehicle,
	}
}

func busyCourier(t *testing.T, courierID, userID kernel.UUID, orders ...kernel.UUID) *courier.Courier {
	t.Helper()
	c, err := courier.RestoreCourier(courier.RestoreParams{
		ID:             courierID,
		UserID:         userID,
		Vehicle:        courier.Motorcycle,
		Phone:          "+20111",
		IsApproved:     true,
		IsActive:       true,
		AssignedOrders: orders,
		CreatedAt:      testNow,
	})
	require.NoError(t, err)
	return c
}

func recipientIs(userID kernel.UUID) any {
	return mock.MatchedBy(func(n ports.Notification) bool {
		return n.RecipientUserID.IsEqual(userID)
	})
}
