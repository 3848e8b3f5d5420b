package queries_test

import (
	"context"
	"testing"
	"time"

	"dispatch/internal/adapters/out/postgres/orderrepo"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/gorm"
)

type GetAssignableOrdersQueryHandlerTestSuite struct {
	suite.Suite
	container *postgres.PostgresContainer
	db        *gorm.DB
	handler   queries.GetAssignableOrdersQueryHandler
	orders    *orderrepo.GormOrderRepository
}

func (suite *GetAssignableOrdersQueryHandlerTestSuite) SetupSuite() {
	suite.container, suite.db = startPostgres(&suite.Suite)
	suite.handler = queries.NewGetAssignableOrdersQueryHandler(suite.db)
	suite.orders = orderrepo.NewGormOrderRepository(suite.db, noopTracker{})
}

func (suite *GetAssignableOrdersQueryHandlerTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *GetAssignableOrdersQueryHandlerTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Exec("TRUNCATE TABLE order_items, orders").Error)
}

func (suite *GetAssignableOrdersQueryHandlerTestSuite) TestHandle_ReturnsWaitingPlatformOrdersOldestFirst() {
	ctx := suite.T().Context()
	older := suite.save(testNow, order.PlatformDelivery, nil)
	newer := suite.save(testNow.Add(5*time.Minute), order.PlatformDelivery, func(o *order.Order) {
		_, err := o.ChangeStatus(order.Ready, "", testNow)
		suite.Require().NoError(err)
	})

	suite.save(testNow, order.StoreDelivery, nil)
	suite.save(testNow, order.PlatformDelivery, func(o *order.Order) {
		record, err := order.NewAssignmentRecord(o.ID(), kernel.NewUUID(), 1, 4, testNow)
		suite.Require().NoError(err)
		suite.Require().NoError(o.AssignCourier(record))
	})
	suite.save(testNow, order.PlatformDelivery, func(o *order.Order) {
		_, err := o.ChangeStatus(order.Cancelled, "closed early", testNow)
		suite.Require().NoError(err)
	})

	query, err := queries.NewGetAssignableOrdersQuery(0)
	suite.Require().NoError(err)

	result, err := suite.handler.Handle(ctx, query)

	suite.Require().NoError(err)
	suite.Require().Len(result, 2)
	suite.True(result[0].ID.IsEqual(older.ID()))
	suite.Equal("pending", result[0].Status)
	suite.InDelta(30.0444, result[0].Destination.Lat(), 1e-9)
	suite.Equal(testNow, result[0].CreatedAt)
	suite.True(result[1].ID.IsEqual(newer.ID()))
	suite.Equal("ready", result[1].Status)
}

func (suite *GetAssignableOrdersQueryHandlerTestSuite) TestHandle_HonoursLimit() {
	for i := range 3 {
		suite.save(testNow.Add(time.Duration(i)*time.Minute), order.PlatformDelivery, nil)
	}
	query, err := queries.NewGetAssignableOrdersQuery(2)
	suite.Require().NoError(err)

	result, err := suite.handler.Handle(suite.T().Context(), query)

	suite.Require().NoError(err)
	suite.Len(result, 2)
}

func (suite *GetAssignableOrdersQueryHandlerTestSuite) TestHandle_InvalidQuery_ReturnsError() {
	result, err := suite.handler.Handle(suite.T().Context(), queries.GetAssignableOrdersQuery{})

	suite.Require().ErrorIs(err, queries.ErrGetAssignableOrdersQueryIsNotConstructed)
	suite.Nil(result)
}

func (suite *GetAssignableOrdersQueryHandlerTestSuite) save(
	createdAt time.Time,
	deliveryType order.DeliveryType,
	adjust func(o *order.Order),
) *order.Order {
	storeID := kernel.NewUUID()
	item, err := order.NewItem(kernel.NewUUID(), storeID, "rice", 1, decimal.NewFromInt(20))
	suite.Require().NoError(err)
	point, err := kernel.NewGeoPoint(30.0444, 31.2357)
	suite.Require().NoError(err)
	address, err := kernel.NewAddress(point, "12 Tahrir St", "", "", "")
	suite.Require().NoError(err)

	o, err := order.NewOrder(kernel.NewUUID(), kernel.NewUUID(), storeID,
		[]order.Item{item}, address, order.Wallet, "", createdAt)
	suite.Require().NoError(err)
	suite.Require().NoError(o.ApplyDeliveryQuote(deliveryType, decimal.NewFromInt(10)))
	if adjust != nil {
		adjust(o)
	}

	suite.Require().NoError(suite.orders.Add(suite.T().Context(), o))
	return o
}

func TestGetAssignableOrdersQueryHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(GetAssignableOrdersQueryHandlerTestSuite))
}
