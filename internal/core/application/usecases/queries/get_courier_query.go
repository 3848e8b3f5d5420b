package queries

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

// RecentCourierOrdersLimit caps the order history returned with a courier profile.
const RecentCourierOrdersLimit = 10

var (
	ErrGetCourierQueryIsNotConstructed = errors.New(
		"GetCourierQuery must be created via NewGetCourierQuery constructor",
	)
	ErrGetCourierStatsQueryIsNotConstructed = errors.New(
		"GetCourierStatsQuery must be created via NewGetCourierStatsQuery constructor",
	)
)

// GetCourierQuery reads one courier profile with its latest orders.
// Administrators may read any profile, couriers only their own.
type GetCourierQuery struct {
	actor     kernel.Actor
	courierID kernel.UUID
	guard     guard.ConstructorGuard
}

func NewGetCourierQuery(actor kernel.Actor, courierID kernel.UUID) (GetCourierQuery, error) {
	if err := validateCourierReader(actor, courierID); err != nil {
		return GetCourierQuery{}, err
	}
	return GetCourierQuery{actor: actor, courierID: courierID, guard: guard.NewConstructorGuard()}, nil
}

func (q GetCourierQuery) Validate() error {
	return q.guard.Validate(ErrGetCourierQueryIsNotConstructed)
}

func (q GetCourierQuery) Actor() kernel.Actor {
	return q.actor
}

func (q GetCourierQuery) CourierID() kernel.UUID {
	return q.courierID
}

type GetCourierQueryResponse struct {
	Courier      GetAllCouriersQueryResponse
	RecentOrders []OrderSummary
}

// GetCourierStatsQuery aggregates the orders a courier has been given.
type GetCourierStatsQuery struct {
	actor     kernel.Actor
	courierID kernel.UUID
	guard     guard.ConstructorGuard
}

func NewGetCourierStatsQuery(actor kernel.Actor, courierID kernel.UUID) (GetCourierStatsQuery, error) {
	if err := validateCourierReader(actor, courierID); err != nil {
		return GetCourierStatsQuery{}, err
	}
	return GetCourierStatsQuery{actor: actor, courierID: courierID, guard: guard.NewConstructorGuard()}, nil
}

func (q GetCourierStatsQuery) Validate() error {
	return q.guard.Validate(ErrGetCourierStatsQueryIsNotConstructed)
}

func (q GetCourierStatsQuery) Actor() kernel.Actor {
	return q.actor
}

func (q GetCourierStatsQuery) CourierID() kernel.UUID {
	return q.courierID
}

// GetCourierStatsQueryResponse counts every order that carries the courier.
// Open orders are those not yet delivered, cancelled or refunded. Earnings
// are the delivery fees of delivered orders. RecordedDeliveries is the
// counter kept on the courier profile.
type GetCourierStatsQueryResponse struct {
	CourierID          kernel.UUID
	TotalOrders        int
	CompletedOrders    int
	CancelledOrders    int
	OpenOrders         int
	TotalEarnings      decimal.Decimal
	RecordedDeliveries int
}

// CountOrder adds one order in status with the given delivery fee.
func (r *GetCourierStatsQueryResponse) CountOrder(status order.Status, fee decimal.Decimal) {
	r.TotalOrders++
	switch status {
	case order.Delivered:
		r.CompletedOrders++
		r.TotalEarnings = r.TotalEarnings.Add(fee)
	case order.Cancelled, order.Refunded:
		r.CancelledOrders++
	default:
		r.OpenOrders++
	}
}

func validateCourierReader(actor kernel.Actor, courierID kernel.UUID) error {
	if err := errors.Join(actor.UserID.Validate(), actor.Role.Validate(), courierID.Validate()); err != nil {
		return err
	}
	if actor.Role != kernel.Admin && actor.Role != kernel.Delivery {
		return errs.NewPermissionDeniedError(actor.Role.String(), "read courier "+courierID.String())
	}
	return nil
}

// AuthorizeCourierRead lets administrators through and couriers only to
// the profile owned by their user.
func AuthorizeCourierRead(actor kernel.Actor, courierID, courierUserID kernel.UUID) error {
	if actor.Role == kernel.Admin || actor.UserID.IsEqual(courierUserID) {
		return nil
	}
	return errs.NewPermissionDeniedError(actor.Role.String(), "read courier "+courierID.String())
}
