package queries

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var (
	ErrGetOrderQueryIsNotConstructed = errors.New(
		"GetOrderQuery must be created via NewGetOrderQuery constructor",
	)
)

// GetOrderQuery reads one order with its items. Only an administrator, the
// owner of the order's store, the assigned courier or the customer who
// placed it may read it.
type GetOrderQuery struct {
	actor   kernel.Actor
	orderID kernel.UUID
	guard   guard.ConstructorGuard
}

func NewGetOrderQuery(actor kernel.Actor, orderID kernel.UUID) (GetOrderQuery, error) {
	if err := errors.Join(actor.UserID.Validate(), actor.Role.Validate(), orderID.Validate()); err != nil {
		return GetOrderQuery{}, err
	}

	return GetOrderQuery{actor: actor, orderID: orderID, guard: guard.NewConstructorGuard()}, nil
}

func (q GetOrderQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderQueryIsNotConstructed)
}

func (q GetOrderQuery) Actor() kernel.Actor {
	return q.actor
}

func (q GetOrderQuery) OrderID() kernel.UUID {
	return q.orderID
}

type OrderItemView struct {
	ProductID kernel.UUID
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

func (i OrderItemView) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// GetOrderQueryResponse is the full order read model. CourierUserID is set
// while a courier is attached to the order.
type GetOrderQueryResponse struct {
	ID                  kernel.UUID
	CustomerID          kernel.UUID
	StoreID             kernel.UUID
	StoreName           string
	StoreOwnerID        kernel.UUID
	CourierID           *kernel.UUID
	CourierUserID       *kernel.UUID
	Status              string
	DeliveryType        string
	PaymentMethod       string
	Address             kernel.Address
	Items               []OrderItemView
	Subtotal            decimal.Decimal
	DeliveryFee         decimal.Decimal
	Total               decimal.Decimal
	Notes               string
	CancellationReason  string
	CreatedAt           time.Time
	DeliveredAt         *time.Time
	EstimatedDeliveryAt *time.Time
}

// VisibleTo reports whether actor may read the order.
func (r GetOrderQueryResponse) VisibleTo(actor kernel.Actor) bool {
	switch actor.Role {
	case kernel.Admin:
		return true
	case kernel.StoreOwner:
		return actor.UserID.IsEqual(r.StoreOwnerID)
	case kernel.Delivery:
		return r.CourierUserID != nil && actor.UserID.IsEqual(*r.CourierUserID)
	case kernel.Customer:
		return actor.UserID.IsEqual(r.CustomerID)
	default:
		return false
	}
}

// AuthorizeOrderRead turns a hidden order into a PermissionDeniedError.
func AuthorizeOrderRead(actor kernel.Actor, view GetOrderQueryResponse) error {
	if !view.VisibleTo(actor) {
		return errs.NewPermissionDeniedError(actor.Role.String(), "read order "+view.ID.String())
	}
	return nil
}
