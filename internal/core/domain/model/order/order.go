package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not created through
	// NewOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")

	ErrItemsAreRequired             = errs.NewValueIsRequiredError("items")
	ErrCancellationReasonIsRequired = errs.NewValueIsRequiredError("cancellation reason")
)

// Order is the aggregate root of the dispatch domain. It owns the line items,
// the money totals, the delivery destination and the assignment state.
//
// Order follows these invariants:
//   - Every line item belongs to the order's single store
//   - total == subtotal + deliveryFee, recomputed whenever items or the fee change
//   - A courier is attached while the status is Assigned or OnWay
//   - Cancelled orders carry a non-empty cancellation reason
//   - Items are taken out of stock at most once at a time; stockReserved
//     tracks whether they are currently held for this order
//   - Orders are never deleted; terminal states keep their assignment as history
type Order struct {
	id         kernel.UUID
	customerID kernel.UUID
	storeID    kernel.UUID
	items      []Item
	address    kernel.Address
	status     Status

	// courierID is the assigned courier (nil if unassigned)
	courierID  *kernel.UUID
	assignment *AssignmentRecord

	subtotal     decimal.Decimal
	deliveryFee  decimal.Decimal
	total        decimal.Decimal
	deliveryType DeliveryType

	paymentMethod      PaymentMethod
	notes              string
	cancellationReason string

	createdAt           time.Time
	deliveredAt         *time.Time
	estimatedDeliveryAt *time.Time

	stockReserved bool

	// version is the optimistic-concurrency token owned by the repository
	version int

	isConstructed bool
}

// NewOrder creates a pending order with no delivery fee yet. The caller prices
// delivery afterwards with ApplyDeliveryQuote.
//
// Returns a joined validation error when identifiers are missing, the item
// list is empty, or any item belongs to a store other than storeID.
func NewOrder(
	id, customerID, storeID kernel.UUID,
	items []Item,
	address kernel.Address,
	paymentMethod PaymentMethod,
	notes string,
	createdAt time.Time,
) (*Order, error) {
	o := &Order{
		status:        Pending,
		notes:         strings.TrimSpace(notes),
		createdAt:     createdAt.UTC(),
		deliveryFee:   decimal.Zero,
		stockReserved: true,
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(id),
		o.setCustomerID(customerID),
		o.setStoreID(storeID),
		o.setAddress(address),
		o.setPaymentMethod(paymentMethod),
	); err != nil {
		return nil, err
	}

	if err := o.setItems(items); err != nil {
		return nil, err
	}

	o.recalculate()
	return o, nil
}

// RestoreParams carries the persisted state of an order.
type RestoreParams struct {
	ID                  kernel.UUID
	CustomerID          kernel.UUID
	StoreID             kernel.UUID
	Items               []Item
	Address             kernel.Address
	Status              Status
	CourierID           *kernel.UUID
	Assignment          *AssignmentRecord
	DeliveryFee         decimal.Decimal
	DeliveryType        DeliveryType
	PaymentMethod       PaymentMethod
	Notes               string
	CancellationReason  string
	CreatedAt           time.Time
	DeliveredAt         *time.Time
	EstimatedDeliveryAt *time.Time
	StockReserved       bool
	Version             int
}

// RestoreOrder rebuilds an order from storage. Totals are recomputed from
// the items and fee rather than trusted.
func RestoreOrder(p RestoreParams) (*Order, error) {
	o := &Order{
		courierID:           p.CourierID,
		assignment:          p.Assignment,
		deliveryType:        p.DeliveryType,
		notes:               p.Notes,
		cancellationReason:  p.CancellationReason,
		createdAt:           p.CreatedAt.UTC(),
		deliveredAt:         p.DeliveredAt,
		estimatedDeliveryAt: p.EstimatedDeliveryAt,
		stockReserved:       p.StockReserved,
		version:             p.Version,
		isConstructed:       true,
	}

	if err := errors.Join(
		o.setID(p.ID),
		o.setCustomerID(p.CustomerID),
		o.setStoreID(p.StoreID),
		o.setAddress(p.Address),
		o.setPaymentMethod(p.PaymentMethod),
		o.setStatus(p.Status),
		o.setDeliveryFee(p.DeliveryFee),
	); err != nil {
		return nil, err
	}

	if err := o.setItems(p.Items); err != nil {
		return nil, err
	}

	if p.Status.IsActiveAssignment() && p.CourierID == nil {
		return nil, errs.NewValueIsInvalidErrorWithCause("courier",
			fmt.Errorf("%s order must have a courier", p.Status))
	}

	o.recalculate()
	return o, nil
}

func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}

	return nil
}

func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

func (o *Order) ID() kernel.UUID {
	return o.id
}

func (o *Order) CustomerID() kernel.UUID {
	return o.customerID
}

func (o *Order) StoreID() kernel.UUID {
	return o.storeID
}

func (o *Order) Items() []Item {
	out := make([]Item, len(o.items))
	copy(out, o.items)
	return out
}

func (o *Order) Address() kernel.Address {
	return o.address
}

func (o *Order) Status() Status {
	return o.status
}

func (o *Order) CourierID() *kernel.UUID {
	return o.courierID
}

func (o *Order) Assignment() *AssignmentRecord {
	return o.assignment
}

func (o *Order) Subtotal() decimal.Decimal {
	return o.subtotal
}

func (o *Order) DeliveryFee() decimal.Decimal {
	return o.deliveryFee
}

func (o *Order) Total() decimal.Decimal {
	return o.total
}

func (o *Order) DeliveryType() DeliveryType {
	return o.deliveryType
}

func (o *Order) PaymentMethod() PaymentMethod {
	return o.paymentMethod
}

func (o *Order) Notes() string {
	return o.notes
}

func (o *Order) CancellationReason() string {
	return o.cancellationReason
}

func (o *Order) CreatedAt() time.Time {
	return o.createdAt
}

func (o *Order) DeliveredAt() *time.Time {
	return o.deliveredAt
}

func (o *Order) EstimatedDeliveryAt() *time.Time {
	return o.estimatedDeliveryAt
}

// StockReserved reports whether the order's items are currently held out of stock.
func (o *Order) StockReserved() bool {
	return o.stockReserved
}

func (o *Order) Version() int {
	return o.version
}

// IncrementVersion is called by repositories after a successful write.
func (o *Order) IncrementVersion() {
	o.version++
}

// ApplyDeliveryQuote sets who delivers the order and the fee, then recomputes the total.
func (o *Order) ApplyDeliveryQuote(deliveryType DeliveryType, fee decimal.Decimal) error {
	if err := errors.Join(deliveryType.Validate(), o.setDeliveryFee(fee)); err != nil {
		return err
	}

	o.deliveryType = deliveryType
	o.recalculate()
	return nil
}

// CanBeAssigned reports whether a courier may be attached right now.
// An attached courier is a conflict; a status past Ready is invalid.
func (o *Order) CanBeAssigned() error {
	if o.courierID != nil {
		return errs.NewConflictError("order", fmt.Sprintf("%s already has courier %s", o.id, o.courierID))
	}
	if !o.status.IsPreAssignment() {
		return errs.NewValueIsInvalidErrorWithCause("status",
			fmt.Errorf("%s is not a valid status to assign a courier", o.status))
	}
	return nil
}

// AssignCourier attaches the courier from the record, moves the order to
// Assigned and sets the estimated delivery time.
func (o *Order) AssignCourier(record AssignmentRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}
	if !record.OrderID().IsEqual(o.id) {
		return errs.NewValueIsInvalidErrorWithCause("assignment record",
			fmt.Errorf("record is for order %s", record.OrderID()))
	}
	if err := o.CanBeAssigned(); err != nil {
		return err
	}

	courierID := record.CourierID()
	eta := record.EstimatedArrival()

	o.courierID = &courierID
	o.assignment = &record
	o.estimatedDeliveryAt = &eta
	o.status = Assigned
	return nil
}

// StatusChange describes the side effects a transition requires from the caller.
type StatusChange struct {
	From Status
	To   Status

	// ReleasedCourier is set when the transition ends an active assignment.
	ReleasedCourier *kernel.UUID

	// CourierDelivered is true when the released courier completed the delivery.
	CourierDelivered bool

	// Restock is true when the reserved items must go back to stock.
	Restock bool

	// Reserve is true when a reopened order must take its items out of stock again.
	Reserve bool
}

// ChangeStatus applies a transition that was already authorized.
//
// Rules:
//   - Assigned and OnWay can only be entered from an active assignment; new
//     assignments go through AssignCourier
//   - Cancelled needs a non-empty reason
//   - Delivered stamps deliveredAt
//   - Moving back to a pre-assignment status detaches the courier
//   - Cancelled and Refunded restock only while the items are reserved and
//     the order is leaving a non-terminal status
//   - Reopening an order whose items went back to stock reserves them again
func (o *Order) ChangeStatus(target Status, reason string, at time.Time) (StatusChange, error) {
	if err := target.Validate(); err != nil {
		return StatusChange{}, err
	}

	if target.IsActiveAssignment() && (!o.status.IsActiveAssignment() || o.courierID == nil) {
		return StatusChange{}, errs.NewValueIsRequiredErrorWithCause("courier",
			fmt.Errorf("%s requires an active courier assignment, order is %s", target, o.status))
	}

	reason = strings.TrimSpace(reason)
	if target == Cancelled && reason == "" {
		return StatusChange{}, ErrCancellationReasonIsRequired
	}

	change := StatusChange{
		From:    o.status,
		To:      target,
		Restock: (target == Cancelled || target == Refunded) && o.stockReserved && !o.status.IsTerminal(),
		Reserve: !target.IsTerminal() && !o.stockReserved,
	}

	if o.status.IsActiveAssignment() && !target.IsActiveAssignment() && o.courierID != nil {
		released := *o.courierID
		change.ReleasedCourier = &released
		change.CourierDelivered = target == Delivered
	}

	switch {
	case target == Cancelled:
		o.cancellationReason = reason
	case target == Delivered:
		deliveredAt := at.UTC()
		o.deliveredAt = &deliveredAt
	case target.IsPreAssignment():
		o.courierID = nil
		o.assignment = nil
		o.estimatedDeliveryAt = nil
	}

	switch {
	case change.Restock:
		o.stockReserved = false
	case change.Reserve:
		o.stockReserved = true
	}

	o.status = target
	return change, nil
}

func (o *Order) recalculate() {
	subtotal := decimal.Zero
	for _, item := range o.items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	o.subtotal = subtotal
	o.total = subtotal.Add(o.deliveryFee)
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setCustomerID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("customer id", err)
	}
	o.customerID = id
	return nil
}

func (o *Order) setStoreID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("store id", err)
	}
	o.storeID = id
	return nil
}

func (o *Order) setAddress(address kernel.Address) error {
	if err := address.Validate(); err != nil {
		return err
	}
	o.address = address
	return nil
}

func (o *Order) setPaymentMethod(method PaymentMethod) error {
	if err := method.Validate(); err != nil {
		return err
	}
	o.paymentMethod = method
	return nil
}

func (o *Order) setStatus(status Status) error {
	if err := status.Validate(); err != nil {
		return err
	}
	o.status = status
	return nil
}

func (o *Order) setDeliveryFee(fee decimal.Decimal) error {
	if fee.IsNegative() {
		return errs.NewValueIsInvalidErrorWithCause("delivery fee", fmt.Errorf("%s is negative", fee))
	}
	o.deliveryFee = fee
	return nil
}

func (o *Order) setItems(items []Item) error {
	if len(items) == 0 {
		return ErrItemsAreRequired
	}

	for _, item := range items {
		if err := item.Validate(); err != nil {
			return err
		}
		if !item.StoreID().IsEqual(o.storeID) {
			return errs.NewValueIsInvalidErrorWithCause("items",
				fmt.Errorf("product %s belongs to store %s, order is for store %s",
					item.ProductID(), item.StoreID(), o.storeID))
		}
	}

	o.items = make([]Item, len(items))
	copy(o.items, items)
	return nil
}
