package commands

import (
	"errors"
	"fmt"
	"strings"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var (
	ErrCreateOrderCommandIsNotConstructed = errors.New(
		"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
	)
	ErrOrderLinesAreRequired = errs.NewValueIsRequiredError("items")
)

// OrderLine is one requested product and quantity.
type OrderLine struct {
	ProductID kernel.UUID
	Quantity  int
}

// CreateOrderCommand places a customer order. Prices and the store come from
// the catalog, never from the request.
//
// Example:
//
//	point, _ := kernel.NewGeoPoint(30.0444, 31.2357)
//	address, _ := kernel.NewAddress(point, "12 Tahrir St", "floor 3", "Mona", "+20100")
//	cmd, err := NewCreateOrderCommand(customerID,
//	    []OrderLine{{ProductID: breadID, Quantity: 2}}, address, order.Cash, "ring twice")
//	if err != nil {
//	    return err
//	}
//	result, err := handler.Handle(ctx, cmd)
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	orderID       kernel.UUID
	customerID    kernel.UUID
	lines         []OrderLine
	address       kernel.Address
	paymentMethod order.PaymentMethod
	notes         string

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand generates the order id and validates the request shape.
func NewCreateOrderCommand(
	customerID kernel.UUID,
	lines []OrderLine,
	address kernel.Address,
	paymentMethod order.PaymentMethod,
	notes string,
) (CreateOrderCommand, error) {
	cmd := CreateOrderCommand{
		orderID: kernel.NewUUID(),
		notes:   strings.TrimSpace(notes),
		guard:   guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setCustomerID(customerID),
		cmd.setLines(lines),
		cmd.setAddress(address),
		cmd.setPaymentMethod(paymentMethod),
	); err != nil {
		return CreateOrderCommand{}, err
	}

	return cmd, nil
}

func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

func (c CreateOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c CreateOrderCommand) CustomerID() kernel.UUID {
	return c.customerID
}

func (c CreateOrderCommand) Lines() []OrderLine {
	out := make([]OrderLine, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c CreateOrderCommand) Address() kernel.Address {
	return c.address
}

func (c CreateOrderCommand) PaymentMethod() order.PaymentMethod {
	return c.paymentMethod
}

func (c CreateOrderCommand) Notes() string {
	return c.notes
}

func (c *CreateOrderCommand) setCustomerID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("customer id", err)
	}
	c.customerID = id
	return nil
}

func (c *CreateOrderCommand) setLines(lines []OrderLine) error {
	if len(lines) == 0 {
		return ErrOrderLinesAreRequired
	}

	for i, line := range lines {
		if err := line.ProductID.Validate(); err != nil {
			return errs.NewValueIsRequiredErrorWithCause(fmt.Sprintf("items[%d].product id", i), err)
		}
		if line.Quantity < 1 {
			return errs.NewValueIsInvalidErrorWithCause(fmt.Sprintf("items[%d].quantity", i),
				fmt.Errorf("%d is less than 1", line.Quantity))
		}
	}

	c.lines = make([]OrderLine, len(lines))
	copy(c.lines, lines)
	return nil
}

func (c *CreateOrderCommand) setAddress(address kernel.Address) error {
	if err := address.Validate(); err != nil {
		return err
	}
	c.address = address
	return nil
}

func (c *CreateOrderCommand) setPaymentMethod(method order.PaymentMethod) error {
	if err := method.Validate(); err != nil {
		return err
	}
	c.paymentMethod = method
	return nil
}
