package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrAssignCourierCommandIsNotConstructed = errors.New(
	"AssignCourierCommand must be created via NewAssignCourierCommand constructor",
)

// AssignCourierCommand asks the engine to find a courier for one order.
//
// Example:
//
//	cmd, err := NewAssignCourierCommand(orderID)
//	if err != nil {
//	    return err
//	}
//	result, err := handler.Handle(ctx, cmd)
//	if err == nil && !result.Assigned {
//	    // no courier in range; the retry job will try again
//	}
type AssignCourierCommand struct {
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

func NewAssignCourierCommand(orderID kernel.UUID) (AssignCourierCommand, error) {
	if err := orderID.Validate(); err != nil {
		return AssignCourierCommand{}, err
	}

	return AssignCourierCommand{
		orderID: orderID,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (c AssignCourierCommand) Validate() error {
	return c.guard.Validate(ErrAssignCourierCommandIsNotConstructed)
}

func (c AssignCourierCommand) OrderID() kernel.UUID {
	return c.orderID
}
