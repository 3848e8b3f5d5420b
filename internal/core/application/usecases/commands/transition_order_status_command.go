package commands

import (
	"errors"
	"strings"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/guard"
)

var ErrTransitionOrderStatusCommandIsNotConstructed = errors.New(
	"TransitionOrderStatusCommand must be created via NewTransitionOrderStatusCommand constructor",
)

// TransitionOrderStatusCommand moves an order to a new status on behalf of an actor.
type TransitionOrderStatusCommand struct {
	actor   kernel.Actor
	orderID kernel.UUID
	target  order.Status
	reason  string

	guard guard.ConstructorGuard
}

// NewTransitionOrderStatusCommand checks the shape of the request. Whether the
// actor may perform it is decided by the handler.
func NewTransitionOrderStatusCommand(
	actor kernel.Actor,
	orderID kernel.UUID,
	target order.Status,
	reason string,
) (TransitionOrderStatusCommand, error) {
	cmd := TransitionOrderStatusCommand{
		actor:  actor,
		reason: strings.TrimSpace(reason),
		guard:  guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setActorID(actor.UserID),
		cmd.setOrderID(orderID),
		cmd.setTarget(target),
	); err != nil {
		return TransitionOrderStatusCommand{}, err
	}

	return cmd, nil
}

func (c TransitionOrderStatusCommand) Validate() error {
	return c.guard.Validate(ErrTransitionOrderStatusCommandIsNotConstructed)
}

func (c TransitionOrderStatusCommand) Actor() kernel.Actor {
	return c.actor
}

func (c TransitionOrderStatusCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c TransitionOrderStatusCommand) Target() order.Status {
	return c.target
}

func (c TransitionOrderStatusCommand) Reason() string {
	return c.reason
}

func (c *TransitionOrderStatusCommand) setActorID(id kernel.UUID) error {
	return id.Validate()
}

func (c *TransitionOrderStatusCommand) setOrderID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	c.orderID = id
	return nil
}

func (c *TransitionOrderStatusCommand) setTarget(target order.Status) error {
	if err := target.Validate(); err != nil {
		return err
	}
	c.target = target
	return nil
}
