package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrDeactivateCourierCommandIsNotConstructed = errors.New(
	"DeactivateCourierCommand must be created via NewDeactivateCourierCommand constructor",
)

// DeactivateCourierCommand soft-deletes a courier profile.
type DeactivateCourierCommand struct {
	actor     kernel.Actor
	courierID kernel.UUID

	guard guard.ConstructorGuard
}

func NewDeactivateCourierCommand(actor kernel.Actor, courierID kernel.UUID) (DeactivateCourierCommand, error) {
	if err := courierID.Validate(); err != nil {
		return DeactivateCourierCommand{}, err
	}

	return DeactivateCourierCommand{
		actor:     actor,
		courierID: courierID,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (c DeactivateCourierCommand) Validate() error {
	return c.guard.Validate(ErrDeactivateCourierCommandIsNotConstructed)
}

func (c DeactivateCourierCommand) Actor() kernel.Actor {
	return c.actor
}

func (c DeactivateCourierCommand) CourierID() kernel.UUID {
	return c.courierID
}
