package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrUpdateCourierAvailabilityCommandIsNotConstructed = errors.New(
	"UpdateCourierAvailabilityCommand must be created via NewUpdateCourierAvailabilityCommand constructor",
)

// UpdateCourierAvailabilityCommand switches a courier on or off duty.
type UpdateCourierAvailabilityCommand struct {
	actor     kernel.Actor
	courierID kernel.UUID
	available bool

	guard guard.ConstructorGuard
}

func NewUpdateCourierAvailabilityCommand(
	actor kernel.Actor,
	courierID kernel.UUID,
	available bool,
) (UpdateCourierAvailabilityCommand, error) {
	if err := courierID.Validate(); err != nil {
		return UpdateCourierAvailabilityCommand{}, err
	}

	return UpdateCourierAvailabilityCommand{
		actor:     actor,
		courierID: courierID,
		available: available,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (c UpdateCourierAvailabilityCommand) Validate() error {
	return c.guard.Validate(ErrUpdateCourierAvailabilityCommandIsNotConstructed)
}

func (c UpdateCourierAvailabilityCommand) Actor() kernel.Actor {
	return c.actor
}

func (c UpdateCourierAvailabilityCommand) CourierID() kernel.UUID {
	return c.courierID
}

func (c UpdateCourierAvailabilityCommand) Available() bool {
	return c.available
}
