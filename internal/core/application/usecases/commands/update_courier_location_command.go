package commands

import (
	"errors"
	"strings"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrUpdateCourierLocationCommandIsNotConstructed = errors.New(
	"UpdateCourierLocationCommand must be created via NewUpdateCourierLocationCommand constructor",
)

// UpdateCourierLocationCommand is a position report from a courier's device.
type UpdateCourierLocationCommand struct {
	actor     kernel.Actor
	courierID kernel.UUID
	point     kernel.GeoPoint
	label     string

	guard guard.ConstructorGuard
}

func NewUpdateCourierLocationCommand(
	actor kernel.Actor,
	courierID kernel.UUID,
	point kernel.GeoPoint,
	label string,
) (UpdateCourierLocationCommand, error) {
	if err := errors.Join(courierID.Validate(), point.Validate()); err != nil {
		return UpdateCourierLocationCommand{}, err
	}

	return UpdateCourierLocationCommand{
		actor:     actor,
		courierID: courierID,
		point:     point,
		label:     strings.TrimSpace(label),
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (c UpdateCourierLocationCommand) Validate() error {
	return c.guard.Validate(ErrUpdateCourierLocationCommandIsNotConstructed)
}

func (c UpdateCourierLocationCommand) Actor() kernel.Actor {
	return c.actor
}

func (c UpdateCourierLocationCommand) CourierID() kernel.UUID {
	return c.courierID
}

func (c UpdateCourierLocationCommand) Point() kernel.GeoPoint {
	return c.point
}

func (c UpdateCourierLocationCommand) Label() string {
	return c.label
}
