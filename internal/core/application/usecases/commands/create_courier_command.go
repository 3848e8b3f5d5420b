package commands

import (
	"errors"
	"strings"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var (
	ErrCreateCourierCommandIsNotConstructed = errors.New(
		"CreateCourierCommand must be created via NewCreateCourierCommand constructor",
	)
	ErrPhoneIsRequired = errs.NewValueIsRequiredError("phone")
)

// CreateCourierCommand is a user's application to deliver for the platform.
//
// Example:
//
//	cmd, err := NewCreateCourierCommand(userID, courier.Motorcycle, "+20100", "ABC 123")
//	if err != nil {
//	    return err
//	}
//	courierID, err := handler.Handle(ctx, cmd)
type CreateCourierCommand struct { //nolint:recvcheck //using for validation
	courierID     kernel.UUID
	userID        kernel.UUID
	vehicle       courier.VehicleType
	phone         string
	vehicleNumber string

	guard guard.ConstructorGuard
}

// NewCreateCourierCommand generates the courier id and validates the application.
func NewCreateCourierCommand(
	userID kernel.UUID,
	vehicle courier.VehicleType,
	phone, vehicleNumber string,
) (CreateCourierCommand, error) {
	cmd := CreateCourierCommand{
		courierID:     kernel.NewUUID(),
		vehicleNumber: strings.TrimSpace(vehicleNumber),
		guard:         guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setUserID(userID),
		cmd.setVehicle(vehicle),
		cmd.setPhone(phone),
	); err != nil {
		return CreateCourierCommand{}, err
	}

	return cmd, nil
}

func (c CreateCourierCommand) Validate() error {
	return c.guard.Validate(ErrCreateCourierCommandIsNotConstructed)
}

func (c CreateCourierCommand) CourierID() kernel.UUID {
	return c.courierID
}

func (c CreateCourierCommand) UserID() kernel.UUID {
	return c.userID
}

func (c CreateCourierCommand) Vehicle() courier.VehicleType {
	return c.vehicle
}

func (c CreateCourierCommand) Phone() string {
	return c.phone
}

func (c CreateCourierCommand) VehicleNumber() string {
	return c.vehicleNumber
}

func (c *CreateCourierCommand) setUserID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("user id", err)
	}
	c.userID = id
	return nil
}

func (c *CreateCourierCommand) setVehicle(vehicle courier.VehicleType) error {
	if err := vehicle.Validate(); err != nil {
		return err
	}
	c.vehicle = vehicle
	return nil
}

func (c *CreateCourierCommand) setPhone(phone string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ErrPhoneIsRequired
	}
	c.phone = phone
	return nil
}
