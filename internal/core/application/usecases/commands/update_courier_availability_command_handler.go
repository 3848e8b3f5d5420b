package commands

import (
	"context"
	"errors"
	"log/slog"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

// UpdateCourierAvailabilityCommandHandler lets couriers toggle their own duty
// flag and admins toggle anyone's. Going available while holding an order is
// a ConflictError raised by the registry.
type UpdateCourierAvailabilityCommandHandler struct {
	uowFactory CourierUoWFactory
	registry   ports.StaffRegistry
	logger     *slog.Logger
}

func NewUpdateCourierAvailabilityCommandHandler(
	uowFactory CourierUoWFactory,
	registry ports.StaffRegistry,
	logger *slog.Logger,
) UpdateCourierAvailabilityCommandHandler {
	return UpdateCourierAvailabilityCommandHandler{
		uowFactory: uowFactory,
		registry:   registry,
		logger:     logger.With("component", "update_courier_availability"),
	}
}

func (h UpdateCourierAvailabilityCommandHandler) Handle(ctx context.Context, cmd UpdateCourierAvailabilityCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	if err := authorizeCourierActor(ctx, h.uowFactory, cmd.Actor(), cmd.CourierID(), "change courier availability"); err != nil {
		return err
	}

	if err := h.registry.UpdateAvailability(ctx, cmd.CourierID(), cmd.Available()); err != nil {
		return err
	}

	h.logger.InfoContext(ctx, "courier availability changed",
		"courier_id", cmd.CourierID().String(), "available", cmd.Available())
	return nil
}

// authorizeCourierActor lets admins act on any courier and delivery users on
// their own profile only. The lookup transaction ends before the caller
// touches the registry so no row lock is held across it.
func authorizeCourierActor(
	ctx context.Context,
	uowFactory CourierUoWFactory,
	actor kernel.Actor,
	courierID kernel.UUID,
	action string,
) error {
	if actor.Role == kernel.Admin {
		return nil
	}
	if actor.Role != kernel.Delivery {
		return errs.NewPermissionDeniedError(actor.Role.String(), action)
	}

	uow := uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	own, err := uow.CourierRepository().GetByUserID(ctx, actor.UserID)
	if errors.Is(err, errs.ErrObjectNotFound) {
		return errs.NewPermissionDeniedErrorWithCause(actor.Role.String(), action, err)
	}
	if err != nil {
		return err
	}

	if !own.ID().IsEqual(courierID) {
		return errs.NewPermissionDeniedError(actor.Role.String(), action)
	}
	return nil
}
