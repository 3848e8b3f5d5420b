package commands

import (
	"context"
	"log/slog"

	"dispatch/internal/core/ports"
)

// UpdateCourierLocationCommandHandler records the latest position of a courier.
// Reports are last-write-wins and also refresh the courier's last-active time.
type UpdateCourierLocationCommandHandler struct {
	uowFactory CourierUoWFactory
	registry   ports.StaffRegistry
	logger     *slog.Logger
}

func NewUpdateCourierLocationCommandHandler(
	uowFactory CourierUoWFactory,
	registry ports.StaffRegistry,
	logger *slog.Logger,
) UpdateCourierLocationCommandHandler {
	return UpdateCourierLocationCommandHandler{
		uowFactory: uowFactory,
		registry:   registry,
		logger:     logger.With("component", "update_courier_location"),
	}
}

func (h UpdateCourierLocationCommandHandler) Handle(ctx context.Context, cmd UpdateCourierLocationCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	if err := authorizeCourierActor(ctx, h.uowFactory, cmd.Actor(), cmd.CourierID(), "report courier location"); err != nil {
		return err
	}

	if err := h.registry.UpdateLocation(ctx, cmd.CourierID(), cmd.Point(), cmd.Label()); err != nil {
		return err
	}

	h.logger.DebugContext(ctx, "courier location updated",
		"courier_id", cmd.CourierID().String(), "point", cmd.Point().String())
	return nil
}
