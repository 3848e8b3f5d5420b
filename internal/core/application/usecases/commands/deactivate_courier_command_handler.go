package commands

import (
	"context"
	"log/slog"
)

// DeactivateCourierCommandHandler takes a courier off the platform for good.
// Profiles are never deleted. A courier holding orders cannot be deactivated.
type DeactivateCourierCommandHandler struct {
	uowFactory CourierUoWFactory
	logger     *slog.Logger
}

func NewDeactivateCourierCommandHandler(uowFactory CourierUoWFactory, logger *slog.Logger) DeactivateCourierCommandHandler {
	return DeactivateCourierCommandHandler{
		uowFactory: uowFactory,
		logger:     logger.With("component", "deactivate_courier"),
	}
}

func (h DeactivateCourierCommandHandler) Handle(ctx context.Context, cmd DeactivateCourierCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	if err := requireAdmin(cmd.Actor(), "deactivate couriers"); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	courierRepo := uow.CourierRepository()

	c, err := courierRepo.Get(ctx, cmd.CourierID())
	if err != nil {
		return err
	}

	if err = c.Deactivate(); err != nil {
		return err
	}

	if err = courierRepo.Update(ctx, c); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	h.logger.InfoContext(ctx, "courier deactivated", "courier_id", c.ID().String())
	return nil
}
