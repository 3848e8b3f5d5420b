package commands

import (
	"context"
	"log/slog"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

// ReviewCourierCommandHandler lets an admin approve or reject an application.
// Approval re-activates the profile; rejection takes the courier off duty and
// fails with a ConflictError while the courier still holds orders.
type ReviewCourierCommandHandler struct {
	uowFactory CourierUoWFactory
	logger     *slog.Logger
}

func NewReviewCourierCommandHandler(uowFactory CourierUoWFactory, logger *slog.Logger) ReviewCourierCommandHandler {
	return ReviewCourierCommandHandler{
		uowFactory: uowFactory,
		logger:     logger.With("component", "review_courier"),
	}
}

func (h ReviewCourierCommandHandler) Handle(ctx context.Context, cmd ReviewCourierCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	if err := requireAdmin(cmd.Actor(), "review courier applications"); err != nil {
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

	if cmd.Approve() {
		c.Approve()
	} else if err = c.Reject(cmd.Reason()); err != nil {
		return err
	}

	if err = courierRepo.Update(ctx, c); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	h.logger.InfoContext(ctx, "courier reviewed",
		"courier_id", c.ID().String(), "approved", c.IsApproved(), "reviewer", cmd.Actor().String())
	return nil
}

func requireAdmin(actor kernel.Actor, action string) error {
	if actor.Role != kernel.Admin {
		return errs.NewPermissionDeniedError(actor.Role.String(), action)
	}
	return nil
}
