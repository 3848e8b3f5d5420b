package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

// CreateCourierCommandHandler registers a courier application. Each user may
// hold one courier profile; a second application is a ConflictError.
type CreateCourierCommandHandler struct {
	uowFactory CourierUoWFactory
	now        Clock
	logger     *slog.Logger
}

func NewCreateCourierCommandHandler(uowFactory CourierUoWFactory, now Clock, logger *slog.Logger) CreateCourierCommandHandler {
	return CreateCourierCommandHandler{
		uowFactory: uowFactory,
		now:        now,
		logger:     logger.With("component", "create_courier"),
	}
}

// Handle stores the unapproved profile and returns its id.
func (h CreateCourierCommandHandler) Handle(ctx context.Context, cmd CreateCourierCommand) (kernel.UUID, error) {
	if err := cmd.Validate(); err != nil {
		return kernel.UUID{}, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return kernel.UUID{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	courierRepo := uow.CourierRepository()

	existing, err := courierRepo.GetByUserID(ctx, cmd.UserID())
	switch {
	case err == nil:
		return kernel.UUID{}, errs.NewConflictError("courier",
			fmt.Sprintf("profile %s already exists for user %s", existing.ID(), cmd.UserID()))
	case !errors.Is(err, errs.ErrObjectNotFound):
		return kernel.UUID{}, err
	}

	c, err := courier.NewCourier(cmd.CourierID(), cmd.UserID(), cmd.Vehicle(), cmd.Phone(), cmd.VehicleNumber(), h.now())
	if err != nil {
		return kernel.UUID{}, err
	}

	if err = courierRepo.Add(ctx, c); err != nil {
		return kernel.UUID{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return kernel.UUID{}, err
	}

	h.logger.InfoContext(ctx, "courier application received",
		"courier_id", c.ID().String(), "user_id", c.UserID().String(), "vehicle", c.Vehicle().String())

	return c.ID(), nil
}
