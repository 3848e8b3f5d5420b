package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

// TransitionOrderStatusResult reports the applied change.
type TransitionOrderStatusResult struct {
	OrderID kernel.UUID
	From    order.Status
	To      order.Status
}

// TransitionOrderStatusCommandHandler applies a role-checked status change.
//
// Inside one transaction it authorizes the actor, mutates the order, returns
// stock for cancellations and refunds (or takes it again when a released
// order is reopened), and saves with a version check. After
// commit it frees the courier when an active assignment ended and sends one
// notification to the counterpart. Failures after commit are logged only.
type TransitionOrderStatusCommandHandler struct {
	uowFactory UoWFactory
	registry   ports.StaffRegistry
	policy     services.TransitionPolicy
	notifier   ports.Notifier
	now        Clock
	logger     *slog.Logger
}

func NewTransitionOrderStatusCommandHandler(
	uowFactory UoWFactory,
	registry ports.StaffRegistry,
	policy services.TransitionPolicy,
	notifier ports.Notifier,
	now Clock,
	logger *slog.Logger,
) TransitionOrderStatusCommandHandler {
	return TransitionOrderStatusCommandHandler{
		uowFactory: uowFactory,
		registry:   registry,
		policy:     policy,
		notifier:   notifier,
		now:        now,
		logger:     logger.With("component", "transition_order_status"),
	}
}

func (h TransitionOrderStatusCommandHandler) Handle(
	ctx context.Context,
	cmd TransitionOrderStatusCommand,
) (TransitionOrderStatusResult, error) {
	if err := cmd.Validate(); err != nil {
		return TransitionOrderStatusResult{}, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return TransitionOrderStatusResult{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()
	courierRepo := uow.CourierRepository()
	catalog := uow.Catalog()

	o, err := orderRepo.Get(ctx, cmd.OrderID())
	if err != nil {
		return TransitionOrderStatusResult{}, err
	}

	store, err := catalog.GetStore(ctx, o.StoreID())
	if err != nil {
		return TransitionOrderStatusResult{}, err
	}

	subject := services.TransitionSubject{Order: o, StoreOwnerID: store.OwnerID}
	if cmd.Actor().Role == kernel.Delivery {
		subject.ActorCourierID, err = h.actorCourierID(ctx, courierRepo, cmd.Actor())
		if err != nil {
			return TransitionOrderStatusResult{}, err
		}
	}

	if err = h.policy.Authorize(cmd.Actor(), subject, cmd.Target()); err != nil {
		return TransitionOrderStatusResult{}, err
	}

	change, err := o.ChangeStatus(cmd.Target(), cmd.Reason(), h.now())
	if err != nil {
		return TransitionOrderStatusResult{}, err
	}

	switch {
	case change.Restock:
		if err = catalog.RestockItems(ctx, stockLines(o.Items())); err != nil {
			return TransitionOrderStatusResult{}, err
		}
	case change.Reserve:
		if err = catalog.ReserveStock(ctx, stockLines(o.Items())); err != nil {
			return TransitionOrderStatusResult{}, err
		}
	}

	parties := services.Parties{CustomerID: o.CustomerID(), StoreOwnerID: store.OwnerID}
	if change.To == order.Assigned && o.CourierID() != nil {
		c, getErr := courierRepo.Get(ctx, *o.CourierID())
		if getErr != nil {
			return TransitionOrderStatusResult{}, getErr
		}
		userID := c.UserID()
		parties.CourierUserID = &userID
	}

	if err = orderRepo.Update(ctx, o); err != nil {
		return TransitionOrderStatusResult{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return TransitionOrderStatusResult{}, err
	}

	h.logger.InfoContext(ctx, "order status changed",
		"order_id", o.ID().String(),
		"actor", cmd.Actor().String(),
		"from", change.From.String(),
		"to", change.To.String())

	h.freeCourier(ctx, o.ID(), change)
	h.notify(ctx, cmd.Actor(), o, change, parties)

	return TransitionOrderStatusResult{OrderID: o.ID(), From: change.From, To: change.To}, nil
}

// actorCourierID resolves the courier profile of a delivery user, nil if none.
func (h TransitionOrderStatusCommandHandler) actorCourierID(
	ctx context.Context,
	repo ports.CourierRepository,
	actor kernel.Actor,
) (*kernel.UUID, error) {
	c, err := repo.GetByUserID(ctx, actor.UserID)
	if errors.Is(err, errs.ErrObjectNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	id := c.ID()
	return &id, nil
}

func (h TransitionOrderStatusCommandHandler) freeCourier(ctx context.Context, orderID kernel.UUID, change order.StatusChange) {
	if change.ReleasedCourier == nil {
		return
	}

	courierID := *change.ReleasedCourier

	var err error
	if change.CourierDelivered {
		err = h.registry.CompleteDelivery(ctx, courierID, orderID)
	} else {
		err = h.registry.Release(ctx, courierID, orderID)
	}

	if err != nil {
		h.logger.ErrorContext(ctx, "failed to free courier",
			"order_id", orderID.String(), "courier_id", courierID.String(), "error", err)
	}
}

func (h TransitionOrderStatusCommandHandler) notify(
	ctx context.Context,
	actor kernel.Actor,
	o *order.Order,
	change order.StatusChange,
	parties services.Parties,
) {
	recipient, ok := services.RecipientOf(change.To, actor, parties)
	if !ok {
		h.logger.WarnContext(ctx, "no recipient for status notification",
			"order_id", o.ID().String(), "status", change.To.String())
		return
	}

	message := fmt.Sprintf("Order %s is now %s", o.ID(), change.To)
	if change.To == order.Cancelled {
		message = fmt.Sprintf("Order %s was cancelled: %s", o.ID(), o.CancellationReason())
	}

	n := ports.Notification{
		RecipientUserID: recipient,
		Kind:            ports.OrderStatusChanged,
		Title:           "Order update",
		Message:         message,
		OrderID:         o.ID(),
		Data: map[string]string{
			"from": change.From.String(),
			"to":   change.To.String(),
		},
	}

	if err := h.notifier.Notify(ctx, n); err != nil {
		h.logger.WarnContext(ctx, "failed to notify status change",
			"order_id", o.ID().String(), "user_id", recipient.String(), "error", err)
	}
}

func stockLines(items []order.Item) []ports.StockLine {
	lines := make([]ports.StockLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, ports.StockLine{ProductID: item.ProductID(), Quantity: item.Quantity()})
	}
	return lines
}
