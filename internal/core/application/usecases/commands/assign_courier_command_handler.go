package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

// DefaultSnapshotTimeout bounds the eligible-courier read.
const DefaultSnapshotTimeout = 2 * time.Second

// AssignmentSettings tune the search.
type AssignmentSettings struct {
	MaxDistanceKm   float64
	SnapshotTimeout time.Duration
}

func (s AssignmentSettings) withDefaults() AssignmentSettings {
	if s.MaxDistanceKm <= 0 {
		s.MaxDistanceKm = services.DefaultMaxDistanceKm
	}
	if s.SnapshotTimeout <= 0 {
		s.SnapshotTimeout = DefaultSnapshotTimeout
	}
	return s
}

// AssignCourierResult is the outcome of an assignment attempt. Assigned is
// false when no courier in range could be claimed; that is not an error.
type AssignCourierResult struct {
	Assigned            bool
	OrderID             kernel.UUID
	CourierID           kernel.UUID
	DistanceKm          float64
	EtaMinutes          int
	EstimatedDeliveryAt time.Time
}

// CourierAssigner is what other handlers and the retry job need from assignment.
type CourierAssigner interface {
	Handle(ctx context.Context, cmd AssignCourierCommand) (AssignCourierResult, error)
}

// AssignCourierCommandHandler attaches the nearest free courier to an order.
//
// The search is greedy: couriers are ranked by distance from a point-in-time
// snapshot and claimed one by one through the StaffRegistry until a claim
// succeeds. Losing a claim to a concurrent order just moves on to the next
// candidate. If the order save then loses its optimistic version check the
// claim is handed back.
type AssignCourierCommandHandler struct {
	uowFactory UoWFactory
	registry   ports.StaffRegistry
	geo        services.GeoIndex
	notifier   ports.Notifier
	settings   AssignmentSettings
	now        Clock
	logger     *slog.Logger
}

func NewAssignCourierCommandHandler(
	uowFactory UoWFactory,
	registry ports.StaffRegistry,
	geo services.GeoIndex,
	notifier ports.Notifier,
	settings AssignmentSettings,
	now Clock,
	logger *slog.Logger,
) AssignCourierCommandHandler {
	return AssignCourierCommandHandler{
		uowFactory: uowFactory,
		registry:   registry,
		geo:        geo,
		notifier:   notifier,
		settings:   settings.withDefaults(),
		now:        now,
		logger:     logger.With("component", "assign_courier"),
	}
}

func (h AssignCourierCommandHandler) Handle(ctx context.Context, cmd AssignCourierCommand) (AssignCourierResult, error) {
	if err := cmd.Validate(); err != nil {
		return AssignCourierResult{}, err
	}

	result := AssignCourierResult{OrderID: cmd.OrderID()}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return result, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()

	o, err := orderRepo.Get(ctx, cmd.OrderID())
	if err != nil {
		return result, err
	}
	if err = o.CanBeAssigned(); err != nil {
		return result, err
	}

	ranked, err := h.rankCandidates(ctx, o)
	if err != nil {
		return result, err
	}

	winner, ok, err := h.claimNearest(ctx, o.ID(), ranked)
	if err != nil {
		return result, err
	}
	if !ok {
		h.logger.InfoContext(ctx, "no courier available",
			"order_id", o.ID().String(), "candidates", len(ranked))
		return result, nil
	}

	record, err := order.NewAssignmentRecord(o.ID(), winner.CourierID, winner.DistanceKm, winner.EtaMinutes, h.now())
	if err != nil {
		h.release(ctx, winner.CourierID, o.ID())
		return result, err
	}

	if err = o.AssignCourier(record); err != nil {
		h.release(ctx, winner.CourierID, o.ID())
		return result, err
	}

	if err = orderRepo.Update(ctx, o); err != nil {
		h.release(ctx, winner.CourierID, o.ID())
		return result, err
	}

	if err = uow.Commit(ctx); err != nil {
		h.release(ctx, winner.CourierID, o.ID())
		return result, err
	}

	result.Assigned = true
	result.CourierID = winner.CourierID
	result.DistanceKm = winner.DistanceKm
	result.EtaMinutes = winner.EtaMinutes
	result.EstimatedDeliveryAt = record.EstimatedArrival()

	h.logger.InfoContext(ctx, "courier assigned",
		"order_id", o.ID().String(),
		"courier_id", winner.CourierID.String(),
		"distance_km", winner.DistanceKm,
		"eta_minutes", winner.EtaMinutes)

	h.notifyCourier(ctx, winner, result)
	return result, nil
}

func (h AssignCourierCommandHandler) rankCandidates(ctx context.Context, o *order.Order) ([]services.RankedCandidate, error) {
	snapshotCtx, cancel := context.WithTimeout(ctx, h.settings.SnapshotTimeout)
	defer cancel()

	candidates, err := h.registry.SnapshotEligible(snapshotCtx)
	if err != nil {
		return nil, fmt.Errorf("snapshot eligible couriers: %w", err)
	}

	return h.geo.Rank(candidates, o.Address().Point(), h.settings.MaxDistanceKm)
}

// claimNearest walks the ranking until one claim sticks.
func (h AssignCourierCommandHandler) claimNearest(
	ctx context.Context,
	orderID kernel.UUID,
	ranked []services.RankedCandidate,
) (services.RankedCandidate, bool, error) {
	for _, candidate := range ranked {
		claimed, err := h.registry.Claim(ctx, candidate.CourierID, orderID)
		if errors.Is(err, errs.ErrObjectNotFound) {
			continue
		}
		if err != nil {
			return services.RankedCandidate{}, false, err
		}
		if claimed {
			return candidate, true, nil
		}

		h.logger.DebugContext(ctx, "claim lost",
			"order_id", orderID.String(), "courier_id", candidate.CourierID.String())
	}

	return services.RankedCandidate{}, false, nil
}

func (h AssignCourierCommandHandler) release(ctx context.Context, courierID, orderID kernel.UUID) {
	if err := h.registry.Release(ctx, courierID, orderID); err != nil {
		h.logger.ErrorContext(ctx, "failed to release claimed courier",
			"order_id", orderID.String(), "courier_id", courierID.String(), "error", err)
	}
}

func (h AssignCourierCommandHandler) notifyCourier(
	ctx context.Context,
	winner services.RankedCandidate,
	result AssignCourierResult,
) {
	n := ports.Notification{
		RecipientUserID: winner.UserID,
		Kind:            ports.CourierAssigned,
		Title:           "New delivery assigned",
		Message:         fmt.Sprintf("Order %s is %.1f km away, about %d min", result.OrderID, result.DistanceKm, result.EtaMinutes),
		OrderID:         result.OrderID,
		Data: map[string]string{
			"status":      order.Assigned.String(),
			"distance_km": strconv.FormatFloat(result.DistanceKm, 'f', 2, 64),
			"eta_minutes": strconv.Itoa(result.EtaMinutes),
		},
	}

	if err := h.notifier.Notify(ctx, n); err != nil {
		h.logger.WarnContext(ctx, "failed to notify courier",
			"order_id", result.OrderID.String(), "user_id", winner.UserID.String(), "error", err)
	}
}
