package memory

import (
	"context"
	"errors"
	"slices"
	"strings"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

// StaffRegistry serializes changes per courier. Claims on different couriers
// proceed in parallel.
type StaffRegistry struct {
	store *Store
}

func NewStaffRegistry(store *Store) *StaffRegistry {
	return &StaffRegistry{store: store}
}

func (r *StaffRegistry) SnapshotEligible(ctx context.Context) ([]courier.Candidate, error) {
	r.store.mu.RLock()
	slots := make([]*courierSlot, 0, len(r.store.couriers))
	for _, slot := range r.store.couriers {
		slots = append(slots, slot)
	}
	r.store.mu.RUnlock()

	candidates := make([]courier.Candidate, 0, len(slots))
	for _, slot := range slots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		slot.mu.Lock()
		if slot.courier.IsEligible() {
			candidates = append(candidates, slot.courier.Candidate())
		}
		slot.mu.Unlock()
	}

	slices.SortFunc(candidates, func(a, b courier.Candidate) int {
		return strings.Compare(a.CourierID.String(), b.CourierID.String())
	})
	return candidates, nil
}

func (r *StaffRegistry) Claim(ctx context.Context, courierID, orderID kernel.UUID) (bool, error) {
	if err := errors.Join(courierID.Validate(), orderID.Validate()); err != nil {
		return false, err
	}

	claimed := false
	err := r.withCourier(ctx, courierID, func(c *courier.Courier) error {
		var claimErr error
		claimed, claimErr = c.Claim(orderID)
		return claimErr
	})
	return claimed, err
}

func (r *StaffRegistry) Release(ctx context.Context, courierID, orderID kernel.UUID) error {
	return r.withCourier(ctx, courierID, func(c *courier.Courier) error {
		c.Release(orderID)
		return nil
	})
}

func (r *StaffRegistry) CompleteDelivery(ctx context.Context, courierID, orderID kernel.UUID) error {
	return r.withCourier(ctx, courierID, func(c *courier.Courier) error {
		c.CompleteDelivery(orderID)
		return nil
	})
}

func (r *StaffRegistry) UpdateLocation(ctx context.Context, courierID kernel.UUID, point kernel.GeoPoint, label string) error {
	return r.withCourier(ctx, courierID, func(c *courier.Courier) error {
		return c.UpdateLocation(point, label, r.store.now())
	})
}

func (r *StaffRegistry) UpdateAvailability(ctx context.Context, courierID kernel.UUID, available bool) error {
	return r.withCourier(ctx, courierID, func(c *courier.Courier) error {
		return c.SetAvailability(available)
	})
}

// withCourier applies fn to a copy under the courier's lock and keeps the
// copy only when fn succeeds.
func (r *StaffRegistry) withCourier(ctx context.Context, courierID kernel.UUID, fn func(c *courier.Courier) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	slot, ok := r.store.slot(courierID)
	if !ok {
		return errs.NewObjectNotFoundError("courier", courierID.String())
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()

	next, err := cloneCourier(slot.courier)
	if err != nil {
		return err
	}
	if err = fn(next); err != nil {
		return err
	}

	slot.courier = next
	return nil
}
