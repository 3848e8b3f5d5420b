package memory

import (
	"context"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

type CourierRepository struct {
	store *Store
	uow   *UnitOfWork
}

func (r *CourierRepository) Add(_ context.Context, c *courier.Courier) error {
	if err := c.Validate(); err != nil {
		return err
	}

	stored, err := cloneCourier(c)
	if err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for id, slot := range r.store.couriers {
		if id.IsEqual(c.ID()) {
			return errs.NewConflictError("courier", id.String()+" already exists")
		}
		if slot.userID.IsEqual(c.UserID()) {
			return errs.NewConflictError("courier", "user "+c.UserID().String()+" already has a courier profile")
		}
	}

	id := c.ID()
	r.store.couriers[id] = &courierSlot{userID: c.UserID(), courier: stored}
	r.uow.onRollback(func() {
		r.store.mu.Lock()
		delete(r.store.couriers, id)
		r.store.mu.Unlock()
	})
	return nil
}

func (r *CourierRepository) Update(_ context.Context, c *courier.Courier) error {
	if err := c.Validate(); err != nil {
		return err
	}

	slot, ok := r.store.slot(c.ID())
	if !ok {
		return errs.NewObjectNotFoundError("courier", c.ID().String())
	}

	next, err := cloneCourier(c)
	if err != nil {
		return err
	}

	r.withSlot(slot, func() {
		prev := slot.courier
		slot.courier = next
		r.uow.onRollback(func() { slot.courier = prev })
	})
	return nil
}

// Get locks the courier for the rest of the unit of work.
func (r *CourierRepository) Get(_ context.Context, id kernel.UUID) (*courier.Courier, error) {
	slot, ok := r.store.slot(id)
	if !ok {
		return nil, errs.NewObjectNotFoundError("courier", id.String())
	}

	var (
		c   *courier.Courier
		err error
	)
	r.withSlot(slot, func() { c, err = cloneCourier(slot.courier) })
	return c, err
}

func (r *CourierRepository) GetByUserID(_ context.Context, userID kernel.UUID) (*courier.Courier, error) {
	_, slot, ok := r.store.slotByUser(userID)
	if !ok {
		return nil, errs.NewObjectNotFoundError("courier of user", userID.String())
	}

	var (
		c   *courier.Courier
		err error
	)
	if r.uow.inTx() && r.uow.holds(slot) {
		c, err = cloneCourier(slot.courier)
		return c, err
	}

	slot.mu.Lock()
	c, err = cloneCourier(slot.courier)
	slot.mu.Unlock()
	return c, err
}

// withSlot runs fn with the courier locked. Inside a unit of work the lock
// is kept until it ends.
func (r *CourierRepository) withSlot(slot *courierSlot, fn func()) {
	if r.uow.inTx() {
		r.uow.lock(slot)
		fn()
		return
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()
	fn()
}
