package memory

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"
)

type OrderRepository struct {
	store *Store
	uow   *UnitOfWork
}

func (r *OrderRepository) Add(_ context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	stored, err := cloneOrder(aggregate)
	if err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	id := aggregate.ID()
	if _, exists := r.store.orders[id]; exists {
		return errs.NewConflictError("order", id.String()+" already exists")
	}

	r.store.orders[id] = stored
	r.uow.onRollback(func() {
		r.store.mu.Lock()
		delete(r.store.orders, id)
		r.store.mu.Unlock()
	})
	return nil
}

func (r *OrderRepository) Update(_ context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	next, err := cloneOrder(aggregate)
	if err != nil {
		return err
	}
	next.IncrementVersion()

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	id := aggregate.ID()
	prev, ok := r.store.orders[id]
	if !ok {
		return errs.NewObjectNotFoundError("order", id.String())
	}
	if prev.Version() != aggregate.Version() {
		return errs.NewConflictErrorWithCause("order", "was modified concurrently", errs.NewVersionIsInvalidError("version"))
	}

	r.store.orders[id] = next
	aggregate.IncrementVersion()
	r.uow.onRollback(func() {
		r.store.mu.Lock()
		r.store.orders[id] = prev
		r.store.mu.Unlock()
	})
	return nil
}

func (r *OrderRepository) Get(_ context.Context, id kernel.UUID) (*order.Order, error) {
	r.store.mu.RLock()
	stored, ok := r.store.orders[id]
	r.store.mu.RUnlock()

	if !ok {
		return nil, errs.NewObjectNotFoundError("order", id.String())
	}
	return cloneOrder(stored)
}
