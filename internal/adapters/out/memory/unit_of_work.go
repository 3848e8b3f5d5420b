package memory

import (
	"context"
	"slices"

	"dispatch/internal/core/ports"
)

type UnitOfWorkFactory struct {
	store *Store
}

func NewUnitOfWorkFactory(store *Store) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{store: store}
}

func (f *UnitOfWorkFactory) Create() ports.UnitOfWork {
	return &UnitOfWork{store: f.store}
}

// UnitOfWork serializes with every other unit of work on the same store.
// Couriers loaded or written inside it stay locked until Commit or Rollback,
// like a row lock, so registry updates to them wait.
type UnitOfWork struct {
	store  *Store
	open   bool
	undo   []func()
	locked []*courierSlot
}

// Begin waits for the previous unit of work to finish or ctx to end.
func (u *UnitOfWork) Begin(ctx context.Context) error {
	if u.open {
		return nil
	}

	select {
	case u.store.tx <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	u.open = true
	return nil
}

func (u *UnitOfWork) Commit(_ context.Context) error {
	if !u.open {
		return ErrNoTransaction
	}

	u.finish()
	return nil
}

func (u *UnitOfWork) Rollback(_ context.Context) error {
	if !u.open {
		return nil
	}

	for i := len(u.undo) - 1; i >= 0; i-- {
		u.undo[i]()
	}
	u.finish()
	return nil
}

func (u *UnitOfWork) OrderRepository() ports.OrderRepository {
	return &OrderRepository{store: u.store, uow: u.active()}
}

func (u *UnitOfWork) CourierRepository() ports.CourierRepository {
	return &CourierRepository{store: u.store, uow: u.active()}
}

func (u *UnitOfWork) Catalog() ports.Catalog {
	return &Catalog{store: u.store, uow: u.active()}
}

// active returns u while a transaction is open, nil otherwise.
func (u *UnitOfWork) active() *UnitOfWork {
	if u.open {
		return u
	}
	return nil
}

func (u *UnitOfWork) inTx() bool {
	return u != nil && u.open
}

// onRollback registers an undo step. Outside a transaction writes are final.
func (u *UnitOfWork) onRollback(fn func()) {
	if u.inTx() {
		u.undo = append(u.undo, fn)
	}
}

func (u *UnitOfWork) holds(slot *courierSlot) bool {
	return slices.Contains(u.locked, slot)
}

// lock takes the courier until the unit of work ends.
func (u *UnitOfWork) lock(slot *courierSlot) {
	if u.holds(slot) {
		return
	}
	slot.mu.Lock()
	u.locked = append(u.locked, slot)
}

func (u *UnitOfWork) finish() {
	for _, slot := range u.locked {
		slot.mu.Unlock()
	}
	u.locked = nil
	u.undo = nil
	u.open = false
	<-u.store.tx
}
