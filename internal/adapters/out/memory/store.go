// Package memory keeps dispatch state in process memory. Units of work run
// one at a time and undo their writes on rollback; the staff registry locks
// each courier separately so claims on different couriers never wait on each
// other.
//
// Reads made outside a unit of work may observe writes of the open one.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
)

var ErrNoTransaction = errors.New("memory: no open unit of work")

// courierSlot owns one courier. userID never changes after creation.
type courierSlot struct {
	userID kernel.UUID

	mu      sync.Mutex
	courier *courier.Courier
}

type Store struct {
	// tx holds a token while a unit of work is open.
	tx chan struct{}

	mu       sync.RWMutex
	orders   map[kernel.UUID]*order.Order
	couriers map[kernel.UUID]*courierSlot
	stores   map[kernel.UUID]ports.Store
	products map[kernel.UUID]ports.Product

	now func() time.Time
}

func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		tx:       make(chan struct{}, 1),
		orders:   make(map[kernel.UUID]*order.Order),
		couriers: make(map[kernel.UUID]*courierSlot),
		stores:   make(map[kernel.UUID]ports.Store),
		products: make(map[kernel.UUID]ports.Product),
		now:      now,
	}
}

// Seed loads stores and products, replacing entries with the same id.
func (s *Store) Seed(_ context.Context, stores []ports.Store, products []ports.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, store := range stores {
		if err := store.ID.Validate(); err != nil {
			return err
		}
		s.stores[store.ID] = store
	}
	for _, product := range products {
		if err := product.ID.Validate(); err != nil {
			return err
		}
		s.products[product.ID] = product
	}
	return nil
}

func (s *Store) slot(id kernel.UUID) (*courierSlot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	slot, ok := s.couriers[id]
	return slot, ok
}

func (s *Store) slotByUser(userID kernel.UUID) (kernel.UUID, *courierSlot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for id, slot := range s.couriers {
		if slot.userID.IsEqual(userID) {
			return id, slot, true
		}
	}
	return kernel.UUID{}, nil, false
}
