package ports

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

// OrderRepository persists order aggregates with optimistic concurrency.
type OrderRepository interface {
	// Add stores a new order together with its line items.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update writes the order if its stored version still matches
	// aggregate.Version(), then bumps the version. A stale version yields a
	// ConflictError wrapping errs.ErrVersionIsInvalid.
	Update(ctx context.Context, aggregate *order.Order) error

	// Get returns the order with its items, or an ObjectNotFoundError.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)
}
