// Package commands holds the write side of dispatch. Every handler follows the
// same shape: validate the command, open a unit of work, load and mutate
// aggregates, commit, then run best-effort side effects such as notifications.
package commands

import (
	"context"
	"time"

	"dispatch/internal/core/ports"
)

// Unit of Work interfaces narrowed to what each handler touches.
type (
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	OrderRepoFactory interface {
		OrderRepository() ports.OrderRepository
	}

	CourierRepoFactory interface {
		CourierRepository() ports.CourierRepository
	}

	CatalogFactory interface {
		Catalog() ports.Catalog
	}

	// OrderUoW covers order creation: the order and the stock it reserves.
	OrderUoW interface {
		TxManager
		OrderRepoFactory
		CatalogFactory
	}

	OrderUoWFactory interface {
		Create() OrderUoW
	}

	// CourierUoW covers the courier approval workflow.
	CourierUoW interface {
		TxManager
		CourierRepoFactory
	}

	CourierUoWFactory interface {
		Create() CourierUoW
	}

	// UoW spans orders, couriers and the catalog.
	//
	// Example:
	//   uow := factory.Create()
	//   if err := uow.Begin(ctx); err != nil {
	//       return err
	//   }
	//   defer func() { _ = uow.Rollback(ctx) }()
	//
	//   o, err := uow.OrderRepository().Get(ctx, id)
	//   // ... mutate o
	//   if err = uow.OrderRepository().Update(ctx, o); err != nil {
	//       return err
	//   }
	//   return uow.Commit(ctx)
	UoW interface {
		TxManager
		OrderRepoFactory
		CourierRepoFactory
		CatalogFactory
	}

	UoWFactory interface {
		Create() UoW
	}
)

// Clock returns the current time. Handlers take it as a dependency so tests
// can pin timestamps.
type Clock func() time.Time
