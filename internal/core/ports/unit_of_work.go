package ports

import (
	"context"
)

// UnitOfWorkFactory creates a fresh UnitOfWork per command.
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UnitOfWork is a business transaction boundary. Repositories obtained after
// Begin run inside the transaction.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error

	// Rollback discards the transaction. Calling it after Commit is harmless.
	Rollback(ctx context.Context) error

	CourierRepository() CourierRepository
	OrderRepository() OrderRepository
	Catalog() Catalog
}
