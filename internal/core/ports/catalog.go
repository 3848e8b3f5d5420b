package ports

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"

	"github.com/shopspring/decimal"
)

// Store is the part of a store record the dispatch core reads.
type Store struct {
	ID                      kernel.UUID
	OwnerID                 kernel.UUID
	Name                    string
	HasDelivery             bool
	IsFreeDelivery          bool
	DeliveryFee             decimal.Decimal
	MinOrderForFreeDelivery decimal.Decimal
}

// Product is the part of a catalog product the dispatch core reads.
type Product struct {
	ID       kernel.UUID
	StoreID  kernel.UUID
	Name     string
	Price    decimal.Decimal
	Quantity int
}

// StockLine is a quantity of one product to take from or return to stock.
type StockLine struct {
	ProductID kernel.UUID
	Quantity  int
}

// Catalog reads stores and products and moves stock. It shares the unit of
// work's transaction so reservations commit or roll back with the order.
type Catalog interface {
	GetStore(ctx context.Context, id kernel.UUID) (Store, error)
	GetProduct(ctx context.Context, id kernel.UUID) (Product, error)

	// ReserveStock decrements every line or none of them. A line exceeding the
	// remaining quantity is a ConflictError.
	ReserveStock(ctx context.Context, lines []StockLine) error

	// RestockItems returns quantities to stock.
	RestockItems(ctx context.Context, lines []StockLine) error
}
