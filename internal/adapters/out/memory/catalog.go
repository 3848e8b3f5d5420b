package memory

import (
	"context"
	"fmt"
	"maps"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

type Catalog struct {
	store *Store
	uow   *UnitOfWork
}

func (c *Catalog) GetStore(_ context.Context, id kernel.UUID) (ports.Store, error) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	store, ok := c.store.stores[id]
	if !ok {
		return ports.Store{}, errs.NewObjectNotFoundError("store", id.String())
	}
	return store, nil
}

func (c *Catalog) GetProduct(_ context.Context, id kernel.UUID) (ports.Product, error) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	product, ok := c.store.products[id]
	if !ok {
		return ports.Product{}, errs.NewObjectNotFoundError("product", id.String())
	}
	return product, nil
}

// ReserveStock checks every line before touching any quantity.
func (c *Catalog) ReserveStock(_ context.Context, lines []ports.StockLine) error {
	requested := totals(lines)

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	for id, quantity := range requested {
		product, ok := c.store.products[id]
		if !ok {
			return errs.NewObjectNotFoundError("product", id.String())
		}
		if product.Quantity < quantity {
			return errs.NewConflictError("stock",
				fmt.Sprintf("%s has %d left, %d requested", product.Name, product.Quantity, quantity))
		}
	}

	c.adjust(requested, -1)
	return nil
}

// RestockItems skips products that are no longer in the catalog.
func (c *Catalog) RestockItems(_ context.Context, lines []ports.StockLine) error {
	returned := totals(lines)

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	maps.DeleteFunc(returned, func(id kernel.UUID, _ int) bool {
		_, ok := c.store.products[id]
		return !ok
	})
	c.adjust(returned, 1)
	return nil
}

// adjust applies sign*quantity per product. Callers hold store.mu.
func (c *Catalog) adjust(quantities map[kernel.UUID]int, sign int) {
	for id, quantity := range quantities {
		product := c.store.products[id]
		product.Quantity += sign * quantity
		c.store.products[id] = product
	}

	c.uow.onRollback(func() {
		c.store.mu.Lock()
		defer c.store.mu.Unlock()
		for id, quantity := range quantities {
			if product, ok := c.store.products[id]; ok {
				product.Quantity -= sign * quantity
				c.store.products[id] = product
			}
		}
	})
}

func totals(lines []ports.StockLine) map[kernel.UUID]int {
	out := make(map[kernel.UUID]int, len(lines))
	for _, line := range lines {
		out[line.ProductID] += line.Quantity
	}
	return out
}
