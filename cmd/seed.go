package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"

	"github.com/shopspring/decimal"
)

type seedStore struct {
	ID                      string          `json:"id"`
	OwnerID                 string          `json:"owner_id"`
	Name                    string          `json:"name"`
	HasDelivery             bool            `json:"has_delivery"`
	IsFreeDelivery          bool            `json:"is_free_delivery"`
	DeliveryFee             decimal.Decimal `json:"delivery_fee"`
	MinOrderForFreeDelivery decimal.Decimal `json:"min_order_for_free_delivery"`
}

type seedProduct struct {
	ID       string          `json:"id"`
	StoreID  string          `json:"store_id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

type seedCatalog struct {
	Stores   []seedStore   `json:"stores"`
	Products []seedProduct `json:"products"`
}

// CatalogSeeder is implemented by the memory store and the postgres catalog.
type CatalogSeeder interface {
	Seed(ctx context.Context, stores []ports.Store, products []ports.Product) error
}

// LoadSeed reads a JSON catalog from path into store.
func LoadSeed(ctx context.Context, path string, store CatalogSeeder) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}

	var catalog seedCatalog
	if err = json.Unmarshal(raw, &catalog); err != nil {
		return fmt.Errorf("decode seed file: %w", err)
	}

	stores, products, err := catalog.toPorts()
	if err != nil {
		return err
	}
	return store.Seed(ctx, stores, products)
}

func (c seedCatalog) toPorts() ([]ports.Store, []ports.Product, error) {
	var errList []error

	stores := make([]ports.Store, 0, len(c.Stores))
	for _, s := range c.Stores {
		id, idErr := kernel.UUIDFromString(s.ID)
		ownerID, ownerErr := kernel.UUIDFromString(s.OwnerID)
		if err := errors.Join(idErr, ownerErr); err != nil {
			errList = append(errList, fmt.Errorf("store %q: %w", s.Name, err))
			continue
		}
		stores = append(stores, ports.Store{
			ID:                      id,
			OwnerID:                 ownerID,
			Name:                    s.Name,
			HasDelivery:             s.HasDelivery,
			IsFreeDelivery:          s.IsFreeDelivery,
			DeliveryFee:             s.DeliveryFee,
			MinOrderForFreeDelivery: s.MinOrderForFreeDelivery,
		})
	}

	products := make([]ports.Product, 0, len(c.Products))
	for _, p := range c.Products {
		id, idErr := kernel.UUIDFromString(p.ID)
		storeID, storeErr := kernel.UUIDFromString(p.StoreID)
		if err := errors.Join(idErr, storeErr); err != nil {
			errList = append(errList, fmt.Errorf("product %q: %w", p.Name, err))
			continue
		}
		products = append(products, ports.Product{
			ID:       id,
			StoreID:  storeID,
			Name:     p.Name,
			Price:    p.Price,
			Quantity: p.Quantity,
		})
	}

	if err := errors.Join(errList...); err != nil {
		return nil, nil, err
	}
	return stores, products, nil
}
