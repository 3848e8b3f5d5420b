// Package catalogrepo reads stores and products and moves product stock.
package catalogrepo

import (
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type StoreDTO struct {
	ID                      uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OwnerID                 uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name                    string          `gorm:"type:varchar(255);not null"`
	HasDelivery             bool            `gorm:"not null"`
	IsFreeDelivery          bool            `gorm:"not null"`
	DeliveryFee             decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	MinOrderForFreeDelivery decimal.Decimal `gorm:"type:numeric(12,2);not null"`
}

func (StoreDTO) TableName() string {
	return "stores"
}

type ProductDTO struct {
	ID       uuid.UUID       `gorm:"type:uuid;primaryKey"`
	StoreID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name     string          `gorm:"type:varchar(255);not null"`
	Price    decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Quantity int             `gorm:"not null;check:quantity >= 0"`
}

func (ProductDTO) TableName() string {
	return "products"
}

// StoreFromPort builds the row for a store record, used when seeding the catalog.
func StoreFromPort(s ports.Store) StoreDTO {
	return StoreDTO{
		ID:                      s.ID.Bytes(),
		OwnerID:                 s.OwnerID.Bytes(),
		Name:                    s.Name,
		HasDelivery:             s.HasDelivery,
		IsFreeDelivery:          s.IsFreeDelivery,
		DeliveryFee:             s.DeliveryFee,
		MinOrderForFreeDelivery: s.MinOrderForFreeDelivery,
	}
}

// ProductFromPort builds the row for a product record, used when seeding the catalog.
func ProductFromPort(p ports.Product) ProductDTO {
	return ProductDTO{
		ID:       p.ID.Bytes(),
		StoreID:  p.StoreID.Bytes(),
		Name:     p.Name,
		Price:    p.Price,
		Quantity: p.Quantity,
	}
}

func storeToPort(dto StoreDTO) (ports.Store, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return ports.Store{}, err
	}
	ownerID, err := kernel.UUIDFromBytes(dto.OwnerID[:])
	if err != nil {
		return ports.Store{}, err
	}

	return ports.Store{
		ID:                      id,
		OwnerID:                 ownerID,
		Name:                    dto.Name,
		HasDelivery:             dto.HasDelivery,
		IsFreeDelivery:          dto.IsFreeDelivery,
		DeliveryFee:             dto.DeliveryFee,
		MinOrderForFreeDelivery: dto.MinOrderForFreeDelivery,
	}, nil
}

func productToPort(dto ProductDTO) (ports.Product, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return ports.Product{}, err
	}
	storeID, err := kernel.UUIDFromBytes(dto.StoreID[:])
	if err != nil {
		return ports.Product{}, err
	}

	return ports.Product{
		ID:       id,
		StoreID:  storeID,
		Name:     dto.Name,
		Price:    dto.Price,
		Quantity: dto.Quantity,
	}, nil
}
