package catalogrepo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCatalog implements ports.Catalog on the stores and products tables.
type GormCatalog struct {
	db *gorm.DB
}

func NewGormCatalog(db *gorm.DB) *GormCatalog {
	return &GormCatalog{db: db}
}

func (c *GormCatalog) GetStore(ctx context.Context, id kernel.UUID) (ports.Store, error) {
	if err := id.Validate(); err != nil {
		return ports.Store{}, err
	}

	var dto StoreDTO
	if err := c.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Store{}, errs.NewObjectNotFoundError("store", id.String())
		}
		return ports.Store{}, err
	}

	return storeToPort(dto)
}

func (c *GormCatalog) GetProduct(ctx context.Context, id kernel.UUID) (ports.Product, error) {
	if err := id.Validate(); err != nil {
		return ports.Product{}, err
	}

	var dto ProductDTO
	if err := c.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Product{}, errs.NewObjectNotFoundError("product", id.String())
		}
		return ports.Product{}, err
	}

	return productToPort(dto)
}

// ReserveStock decrements each product with a guarded UPDATE inside a
// savepoint, so one short line undoes the lines before it. Lines are applied
// in product id order to keep lock acquisition consistent across requests.
func (c *GormCatalog) ReserveStock(ctx context.Context, lines []ports.StockLine) error {
	sorted := sortedLines(lines)

	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, line := range sorted {
			result := tx.Model(&ProductDTO{}).
				Where("id = ? AND quantity >= ?", line.ProductID.Bytes(), line.Quantity).
				Update("quantity", gorm.Expr("quantity - ?", line.Quantity))
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return c.shortage(tx, line)
			}
		}
		return nil
	})
}

// RestockItems adds the quantities back. Products removed from the catalog
// since the order was placed are skipped.
func (c *GormCatalog) RestockItems(ctx context.Context, lines []ports.StockLine) error {
	sorted := sortedLines(lines)

	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, line := range sorted {
			err := tx.Model(&ProductDTO{}).
				Where("id = ?", line.ProductID.Bytes()).
				Update("quantity", gorm.Expr("quantity + ?", line.Quantity)).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// Seed upserts stores and products. It backs test fixtures and demo data;
// the dispatch core never writes the catalog besides stock.
func (c *GormCatalog) Seed(ctx context.Context, stores []ports.Store, products []ports.Product) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, s := range stores {
			dto := StoreFromPort(s)
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&dto).Error; err != nil {
				return err
			}
		}
		for _, p := range products {
			dto := ProductFromPort(p)
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&dto).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (c *GormCatalog) shortage(tx *gorm.DB, line ports.StockLine) error {
	var dto ProductDTO
	if err := tx.First(&dto, "id = ?", line.ProductID.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NewObjectNotFoundError("product", line.ProductID.String())
		}
		return err
	}
	return errs.NewConflictError("stock",
		fmt.Sprintf("%s has %d left, %d requested", dto.Name, dto.Quantity, line.Quantity))
}

func sortedLines(lines []ports.StockLine) []ports.StockLine {
	sorted := slices.Clone(lines)
	slices.SortFunc(sorted, func(a, b ports.StockLine) int {
		ab, bb := a.ProductID.Bytes(), b.ProductID.Bytes()
		return bytes.Compare(ab[:], bb[:])
	})
	return sorted
}
