// Package staffregistry keeps courier availability and assignment sets in
// PostgreSQL. Claim is one conditional UPDATE, so concurrent dispatchers in
// any number of processes never double-book a courier.
package staffregistry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dispatch/internal/adapters/out/postgres/courierrepo"
	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GormStaffRegistry struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormStaffRegistry(db *gorm.DB, now func() time.Time) *GormStaffRegistry {
	return &GormStaffRegistry{db: db, now: now}
}

type candidateRow struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	LocationLat float64
	LocationLon float64
	Vehicle     string
}

func (r *GormStaffRegistry) SnapshotEligible(ctx context.Context) ([]courier.Candidate, error) {
	var rows []candidateRow
	err := r.db.WithContext(ctx).
		Model(&courierrepo.CourierDTO{}).
		Select("id, user_id, location_lat, location_lon, vehicle").
		Where("is_active AND is_approved AND is_available").
		Where("location_lat IS NOT NULL AND location_lon IS NOT NULL").
		Order("id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	candidates := make([]courier.Candidate, 0, len(rows))
	for _, row := range rows {
		c, convErr := row.toCandidate()
		if convErr != nil {
			return nil, convErr
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// Claim flips is_available from true to false and records the assignment in
// one transaction. Losing the race, or a courier that went off duty, yields false.
func (r *GormStaffRegistry) Claim(ctx context.Context, courierID, orderID kernel.UUID) (bool, error) {
	if err := errors.Join(courierID.Validate(), orderID.Validate()); err != nil {
		return false, err
	}

	claimed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&courierrepo.CourierDTO{}).
			Where("id = ? AND is_available AND is_active AND is_approved", courierID.Bytes()).
			Update("is_available", false)
		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			return ensureExists(tx, courierID)
		}

		claimed = true
		return tx.Create(&courierrepo.AssignmentDTO{
			CourierID:  courierID.Bytes(),
			OrderID:    orderID.Bytes(),
			AssignedAt: r.now().UTC(),
		}).Error
	})
	if err != nil {
		return false, err
	}
	return claimed, nil
}

func (r *GormStaffRegistry) Release(ctx context.Context, courierID, orderID kernel.UUID) error {
	return r.withCourier(ctx, courierID, func(c *courier.Courier) error {
		c.Release(orderID)
		return nil
	})
}

func (r *GormStaffRegistry) CompleteDelivery(ctx context.Context, courierID, orderID kernel.UUID) error {
	return r.withCourier(ctx, courierID, func(c *courier.Courier) error {
		c.CompleteDelivery(orderID)
		return nil
	})
}

func (r *GormStaffRegistry) UpdateLocation(ctx context.Context, courierID kernel.UUID, point kernel.GeoPoint, label string) error {
	return r.withCourier(ctx, courierID, func(c *courier.Courier) error {
		return c.UpdateLocation(point, label, r.now())
	})
}

func (r *GormStaffRegistry) UpdateAvailability(ctx context.Context, courierID kernel.UUID, available bool) error {
	return r.withCourier(ctx, courierID, func(c *courier.Courier) error {
		return c.SetAvailability(available)
	})
}

// withCourier runs fn on the locked courier row and writes the result back.
func (r *GormStaffRegistry) withCourier(ctx context.Context, courierID kernel.UUID, fn func(c *courier.Courier) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := courierrepo.NewGormCourierRepository(tx, discardTracker{})

		c, err := repo.Get(ctx, courierID)
		if err != nil {
			return err
		}

		if err = fn(c); err != nil {
			return err
		}

		return repo.Update(ctx, c)
	})
}

func ensureExists(tx *gorm.DB, courierID kernel.UUID) error {
	var count int64
	if err := tx.Model(&courierrepo.CourierDTO{}).Where("id = ?", courierID.Bytes()).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return errs.NewObjectNotFoundError("courier", courierID.String())
	}
	return nil
}

func (row candidateRow) toCandidate() (courier.Candidate, error) {
	id, err := kernel.UUIDFromBytes(row.ID[:])
	if err != nil {
		return courier.Candidate{}, err
	}
	userID, err := kernel.UUIDFromBytes(row.UserID[:])
	if err != nil {
		return courier.Candidate{}, err
	}
	vehicle, err := courier.ParseVehicleType(row.Vehicle)
	if err != nil {
		return courier.Candidate{}, err
	}
	point, err := kernel.NewGeoPoint(row.LocationLat, row.LocationLon)
	if err != nil {
		return courier.Candidate{}, fmt.Errorf("courier %s: %w", id, err)
	}

	return courier.Candidate{
		CourierID: id,
		UserID:    userID,
		Location:  &point,
		Vehicle:   vehicle,
	}, nil
}

// discardTracker satisfies the repository's aggregate tracker outside a unit of work.
type discardTracker struct{}

func (discardTracker) TrackAggregate(kernel.UUID, any) {}
