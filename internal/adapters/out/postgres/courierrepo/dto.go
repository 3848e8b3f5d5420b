// Package courierrepo maps the courier aggregate to the couriers table and
// its assignment set to courier_assignments.
package courierrepo

import (
	"time"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"

	"github.com/google/uuid"
)

// CourierDTO is a row of the couriers table. Location columns are NULL until
// the first position report.
type CourierDTO struct {
	ID              uuid.UUID   `gorm:"type:uuid;primaryKey"`
	UserID          uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex"`
	Location        LocationDTO `gorm:"embedded;embeddedPrefix:location_"`
	LocationLabel   string      `gorm:"type:varchar(255)"`
	Vehicle         string      `gorm:"type:varchar(32);not null"`
	Phone           string      `gorm:"type:varchar(64);not null"`
	VehicleNumber   string      `gorm:"type:varchar(64)"`
	IsAvailable     bool        `gorm:"not null;index"`
	IsApproved      bool        `gorm:"not null"`
	RejectionReason string      `gorm:"type:text"`
	IsActive        bool        `gorm:"not null"`
	TotalDeliveries int         `gorm:"not null"`
	LastActiveAt    *time.Time
	CreatedAt       time.Time       `gorm:"not null"`
	Assignments     []AssignmentDTO `gorm:"foreignKey:CourierID;constraint:OnDelete:CASCADE"`
}

func (CourierDTO) TableName() string {
	return "couriers"
}

type LocationDTO struct {
	Lat *float64 `gorm:"type:double precision"`
	Lon *float64 `gorm:"type:double precision"`
}

// AssignmentDTO is one order held by a courier.
type AssignmentDTO struct {
	CourierID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	AssignedAt time.Time `gorm:"not null"`
}

func (AssignmentDTO) TableName() string {
	return "courier_assignments"
}

func fromDomain(c *courier.Courier, now time.Time) CourierDTO {
	courierID := c.ID().Bytes()

	var location LocationDTO
	if loc := c.Location(); loc != nil {
		lat, lon := loc.Lat(), loc.Lon()
		location = LocationDTO{Lat: &lat, Lon: &lon}
	}

	assignments := make([]AssignmentDTO, 0, len(c.AssignedOrders()))
	for _, orderID := range c.AssignedOrders() {
		assignments = append(assignments, AssignmentDTO{
			CourierID:  courierID,
			OrderID:    orderID.Bytes(),
			AssignedAt: now,
		})
	}

	return CourierDTO{
		ID:              courierID,
		UserID:          c.UserID().Bytes(),
		Location:        location,
		LocationLabel:   c.LocationLabel(),
		Vehicle:         c.Vehicle().String(),
		Phone:           c.Phone(),
		VehicleNumber:   c.VehicleNumber(),
		IsAvailable:     c.IsAvailable(),
		IsApproved:      c.IsApproved(),
		RejectionReason: c.RejectionReason(),
		IsActive:        c.IsActive(),
		TotalDeliveries: c.TotalDeliveries(),
		LastActiveAt:    c.LastActiveAt(),
		CreatedAt:       c.CreatedAt(),
		Assignments:     assignments,
	}
}

func toDomain(dto CourierDTO) (*courier.Courier, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	userID, err := kernel.UUIDFromBytes(dto.UserID[:])
	if err != nil {
		return nil, err
	}

	vehicle, err := courier.ParseVehicleType(dto.Vehicle)
	if err != nil {
		return nil, err
	}

	var location *kernel.GeoPoint
	if dto.Location.Lat != nil && dto.Location.Lon != nil {
		point, pointErr := kernel.NewGeoPoint(*dto.Location.Lat, *dto.Location.Lon)
		if pointErr != nil {
			return nil, pointErr
		}
		location = &point
	}

	orders := make([]kernel.UUID, 0, len(dto.Assignments))
	for _, a := range dto.Assignments {
		orderID, idErr := kernel.UUIDFromBytes(a.OrderID[:])
		if idErr != nil {
			return nil, idErr
		}
		orders = append(orders, orderID)
	}

	var lastActive *time.Time
	if dto.LastActiveAt != nil {
		utc := dto.LastActiveAt.UTC()
		lastActive = &utc
	}

	return courier.RestoreCourier(courier.RestoreParams{
		ID:              id,
		UserID:          userID,
		Location:        location,
		LocationLabel:   dto.LocationLabel,
		Vehicle:         vehicle,
		Phone:           dto.Phone,
		VehicleNumber:   dto.VehicleNumber,
		IsAvailable:     dto.IsAvailable,
		IsApproved:      dto.IsApproved,
		RejectionReason: dto.RejectionReason,
		IsActive:        dto.IsActive,
		AssignedOrders:  orders,
		TotalDeliveries: dto.TotalDeliveries,
		LastActiveAt:    lastActive,
		CreatedAt:       dto.CreatedAt,
	})
}
