package memory

import (
	"time"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

// Aggregates are copied on the way in and out so callers never share state
// with the store.

func cloneOrder(o *order.Order) (*order.Order, error) {
	var courierID *kernel.UUID
	if id := o.CourierID(); id != nil {
		copied := *id
		courierID = &copied
	}

	var assignment *order.AssignmentRecord
	if record := o.Assignment(); record != nil {
		copied := *record
		assignment = &copied
	}

	return order.RestoreOrder(order.RestoreParams{
		ID:                  o.ID(),
		CustomerID:          o.CustomerID(),
		StoreID:             o.StoreID(),
		Items:               o.Items(),
		Address:             o.Address(),
		Status:              o.Status(),
		CourierID:           courierID,
		Assignment:          assignment,
		DeliveryFee:         o.DeliveryFee(),
		DeliveryType:        o.DeliveryType(),
		PaymentMethod:       o.PaymentMethod(),
		Notes:               o.Notes(),
		CancellationReason:  o.CancellationReason(),
		CreatedAt:           o.CreatedAt(),
		DeliveredAt:         copyTime(o.DeliveredAt()),
		EstimatedDeliveryAt: copyTime(o.EstimatedDeliveryAt()),
		StockReserved:       o.StockReserved(),
		Version:             o.Version(),
	})
}

func cloneCourier(c *courier.Courier) (*courier.Courier, error) {
	return courier.RestoreCourier(courier.RestoreParams{
		ID:              c.ID(),
		UserID:          c.UserID(),
		Location:        c.Location(),
		LocationLabel:   c.LocationLabel(),
		Vehicle:         c.Vehicle(),
		Phone:           c.Phone(),
		VehicleNumber:   c.VehicleNumber(),
		IsAvailable:     c.IsAvailable(),
		IsApproved:      c.IsApproved(),
		RejectionReason: c.RejectionReason(),
		IsActive:        c.IsActive(),
		AssignedOrders:  c.AssignedOrders(),
		TotalDeliveries: c.TotalDeliveries(),
		LastActiveAt:    copyTime(c.LastActiveAt()),
		CreatedAt:       c.CreatedAt(),
	})
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	copied := *t
	return &copied
}
