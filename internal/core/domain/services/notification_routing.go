package services

import (
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

// Parties are the users that may hear about an order.
type Parties struct {
	CustomerID    kernel.UUID
	StoreOwnerID  kernel.UUID
	CourierUserID *kernel.UUID
}

// RecipientOf picks the single counterpart told about a status change.
//
//	assigned  -> courier's user
//	delivered -> store owner
//	cancelled -> store owner when the customer cancelled, customer otherwise
//	any other -> customer
//
// The second result is false when the courier's user is needed but unknown.
func RecipientOf(to order.Status, actor kernel.Actor, parties Parties) (kernel.UUID, bool) {
	switch to {
	case order.Assigned:
		if parties.CourierUserID == nil {
			return kernel.UUID{}, false
		}
		return *parties.CourierUserID, true
	case order.Delivered:
		return parties.StoreOwnerID, true
	case order.Cancelled:
		if actor.Role == kernel.Customer {
			return parties.StoreOwnerID, true
		}
		return parties.CustomerID, true
	default:
		return parties.CustomerID, true
	}
}
