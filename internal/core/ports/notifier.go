package ports

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
)

// NotificationKind classifies a notification for clients and the inbox.
type NotificationKind string

const (
	OrderCreated       NotificationKind = "order_created"
	OrderStatusChanged NotificationKind = "order_status_changed"
	CourierAssigned    NotificationKind = "courier_assigned"
)

// Notification is a message for one user about one order.
type Notification struct {
	RecipientUserID kernel.UUID
	Kind            NotificationKind
	Title           string
	Message         string
	OrderID         kernel.UUID
	Data            map[string]string
}

// Notifier delivers notifications on a best-effort basis. Callers log a
// returned error and carry on.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
