package queries

import (
	"context"
	"database/sql"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GetOrderQueryHandler struct {
	db *gorm.DB
}

func NewGetOrderQueryHandler(db *gorm.DB) GetOrderQueryHandler {
	return GetOrderQueryHandler{db: db}
}

// Handle loads the order with its store and courier owners and then checks
// that the actor may see it.
func (h GetOrderQueryHandler) Handle(ctx context.Context, query GetOrderQuery) (GetOrderQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetOrderQueryResponse{}, err
	}

	db := h.db.WithContext(ctx)

	view, found, err := h.loadOrder(db, query.OrderID())
	if err != nil {
		return GetOrderQueryResponse{}, err
	}
	if !found {
		return GetOrderQueryResponse{}, errs.NewObjectNotFoundError("order", query.OrderID().String())
	}

	if err = AuthorizeOrderRead(query.Actor(), view); err != nil {
		return GetOrderQueryResponse{}, err
	}

	if view.Items, err = h.loadItems(db, query.OrderID()); err != nil {
		return GetOrderQueryResponse{}, err
	}

	return view, nil
}

func (h GetOrderQueryHandler) loadOrder(db *gorm.DB, orderID kernel.UUID) (GetOrderQueryResponse, bool, error) {
	rows, err := db.Raw(`
		SELECT
			o.id,
			o.customer_id,
			o.store_id,
			s.name,
			s.owner_id,
			o.courier_id,
			c.user_id,
			o.status,
			o.delivery_type,
			o.payment_method,
			o.address_lat,
			o.address_lon,
			o.address_text,
			o.address_details,
			o.address_recipient_name,
			o.address_recipient_phone,
			o.subtotal,
			o.delivery_fee,
			o.total,
			o.notes,
			o.cancellation_reason,
			o.created_at,
			o.delivered_at,
			o.estimated_delivery_at
		FROM orders o
		LEFT JOIN stores s ON s.id = o.store_id
		LEFT JOIN couriers c ON c.id = o.courier_id
		WHERE o.id = ?
	`, orderID.Bytes()).Rows()
	if err != nil {
		return GetOrderQueryResponse{}, false, err
	}
	defer rows.Close()

	if !rows.Next() {
		return GetOrderQueryResponse{}, false, rows.Err()
	}

	var (
		id, customerID, storeID        uuid.UUID
		storeOwnerID, courierID        uuid.NullUUID
		courierUserID                  uuid.NullUUID
		storeName, deliveryType        sql.NullString
		lat, lon                       float64
		text, details, name, phone     sql.NullString
		notes, reason                  sql.NullString
		createdAt                      time.Time
		deliveredAt, estimatedDelivery sql.NullTime
		view                           GetOrderQueryResponse
	)

	err = rows.Scan(
		&id,
		&customerID,
		&storeID,
		&storeName,
		&storeOwnerID,
		&courierID,
		&courierUserID,
		&view.Status,
		&deliveryType,
		&view.PaymentMethod,
		&lat,
		&lon,
		&text,
		&details,
		&name,
		&phone,
		&view.Subtotal,
		&view.DeliveryFee,
		&view.Total,
		&notes,
		&reason,
		&createdAt,
		&deliveredAt,
		&estimatedDelivery,
	)
	if err != nil {
		return GetOrderQueryResponse{}, false, err
	}

	if view.ID, err = kernel.UUIDFromBytes(id[:]); err != nil {
		return GetOrderQueryResponse{}, false, err
	}
	if view.CustomerID, err = kernel.UUIDFromBytes(customerID[:]); err != nil {
		return GetOrderQueryResponse{}, false, err
	}
	if view.StoreID, err = kernel.UUIDFromBytes(storeID[:]); err != nil {
		return GetOrderQueryResponse{}, false, err
	}
	if owner, ownerErr := nullableUUID(storeOwnerID); ownerErr != nil {
		return GetOrderQueryResponse{}, false, ownerErr
	} else if owner != nil {
		view.StoreOwnerID = *owner
	}
	if view.CourierID, err = nullableUUID(courierID); err != nil {
		return GetOrderQueryResponse{}, false, err
	}
	if view.CourierUserID, err = nullableUUID(courierUserID); err != nil {
		return GetOrderQueryResponse{}, false, err
	}

	point, err := kernel.NewGeoPoint(lat, lon)
	if err != nil {
		return GetOrderQueryResponse{}, false, err
	}
	if view.Address, err = kernel.NewAddress(point, text.String, details.String, name.String, phone.String); err != nil {
		return GetOrderQueryResponse{}, false, err
	}

	view.StoreName = storeName.String
	view.DeliveryType = deliveryType.String
	view.Notes = notes.String
	view.CancellationReason = reason.String
	view.CreatedAt = createdAt.UTC()
	if deliveredAt.Valid {
		at := deliveredAt.Time.UTC()
		view.DeliveredAt = &at
	}
	if estimatedDelivery.Valid {
		at := estimatedDelivery.Time.UTC()
		view.EstimatedDeliveryAt = &at
	}

	return view, true, nil
}

func (h GetOrderQueryHandler) loadItems(db *gorm.DB, orderID kernel.UUID) ([]OrderItemView, error) {
	rows, err := db.Raw(`
		SELECT product_id, name, quantity, unit_price
		FROM order_items
		WHERE order_id = ?
		ORDER BY position
	`, orderID.Bytes()).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]OrderItemView, 0)
	for rows.Next() {
		var (
			productID uuid.UUID
			item      OrderItemView
		)
		if err = rows.Scan(&productID, &item.Name, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, err
		}
		if item.ProductID, err = kernel.UUIDFromBytes(productID[:]); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
