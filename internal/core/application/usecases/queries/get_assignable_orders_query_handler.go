package queries

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GetAssignableOrdersQueryHandler struct {
	db *gorm.DB
}

func NewGetAssignableOrdersQueryHandler(db *gorm.DB) GetAssignableOrdersQueryHandler {
	return GetAssignableOrdersQueryHandler{db: db}
}

// Handle returns unassigned platform orders in a pre-assignment status,
// ordered by creation time.
func (h GetAssignableOrdersQueryHandler) Handle(
	ctx context.Context,
	query GetAssignableOrdersQuery,
) ([]GetAssignableOrdersQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	statuses := []string{
		order.Pending.String(),
		order.Confirmed.String(),
		order.Preparing.String(),
		order.Ready.String(),
	}

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			store_id,
			address_lat,
			address_lon,
			status,
			created_at
		FROM orders
		WHERE delivery_type = ?
			AND courier_id IS NULL
			AND status IN ?
		ORDER BY created_at, id
		LIMIT ?
	`, order.PlatformDelivery.String(), statuses, query.Limit()).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]GetAssignableOrdersQueryResponse, 0)
	for rows.Next() {
		var (
			id, storeID uuid.UUID
			lat, lon    float64
			resp        GetAssignableOrdersQueryResponse
			createdAt   time.Time
		)

		if err = rows.Scan(&id, &storeID, &lat, &lon, &resp.Status, &createdAt); err != nil {
			return nil, err
		}

		if resp.ID, err = kernel.UUIDFromBytes(id[:]); err != nil {
			return nil, err
		}
		if resp.StoreID, err = kernel.UUIDFromBytes(storeID[:]); err != nil {
			return nil, err
		}
		if resp.Destination, err = kernel.NewGeoPoint(lat, lon); err != nil {
			return nil, err
		}
		resp.CreatedAt = createdAt.UTC()

		orders = append(orders, resp)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}
