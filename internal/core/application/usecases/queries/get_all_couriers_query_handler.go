package queries

import (
	"context"
	"database/sql"
	"time"

	"dispatch/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// courierSelect reads couriers with the number of orders each one holds.
// Callers append a WHERE clause and the GROUP BY.
const courierSelect = `
	SELECT
		c.id,
		c.user_id,
		c.vehicle,
		c.phone,
		c.location_lat,
		c.location_lon,
		c.location_label,
		c.is_available,
		c.is_approved,
		c.is_active,
		c.rejection_reason,
		c.total_deliveries,
		c.created_at,
		COUNT(a.order_id)
	FROM couriers c
	LEFT JOIN courier_assignments a ON a.courier_id = c.id
`

type GetAllCouriersQueryHandler struct {
	db *gorm.DB
}

func NewGetAllCouriersQueryHandler(db *gorm.DB) GetAllCouriersQueryHandler {
	return GetAllCouriersQueryHandler{db: db}
}

// Handle returns couriers oldest application first, each with the number of
// orders it currently holds.
func (h GetAllCouriersQueryHandler) Handle(
	ctx context.Context,
	query GetAllCouriersQuery,
) ([]GetAllCouriersQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	rows, err := h.db.WithContext(ctx).Raw(courierSelect+`
		WHERE NOT ? OR (c.is_active AND NOT c.is_approved AND c.rejection_reason = '')
		GROUP BY c.id
		ORDER BY c.created_at, c.id
	`, query.PendingOnly()).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	couriers := make([]GetAllCouriersQueryResponse, 0)
	for rows.Next() {
		resp, scanErr := scanCourier(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		couriers = append(couriers, resp)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return couriers, nil
}

func scanCourier(rows *sql.Rows) (GetAllCouriersQueryResponse, error) {
	var (
		id, userID   uuid.UUID
		lat, lon     sql.NullFloat64
		label        sql.NullString
		reason       sql.NullString
		createdAt    time.Time
		activeOrders int64
		resp         GetAllCouriersQueryResponse
	)

	err := rows.Scan(
		&id,
		&userID,
		&resp.Vehicle,
		&resp.Phone,
		&lat,
		&lon,
		&label,
		&resp.IsAvailable,
		&resp.IsApproved,
		&resp.IsActive,
		&reason,
		&resp.TotalDeliveries,
		&createdAt,
		&activeOrders,
	)
	if err != nil {
		return GetAllCouriersQueryResponse{}, err
	}

	if resp.ID, err = kernel.UUIDFromBytes(id[:]); err != nil {
		return GetAllCouriersQueryResponse{}, err
	}
	if resp.UserID, err = kernel.UUIDFromBytes(userID[:]); err != nil {
		return GetAllCouriersQueryResponse{}, err
	}
	if lat.Valid && lon.Valid {
		point, locErr := kernel.NewGeoPoint(lat.Float64, lon.Float64)
		if locErr != nil {
			return GetAllCouriersQueryResponse{}, locErr
		}
		resp.Location = &point
	}
	resp.LocationLabel = label.String
	resp.RejectionReason = reason.String
	resp.ActiveOrders = int(activeOrders)
	resp.CreatedAt = createdAt.UTC()

	return resp, nil
}
