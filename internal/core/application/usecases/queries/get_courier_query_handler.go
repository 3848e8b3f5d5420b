package queries

import (
	"context"
	"fmt"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type GetCourierQueryHandler struct {
	db *gorm.DB
}

func NewGetCourierQueryHandler(db *gorm.DB) GetCourierQueryHandler {
	return GetCourierQueryHandler{db: db}
}

// Handle returns the courier profile and its RecentCourierOrdersLimit
// latest orders.
func (h GetCourierQueryHandler) Handle(ctx context.Context, query GetCourierQuery) (GetCourierQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetCourierQueryResponse{}, err
	}

	db := h.db.WithContext(ctx)

	rows, err := db.Raw(courierSelect+`
		WHERE c.id = ?
		GROUP BY c.id
	`, query.CourierID().Bytes()).Rows()
	if err != nil {
		return GetCourierQueryResponse{}, err
	}

	var (
		profile GetAllCouriersQueryResponse
		found   bool
	)
	if rows.Next() {
		profile, err = scanCourier(rows)
		found = err == nil
	}
	if closeErr := rows.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return GetCourierQueryResponse{}, err
	}
	if !found {
		return GetCourierQueryResponse{}, errs.NewObjectNotFoundError("courier", query.CourierID().String())
	}

	if err = AuthorizeCourierRead(query.Actor(), profile.ID, profile.UserID); err != nil {
		return GetCourierQueryResponse{}, err
	}

	recent, err := db.Raw(fmt.Sprintf(`
		SELECT %s
		FROM orders o
		WHERE o.courier_id = ?
		ORDER BY o.created_at DESC, o.id DESC
		LIMIT ?
	`, orderSummaryColumns), query.CourierID().Bytes(), RecentCourierOrdersLimit).Rows()
	if err != nil {
		return GetCourierQueryResponse{}, err
	}
	defer recent.Close()

	orders, err := scanOrderSummaries(recent)
	if err != nil {
		return GetCourierQueryResponse{}, err
	}

	return GetCourierQueryResponse{Courier: profile, RecentOrders: orders}, nil
}

type GetCourierStatsQueryHandler struct {
	db *gorm.DB
}

func NewGetCourierStatsQueryHandler(db *gorm.DB) GetCourierStatsQueryHandler {
	return GetCourierStatsQueryHandler{db: db}
}

func (h GetCourierStatsQueryHandler) Handle(
	ctx context.Context,
	query GetCourierStatsQuery,
) (GetCourierStatsQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetCourierStatsQueryResponse{}, err
	}

	db := h.db.WithContext(ctx)

	var profile struct {
		UserID          uuid.UUID
		TotalDeliveries int
	}
	res := db.Raw("SELECT user_id, total_deliveries FROM couriers WHERE id = ?", query.CourierID().Bytes()).
		Scan(&profile)
	if res.Error != nil {
		return GetCourierStatsQueryResponse{}, res.Error
	}
	if res.RowsAffected == 0 {
		return GetCourierStatsQueryResponse{}, errs.NewObjectNotFoundError("courier", query.CourierID().String())
	}

	userID, err := kernel.UUIDFromBytes(profile.UserID[:])
	if err != nil {
		return GetCourierStatsQueryResponse{}, err
	}
	if err = AuthorizeCourierRead(query.Actor(), query.CourierID(), userID); err != nil {
		return GetCourierStatsQueryResponse{}, err
	}

	var totals struct {
		Total     int
		Completed int
		Cancelled int
		Earnings  decimal.Decimal
	}
	err = db.Raw(`
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = 'delivered') AS completed,
			COUNT(*) FILTER (WHERE status IN ('cancelled', 'refunded')) AS cancelled,
			COALESCE(SUM(delivery_fee) FILTER (WHERE status = 'delivered'), 0) AS earnings
		FROM orders
		WHERE courier_id = ?
	`, query.CourierID().Bytes()).Scan(&totals).Error
	if err != nil {
		return GetCourierStatsQueryResponse{}, err
	}

	return GetCourierStatsQueryResponse{
		CourierID:          query.CourierID(),
		TotalOrders:        totals.Total,
		CompletedOrders:    totals.Completed,
		CancelledOrders:    totals.Cancelled,
		OpenOrders:         totals.Total - totals.Completed - totals.Cancelled,
		TotalEarnings:      totals.Earnings,
		RecordedDeliveries: profile.TotalDeliveries,
	}, nil
}
