// Package queries holds the read models served straight from the database,
// bypassing the aggregates.
package queries

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var (
	ErrGetAllCouriersQueryIsNotConstructed = errors.New(
		"GetAllCouriersQuery must be created via NewGetAllCouriersQuery constructor",
	)
)

// GetAllCouriersQuery lists courier profiles for the admin console. With
// pendingOnly set it returns applications still awaiting review.
//
// Example:
//
//	query := NewGetAllCouriersQuery(true)
//	handler := NewGetAllCouriersQueryHandler(db)
//
//	applications, err := handler.Handle(ctx, query)
type GetAllCouriersQuery struct {
	pendingOnly bool
	guard       guard.ConstructorGuard
}

func NewGetAllCouriersQuery(pendingOnly bool) GetAllCouriersQuery {
	return GetAllCouriersQuery{pendingOnly: pendingOnly, guard: guard.NewConstructorGuard()}
}

func (q GetAllCouriersQuery) Validate() error {
	return q.guard.Validate(ErrGetAllCouriersQueryIsNotConstructed)
}

func (q GetAllCouriersQuery) PendingOnly() bool {
	return q.pendingOnly
}

// GetAllCouriersQueryResponse is one courier row. Location is nil until the
// courier reports a position.
type GetAllCouriersQueryResponse struct {
	ID              kernel.UUID
	UserID          kernel.UUID
	Vehicle         string
	Phone           string
	Location        *kernel.GeoPoint
	LocationLabel   string
	IsAvailable     bool
	IsApproved      bool
	IsActive        bool
	RejectionReason string
	ActiveOrders    int
	TotalDeliveries int
	CreatedAt       time.Time
}
