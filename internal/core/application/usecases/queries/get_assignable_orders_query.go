package queries

import (
	"errors"
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

// DefaultAssignableOrdersLimit caps one retry sweep.
const DefaultAssignableOrdersLimit = 50

var (
	ErrGetAssignableOrdersQueryIsNotConstructed = errors.New(
		"GetAssignableOrdersQuery must be created via NewGetAssignableOrdersQuery constructor",
	)
)

// GetAssignableOrdersQuery lists platform-delivered orders that still wait
// for a courier, oldest first. The assignment retry job feeds them back into
// AssignCourier.
//
// Example:
//
//	query, err := NewGetAssignableOrdersQuery(20)
//	if err != nil {
//	    return err
//	}
//
//	orders, err := handler.Handle(ctx, query)
type GetAssignableOrdersQuery struct {
	limit int
	guard guard.ConstructorGuard
}

// NewGetAssignableOrdersQuery builds the query. A limit of zero selects
// DefaultAssignableOrdersLimit.
func NewGetAssignableOrdersQuery(limit int) (GetAssignableOrdersQuery, error) {
	if limit < 0 {
		return GetAssignableOrdersQuery{}, errs.NewValueIsOutOfRangeError("limit", limit, 0, nil)
	}
	if limit == 0 {
		limit = DefaultAssignableOrdersLimit
	}

	return GetAssignableOrdersQuery{limit: limit, guard: guard.NewConstructorGuard()}, nil
}

func (q GetAssignableOrdersQuery) Validate() error {
	return q.guard.Validate(ErrGetAssignableOrdersQueryIsNotConstructed)
}

func (q GetAssignableOrdersQuery) Limit() int {
	return q.limit
}

type GetAssignableOrdersQueryResponse struct {
	ID          kernel.UUID
	StoreID     kernel.UUID
	Destination kernel.GeoPoint
	Status      string
	CreatedAt   time.Time
}

func (r GetAssignableOrdersQueryResponse) String() string {
	return fmt.Sprintf("order %s (%s) at %s", r.ID, r.Status, r.Destination)
}
