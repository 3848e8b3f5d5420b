package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/order"
)

// AssignableOrdersQueryHandler answers GetAssignableOrdersQuery from the store.
type AssignableOrdersQueryHandler struct {
	store *Store
}

func NewAssignableOrdersQueryHandler(store *Store) AssignableOrdersQueryHandler {
	return AssignableOrdersQueryHandler{store: store}
}

func (h AssignableOrdersQueryHandler) Handle(
	ctx context.Context,
	query queries.GetAssignableOrdersQuery,
) ([]queries.GetAssignableOrdersQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h.store.mu.RLock()
	out := make([]queries.GetAssignableOrdersQueryResponse, 0)
	for _, o := range h.store.orders {
		if o.DeliveryType() != order.PlatformDelivery || o.CourierID() != nil || !o.Status().IsPreAssignment() {
			continue
		}
		out = append(out, queries.GetAssignableOrdersQueryResponse{
			ID:          o.ID(),
			StoreID:     o.StoreID(),
			Destination: o.Address().Point(),
			Status:      o.Status().String(),
			CreatedAt:   o.CreatedAt(),
		})
	}
	h.store.mu.RUnlock()

	slices.SortFunc(out, func(a, b queries.GetAssignableOrdersQueryResponse) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), strings.Compare(a.ID.String(), b.ID.String()))
	})
	if len(out) > query.Limit() {
		out = out[:query.Limit()]
	}
	return out, nil
}

// AllCouriersQueryHandler answers GetAllCouriersQuery from the store.
type AllCouriersQueryHandler struct {
	store *Store
}

func NewAllCouriersQueryHandler(store *Store) AllCouriersQueryHandler {
	return AllCouriersQueryHandler{store: store}
}

func (h AllCouriersQueryHandler) Handle(
	ctx context.Context,
	query queries.GetAllCouriersQuery,
) ([]queries.GetAllCouriersQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h.store.mu.RLock()
	slots := make([]*courierSlot, 0, len(h.store.couriers))
	for _, slot := range h.store.couriers {
		slots = append(slots, slot)
	}
	h.store.mu.RUnlock()

	out := make([]queries.GetAllCouriersQueryResponse, 0, len(slots))
	for _, slot := range slots {
		slot.mu.Lock()
		c := slot.courier
		pending := c.IsActive() && !c.IsApproved() && c.RejectionReason() == ""
		if !query.PendingOnly() || pending {
			out = append(out, courierResponse(c))
		}
		slot.mu.Unlock()
	}

	slices.SortFunc(out, func(a, b queries.GetAllCouriersQueryResponse) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), strings.Compare(a.ID.String(), b.ID.String()))
	})
	return out, nil
}

func courierResponse(c *courier.Courier) queries.GetAllCouriersQueryResponse {
	return queries.GetAllCouriersQueryResponse{
		ID:              c.ID(),
		UserID:          c.UserID(),
		Vehicle:         c.Vehicle().String(),
		Phone:           c.Phone(),
		Location:        c.Location(),
		LocationLabel:   c.LocationLabel(),
		IsAvailable:     c.IsAvailable(),
		IsApproved:      c.IsApproved(),
		IsActive:        c.IsActive(),
		RejectionReason: c.RejectionReason(),
		ActiveOrders:    len(c.AssignedOrders()),
		TotalDeliveries: c.TotalDeliveries(),
		CreatedAt:       c.CreatedAt(),
	}
}
