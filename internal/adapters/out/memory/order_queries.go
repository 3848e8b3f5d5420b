package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"
)

// OrderQueryHandler answers GetOrderQuery from the store.
type OrderQueryHandler struct {
	store *Store
}

func NewOrderQueryHandler(store *Store) OrderQueryHandler {
	return OrderQueryHandler{store: store}
}

func (h OrderQueryHandler) Handle(ctx context.Context, query queries.GetOrderQuery) (queries.GetOrderQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return queries.GetOrderQueryResponse{}, err
	}
	if err := ctx.Err(); err != nil {
		return queries.GetOrderQueryResponse{}, err
	}

	h.store.mu.RLock()
	o, ok := h.store.orders[query.OrderID()]
	if !ok {
		h.store.mu.RUnlock()
		return queries.GetOrderQueryResponse{}, errs.NewObjectNotFoundError("order", query.OrderID().String())
	}
	view := orderView(o)
	if store, found := h.store.stores[o.StoreID()]; found {
		view.StoreName = store.Name
		view.StoreOwnerID = store.OwnerID
	}
	var slot *courierSlot
	if id := o.CourierID(); id != nil {
		slot = h.store.couriers[*id]
	}
	h.store.mu.RUnlock()

	if slot != nil {
		userID := slot.userID
		view.CourierUserID = &userID
	}

	if err := queries.AuthorizeOrderRead(query.Actor(), view); err != nil {
		return queries.GetOrderQueryResponse{}, err
	}
	return view, nil
}

// ListOrdersQueryHandler answers ListOrdersQuery from the store.
type ListOrdersQueryHandler struct {
	store *Store
}

func NewListOrdersQueryHandler(store *Store) ListOrdersQueryHandler {
	return ListOrdersQueryHandler{store: store}
}

func (h ListOrdersQueryHandler) Handle(
	ctx context.Context,
	query queries.ListOrdersQuery,
) (queries.ListOrdersQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return queries.ListOrdersQueryResponse{}, err
	}
	if err := ctx.Err(); err != nil {
		return queries.ListOrdersQueryResponse{}, err
	}

	inScope, err := h.scope(query)
	if err != nil {
		return queries.ListOrdersQueryResponse{}, err
	}

	filter := query.Filter()
	h.store.mu.RLock()
	matched := make([]queries.OrderSummary, 0)
	for _, o := range h.store.orders {
		if inScope(o) && filter.Matches(o.Status(), o.CreatedAt()) {
			matched = append(matched, orderSummary(o))
		}
	}
	h.store.mu.RUnlock()

	sortNewestFirst(matched)

	start := min(query.Offset(), len(matched))
	end := min(start+query.Limit(), len(matched))

	return queries.ListOrdersQueryResponse{
		Orders: matched[start:end],
		Total:  len(matched),
		Page:   query.Page(),
		Limit:  query.Limit(),
	}, nil
}

func (h ListOrdersQueryHandler) scope(query queries.ListOrdersQuery) (func(*order.Order) bool, error) {
	actor := query.Actor()

	switch query.Scope() {
	case queries.ScopeMine:
		return func(o *order.Order) bool { return o.CustomerID().IsEqual(actor.UserID) }, nil

	case queries.ScopeStore:
		if actor.Role == kernel.Admin {
			return func(*order.Order) bool { return true }, nil
		}
		owned := make(map[kernel.UUID]struct{})
		h.store.mu.RLock()
		for id, store := range h.store.stores {
			if store.OwnerID.IsEqual(actor.UserID) {
				owned[id] = struct{}{}
			}
		}
		h.store.mu.RUnlock()
		if len(owned) == 0 {
			return nil, errs.NewObjectNotFoundError("store", "owned by "+actor.UserID.String())
		}
		return func(o *order.Order) bool {
			_, ok := owned[o.StoreID()]
			return ok
		}, nil

	case queries.ScopeDelivery:
		if actor.Role == kernel.Admin {
			return func(o *order.Order) bool { return o.CourierID() != nil }, nil
		}
		courierID, _, ok := h.store.slotByUser(actor.UserID)
		if !ok {
			return nil, errs.NewObjectNotFoundError("courier", "of user "+actor.UserID.String())
		}
		return func(o *order.Order) bool {
			return o.CourierID() != nil && o.CourierID().IsEqual(courierID)
		}, nil

	default:
		return nil, errs.NewValueIsInvalidError("scope")
	}
}

// CourierQueryHandler answers GetCourierQuery from the store.
type CourierQueryHandler struct {
	store *Store
}

func NewCourierQueryHandler(store *Store) CourierQueryHandler {
	return CourierQueryHandler{store: store}
}

func (h CourierQueryHandler) Handle(
	ctx context.Context,
	query queries.GetCourierQuery,
) (queries.GetCourierQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return queries.GetCourierQueryResponse{}, err
	}
	if err := ctx.Err(); err != nil {
		return queries.GetCourierQueryResponse{}, err
	}

	slot, ok := h.store.slot(query.CourierID())
	if !ok {
		return queries.GetCourierQueryResponse{}, errs.NewObjectNotFoundError("courier", query.CourierID().String())
	}
	if err := queries.AuthorizeCourierRead(query.Actor(), query.CourierID(), slot.userID); err != nil {
		return queries.GetCourierQueryResponse{}, err
	}

	slot.mu.Lock()
	profile := courierResponse(slot.courier)
	slot.mu.Unlock()

	h.store.mu.RLock()
	recent := make([]queries.OrderSummary, 0)
	for _, o := range h.store.orders {
		if o.CourierID() != nil && o.CourierID().IsEqual(query.CourierID()) {
			recent = append(recent, orderSummary(o))
		}
	}
	h.store.mu.RUnlock()

	sortNewestFirst(recent)
	if len(recent) > queries.RecentCourierOrdersLimit {
		recent = recent[:queries.RecentCourierOrdersLimit]
	}

	return queries.GetCourierQueryResponse{Courier: profile, RecentOrders: recent}, nil
}

// CourierStatsQueryHandler answers GetCourierStatsQuery from the store.
type CourierStatsQueryHandler struct {
	store *Store
}

func NewCourierStatsQueryHandler(store *Store) CourierStatsQueryHandler {
	return CourierStatsQueryHandler{store: store}
}

func (h CourierStatsQueryHandler) Handle(
	ctx context.Context,
	query queries.GetCourierStatsQuery,
) (queries.GetCourierStatsQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return queries.GetCourierStatsQueryResponse{}, err
	}
	if err := ctx.Err(); err != nil {
		return queries.GetCourierStatsQueryResponse{}, err
	}

	slot, ok := h.store.slot(query.CourierID())
	if !ok {
		return queries.GetCourierStatsQueryResponse{}, errs.NewObjectNotFoundError("courier", query.CourierID().String())
	}
	if err := queries.AuthorizeCourierRead(query.Actor(), query.CourierID(), slot.userID); err != nil {
		return queries.GetCourierStatsQueryResponse{}, err
	}

	slot.mu.Lock()
	stats := queries.GetCourierStatsQueryResponse{
		CourierID:          query.CourierID(),
		RecordedDeliveries: slot.courier.TotalDeliveries(),
	}
	slot.mu.Unlock()

	h.store.mu.RLock()
	for _, o := range h.store.orders {
		if o.CourierID() != nil && o.CourierID().IsEqual(query.CourierID()) {
			stats.CountOrder(o.Status(), o.DeliveryFee())
		}
	}
	h.store.mu.RUnlock()

	return stats, nil
}

func orderView(o *order.Order) queries.GetOrderQueryResponse {
	items := make([]queries.OrderItemView, 0, len(o.Items()))
	for _, item := range o.Items() {
		items = append(items, queries.OrderItemView{
			ProductID: item.ProductID(),
			Name:      item.Name(),
			Quantity:  item.Quantity(),
			UnitPrice: item.UnitPrice(),
		})
	}

	return queries.GetOrderQueryResponse{
		ID:                  o.ID(),
		CustomerID:          o.CustomerID(),
		StoreID:             o.StoreID(),
		CourierID:           copyUUID(o.CourierID()),
		Status:              o.Status().String(),
		DeliveryType:        o.DeliveryType().String(),
		PaymentMethod:       o.PaymentMethod().String(),
		Address:             o.Address(),
		Items:               items,
		Subtotal:            o.Subtotal(),
		DeliveryFee:         o.DeliveryFee(),
		Total:               o.Total(),
		Notes:               o.Notes(),
		CancellationReason:  o.CancellationReason(),
		CreatedAt:           o.CreatedAt(),
		DeliveredAt:         copyTime(o.DeliveredAt()),
		EstimatedDeliveryAt: copyTime(o.EstimatedDeliveryAt()),
	}
}

func orderSummary(o *order.Order) queries.OrderSummary {
	return queries.OrderSummary{
		ID:           o.ID(),
		CustomerID:   o.CustomerID(),
		StoreID:      o.StoreID(),
		CourierID:    copyUUID(o.CourierID()),
		Status:       o.Status().String(),
		DeliveryType: o.DeliveryType().String(),
		Subtotal:     o.Subtotal(),
		DeliveryFee:  o.DeliveryFee(),
		Total:        o.Total(),
		CreatedAt:    o.CreatedAt(),
	}
}

func sortNewestFirst(orders []queries.OrderSummary) {
	slices.SortFunc(orders, func(a, b queries.OrderSummary) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), strings.Compare(b.ID.String(), a.ID.String()))
	})
}

func copyUUID(id *kernel.UUID) *kernel.UUID {
	if id == nil {
		return nil
	}
	out := *id
	return &out
}
