package commands

import (
	"context"
	"fmt"
	"log/slog"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

// CreateOrderResult summarizes the created order. Assignment is set only for
// platform-delivered orders whose assignment attempt ran without error.
type CreateOrderResult struct {
	OrderID      kernel.UUID
	Subtotal     decimal.Decimal
	DeliveryFee  decimal.Decimal
	Total        decimal.Decimal
	DeliveryType order.DeliveryType
	Assignment   *AssignCourierResult
}

// CreateOrderCommandHandler prices an order from the catalog, reserves its
// stock and stores it in one transaction.
//
// Every line is checked against the remaining quantity before anything is
// decremented, and the reservation itself is all-or-nothing. After commit the
// store owner is notified and platform-delivered orders go straight to
// courier assignment.
type CreateOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	pricing    services.DeliveryPricing
	assigner   CourierAssigner
	notifier   ports.Notifier
	now        Clock
	logger     *slog.Logger
}

func NewCreateOrderCommandHandler(
	uowFactory OrderUoWFactory,
	pricing services.DeliveryPricing,
	assigner CourierAssigner,
	notifier ports.Notifier,
	now Clock,
	logger *slog.Logger,
) CreateOrderCommandHandler {
	return CreateOrderCommandHandler{
		uowFactory: uowFactory,
		pricing:    pricing,
		assigner:   assigner,
		notifier:   notifier,
		now:        now,
		logger:     logger.With("component", "create_order"),
	}
}

func (h CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (CreateOrderResult, error) {
	if err := cmd.Validate(); err != nil {
		return CreateOrderResult{}, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return CreateOrderResult{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	catalog := uow.Catalog()

	lines := mergeLines(cmd.Lines())
	products, storeID, err := h.loadProducts(ctx, catalog, lines)
	if err != nil {
		return CreateOrderResult{}, err
	}

	store, err := catalog.GetStore(ctx, storeID)
	if err != nil {
		return CreateOrderResult{}, err
	}

	items := make([]order.Item, 0, len(lines))
	for _, line := range lines {
		p := products[line.ProductID]
		item, itemErr := order.NewItem(p.ID, p.StoreID, p.Name, line.Quantity, p.Price)
		if itemErr != nil {
			return CreateOrderResult{}, itemErr
		}
		items = append(items, item)
	}

	o, err := order.NewOrder(cmd.OrderID(), cmd.CustomerID(), storeID, items,
		cmd.Address(), cmd.PaymentMethod(), cmd.Notes(), h.now())
	if err != nil {
		return CreateOrderResult{}, err
	}

	quote := h.pricing.Quote(services.StoreDeliveryTerms{
		HasDelivery:             store.HasDelivery,
		IsFreeDelivery:          store.IsFreeDelivery,
		Fee:                     store.DeliveryFee,
		MinOrderForFreeDelivery: store.MinOrderForFreeDelivery,
	}, o.Subtotal())

	if err = o.ApplyDeliveryQuote(quote.Type, quote.Fee); err != nil {
		return CreateOrderResult{}, err
	}

	if err = catalog.ReserveStock(ctx, lines); err != nil {
		return CreateOrderResult{}, err
	}

	if err = uow.OrderRepository().Add(ctx, o); err != nil {
		return CreateOrderResult{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return CreateOrderResult{}, err
	}

	h.logger.InfoContext(ctx, "order created",
		"order_id", o.ID().String(),
		"store_id", storeID.String(),
		"delivery_type", quote.Type.String(),
		"total", o.Total().String())

	h.notifyStoreOwner(ctx, store, o)

	result := CreateOrderResult{
		OrderID:      o.ID(),
		Subtotal:     o.Subtotal(),
		DeliveryFee:  o.DeliveryFee(),
		Total:        o.Total(),
		DeliveryType: o.DeliveryType(),
	}

	if quote.NeedsCourier() {
		result.Assignment = h.assign(ctx, o.ID())
	}

	return result, nil
}

// loadProducts reads every product, insists on a single store and checks
// stock for all lines before anything is reserved.
func (h CreateOrderCommandHandler) loadProducts(
	ctx context.Context,
	catalog ports.Catalog,
	lines []ports.StockLine,
) (map[kernel.UUID]ports.Product, kernel.UUID, error) {
	products := make(map[kernel.UUID]ports.Product, len(lines))
	var storeID kernel.UUID

	for _, line := range lines {
		p, err := catalog.GetProduct(ctx, line.ProductID)
		if err != nil {
			return nil, kernel.UUID{}, err
		}

		if storeID.Validate() != nil {
			storeID = p.StoreID
		} else if !storeID.IsEqual(p.StoreID) {
			return nil, kernel.UUID{}, errs.NewValueIsInvalidErrorWithCause("items",
				fmt.Errorf("products from stores %s and %s cannot share an order", storeID, p.StoreID))
		}

		products[line.ProductID] = p
	}

	for _, line := range lines {
		p := products[line.ProductID]
		if line.Quantity > p.Quantity {
			return nil, kernel.UUID{}, errs.NewConflictError("stock",
				fmt.Sprintf("for %s: requested %d, available %d", p.Name, line.Quantity, p.Quantity))
		}
	}

	return products, storeID, nil
}

func (h CreateOrderCommandHandler) notifyStoreOwner(ctx context.Context, store ports.Store, o *order.Order) {
	n := ports.Notification{
		RecipientUserID: store.OwnerID,
		Kind:            ports.OrderCreated,
		Title:           "New order",
		Message:         fmt.Sprintf("Order %s for %s was placed", o.ID(), o.Total()),
		OrderID:         o.ID(),
		Data: map[string]string{
			"status":        o.Status().String(),
			"delivery_type": o.DeliveryType().String(),
		},
	}

	if err := h.notifier.Notify(ctx, n); err != nil {
		h.logger.WarnContext(ctx, "failed to notify store owner",
			"order_id", o.ID().String(), "user_id", store.OwnerID.String(), "error", err)
	}
}

func (h CreateOrderCommandHandler) assign(ctx context.Context, orderID kernel.UUID) *AssignCourierResult {
	cmd, err := NewAssignCourierCommand(orderID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to build assignment", "order_id", orderID.String(), "error", err)
		return nil
	}

	result, err := h.assigner.Handle(ctx, cmd)
	if err != nil {
		h.logger.WarnContext(ctx, "assignment after create failed", "order_id", orderID.String(), "error", err)
		return nil
	}

	return &result
}

// mergeLines folds repeated products into one line, keeping first-seen order.
func mergeLines(lines []OrderLine) []ports.StockLine {
	merged := make([]ports.StockLine, 0, len(lines))
	index := make(map[kernel.UUID]int, len(lines))

	for _, line := range lines {
		if i, ok := index[line.ProductID]; ok {
			merged[i].Quantity += line.Quantity
			continue
		}
		index[line.ProductID] = len(merged)
		merged = append(merged, ports.StockLine{ProductID: line.ProductID, Quantity: line.Quantity})
	}

	return merged
}
