package http

import (
	"net/http"
	"strconv"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type OrderLineRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// AddressRequest carries pointer coordinates so a missing lat or lon is
// rejected instead of read as zero.
type AddressRequest struct {
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
	Text    string  `json:"text"`
	Details string  `json:"details"`
	Name    string  `json:"name"`
	Phone   string  `json:"phone"`
}

type CreateOrderRequest struct {
	Lines         []OrderLineRequest `json:"lines"`
	Address       AddressRequest     `json:"address"`
	PaymentMethod string             `json:"payment_method"`
	Notes         string             `json:"notes"`
}

type AssignmentResponse struct {
	Assigned            bool       `json:"assigned"`
	CourierID           string     `json:"courier_id,omitempty"`
	DistanceKm          float64    `json:"distance_km,omitempty"`
	EtaMinutes          int        `json:"eta_minutes,omitempty"`
	EstimatedDeliveryAt *time.Time `json:"estimated_delivery_at,omitempty"`
}

type CreateOrderResponse struct {
	OrderID      string              `json:"order_id"`
	Subtotal     decimal.Decimal     `json:"subtotal"`
	DeliveryFee  decimal.Decimal     `json:"delivery_fee"`
	Total        decimal.Decimal     `json:"total"`
	DeliveryType string              `json:"delivery_type"`
	Assignment   *AssignmentResponse `json:"assignment,omitempty"`
}

type TransitionRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

type TransitionResponse struct {
	OrderID string `json:"order_id"`
	From    string `json:"from"`
	To      string `json:"to"`
}

type Address struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Text    string  `json:"text"`
	Details string  `json:"details,omitempty"`
	Name    string  `json:"name,omitempty"`
	Phone   string  `json:"phone,omitempty"`
}

type OrderItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type Order struct {
	ID                  string          `json:"id"`
	CustomerID          string          `json:"customer_id"`
	StoreID             string          `json:"store_id"`
	StoreName           string          `json:"store_name"`
	CourierID           string          `json:"courier_id,omitempty"`
	Status              string          `json:"status"`
	DeliveryType        string          `json:"delivery_type"`
	PaymentMethod       string          `json:"payment_method"`
	Address             Address         `json:"address"`
	Items               []OrderItem     `json:"items"`
	Subtotal            decimal.Decimal `json:"subtotal"`
	DeliveryFee         decimal.Decimal `json:"delivery_fee"`
	Total               decimal.Decimal `json:"total"`
	Notes               string          `json:"notes,omitempty"`
	CancellationReason  string          `json:"cancellation_reason,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	DeliveredAt         *time.Time      `json:"delivered_at,omitempty"`
	EstimatedDeliveryAt *time.Time      `json:"estimated_delivery_at,omitempty"`
}

type OrderSummary struct {
	ID           string          `json:"id"`
	CustomerID   string          `json:"customer_id"`
	StoreID      string          `json:"store_id"`
	CourierID    string          `json:"courier_id,omitempty"`
	Status       string          `json:"status"`
	DeliveryType string          `json:"delivery_type"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	DeliveryFee  decimal.Decimal `json:"delivery_fee"`
	Total        decimal.Decimal `json:"total"`
	CreatedAt    time.Time       `json:"created_at"`
}

type OrderPage struct {
	Orders []OrderSummary `json:"orders"`
	Total  int            `json:"total"`
	Page   int            `json:"page"`
	Limit  int            `json:"limit"`
	Pages  int            `json:"pages"`
}

// geoPoint builds a point from optional request coordinates. prefix names
// the enclosing object in the error, e.g. "address.".
func geoPoint(prefix string, lat, lon *float64) (kernel.GeoPoint, error) {
	if lat == nil {
		return kernel.GeoPoint{}, errs.NewValueIsRequiredError(prefix + "lat")
	}
	if lon == nil {
		return kernel.GeoPoint{}, errs.NewValueIsRequiredError(prefix + "lon")
	}
	return kernel.NewGeoPoint(*lat, *lon)
}

func optionalID(id *kernel.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

func toOrderSummaries(in []queries.OrderSummary) []OrderSummary {
	out := make([]OrderSummary, len(in))
	for i, o := range in {
		out[i] = OrderSummary{
			ID:           o.ID.String(),
			CustomerID:   o.CustomerID.String(),
			StoreID:      o.StoreID.String(),
			CourierID:    optionalID(o.CourierID),
			Status:       o.Status,
			DeliveryType: o.DeliveryType,
			Subtotal:     o.Subtotal,
			DeliveryFee:  o.DeliveryFee,
			Total:        o.Total,
			CreatedAt:    o.CreatedAt,
		}
	}
	return out
}

func toAssignmentResponse(r commands.AssignCourierResult) AssignmentResponse {
	if !r.Assigned {
		return AssignmentResponse{}
	}
	eta := r.EstimatedDeliveryAt
	return AssignmentResponse{
		Assigned:            true,
		CourierID:           r.CourierID.String(),
		DistanceKm:          r.DistanceKm,
		EtaMinutes:          r.EtaMinutes,
		EstimatedDeliveryAt: &eta,
	}
}

// CreateOrder handles POST /api/v1/orders.
func (s *Server) CreateOrder(c echo.Context) error {
	actor := actorOf(c)
	if actor.Role != kernel.Customer {
		return forbidden(c, "place orders")
	}

	var req CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	lines := make([]commands.OrderLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		productID, err := parseID("product_id", l.ProductID)
		if err != nil {
			return s.fail(c, err)
		}
		lines = append(lines, commands.OrderLine{ProductID: productID, Quantity: l.Quantity})
	}

	point, err := geoPoint("address.", req.Address.Lat, req.Address.Lon)
	if err != nil {
		return s.fail(c, err)
	}
	address, err := kernel.NewAddress(point, req.Address.Text, req.Address.Details, req.Address.Name, req.Address.Phone)
	if err != nil {
		return s.fail(c, err)
	}
	method, err := order.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return s.fail(c, err)
	}

	cmd, err := commands.NewCreateOrderCommand(actor.UserID, lines, address, method, req.Notes)
	if err != nil {
		return s.fail(c, err)
	}

	result, err := s.handlers.CreateOrder.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.fail(c, err)
	}

	resp := CreateOrderResponse{
		OrderID:      result.OrderID.String(),
		Subtotal:     result.Subtotal,
		DeliveryFee:  result.DeliveryFee,
		Total:        result.Total,
		DeliveryType: result.DeliveryType.String(),
	}
	if result.Assignment != nil {
		a := toAssignmentResponse(*result.Assignment)
		resp.Assignment = &a
	}
	return c.JSON(http.StatusCreated, resp)
}

// TransitionOrderStatus handles POST /api/v1/orders/:id/status.
func (s *Server) TransitionOrderStatus(c echo.Context) error {
	orderID, err := pathID(c)
	if err != nil {
		return s.fail(c, err)
	}

	var req TransitionRequest
	if err = c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	target, err := order.ParseStatus(req.Status)
	if err != nil {
		return s.fail(c, err)
	}

	cmd, err := commands.NewTransitionOrderStatusCommand(actorOf(c), orderID, target, req.Reason)
	if err != nil {
		return s.fail(c, err)
	}

	result, err := s.handlers.TransitionOrder.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(http.StatusOK, TransitionResponse{
		OrderID: result.OrderID.String(),
		From:    result.From.String(),
		To:      result.To.String(),
	})
}

// AssignCourier handles POST /api/v1/orders/:id/assign. It lets an
// administrator retry assignment by hand.
func (s *Server) AssignCourier(c echo.Context) error {
	if actorOf(c).Role != kernel.Admin {
		return forbidden(c, "assign couriers")
	}

	orderID, err := pathID(c)
	if err != nil {
		return s.fail(c, err)
	}

	cmd, err := commands.NewAssignCourierCommand(orderID)
	if err != nil {
		return s.fail(c, err)
	}

	result, err := s.handlers.AssignCourier.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(http.StatusOK, toAssignmentResponse(result))
}

// GetOrder handles GET /api/v1/orders/:id.
func (s *Server) GetOrder(c echo.Context) error {
	orderID, err := pathID(c)
	if err != nil {
		return s.fail(c, err)
	}

	query, err := queries.NewGetOrderQuery(actorOf(c), orderID)
	if err != nil {
		return s.fail(c, err)
	}

	view, err := s.handlers.Order.Handle(c.Request().Context(), query)
	if err != nil {
		return s.fail(c, err)
	}

	items := make([]OrderItem, len(view.Items))
	for i, item := range view.Items {
		items[i] = OrderItem{
			ProductID: item.ProductID.String(),
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal(),
		}
	}

	return c.JSON(http.StatusOK, Order{
		ID:            view.ID.String(),
		CustomerID:    view.CustomerID.String(),
		StoreID:       view.StoreID.String(),
		StoreName:     view.StoreName,
		CourierID:     optionalID(view.CourierID),
		Status:        view.Status,
		DeliveryType:  view.DeliveryType,
		PaymentMethod: view.PaymentMethod,
		Address: Address{
			Lat:     view.Address.Point().Lat(),
			Lon:     view.Address.Point().Lon(),
			Text:    view.Address.Text(),
			Details: view.Address.Details(),
			Name:    view.Address.RecipientName(),
			Phone:   view.Address.RecipientPhone(),
		},
		Items:               items,
		Subtotal:            view.Subtotal,
		DeliveryFee:         view.DeliveryFee,
		Total:               view.Total,
		Notes:               view.Notes,
		CancellationReason:  view.CancellationReason,
		CreatedAt:           view.CreatedAt,
		DeliveredAt:         view.DeliveredAt,
		EstimatedDeliveryAt: view.EstimatedDeliveryAt,
	})
}

// ListOrders handles GET /api/v1/orders. scope defaults from the caller's
// role; status, from, to, page and limit narrow the page.
func (s *Server) ListOrders(c echo.Context) error {
	actor := actorOf(c)

	scope := defaultScope(actor.Role)
	if raw := c.QueryParam("scope"); raw != "" {
		parsed, err := queries.ParseOrderScope(raw)
		if err != nil {
			return s.fail(c, err)
		}
		scope = parsed
	}

	var filter queries.OrderFilter
	if raw := c.QueryParam("status"); raw != "" {
		status, err := order.ParseStatus(raw)
		if err != nil {
			return s.fail(c, err)
		}
		filter.Status = &status
	}
	for _, bound := range []struct {
		param string
		dst   **time.Time
	}{{"from", &filter.From}, {"to", &filter.To}} {
		raw := c.QueryParam(bound.param)
		if raw == "" {
			continue
		}
		at, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return s.fail(c, errs.NewValueIsInvalidErrorWithCause(bound.param, err))
		}
		*bound.dst = &at
	}

	page, err := intParam(c, "page")
	if err != nil {
		return s.fail(c, err)
	}
	limit, err := intParam(c, "limit")
	if err != nil {
		return s.fail(c, err)
	}

	query, err := queries.NewListOrdersQuery(actor, scope, filter, page, limit)
	if err != nil {
		return s.fail(c, err)
	}

	result, err := s.handlers.Orders.Handle(c.Request().Context(), query)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(http.StatusOK, OrderPage{
		Orders: toOrderSummaries(result.Orders),
		Total:  result.Total,
		Page:   result.Page,
		Limit:  result.Limit,
		Pages:  result.Pages(),
	})
}

func defaultScope(role kernel.Role) queries.OrderScope {
	switch role {
	case kernel.Delivery:
		return queries.ScopeDelivery
	case kernel.StoreOwner, kernel.Admin:
		return queries.ScopeStore
	default:
		return queries.ScopeMine
	}
}

// intParam reads an optional integer query parameter; absent means zero.
func intParam(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errs.NewValueIsInvalidErrorWithCause(name, err)
	}
	return v, nil
}
