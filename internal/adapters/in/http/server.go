package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"dispatch/internal/adapters/out/notify"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/kernel"

	"github.com/labstack/echo/v4"
)

// CouriersReader lists courier profiles for administrators.
type CouriersReader interface {
	Handle(ctx context.Context, query queries.GetAllCouriersQuery) ([]queries.GetAllCouriersQueryResponse, error)
}

// OrderReader reads one order for a caller allowed to see it.
type OrderReader interface {
	Handle(ctx context.Context, query queries.GetOrderQuery) (queries.GetOrderQueryResponse, error)
}

// OrdersLister pages through the orders of a scope.
type OrdersLister interface {
	Handle(ctx context.Context, query queries.ListOrdersQuery) (queries.ListOrdersQueryResponse, error)
}

// CourierReader reads one courier profile with its latest orders.
type CourierReader interface {
	Handle(ctx context.Context, query queries.GetCourierQuery) (queries.GetCourierQueryResponse, error)
}

// CourierStatsReader aggregates the orders of one courier.
type CourierStatsReader interface {
	Handle(ctx context.Context, query queries.GetCourierStatsQuery) (queries.GetCourierStatsQueryResponse, error)
}

// Sessions tracks realtime connections so notifications can be routed to them.
type Sessions interface {
	Connect(userID kernel.UUID) kernel.UUID
	Disconnect(userID, sessionID kernel.UUID) bool
}

// Inbox reads stored notifications back.
type Inbox interface {
	Recent(ctx context.Context, userID kernel.UUID, limit int) ([]notify.InboxEntry, error)
}

// Handlers groups the use cases the server exposes.
type Handlers struct {
	CreateOrder         commands.CreateOrderCommandHandler
	TransitionOrder     commands.TransitionOrderStatusCommandHandler
	AssignCourier       commands.AssignCourierCommandHandler
	CreateCourier       commands.CreateCourierCommandHandler
	ReviewCourier       commands.ReviewCourierCommandHandler
	DeactivateCourier   commands.DeactivateCourierCommandHandler
	CourierAvailability commands.UpdateCourierAvailabilityCommandHandler
	CourierLocation     commands.UpdateCourierLocationCommandHandler
	Couriers            CouriersReader
	Order               OrderReader
	Orders              OrdersLister
	Courier             CourierReader
	CourierStats        CourierStatsReader
}

// Server maps HTTP requests onto dispatch commands and queries. Callers are
// identified by the X-User-ID and X-User-Role headers set by the gateway in
// front of it.
type Server struct {
	handlers Handlers
	sessions Sessions
	inbox    Inbox
	logger   *slog.Logger
}

// NewServer wires the handlers. inbox may be nil when no inbox store is configured.
func NewServer(handlers Handlers, sessions Sessions, inbox Inbox, logger *slog.Logger) *Server {
	return &Server{
		handlers: handlers,
		sessions: sessions,
		inbox:    inbox,
		logger:   logger.With("component", "http"),
	}
}

// RegisterRoutes mounts the health check and the /api/v1 routes on e.
// Requests under /api/v1 are checked against the embedded OpenAPI document
// once the caller is identified.
func (s *Server) RegisterRoutes(ctx context.Context, e *echo.Echo) error {
	doc, err := LoadSpec(ctx)
	if err != nil {
		return fmt.Errorf("load openapi spec: %w", err)
	}
	validate, err := requestValidator(doc)
	if err != nil {
		return fmt.Errorf("build request validator: %w", err)
	}

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "Healthy")
	})

	api := e.Group("/api/v1", actorMiddleware, validate)

	api.GET("/orders", s.ListOrders)
	api.POST("/orders", s.CreateOrder)
	api.GET("/orders/:id", s.GetOrder)
	api.POST("/orders/:id/status", s.TransitionOrderStatus)
	api.POST("/orders/:id/assign", s.AssignCourier)

	api.GET("/couriers", s.GetCouriers)
	api.POST("/couriers", s.CreateCourier)
	api.GET("/couriers/:id", s.GetCourier)
	api.GET("/couriers/:id/stats", s.GetCourierStats)
	api.POST("/couriers/:id/review", s.ReviewCourier)
	api.DELETE("/couriers/:id", s.DeactivateCourier)
	api.PUT("/couriers/:id/availability", s.UpdateCourierAvailability)
	api.PUT("/couriers/:id/location", s.UpdateCourierLocation)

	api.POST("/sessions", s.ConnectSession)
	api.DELETE("/sessions/:id", s.DisconnectSession)
	api.GET("/notifications", s.GetNotifications)
	return nil
}

// NewEcho returns an echo instance with the server's routes and error handling.
func NewEcho(ctx context.Context, s *Server) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = s.handleEchoError
	if err := s.RegisterRoutes(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}
