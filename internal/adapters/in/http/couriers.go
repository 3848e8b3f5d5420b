package http

import (
	"net/http"
	"strconv"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type CreateCourierRequest struct {
	Vehicle       string `json:"vehicle"`
	Phone         string `json:"phone"`
	VehicleNumber string `json:"vehicle_number"`
}

type CreateCourierResponse struct {
	CourierID string `json:"courier_id"`
}

type ReviewCourierRequest struct {
	Approve bool   `json:"approve"`
	Reason  string `json:"reason"`
}

type AvailabilityRequest struct {
	Available bool `json:"available"`
}

type LocationRequest struct {
	Lat   *float64 `json:"lat"`
	Lon   *float64 `json:"lon"`
	Label string   `json:"label"`
}

type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type Courier struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Vehicle         string    `json:"vehicle"`
	Phone           string    `json:"phone"`
	Location        *Location `json:"location,omitempty"`
	LocationLabel   string    `json:"location_label,omitempty"`
	IsAvailable     bool      `json:"is_available"`
	IsApproved      bool      `json:"is_approved"`
	IsActive        bool      `json:"is_active"`
	RejectionReason string    `json:"rejection_reason,omitempty"`
	ActiveOrders    int       `json:"active_orders"`
	TotalDeliveries int       `json:"total_deliveries"`
	CreatedAt       time.Time `json:"created_at"`
}

type CourierDetail struct {
	Courier
	RecentOrders []OrderSummary `json:"recent_orders"`
}

type CourierStats struct {
	CourierID          string          `json:"courier_id"`
	TotalOrders        int             `json:"total_orders"`
	CompletedOrders    int             `json:"completed_orders"`
	CancelledOrders    int             `json:"cancelled_orders"`
	OpenOrders         int             `json:"open_orders"`
	TotalEarnings      decimal.Decimal `json:"total_earnings"`
	RecordedDeliveries int             `json:"recorded_deliveries"`
}

func toCourier(cr queries.GetAllCouriersQueryResponse) Courier {
	out := Courier{
		ID:              cr.ID.String(),
		UserID:          cr.UserID.String(),
		Vehicle:         cr.Vehicle,
		Phone:           cr.Phone,
		LocationLabel:   cr.LocationLabel,
		IsAvailable:     cr.IsAvailable,
		IsApproved:      cr.IsApproved,
		IsActive:        cr.IsActive,
		RejectionReason: cr.RejectionReason,
		ActiveOrders:    cr.ActiveOrders,
		TotalDeliveries: cr.TotalDeliveries,
		CreatedAt:       cr.CreatedAt,
	}
	if cr.Location != nil {
		out.Location = &Location{Lat: cr.Location.Lat(), Lon: cr.Location.Lon()}
	}
	return out
}

// GetCouriers handles GET /api/v1/couriers. ?pending=true limits the list to
// applications awaiting review.
func (s *Server) GetCouriers(c echo.Context) error {
	if actorOf(c).Role != kernel.Admin {
		return forbidden(c, "list couriers")
	}

	pendingOnly := false
	if raw := c.QueryParam("pending"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return badRequest(c, "pending must be a boolean")
		}
		pendingOnly = v
	}

	couriers, err := s.handlers.Couriers.Handle(c.Request().Context(), queries.NewGetAllCouriersQuery(pendingOnly))
	if err != nil {
		return s.fail(c, err)
	}

	response := make([]Courier, len(couriers))
	for i, cr := range couriers {
		response[i] = toCourier(cr)
	}

	return c.JSON(http.StatusOK, response)
}

// GetCourier handles GET /api/v1/couriers/:id.
func (s *Server) GetCourier(c echo.Context) error {
	courierID, err := pathID(c)
	if err != nil {
		return s.fail(c, err)
	}

	query, err := queries.NewGetCourierQuery(actorOf(c), courierID)
	if err != nil {
		return s.fail(c, err)
	}

	result, err := s.handlers.Courier.Handle(c.Request().Context(), query)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(http.StatusOK, CourierDetail{
		Courier:      toCourier(result.Courier),
		RecentOrders: toOrderSummaries(result.RecentOrders),
	})
}

// GetCourierStats handles GET /api/v1/couriers/:id/stats.
func (s *Server) GetCourierStats(c echo.Context) error {
	courierID, err := pathID(c)
	if err != nil {
		return s.fail(c, err)
	}

	query, err := queries.NewGetCourierStatsQuery(actorOf(c), courierID)
	if err != nil {
		return s.fail(c, err)
	}

	stats, err := s.handlers.CourierStats.Handle(c.Request().Context(), query)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(http.StatusOK, CourierStats{
		CourierID:          stats.CourierID.String(),
		TotalOrders:        stats.TotalOrders,
		CompletedOrders:    stats.CompletedOrders,
		CancelledOrders:    stats.CancelledOrders,
		OpenOrders:         stats.OpenOrders,
		TotalEarnings:      stats.TotalEarnings,
		RecordedDeliveries: stats.RecordedDeliveries,
	})
}

// CreateCourier handles POST /api/v1/couriers: the caller applies to deliver.
func (s *Server) CreateCourier(c echo.Context) error {
	var req CreateCourierRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	vehicle, err := courier.ParseVehicleType(req.Vehicle)
	if err != nil {
		return s.fail(c, err)
	}

	cmd, err := commands.NewCreateCourierCommand(actorOf(c).UserID, vehicle, req.Phone, req.VehicleNumber)
	if err != nil {
		return s.fail(c, err)
	}

	courierID, err := s.handlers.CreateCourier.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(http.StatusCreated, CreateCourierResponse{CourierID: courierID.String()})
}

// ReviewCourier handles POST /api/v1/couriers/:id/review.
func (s *Server) ReviewCourier(c echo.Context) error {
	courierID, err := pathID(c)
	if err != nil {
		return s.fail(c, err)
	}

	var req ReviewCourierRequest
	if err = c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	cmd, err := commands.NewReviewCourierCommand(actorOf(c), courierID, req.Approve, req.Reason)
	if err != nil {
		return s.fail(c, err)
	}

	if err = s.handlers.ReviewCourier.Handle(c.Request().Context(), cmd); err != nil {
		return s.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// DeactivateCourier handles DELETE /api/v1/couriers/:id.
func (s *Server) DeactivateCourier(c echo.Context) error {
	courierID, err := pathID(c)
	if err != nil {
		return s.fail(c, err)
	}

	cmd, err := commands.NewDeactivateCourierCommand(actorOf(c), courierID)
	if err != nil {
		return s.fail(c, err)
	}

	if err = s.handlers.DeactivateCourier.Handle(c.Request().Context(), cmd); err != nil {
		return s.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UpdateCourierAvailability handles PUT /api/v1/couriers/:id/availability.
func (s *Server) UpdateCourierAvailability(c echo.Context) error {
	courierID, err := pathID(c)
	if err != nil {
		return s.fail(c, err)
	}

	var req AvailabilityRequest
	if err = c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	cmd, err := commands.NewUpdateCourierAvailabilityCommand(actorOf(c), courierID, req.Available)
	if err != nil {
		return s.fail(c, err)
	}

	if err = s.handlers.CourierAvailability.Handle(c.Request().Context(), cmd); err != nil {
		return s.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UpdateCourierLocation handles PUT /api/v1/couriers/:id/location.
func (s *Server) UpdateCourierLocation(c echo.Context) error {
	courierID, err := pathID(c)
	if err != nil {
		return s.fail(c, err)
	}

	var req LocationRequest
	if err = c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	point, err := geoPoint("", req.Lat, req.Lon)
	if err != nil {
		return s.fail(c, err)
	}

	cmd, err := commands.NewUpdateCourierLocationCommand(actorOf(c), courierID, point, req.Label)
	if err != nil {
		return s.fail(c, err)
	}

	if err = s.handlers.CourierLocation.Handle(c.Request().Context(), cmd); err != nil {
		return s.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
