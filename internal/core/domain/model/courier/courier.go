package courier

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var (
	ErrPhoneIsRequired           = errs.NewValueIsRequiredError("phone")
	ErrRejectionReasonIsRequired = errs.NewValueIsRequiredError("rejection reason")
	ErrCourierIsNotConstructed   = errors.New("Courier must be created via NewCourier constructor")
)

// Courier is the delivery staff profile linked 1:1 to a user account.
//
// Key invariants:
//   - available implies the assigned-order set is empty
//   - only active, approved couriers with a known location are eligible for assignment
//   - profiles are deactivated, never deleted
type Courier struct {
	id     kernel.UUID
	userID kernel.UUID

	location      *kernel.GeoPoint
	locationLabel string

	vehicle       VehicleType
	phone         string
	vehicleNumber string

	isAvailable     bool
	isApproved      bool
	rejectionReason string
	isActive        bool

	assignedOrders  []kernel.UUID
	totalDeliveries int
	lastActiveAt    *time.Time
	createdAt       time.Time

	guard guard.ConstructorGuard
}

// NewCourier registers a courier application. The profile starts active,
// unapproved and unavailable until an admin approves it.
func NewCourier(
	id, userID kernel.UUID,
	vehicle VehicleType,
	phone, vehicleNumber string,
	createdAt time.Time,
) (*Courier, error) {
	c := &Courier{
		vehicleNumber: strings.TrimSpace(vehicleNumber),
		isActive:      true,
		createdAt:     createdAt.UTC(),
		guard:         guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		c.setID(id),
		c.setUserID(userID),
		c.setVehicle(vehicle),
		c.setPhone(phone),
	); err != nil {
		return nil, err
	}

	return c, nil
}

// RestoreParams carries the persisted state of a courier.
type RestoreParams struct {
	ID              kernel.UUID
	UserID          kernel.UUID
	Location        *kernel.GeoPoint
	LocationLabel   string
	Vehicle         VehicleType
	Phone           string
	VehicleNumber   string
	IsAvailable     bool
	IsApproved      bool
	RejectionReason string
	IsActive        bool
	AssignedOrders  []kernel.UUID
	TotalDeliveries int
	LastActiveAt    *time.Time
	CreatedAt       time.Time
}

func RestoreCourier(p RestoreParams) (*Courier, error) {
	c := &Courier{
		locationLabel:   p.LocationLabel,
		vehicleNumber:   p.VehicleNumber,
		isAvailable:     p.IsAvailable,
		isApproved:      p.IsApproved,
		rejectionReason: p.RejectionReason,
		isActive:        p.IsActive,
		totalDeliveries: p.TotalDeliveries,
		lastActiveAt:    p.LastActiveAt,
		createdAt:       p.CreatedAt.UTC(),
		guard:           guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		c.setID(p.ID),
		c.setUserID(p.UserID),
		c.setVehicle(p.Vehicle),
		c.setPhone(p.Phone),
	); err != nil {
		return nil, err
	}

	if p.Location != nil {
		if err := p.Location.Validate(); err != nil {
			return nil, err
		}
		loc := *p.Location
		c.location = &loc
	}

	c.assignedOrders = slices.Clone(p.AssignedOrders)
	if c.isAvailable && len(c.assignedOrders) > 0 {
		return nil, errs.NewValueIsInvalidErrorWithCause("availability",
			fmt.Errorf("courier %s is available while holding %d orders", p.ID, len(p.AssignedOrders)))
	}

	return c, nil
}

func (c *Courier) IsEqual(other *Courier) bool {
	if other == nil {
		return false
	}
	return c.id.IsEqual(other.id)
}

func (c *Courier) Validate() error {
	if c == nil {
		return ErrCourierIsNotConstructed
	}
	return c.guard.Validate(ErrCourierIsNotConstructed)
}

func (c *Courier) ID() kernel.UUID {
	return c.id
}

func (c *Courier) UserID() kernel.UUID {
	return c.userID
}

// Location returns a copy of the last reported position, or nil if unknown.
func (c *Courier) Location() *kernel.GeoPoint {
	if c.location == nil {
		return nil
	}
	loc := *c.location
	return &loc
}

func (c *Courier) LocationLabel() string {
	return c.locationLabel
}

func (c *Courier) Vehicle() VehicleType {
	return c.vehicle
}

func (c *Courier) Phone() string {
	return c.phone
}

func (c *Courier) VehicleNumber() string {
	return c.vehicleNumber
}

func (c *Courier) IsAvailable() bool {
	return c.isAvailable
}

func (c *Courier) IsApproved() bool {
	return c.isApproved
}

func (c *Courier) RejectionReason() string {
	return c.rejectionReason
}

func (c *Courier) IsActive() bool {
	return c.isActive
}

func (c *Courier) AssignedOrders() []kernel.UUID {
	return slices.Clone(c.assignedOrders)
}

func (c *Courier) TotalDeliveries() int {
	return c.totalDeliveries
}

func (c *Courier) LastActiveAt() *time.Time {
	return c.lastActiveAt
}

func (c *Courier) CreatedAt() time.Time {
	return c.createdAt
}

// IsEligible reports whether the courier may be offered a new order.
func (c *Courier) IsEligible() bool {
	return c.isActive && c.isApproved && c.isAvailable && c.location != nil
}

// Candidate returns the read-only view used for proximity ranking.
func (c *Courier) Candidate() Candidate {
	return Candidate{
		CourierID: c.id,
		UserID:    c.userID,
		Location:  c.Location(),
		Vehicle:   c.vehicle,
	}
}

// Approve accepts the application and re-activates the profile.
// Availability stays off until the courier opts in.
func (c *Courier) Approve() {
	c.isApproved = true
	c.isActive = true
	c.rejectionReason = ""
}

// Reject turns the application down with a reason and takes the courier off duty.
func (c *Courier) Reject(reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrRejectionReasonIsRequired
	}
	if len(c.assignedOrders) > 0 {
		return errs.NewConflictError("courier", fmt.Sprintf("%s holds %d active orders", c.id, len(c.assignedOrders)))
	}

	c.isApproved = false
	c.isAvailable = false
	c.rejectionReason = reason
	return nil
}

// Deactivate soft-deletes the profile. A courier holding orders cannot be deactivated.
func (c *Courier) Deactivate() error {
	if len(c.assignedOrders) > 0 {
		return errs.NewConflictError("courier", fmt.Sprintf("%s holds %d active orders", c.id, len(c.assignedOrders)))
	}

	c.isActive = false
	c.isAvailable = false
	return nil
}

// UpdateLocation records the latest position report. Last write wins.
func (c *Courier) UpdateLocation(point kernel.GeoPoint, label string, at time.Time) error {
	if err := point.Validate(); err != nil {
		return err
	}

	ts := at.UTC()
	c.location = &point
	c.locationLabel = strings.TrimSpace(label)
	c.lastActiveAt = &ts
	return nil
}

// SetAvailability toggles whether the courier accepts new orders.
// Going available while holding an order is a conflict; only approved, active
// couriers may go available.
func (c *Courier) SetAvailability(available bool) error {
	if !available {
		c.isAvailable = false
		return nil
	}

	if len(c.assignedOrders) > 0 {
		return errs.NewConflictError("courier",
			fmt.Sprintf("%s cannot become available while holding %d orders", c.id, len(c.assignedOrders)))
	}
	if !c.isActive || !c.isApproved {
		return errs.NewValueIsInvalidErrorWithCause("availability",
			fmt.Errorf("courier %s is not approved and active", c.id))
	}

	c.isAvailable = true
	return nil
}

// Claim flips the courier from available to busy and records the order.
// It returns false, changing nothing, when the courier is not available.
// Courier values are not safe for concurrent use; registries serialize Claim per courier.
func (c *Courier) Claim(orderID kernel.UUID) (bool, error) {
	if err := orderID.Validate(); err != nil {
		return false, err
	}
	if !c.isAvailable || !c.isActive || !c.isApproved {
		return false, nil
	}

	c.isAvailable = false
	c.assignedOrders = append(c.assignedOrders, orderID)
	return true, nil
}

// Release removes the order from the assignment set and makes the courier
// available again once the set is empty. Releasing an order that is not held
// is a no-op; the returned flag tells whether anything was removed.
func (c *Courier) Release(orderID kernel.UUID) bool {
	idx := slices.IndexFunc(c.assignedOrders, func(id kernel.UUID) bool { return id.IsEqual(orderID) })
	if idx < 0 {
		return false
	}

	c.assignedOrders = slices.Delete(c.assignedOrders, idx, idx+1)
	if len(c.assignedOrders) == 0 && c.isActive && c.isApproved {
		c.isAvailable = true
	}
	return true
}

// CompleteDelivery releases the order and counts it as delivered.
// Repeating it for the same order does not count twice.
func (c *Courier) CompleteDelivery(orderID kernel.UUID) bool {
	if !c.Release(orderID) {
		return false
	}
	c.totalDeliveries++
	return true
}

// Holds reports whether the order is in the courier's assignment set.
func (c *Courier) Holds(orderID kernel.UUID) bool {
	return slices.ContainsFunc(c.assignedOrders, func(id kernel.UUID) bool { return id.IsEqual(orderID) })
}

func (c *Courier) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}

	c.id = id
	return nil
}

func (c *Courier) setUserID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("user id", err)
	}

	c.userID = id
	return nil
}

func (c *Courier) setVehicle(vehicle VehicleType) error {
	if err := vehicle.Validate(); err != nil {
		return err
	}

	c.vehicle = vehicle
	return nil
}

func (c *Courier) setPhone(phone string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ErrPhoneIsRequired
	}

	c.phone = phone
	return nil
}
