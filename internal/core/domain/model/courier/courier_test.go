package courier_test

import (
	"testing"
	"time"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func newApprovedCourier(t *testing.T) *courier.Courier {
	t.Helper()
	c, err := courier.NewCourier(kernel.NewUUID(), kernel.NewUUID(), courier.Motorcycle, "+20100", "ABC 123", testNow)
	require.NoError(t, err)
	c.Approve()
	point, _ := kernel.NewGeoPoint(30.05, 31.23)
	require.NoError(t, c.UpdateLocation(point, "Downtown", testNow))
	require.NoError(t, c.SetAvailability(true))
	return c
}

func assertAvailabilityInvariant(t *testing.T, c *courier.Courier) {
	t.Helper()
	if c.IsAvailable() {
		assert.Empty(t, c.AssignedOrders(), "available courier must not hold orders")
	}
}

func TestNewCourier(t *testing.T) {
	t.Run("should start active, unapproved and unavailable", func(t *testing.T) {
		c, err := courier.NewCourier(kernel.NewUUID(), kernel.NewUUID(), courier.Bicycle, " +20100 ", "", testNow)

		require.NoError(t, err)
		require.NoError(t, c.Validate())
		assert.True(t, c.IsActive())
		assert.False(t, c.IsApproved())
		assert.False(t, c.IsAvailable())
		assert.Nil(t, c.Location())
		assert.Equal(t, "+20100", c.Phone())
		assert.False(t, c.IsEligible())
	})

	t.Run("should join validation errors", func(t *testing.T) {
		c, err := courier.NewCourier(kernel.UUID{}, kernel.UUID{}, courier.UnknownVehicle, "", "", testNow)

		require.Error(t, err)
		assert.Nil(t, c)
		assert.Contains(t, err.Error(), "UUID must be created")
		assert.Contains(t, err.Error(), "user id")
		assert.Contains(t, err.Error(), "vehicle type")
		assert.Contains(t, err.Error(), "phone")
	})
}

func TestCourier_ClaimAndRelease(t *testing.T) {
	t.Run("claim flips availability and records order", func(t *testing.T) {
		c := newApprovedCourier(t)
		orderID := kernel.NewUUID()

		claimed, err := c.Claim(orderID)

		require.NoError(t, err)
		assert.True(t, claimed)
		assert.False(t, c.IsAvailable())
		assert.True(t, c.Holds(orderID))
		assertAvailabilityInvariant(t, c)
	})

	t.Run("second claim loses", func(t *testing.T) {
		c := newApprovedCourier(t)
		_, _ = c.Claim(kernel.NewUUID())

		claimed, err := c.Claim(kernel.NewUUID())

		require.NoError(t, err)
		assert.False(t, claimed)
		assert.Len(t, c.AssignedOrders(), 1)
	})

	t.Run("release is idempotent", func(t *testing.T) {
		c := newApprovedCourier(t)
		orderID := kernel.NewUUID()
		_, _ = c.Claim(orderID)

		assert.True(t, c.Release(orderID))
		assert.True(t, c.IsAvailable())
		assert.Empty(t, c.AssignedOrders())

		assert.False(t, c.Release(orderID))
		assert.True(t, c.IsAvailable())
		assert.Empty(t, c.AssignedOrders())
		assertAvailabilityInvariant(t, c)
	})

	t.Run("complete delivery counts once", func(t *testing.T) {
		c := newApprovedCourier(t)
		orderID := kernel.NewUUID()
		_, _ = c.Claim(orderID)

		assert.True(t, c.CompleteDelivery(orderID))
		assert.False(t, c.CompleteDelivery(orderID))

		assert.Equal(t, 1, c.TotalDeliveries())
		assert.True(t, c.IsAvailable())
	})

	t.Run("deactivated courier stays unavailable after release", func(t *testing.T) {
		c := newApprovedCourier(t)
		orderID := kernel.NewUUID()
		_, _ = c.Claim(orderID)
		require.ErrorIs(t, c.Deactivate(), errs.ErrConflict)

		c.Release(orderID)
		require.NoError(t, c.Deactivate())

		claimed, err := c.Claim(kernel.NewUUID())
		require.NoError(t, err)
		assert.False(t, claimed)
		assert.False(t, c.IsAvailable())
	})
}

func TestCourier_SetAvailability(t *testing.T) {
	t.Run("available while holding an order is a conflict", func(t *testing.T) {
		c := newApprovedCourier(t)
		_, _ = c.Claim(kernel.NewUUID())

		err := c.SetAvailability(true)

		require.ErrorIs(t, err, errs.ErrConflict)
		assert.False(t, c.IsAvailable())
		assertAvailabilityInvariant(t, c)
	})

	t.Run("going unavailable is always allowed", func(t *testing.T) {
		c := newApprovedCourier(t)
		_, _ = c.Claim(kernel.NewUUID())

		require.NoError(t, c.SetAvailability(false))
	})

	t.Run("unapproved courier cannot go available", func(t *testing.T) {
		c, _ := courier.NewCourier(kernel.NewUUID(), kernel.NewUUID(), courier.Car, "+1", "", testNow)

		err := c.SetAvailability(true)

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}

func TestCourier_Review(t *testing.T) {
	c, _ := courier.NewCourier(kernel.NewUUID(), kernel.NewUUID(), courier.Car, "+1", "", testNow)

	require.ErrorIs(t, c.Reject(" "), errs.ErrValueIsRequired)
	require.NoError(t, c.Reject("expired license"))
	assert.Equal(t, "expired license", c.RejectionReason())
	assert.False(t, c.IsApproved())

	c.Approve()
	assert.True(t, c.IsApproved())
	assert.Empty(t, c.RejectionReason())
}

func TestCourier_Eligibility(t *testing.T) {
	c := newApprovedCourier(t)
	assert.True(t, c.IsEligible())

	candidate := c.Candidate()
	assert.True(t, candidate.CourierID.IsEqual(c.ID()))
	require.NotNil(t, candidate.Location)
	assert.Equal(t, courier.Motorcycle, candidate.Vehicle)

	require.ErrorIs(t, c.UpdateLocation(kernel.GeoPoint{}, "", testNow), errs.ErrGeo)
}

func TestRestoreCourier_RejectsAvailableWithOrders(t *testing.T) {
	_, err := courier.RestoreCourier(courier.RestoreParams{
		ID:             kernel.NewUUID(),
		UserID:         kernel.NewUUID(),
		Vehicle:        courier.Car,
		Phone:          "+1",
		IsAvailable:    true,
		IsApproved:     true,
		IsActive:       true,
		AssignedOrders: []kernel.UUID{kernel.NewUUID()},
		CreatedAt:      testNow,
	})

	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
}

func TestVehicleType_SpeedKmh(t *testing.T) {
	testCases := map[courier.VehicleType]float64{
		courier.Motorcycle: 30,
		courier.Car:        25,
		courier.Bicycle:    15,
		courier.OnFoot:     5,
		courier.Truck:      courier.DefaultSpeedKmh,
	}
	for vehicle, speed := range testCases {
		assert.InDelta(t, speed, vehicle.SpeedKmh(), 1e-9, vehicle.String())
	}

	v, err := courier.ParseVehicleType("on_foot")
	require.NoError(t, err)
	assert.Equal(t, courier.OnFoot, v)

	_, err = courier.ParseVehicleType("scooter")
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
}
