package kernel_test

import (
	"math"
	"testing"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGeoPoint(t *testing.T) {
	t.Run("should create point within bounds", func(t *testing.T) {
		p, err := kernel.NewGeoPoint(30.0444, 31.2357)

		require.NoError(t, err)
		require.NoError(t, p.Validate())
		assert.InDelta(t, 30.0444, p.Lat(), 1e-9)
		assert.InDelta(t, 31.2357, p.Lon(), 1e-9)
		assert.False(t, p.IsZero())
	})

	t.Run("should accept the origin and the extremes", func(t *testing.T) {
		for _, c := range [][2]float64{{0, 0}, {-90, -180}, {90, 180}} {
			_, err := kernel.NewGeoPoint(c[0], c[1])
			require.NoError(t, err)
		}
	})

	t.Run("should report both coordinates when out of range", func(t *testing.T) {
		_, err := kernel.NewGeoPoint(91, -181)

		require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
		assert.Contains(t, err.Error(), "latitude")
		assert.Contains(t, err.Error(), "longitude")
	})

	t.Run("should reject NaN", func(t *testing.T) {
		_, err := kernel.NewGeoPoint(math.NaN(), 0)

		require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
	})
}

func TestGeoPoint_DistanceKm(t *testing.T) {
	origin, _ := kernel.NewGeoPoint(0, 0)

	t.Run("should be zero to itself", func(t *testing.T) {
		d, err := origin.DistanceKm(origin)

		require.NoError(t, err)
		assert.InDelta(t, 0, d, 1e-9)
	})

	t.Run("one degree of longitude on the equator", func(t *testing.T) {
		east, _ := kernel.NewGeoPoint(0, 1)

		d, err := origin.DistanceKm(east)

		require.NoError(t, err)
		assert.InDelta(t, 111.19, d, 0.01)
	})

	t.Run("should be symmetric", func(t *testing.T) {
		cairo, _ := kernel.NewGeoPoint(30.0444, 31.2357)
		alex, _ := kernel.NewGeoPoint(31.2001, 29.9187)

		ab, err := cairo.DistanceKm(alex)
		require.NoError(t, err)
		ba, err := alex.DistanceKm(cairo)
		require.NoError(t, err)

		assert.InDelta(t, ab, ba, 1e-9)
		assert.InDelta(t, 180, ab, 5)
	})

	t.Run("antipodal points are half the circumference apart", func(t *testing.T) {
		antipode, _ := kernel.NewGeoPoint(0, 180)

		d, err := origin.DistanceKm(antipode)

		require.NoError(t, err)
		assert.InDelta(t, math.Pi*kernel.EarthRadiusKm, d, 1e-6)
	})

	t.Run("missing point is a geo error", func(t *testing.T) {
		var missing kernel.GeoPoint

		_, err := origin.DistanceKm(missing)
		require.ErrorIs(t, err, errs.ErrGeo)

		_, err = missing.DistanceKm(origin)
		require.ErrorIs(t, err, errs.ErrGeo)
	})
}

func TestGeoPoint_IsEqual(t *testing.T) {
	a, _ := kernel.NewGeoPoint(1.5, 2.5)
	b, _ := kernel.NewGeoPoint(1.5, 2.5)
	c, _ := kernel.NewGeoPoint(1.5, 2.6)

	eq, err := a.IsEqual(b)
	require.NoError(t, err)
	assert.True(t, eq)

	eq, err = a.IsEqual(c)
	require.NoError(t, err)
	assert.False(t, eq)

	_, err = a.IsEqual(kernel.GeoPoint{})
	require.ErrorIs(t, err, errs.ErrGeo)
}

func TestNewAddress(t *testing.T) {
	point, _ := kernel.NewGeoPoint(30.05, 31.24)

	t.Run("should trim and keep parts", func(t *testing.T) {
		a, err := kernel.NewAddress(point, "  12 Tahrir St ", "floor 3", "Mona", " +20100 ")

		require.NoError(t, err)
		require.NoError(t, a.Validate())
		assert.Equal(t, "12 Tahrir St", a.Text())
		assert.Equal(t, "floor 3", a.Details())
		assert.Equal(t, "Mona", a.RecipientName())
		assert.Equal(t, "+20100", a.RecipientPhone())
		eq, _ := a.Point().IsEqual(point)
		assert.True(t, eq)
	})

	t.Run("missing coordinates is a validation error", func(t *testing.T) {
		_, err := kernel.NewAddress(kernel.GeoPoint{}, "12 Tahrir St", "", "", "")

		require.ErrorIs(t, err, errs.ErrValueIsRequired)
		assert.True(t, errs.IsValidation(err))
	})

	t.Run("blank text is required", func(t *testing.T) {
		_, err := kernel.NewAddress(point, "   ", "", "", "")

		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("zero value is invalid", func(t *testing.T) {
		var a kernel.Address

		assert.Equal(t, kernel.ErrAddressIsNotConstructed, a.Validate())
	})
}

func TestParseRole(t *testing.T) {
	testCases := map[string]kernel.Role{
		"admin":       kernel.Admin,
		"store_owner": kernel.StoreOwner,
		"Delivery":    kernel.Delivery,
		" customer ":  kernel.Customer,
	}
	for in, want := range testCases {
		got, err := kernel.ParseRole(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := kernel.ParseRole("courier")
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)

	require.Error(t, kernel.UnknownRole.Validate())
	assert.Equal(t, "unknown", kernel.Role(42).String())
}
