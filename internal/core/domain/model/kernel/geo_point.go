package kernel

import (
	"errors"
	"fmt"
	"math"

	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

const (
	// EarthRadiusKm is the mean Earth radius used by the haversine formula.
	EarthRadiusKm = 6371.0

	LatitudeMin  = -90.0
	LatitudeMax  = 90.0
	LongitudeMin = -180.0
	LongitudeMax = 180.0
)

// ErrGeoPointIsNotConstructed is returned when a coordinate is missing, that is,
// when a zero-value GeoPoint reaches a distance calculation.
var ErrGeoPointIsNotConstructed = errs.NewGeoError("point is missing, create it via NewGeoPoint")

// GeoPoint is an immutable latitude/longitude pair in decimal degrees.
// The zero value is a missing point and fails Validate, so (0, 0) can still be
// represented explicitly through the constructor.
//
// Example:
//
//	cairo, err := kernel.NewGeoPoint(30.0444, 31.2357)
//	if err != nil {
//	    // latitude or longitude out of range
//	}
//	giza, _ := kernel.NewGeoPoint(30.0131, 31.2089)
//	km, _ := cairo.DistanceKm(giza) // ~4.3
type GeoPoint struct { //nolint:recvcheck //using for validation
	lat   float64
	lon   float64
	guard guard.ConstructorGuard
}

// NewGeoPoint creates a point after checking latitude is within [-90, 90] and
// longitude within [-180, 180]. Both range errors are reported together.
func NewGeoPoint(lat, lon float64) (GeoPoint, error) {
	p := GeoPoint{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(p.setLat(lat), p.setLon(lon)); err != nil {
		return GeoPoint{}, err
	}

	return p, nil
}

// Validate returns ErrGeoPointIsNotConstructed for a missing point.
func (p GeoPoint) Validate() error {
	return p.guard.Validate(ErrGeoPointIsNotConstructed)
}

// IsZero reports whether the point is missing.
func (p GeoPoint) IsZero() bool {
	return p.Validate() != nil
}

func (p GeoPoint) Lat() float64 {
	return p.lat
}

func (p GeoPoint) Lon() float64 {
	return p.lon
}

func (p GeoPoint) String() string {
	return fmt.Sprintf("GeoPoint(%.6f,%.6f)", p.lat, p.lon)
}

// IsEqual compares coordinates of two constructed points.
func (p GeoPoint) IsEqual(other GeoPoint) (bool, error) {
	if err := errors.Join(p.Validate(), other.Validate()); err != nil {
		return false, err
	}

	return p.lat == other.lat && p.lon == other.lon, nil
}

// DistanceKm returns the great-circle distance between two points using the
// haversine formula. It is symmetric and returns a GeoError if either point is missing.
//
// Example:
//
//	a, _ := kernel.NewGeoPoint(0, 0)
//	b, _ := kernel.NewGeoPoint(0, 1)
//	km, _ := a.DistanceKm(b) // ~111.19
func (p GeoPoint) DistanceKm(other GeoPoint) (float64, error) {
	if err := errors.Join(p.Validate(), other.Validate()); err != nil {
		return 0, err
	}

	dLat := toRadians(other.lat - p.lat)
	dLon := toRadians(other.lon - p.lon)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(p.lat))*math.Cos(toRadians(other.lat))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c, nil
}

func (p *GeoPoint) setLat(lat float64) error {
	if math.IsNaN(lat) || lat < LatitudeMin || lat > LatitudeMax {
		return errs.NewValueIsOutOfRangeError("latitude", lat, LatitudeMin, LatitudeMax)
	}

	p.lat = lat
	return nil
}

func (p *GeoPoint) setLon(lon float64) error {
	if math.IsNaN(lon) || lon < LongitudeMin || lon > LongitudeMax {
		return errs.NewValueIsOutOfRangeError("longitude", lon, LongitudeMin, LongitudeMax)
	}

	p.lon = lon
	return nil
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
