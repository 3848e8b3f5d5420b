package services

import (
	"math"
	"sort"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

// DefaultMaxDistanceKm is the search radius used when none is configured.
const DefaultMaxDistanceKm = 10.0

// ErrDestinationIsMissing is returned when ranking against a missing destination.
var ErrDestinationIsMissing = errs.NewGeoErrorWithCause("destination is missing", kernel.ErrGeoPointIsNotConstructed)

// RankedCandidate is a courier annotated with its distance to the destination
// and the estimated minutes to reach it.
type RankedCandidate struct {
	courier.Candidate
	DistanceKm float64
	EtaMinutes int
}

// GeoIndex is a domain service that measures distances and orders couriers by
// proximity to a delivery address.
//
// Business rules:
//   - Distance is the haversine great-circle distance in km
//   - Couriers without a known location are skipped silently
//   - The search radius is inclusive
//   - Results are sorted by distance, ties broken by courier id
//   - ETA = ceil(distance / vehicle speed * 60 * margin) minutes
//
// Example usage:
//
//	margin, _ := services.NewFixedMargin(1.2)
//	index := services.NewGeoIndex(margin)
//
//	ranked, err := index.Rank(candidates, order.Address().Point(), services.DefaultMaxDistanceKm)
//	if err != nil {
//	    // destination is missing
//	}
//	for _, c := range ranked {
//	    // try to claim c.CourierID, nearest first
//	}
type GeoIndex struct {
	margin SafetyMargin
}

// NewGeoIndex creates a GeoIndex drawing ETA padding from margin.
func NewGeoIndex(margin SafetyMargin) GeoIndex {
	return GeoIndex{margin: margin}
}

// DistanceKm returns the haversine distance between a and b, or a GeoError if
// either point is missing.
func (g GeoIndex) DistanceKm(a, b kernel.GeoPoint) (float64, error) {
	return a.DistanceKm(b)
}

// EstimateMinutes converts a distance into whole minutes for the given vehicle.
func (g GeoIndex) EstimateMinutes(distanceKm float64, vehicle courier.VehicleType) int {
	hours := distanceKm / vehicle.SpeedKmh()
	return int(math.Ceil(hours * 60 * g.margin.Next()))
}

// Rank returns the candidates within maxDistanceKm of destination, nearest first.
//
// Parameters:
//   - candidates: eligible couriers; entries without a location are ignored
//   - destination: the order's delivery point (must be present)
//   - maxDistanceKm: inclusive search radius
//
// Returns:
//   - []RankedCandidate: possibly empty, never nil
//   - error: GeoError if destination is missing
func (g GeoIndex) Rank(
	candidates []courier.Candidate,
	destination kernel.GeoPoint,
	maxDistanceKm float64,
) ([]RankedCandidate, error) {
	if err := destination.Validate(); err != nil {
		return nil, ErrDestinationIsMissing
	}

	ranked := make([]RankedCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Location == nil || c.Location.IsZero() {
			continue
		}

		distance, err := c.Location.DistanceKm(destination)
		if err != nil {
			return nil, err
		}
		if distance > maxDistanceKm {
			continue
		}

		ranked = append(ranked, RankedCandidate{
			Candidate:  c,
			DistanceKm: distance,
			EtaMinutes: g.EstimateMinutes(distance, c.Vehicle),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].DistanceKm != ranked[j].DistanceKm {
			return ranked[i].DistanceKm < ranked[j].DistanceKm
		}
		return ranked[i].CourierID.String() < ranked[j].CourierID.String()
	})

	return ranked, nil
}
