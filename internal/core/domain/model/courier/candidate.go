package courier

import "dispatch/internal/core/domain/model/kernel"

// Candidate is a point-in-time view of an eligible courier. Location is nil
// when the courier has never reported a position.
type Candidate struct {
	CourierID kernel.UUID
	UserID    kernel.UUID
	Location  *kernel.GeoPoint
	Vehicle   VehicleType
}
