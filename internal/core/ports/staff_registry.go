package ports

import (
	"context"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
)

// StaffRegistry owns the only contended state in dispatch: each courier's
// availability flag and assignment set. Every method is safe for concurrent use.
type StaffRegistry interface {
	// SnapshotEligible lists active, approved, available couriers with a known location.
	SnapshotEligible(ctx context.Context) ([]courier.Candidate, error)

	// Claim flips the courier from available to busy for orderID in a single
	// conditional step. It reports false when another order got there first.
	Claim(ctx context.Context, courierID, orderID kernel.UUID) (bool, error)

	// Release drops orderID from the courier's set. Releasing twice is a no-op.
	Release(ctx context.Context, courierID, orderID kernel.UUID) error

	// CompleteDelivery releases orderID and counts a completed delivery,
	// once per order.
	CompleteDelivery(ctx context.Context, courierID, orderID kernel.UUID) error

	UpdateLocation(ctx context.Context, courierID kernel.UUID, point kernel.GeoPoint, label string) error

	// UpdateAvailability sets the flag. Going available while holding an
	// order is a ConflictError.
	UpdateAvailability(ctx context.Context, courierID kernel.UUID, available bool) error
}
