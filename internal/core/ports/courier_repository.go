// Package ports defines the contracts between the dispatch core and the
// adapters that store, move and announce its data.
package ports

import (
	"context"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
)

// CourierRepository persists courier profiles for the approval workflow.
// Availability and the assignment set change through StaffRegistry; the
// repository reads them and writes them back unchanged.
type CourierRepository interface {
	// Add stores a new profile. A second profile for the same user is a ConflictError.
	Add(ctx context.Context, courier *courier.Courier) error

	// Update writes the profile fields of an existing courier.
	Update(ctx context.Context, courier *courier.Courier) error

	// Get returns the courier or an ObjectNotFoundError. Inside a transaction
	// the row stays locked until commit so claims cannot interleave.
	Get(ctx context.Context, id kernel.UUID) (*courier.Courier, error)

	// GetByUserID returns the profile linked to a user account.
	GetByUserID(ctx context.Context, userID kernel.UUID) (*courier.Courier, error)
}
