package order

import (
	"errors"
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var ErrAssignmentRecordIsNotConstructed = errs.NewValueIsRequiredError(
	"assignment record must be created via NewAssignmentRecord")

// AssignmentRecord captures who was assigned to an order, how far away they
// were and the estimate given at that moment. It stays on the order as history
// after delivery or cancellation.
type AssignmentRecord struct { //nolint:recvcheck //using for validation
	orderID    kernel.UUID
	courierID  kernel.UUID
	distanceKm float64
	etaMinutes int
	assignedAt time.Time
	guard      guard.ConstructorGuard
}

func NewAssignmentRecord(
	orderID, courierID kernel.UUID,
	distanceKm float64,
	etaMinutes int,
	assignedAt time.Time,
) (AssignmentRecord, error) {
	r := AssignmentRecord{
		assignedAt: assignedAt.UTC(),
		guard:      guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		r.setOrderID(orderID),
		r.setCourierID(courierID),
		r.setDistance(distanceKm),
		r.setEta(etaMinutes),
	); err != nil {
		return AssignmentRecord{}, err
	}

	return r, nil
}

func (r AssignmentRecord) Validate() error {
	return r.guard.Validate(ErrAssignmentRecordIsNotConstructed)
}

func (r AssignmentRecord) OrderID() kernel.UUID {
	return r.orderID
}

func (r AssignmentRecord) CourierID() kernel.UUID {
	return r.courierID
}

func (r AssignmentRecord) DistanceKm() float64 {
	return r.distanceKm
}

func (r AssignmentRecord) EtaMinutes() int {
	return r.etaMinutes
}

func (r AssignmentRecord) AssignedAt() time.Time {
	return r.assignedAt
}

// EstimatedArrival is assignedAt shifted by the ETA.
func (r AssignmentRecord) EstimatedArrival() time.Time {
	return r.assignedAt.Add(time.Duration(r.etaMinutes) * time.Minute)
}

func (r *AssignmentRecord) setOrderID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("order id", err)
	}
	r.orderID = id
	return nil
}

func (r *AssignmentRecord) setCourierID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("courier id", err)
	}
	r.courierID = id
	return nil
}

func (r *AssignmentRecord) setDistance(km float64) error {
	if km < 0 {
		return errs.NewValueIsInvalidErrorWithCause("distance", fmt.Errorf("%f is negative", km))
	}
	r.distanceKm = km
	return nil
}

func (r *AssignmentRecord) setEta(minutes int) error {
	if minutes < 0 {
		return errs.NewValueIsInvalidErrorWithCause("eta", fmt.Errorf("%d is negative", minutes))
	}
	r.etaMinutes = minutes
	return nil
}
