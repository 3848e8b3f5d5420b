package services

import (
	"errors"
	"fmt"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"
)

var (
	errNotStoreOwner      = errors.New("actor does not own the order's store")
	errNotAssignedCourier = errors.New("actor is not the order's assigned courier")
	errNotOrderOwner      = errors.New("actor does not own the order")
	errSourceNotAllowed   = errors.New("current status is not allowed for this role")
	errTargetNotAllowed   = errors.New("target status is not allowed for this role")
)

// TransitionSubject carries what the policy needs to know about the order and
// its surroundings. ActorCourierID is the courier profile of a delivery actor,
// nil when the actor has none.
type TransitionSubject struct {
	Order          *order.Order
	StoreOwnerID   kernel.UUID
	ActorCourierID *kernel.UUID
}

type transitionRule struct {
	anyStatus bool
	from      []order.Status
	to        []order.Status
}

// TransitionPolicy is the role matrix for order status changes.
//
//	role         from                                  to                                        ownership
//	admin        any                                   any                                       none
//	store_owner  pending, confirmed, preparing, ready  confirmed, preparing, ready, cancelled     owns the store
//	delivery     assigned, on_way                      on_way, delivered                         is the assigned courier
//	customer     pending                               cancelled                                 owns the order
type TransitionPolicy struct {
	rules map[kernel.Role]transitionRule
}

func NewTransitionPolicy() TransitionPolicy {
	return TransitionPolicy{
		rules: map[kernel.Role]transitionRule{
			kernel.Admin: {anyStatus: true},
			kernel.StoreOwner: {
				from: []order.Status{order.Pending, order.Confirmed, order.Preparing, order.Ready},
				to:   []order.Status{order.Confirmed, order.Preparing, order.Ready, order.Cancelled},
			},
			kernel.Delivery: {
				from: []order.Status{order.Assigned, order.OnWay},
				to:   []order.Status{order.OnWay, order.Delivered},
			},
			kernel.Customer: {
				from: []order.Status{order.Pending},
				to:   []order.Status{order.Cancelled},
			},
		},
	}
}

// Authorize returns a PermissionDeniedError unless actor may move subject.Order to target.
func (p TransitionPolicy) Authorize(actor kernel.Actor, subject TransitionSubject, target order.Status) error {
	if err := subject.Order.Validate(); err != nil {
		return err
	}

	current := subject.Order.Status()
	action := fmt.Sprintf("move order from %s to %s", current, target)

	rule, ok := p.rules[actor.Role]
	if !ok {
		return errs.NewPermissionDeniedError(actor.Role.String(), action)
	}

	if !rule.anyStatus {
		if !contains(rule.to, target) {
			return errs.NewPermissionDeniedErrorWithCause(actor.Role.String(), action, errTargetNotAllowed)
		}
		if !contains(rule.from, current) {
			return errs.NewPermissionDeniedErrorWithCause(actor.Role.String(), action, errSourceNotAllowed)
		}
	}

	if err := p.checkOwnership(actor, subject); err != nil {
		return errs.NewPermissionDeniedErrorWithCause(actor.Role.String(), action, err)
	}

	return nil
}

func (p TransitionPolicy) checkOwnership(actor kernel.Actor, subject TransitionSubject) error {
	switch actor.Role {
	case kernel.Admin:
		return nil
	case kernel.StoreOwner:
		if !actor.UserID.IsEqual(subject.StoreOwnerID) {
			return errNotStoreOwner
		}
		return nil
	case kernel.Delivery:
		assigned := subject.Order.CourierID()
		if subject.ActorCourierID == nil || assigned == nil || !assigned.IsEqual(*subject.ActorCourierID) {
			return errNotAssignedCourier
		}
		return nil
	case kernel.Customer:
		if !actor.UserID.IsEqual(subject.Order.CustomerID()) {
			return errNotOrderOwner
		}
		return nil
	default:
		return errs.NewValueIsInvalidError("role")
	}
}

func contains(statuses []order.Status, s order.Status) bool {
	for _, status := range statuses {
		if status == s {
			return true
		}
	}
	return false
}
