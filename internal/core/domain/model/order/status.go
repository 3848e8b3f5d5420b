package order

import (
	"fmt"
	"strings"

	"dispatch/internal/pkg/errs"
)

// Status represents the current state of an order in its lifecycle.
//
// Lifecycle:
//
//	Pending -> Confirmed -> Preparing -> Ready -> Assigned -> OnWay -> Delivered
//
// Cancelled and Refunded can be reached from most states depending on the
// actor's role. Delivered, Cancelled and Refunded are terminal.
type Status int

const (
	Unknown Status = iota
	Pending
	Confirmed
	Preparing
	Ready
	Assigned
	OnWay
	Delivered
	Cancelled
	Refunded
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Pending:   "pending",
		Confirmed: "confirmed",
		Preparing: "preparing",
		Ready:     "ready",
		Assigned:  "assigned",
		OnWay:     "on_way",
		Delivered: "delivered",
		Cancelled: "cancelled",
		Refunded:  "refunded",
	}
}

// AllStatuses returns every valid status in lifecycle order.
func AllStatuses() []Status {
	return []Status{Pending, Confirmed, Preparing, Ready, Assigned, OnWay, Delivered, Cancelled, Refunded}
}

// ParseStatus maps a wire name such as "on_way" to its Status.
func ParseStatus(s string) (Status, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for status, name := range getStatusStrings() {
		if name == s {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not a valid status", s))
}

func (s Status) Validate() error {
	if _, ok := getStatusStrings()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// IsTerminal reports whether the order has finished its lifecycle.
func (s Status) IsTerminal() bool {
	return s == Delivered || s == Cancelled || s == Refunded
}

// IsActiveAssignment reports whether a courier is currently working the order.
func (s Status) IsActiveAssignment() bool {
	return s == Assigned || s == OnWay
}

// IsPreAssignment reports whether the order may still receive a courier.
func (s Status) IsPreAssignment() bool {
	return s == Pending || s == Confirmed || s == Preparing || s == Ready
}
