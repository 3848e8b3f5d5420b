package kernel

import (
	"fmt"
	"strings"

	"dispatch/internal/pkg/errs"
)

// Role is the closed set of platform roles that may act on orders.
type Role int

const (
	UnknownRole Role = iota
	Admin
	StoreOwner
	Delivery
	Customer
)

func getRoleStrings() map[Role]string {
	return map[Role]string{
		Admin:      "admin",
		StoreOwner: "store_owner",
		Delivery:   "delivery",
		Customer:   "customer",
	}
}

// ParseRole maps the wire name of a role to its value.
func ParseRole(s string) (Role, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for role, name := range getRoleStrings() {
		if name == s {
			return role, nil
		}
	}
	return UnknownRole, errs.NewValueIsInvalidErrorWithCause("role", fmt.Errorf("%q is not a known role", s))
}

func (r Role) Validate() error {
	if _, ok := getRoleStrings()[r]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("role", fmt.Errorf("%d is not a valid role", r))
	}
	return nil
}

func (r Role) String() string {
	if s, ok := getRoleStrings()[r]; ok {
		return s
	}
	return "unknown"
}

// Actor is the authenticated caller on whose behalf a command runs.
type Actor struct {
	UserID UUID
	Role   Role
}

func NewActor(userID UUID, role Role) Actor {
	return Actor{UserID: userID, Role: role}
}

func (a Actor) String() string {
	return fmt.Sprintf("%s(%s)", a.Role, a.UserID)
}
