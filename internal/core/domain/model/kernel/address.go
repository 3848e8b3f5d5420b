package kernel

import (
	"errors"
	"strings"

	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

// ErrAddressIsNotConstructed is returned when a zero-value Address is used.
var ErrAddressIsNotConstructed = errs.NewValueIsRequiredError("address must be created via NewAddress")

// Address is the immutable delivery destination attached to an order.
// The coordinates are mandatory; the textual parts are informational.
type Address struct { //nolint:recvcheck //using for validation
	point          GeoPoint
	text           string
	details        string
	recipientName  string
	recipientPhone string
	guard          guard.ConstructorGuard
}

// NewAddress creates an address. The point must be constructed and the
// free-text line must not be blank.
func NewAddress(point GeoPoint, text, details, recipientName, recipientPhone string) (Address, error) {
	a := Address{
		details:        strings.TrimSpace(details),
		recipientName:  strings.TrimSpace(recipientName),
		recipientPhone: strings.TrimSpace(recipientPhone),
		guard:          guard.NewConstructorGuard(),
	}

	if err := errors.Join(a.setPoint(point), a.setText(text)); err != nil {
		return Address{}, err
	}

	return a, nil
}

func (a Address) Validate() error {
	return a.guard.Validate(ErrAddressIsNotConstructed)
}

func (a Address) Point() GeoPoint {
	return a.point
}

func (a Address) Text() string {
	return a.text
}

func (a Address) Details() string {
	return a.details
}

func (a Address) RecipientName() string {
	return a.recipientName
}

func (a Address) RecipientPhone() string {
	return a.recipientPhone
}

func (a *Address) setPoint(point GeoPoint) error {
	if err := point.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("address coordinates", err)
	}

	a.point = point
	return nil
}

func (a *Address) setText(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return errs.NewValueIsRequiredError("address text")
	}

	a.text = text
	return nil
}
