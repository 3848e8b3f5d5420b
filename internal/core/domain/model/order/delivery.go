package order

import (
	"fmt"
	"strings"

	"dispatch/internal/pkg/errs"
)

// DeliveryType tells who brings the order to the customer.
type DeliveryType int

const (
	UnknownDeliveryType DeliveryType = iota
	// StoreDelivery means the store ships the order with its own staff.
	StoreDelivery
	// PlatformDelivery means the platform assigns one of its couriers.
	PlatformDelivery
)

func (d DeliveryType) String() string {
	switch d {
	case StoreDelivery:
		return "store"
	case PlatformDelivery:
		return "platform"
	default:
		return "unknown"
	}
}

// ParseDeliveryType maps "store" or "platform" to a DeliveryType.
func ParseDeliveryType(s string) (DeliveryType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "store":
		return StoreDelivery, nil
	case "platform":
		return PlatformDelivery, nil
	default:
		return UnknownDeliveryType, errs.NewValueIsInvalidErrorWithCause(
			"delivery type", fmt.Errorf("%q is not a known delivery type", s))
	}
}

func (d DeliveryType) Validate() error {
	if d != StoreDelivery && d != PlatformDelivery {
		return errs.NewValueIsInvalidErrorWithCause("delivery type", fmt.Errorf("%d is not a valid delivery type", d))
	}
	return nil
}

// PaymentMethod is how the customer pays for the order.
type PaymentMethod int

const (
	UnknownPaymentMethod PaymentMethod = iota
	Cash
	Card
	Wallet
)

func getPaymentMethodStrings() map[PaymentMethod]string {
	return map[PaymentMethod]string{
		Cash:   "cash",
		Card:   "card",
		Wallet: "wallet",
	}
}

// ParsePaymentMethod maps "cash", "card" or "wallet" to a PaymentMethod.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for method, name := range getPaymentMethodStrings() {
		if name == s {
			return method, nil
		}
	}
	return UnknownPaymentMethod, errs.NewValueIsInvalidErrorWithCause(
		"payment method", fmt.Errorf("%q is not a supported payment method", s))
}

func (p PaymentMethod) Validate() error {
	if _, ok := getPaymentMethodStrings()[p]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("payment method", fmt.Errorf("%d is not a valid payment method", p))
	}
	return nil
}

func (p PaymentMethod) String() string {
	if s, ok := getPaymentMethodStrings()[p]; ok {
		return s
	}
	return "unknown"
}
