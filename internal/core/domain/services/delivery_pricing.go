package services

import (
	"fmt"

	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

// DefaultPlatformFee is the flat fee charged when the platform delivers.
var DefaultPlatformFee = decimal.NewFromInt(10)

// StoreDeliveryTerms are the delivery settings a store publishes.
type StoreDeliveryTerms struct {
	HasDelivery             bool
	IsFreeDelivery          bool
	Fee                     decimal.Decimal
	MinOrderForFreeDelivery decimal.Decimal
}

// DeliveryQuote is who delivers an order and what the customer pays for it.
type DeliveryQuote struct {
	Type order.DeliveryType
	Fee  decimal.Decimal
}

// NeedsCourier reports whether the platform has to find a courier.
func (q DeliveryQuote) NeedsCourier() bool {
	return q.Type == order.PlatformDelivery
}

// DeliveryPricing decides between store and platform fulfilment.
type DeliveryPricing struct {
	platformFee decimal.Decimal
}

func NewDeliveryPricing(platformFee decimal.Decimal) (DeliveryPricing, error) {
	if platformFee.IsNegative() {
		return DeliveryPricing{}, errs.NewValueIsInvalidErrorWithCause("platform fee",
			fmt.Errorf("%s is negative", platformFee))
	}
	return DeliveryPricing{platformFee: platformFee}, nil
}

// Quote prices delivery for an order of the given subtotal.
//
// A store with its own delivery fulfils the order itself, for free when it
// advertises free delivery or the subtotal reaches a positive threshold, and
// for its own fee otherwise. Stores without delivery fall back to the platform.
func (p DeliveryPricing) Quote(terms StoreDeliveryTerms, subtotal decimal.Decimal) DeliveryQuote {
	if !terms.HasDelivery {
		return DeliveryQuote{Type: order.PlatformDelivery, Fee: p.platformFee}
	}

	threshold := terms.MinOrderForFreeDelivery
	if terms.IsFreeDelivery || (threshold.IsPositive() && subtotal.GreaterThanOrEqual(threshold)) {
		return DeliveryQuote{Type: order.StoreDelivery, Fee: decimal.Zero}
	}

	fee := terms.Fee
	if fee.IsNegative() {
		fee = decimal.Zero
	}
	return DeliveryQuote{Type: order.StoreDelivery, Fee: fee}
}
