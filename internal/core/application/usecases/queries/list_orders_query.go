package queries

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

const (
	DefaultOrdersPageLimit = 10
	MaxOrdersPageLimit     = 100
)

var (
	ErrListOrdersQueryIsNotConstructed = errors.New(
		"ListOrdersQuery must be created via NewListOrdersQuery constructor",
	)
)

// OrderScope selects whose orders ListOrdersQuery returns.
type OrderScope string

const (
	// ScopeMine lists the orders a customer placed.
	ScopeMine OrderScope = "mine"
	// ScopeStore lists the orders of the stores the caller owns; every order for administrators.
	ScopeStore OrderScope = "store"
	// ScopeDelivery lists the orders handled by the caller's courier profile;
	// every order that has had a courier for administrators.
	ScopeDelivery OrderScope = "delivery"
)

func ParseOrderScope(s string) (OrderScope, error) {
	switch scope := OrderScope(strings.ToLower(strings.TrimSpace(s))); scope {
	case ScopeMine, ScopeStore, ScopeDelivery:
		return scope, nil
	default:
		return "", errs.NewValueIsInvalidErrorWithCause("scope", fmt.Errorf("%q is not a valid scope", s))
	}
}

// allows reports whether role may list orders in the scope.
func (s OrderScope) allows(role kernel.Role) bool {
	switch s {
	case ScopeMine:
		return role == kernel.Customer
	case ScopeStore:
		return role == kernel.StoreOwner || role == kernel.Admin
	case ScopeDelivery:
		return role == kernel.Delivery || role == kernel.Admin
	default:
		return false
	}
}

// OrderFilter narrows a listing. Zero values disable a filter.
type OrderFilter struct {
	Status *order.Status
	From   *time.Time
	To     *time.Time
}

// ListOrdersQuery pages through orders newest first.
//
// Example:
//
//	pending := order.Pending
//	query, err := NewListOrdersQuery(actor, ScopeStore, OrderFilter{Status: &pending}, 1, 20)
//	if err != nil {
//	    return err
//	}
//
//	page, err := handler.Handle(ctx, query)
type ListOrdersQuery struct {
	actor  kernel.Actor
	scope  OrderScope
	filter OrderFilter
	page   int
	limit  int
	guard  guard.ConstructorGuard
}

// NewListOrdersQuery checks that the actor's role may use the scope. Page
// and limit default to 1 and DefaultOrdersPageLimit when zero.
func NewListOrdersQuery(actor kernel.Actor, scope OrderScope, filter OrderFilter, page, limit int) (ListOrdersQuery, error) {
	if err := errors.Join(actor.UserID.Validate(), actor.Role.Validate()); err != nil {
		return ListOrdersQuery{}, err
	}
	if _, err := ParseOrderScope(string(scope)); err != nil {
		return ListOrdersQuery{}, err
	}
	if filter.Status != nil {
		if err := filter.Status.Validate(); err != nil {
			return ListOrdersQuery{}, err
		}
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return ListOrdersQuery{}, errs.NewValueIsInvalidErrorWithCause("from",
			fmt.Errorf("%s is after %s", filter.From.Format(time.RFC3339), filter.To.Format(time.RFC3339)))
	}

	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = DefaultOrdersPageLimit
	}
	if page < 1 {
		return ListOrdersQuery{}, errs.NewValueIsOutOfRangeError("page", page, 1, nil)
	}
	if limit < 1 || limit > MaxOrdersPageLimit {
		return ListOrdersQuery{}, errs.NewValueIsOutOfRangeError("limit", limit, 1, MaxOrdersPageLimit)
	}

	if !scope.allows(actor.Role) {
		return ListOrdersQuery{}, errs.NewPermissionDeniedError(actor.Role.String(), fmt.Sprintf("list %s orders", scope))
	}

	return ListOrdersQuery{
		actor:  actor,
		scope:  scope,
		filter: filter,
		page:   page,
		limit:  limit,
		guard:  guard.NewConstructorGuard(),
	}, nil
}

func (q ListOrdersQuery) Validate() error {
	return q.guard.Validate(ErrListOrdersQueryIsNotConstructed)
}

func (q ListOrdersQuery) Actor() kernel.Actor {
	return q.actor
}

func (q ListOrdersQuery) Scope() OrderScope {
	return q.scope
}

func (q ListOrdersQuery) Filter() OrderFilter {
	return q.filter
}

func (q ListOrdersQuery) Page() int {
	return q.page
}

func (q ListOrdersQuery) Limit() int {
	return q.limit
}

func (q ListOrdersQuery) Offset() int {
	return (q.page - 1) * q.limit
}

// Matches applies the filter to one order. Backends that cannot push the
// filter down to storage use it directly.
func (f OrderFilter) Matches(status order.Status, createdAt time.Time) bool {
	if f.Status != nil && *f.Status != status {
		return false
	}
	if f.From != nil && createdAt.Before(*f.From) {
		return false
	}
	if f.To != nil && createdAt.After(*f.To) {
		return false
	}
	return true
}

// OrderSummary is one row of an order listing.
type OrderSummary struct {
	ID           kernel.UUID
	CustomerID   kernel.UUID
	StoreID      kernel.UUID
	CourierID    *kernel.UUID
	Status       string
	DeliveryType string
	Subtotal     decimal.Decimal
	DeliveryFee  decimal.Decimal
	Total        decimal.Decimal
	CreatedAt    time.Time
}

type ListOrdersQueryResponse struct {
	Orders []OrderSummary
	Total  int
	Page   int
	Limit  int
}

// Pages is the number of pages needed for Total rows.
func (r ListOrdersQueryResponse) Pages() int {
	if r.Limit <= 0 {
		return 0
	}
	return (r.Total + r.Limit - 1) / r.Limit
}
