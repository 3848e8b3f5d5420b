// Package order contains the Order aggregate: line items, money totals,
// delivery pricing result, lifecycle status and the courier assignment record.
//
// Transitions are authorized elsewhere (services.TransitionPolicy); the
// aggregate enforces the data rules of a transition and reports the side
// effects the caller must carry out through StatusChange.
package order
