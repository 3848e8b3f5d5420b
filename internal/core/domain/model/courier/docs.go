// Package courier provides the Courier aggregate: the delivery staff profile with
// its approval state, availability flag, last known location and the set of
// orders it currently holds.
//
// Key business rules:
//   - A courier with held orders is never available
//   - Claim flips availability off and records the order in one step
//   - Release is idempotent; CompleteDelivery counts each order once
//   - Couriers are deactivated, never deleted
package courier
