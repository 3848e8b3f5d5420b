// Package kernel provides the shared primitives of the dispatch domain.
//
// The package includes:
//   - UUID: identifiers for orders, couriers, users, stores and products
//   - GeoPoint: an immutable latitude/longitude pair with haversine distance
//   - Address: the immutable delivery destination of an order
//   - Role and Actor: the closed set of roles and the caller acting under one
//
// Value objects embed a guard.ConstructorGuard, so a zero value always fails
// Validate; for GeoPoint that failure is a GeoError ("point is missing").
package kernel
