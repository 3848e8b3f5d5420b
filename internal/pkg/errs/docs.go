// Package errs provides standardized error types for the dispatch engine.
// It implements a consistent pattern for error creation, formatting, and unwrapping
// that is used throughout the application.
//
// The package includes several error types for common error scenarios:
//   - ValueIsRequiredError, ValueIsInvalidError, ValueIsOutOfRangeError: the validation family
//   - ObjectNotFoundError: for when an order, courier, store or product cannot be found
//   - PermissionDeniedError: for role or ownership checks that fail
//   - ConflictError: for insufficient stock, lost races and duplicates
//   - GeoError: for missing coordinates
//   - VersionIsInvalidError: for stale optimistic-concurrency versions
//
// Each error type follows a consistent pattern:
//   - A sentinel error variable (e.g., ErrValueIsRequired)
//   - A struct type with fields for error details
//   - Constructor functions with and without cause
//   - Error() method for formatting the error message
//   - Unwrap() method for error wrapping/unwrapping support
//
// Callers classify errors with errors.Is against the sentinels; the HTTP adapter
// maps each sentinel to a status code.
package errs
