// Package services holds the domain rules that span more than one aggregate:
// ranking couriers by proximity (GeoIndex), padding travel time (SafetyMargin),
// pricing delivery, authorizing order transitions by role, and choosing who
// hears about a change.
package services
