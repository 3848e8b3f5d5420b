package errs

import (
	"errors"
	"fmt"
)

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrConflict         = errors.New("conflict")
	ErrGeo              = errors.New("geo error")
)

// PermissionDeniedError reports that an actor is not allowed to perform Action.
type PermissionDeniedError struct {
	Actor  string
	Action string
	Cause  error
}

func NewPermissionDeniedError(actor, action string) *PermissionDeniedError {
	return &PermissionDeniedError{
		Actor:  actor,
		Action: action,
	}
}

func NewPermissionDeniedErrorWithCause(actor, action string, cause error) *PermissionDeniedError {
	return &PermissionDeniedError{
		Actor:  actor,
		Action: action,
		Cause:  cause,
	}
}

func (e *PermissionDeniedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s may not %s (cause: %v)", ErrPermissionDenied, e.Actor, e.Action, e.Cause)
	}
	return fmt.Sprintf("%s: %s may not %s", ErrPermissionDenied, e.Actor, e.Action)
}

func (e *PermissionDeniedError) Unwrap() error {
	return ErrPermissionDenied
}

// ConflictError reports a state conflict such as insufficient stock,
// a lost race or a duplicate record.
type ConflictError struct {
	ParamName string
	Reason    string
	Cause     error
}

func NewConflictError(paramName, reason string) *ConflictError {
	return &ConflictError{
		ParamName: paramName,
		Reason:    reason,
	}
}

func NewConflictErrorWithCause(paramName, reason string, cause error) *ConflictError {
	return &ConflictError{
		ParamName: paramName,
		Reason:    reason,
		Cause:     cause,
	}
}

func (e *ConflictError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s %s (cause: %v)", ErrConflict, e.ParamName, e.Reason, e.Cause)
	}
	return fmt.Sprintf("%s: %s %s", ErrConflict, e.ParamName, e.Reason)
}

// Unwrap exposes both the conflict sentinel and the cause, so a stale
// version conflict matches ErrConflict and ErrVersionIsInvalid.
func (e *ConflictError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrConflict, e.Cause}
	}
	return []error{ErrConflict}
}

// GeoError reports a missing or unusable coordinate.
type GeoError struct {
	Reason string
	Cause  error
}

func NewGeoError(reason string) *GeoError {
	return &GeoError{Reason: reason}
}

func NewGeoErrorWithCause(reason string, cause error) *GeoError {
	return &GeoError{
		Reason: reason,
		Cause:  cause,
	}
}

func (e *GeoError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", ErrGeo, e.Reason, e.Cause)
	}
	return fmt.Sprintf("%s: %s", ErrGeo, e.Reason)
}

func (e *GeoError) Unwrap() error {
	return ErrGeo
}
