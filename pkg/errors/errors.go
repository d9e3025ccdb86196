package errors

import (
	"fmt"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches on the code so callers can compare against the sentinel
// constructors with errors.Is regardless of the wrapped cause.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrBadRequest
	ErrUnauthorized
	ErrForbidden
	ErrInternal
	ErrConflict
)

// Tenancy error codes
const (
	ErrUnknownTenant ErrorCode = iota + 2000
	ErrTenantInactive
	ErrInvalidTenantID
	ErrDuplicateTenant
)

// Assignment error codes
const (
	ErrBedNotAvailable ErrorCode = iota + 3000
	ErrOverlapConflict
	ErrAssignmentNotActive
	ErrInvalidInterval
	ErrBedOccupied
)

// Error constructors
func NewNotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func NewBadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Message: message,
		Err:     err,
	}
}

func NewInternal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

func NotFound(resource string, err error) *AppError {
	return NewNotFound(resource, err)
}

func BadRequest(message string, err error) *AppError {
	return NewBadRequest(message, err)
}

func Internal(err error) *AppError {
	return NewInternal(err)
}

func Unauthorized(err error) *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Message: "unauthorized",
		Err:     err,
	}
}

func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Message: message,
	}
}

// Tenancy errors. Resolution failures are always surfaced as distinct
// kinds; nothing ever falls back to a shared namespace.
func UnknownTenant(tenantID string) *AppError {
	return &AppError{
		Code:    ErrUnknownTenant,
		Message: fmt.Sprintf("unknown tenant %q", tenantID),
	}
}

func TenantInactive(tenantID string) *AppError {
	return &AppError{
		Code:    ErrTenantInactive,
		Message: fmt.Sprintf("tenant %q is deactivated", tenantID),
	}
}

func InvalidTenantID(tenantID string) *AppError {
	return &AppError{
		Code:    ErrInvalidTenantID,
		Message: fmt.Sprintf("tenant id %q contains characters outside [a-z0-9_]", tenantID),
	}
}

func DuplicateTenant(tenantID string) *AppError {
	return &AppError{
		Code:    ErrDuplicateTenant,
		Message: fmt.Sprintf("tenant %q already registered", tenantID),
	}
}

// Assignment errors. OverlapConflict signals a genuine double-booking
// attempt and must reach a human; it is never retried automatically.
func BedNotAvailable(status string) *AppError {
	return &AppError{
		Code:    ErrBedNotAvailable,
		Message: fmt.Sprintf("bed is not available (status %s)", status),
	}
}

func OverlapConflict(err error) *AppError {
	return &AppError{
		Code:    ErrOverlapConflict,
		Message: "bed already has an active assignment overlapping this interval",
		Err:     err,
	}
}

func AssignmentNotActive() *AppError {
	return &AppError{
		Code:    ErrAssignmentNotActive,
		Message: "assignment is already discharged",
	}
}

func InvalidInterval(message string) *AppError {
	return &AppError{
		Code:    ErrInvalidInterval,
		Message: message,
	}
}

func BedOccupied() *AppError {
	return &AppError{
		Code:    ErrBedOccupied,
		Message: "bed has an active assignment",
	}
}
