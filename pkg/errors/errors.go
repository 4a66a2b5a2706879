package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors sharing the same code so cloned messages still compare equal.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrSessionNotFound    = New("SESSION_NOT_FOUND", http.StatusNotFound, "session not found")
	ErrNotEnrolled        = New("NOT_ENROLLED", http.StatusNotFound, "no active enrollment for session")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrAlreadyEnrolled    = New("ALREADY_ENROLLED", http.StatusConflict, "already enrolled in session")
	ErrTimeConflict       = New("TIME_CONFLICT", http.StatusConflict, "session overlaps an existing enrollment")
	ErrSessionFull        = New("SESSION_FULL", http.StatusConflict, "session is full")
	ErrSessionCancelled   = New("SESSION_CANCELLED", http.StatusConflict, "session is cancelled")
	ErrAlreadyCancelled   = New("ALREADY_CANCELLED", http.StatusConflict, "session already cancelled")
	ErrReenrollNotAllowed = New("REENROLLMENT_NOT_ALLOWED", http.StatusConflict, "re-enrollment after cancellation is not allowed")
	ErrLocationUnresolved = New("LOCATION_UNRESOLVED", http.StatusUnprocessableEntity, "postal code could not be resolved")
	ErrCapacityContention = New("CAPACITY_CONTENTION", http.StatusServiceUnavailable, "session is busy, retry the request")
	ErrProfileNotFound    = New("PROFILE_NOT_FOUND", http.StatusNotFound, "profile not found")
	ErrImageNotFound      = New("IMAGE_NOT_FOUND", http.StatusNotFound, "image not found on profile")
	ErrUploadsDisabled    = New("UPLOADS_DISABLED", http.StatusServiceUnavailable, "image uploads are not configured")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
)

// Sentinels used between layers; never rendered to clients directly.
var (
	ErrCacheMiss  = errors.New("cache miss")
	ErrContention = errors.New("registration count changed concurrently")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// Internal wraps an unexpected failure with a caller-facing message.
func Internal(err error, message string) *Error {
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, message)
}
