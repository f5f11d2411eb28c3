package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Every AppError wraps exactly one of these so callers can branch on
// the category without knowing the concrete code.
var (
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("resource conflict")
	ErrNotFound     = errors.New("resource not found")
	ErrTransient    = errors.New("transient upstream failure")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInternal     = errors.New("internal error")
)

// AppError represents an application error with HTTP status and error code.
type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	StatusCode int            `json:"-"`
	Err        error          `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil && !isKind(e.Err) {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target matches this error.
func (e *AppError) Is(target error) bool {
	if t, ok := target.(*AppError); ok {
		return e.Code == t.Code
	}
	return errors.Is(e.Err, target)
}

// ErrorResponse represents the JSON error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error details.
type ErrorDetail struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ToResponse converts an AppError to ErrorResponse.
func (e *AppError) ToResponse() ErrorResponse {
	return ErrorResponse{
		Error: ErrorDetail{
			Code:    e.Code,
			Message: e.Message,
			Details: e.Details,
		},
	}
}

// WithDetails returns a copy of the error carrying details.
// Sentinels are shared, so the receiver is never mutated.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

// Define declares a domain error of the given kind. Domain packages use it for
// their sentinel values.
func Define(kind error, code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusForKind(kind),
		Err:        kind,
	}
}

// NotFound creates a not found error.
func NotFound(resource string) *AppError {
	return Define(ErrNotFound, "NOT_FOUND", fmt.Sprintf("%s not found", resource))
}

// ValidationError creates a validation error.
func ValidationError(message string) *AppError {
	return Define(ErrValidation, "VALIDATION_ERROR", message)
}

// Conflict creates a conflict error.
func Conflict(message string) *AppError {
	return Define(ErrConflict, "CONFLICT", message)
}

// Unauthorized creates an unauthorized error.
func Unauthorized(message string) *AppError {
	if message == "" {
		message = "authentication required"
	}
	return Define(ErrUnauthorized, "UNAUTHORIZED", message)
}

// Forbidden creates a forbidden error.
func Forbidden(message string) *AppError {
	if message == "" {
		message = "access denied"
	}
	return Define(ErrForbidden, "FORBIDDEN", message)
}

// Transient creates a retryable upstream error keeping the cause.
func Transient(message string, cause error) *AppError {
	if message == "" {
		message = "service temporarily unavailable"
	}
	err := ErrTransient
	if cause != nil {
		err = errors.Join(ErrTransient, cause)
	}
	return &AppError{
		Code:       "UPSTREAM_UNAVAILABLE",
		Message:    message,
		StatusCode: http.StatusServiceUnavailable,
		Err:        err,
	}
}

// Internal creates an internal error.
func Internal(message string, err error) *AppError {
	if err == nil {
		err = ErrInternal
	}
	return &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}

// GetStatusCode returns the appropriate HTTP status code for an error.
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.StatusCode != 0 {
		return appErr.StatusCode
	}
	return statusForKind(KindOf(err))
}

// KindOf returns the kind sentinel the error belongs to, ErrInternal when unknown.
func KindOf(err error) error {
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return ErrInternal
}

// KindLabel returns a short label for the error kind, used in logs and metrics.
func KindLabel(err error) string {
	if err == nil {
		return "ok"
	}
	switch KindOf(err) {
	case ErrValidation:
		return "validation"
	case ErrConflict:
		return "conflict"
	case ErrNotFound:
		return "not_found"
	case ErrTransient:
		return "transient"
	case ErrUnauthorized:
		return "unauthorized"
	case ErrForbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

var kinds = []error{ErrValidation, ErrConflict, ErrNotFound, ErrTransient, ErrUnauthorized, ErrForbidden}

func isKind(err error) bool {
	for _, kind := range kinds {
		if err == kind {
			return true
		}
	}
	return err == ErrInternal
}

func statusForKind(kind error) int {
	switch kind {
	case ErrValidation:
		return http.StatusUnprocessableEntity
	case ErrConflict:
		return http.StatusConflict
	case ErrNotFound:
		return http.StatusNotFound
	case ErrTransient:
		return http.StatusServiceUnavailable
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// --- Error Checking Helpers ---

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict checks if the error is a conflict error.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsTransient checks if the error is retryable.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// IsForbidden checks if the error is a forbidden error.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}
