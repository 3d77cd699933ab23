package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType classifies application errors for clients and for the
// bulk coordinator, which treats some types as per-item skips.
type ErrorType string

const (
	ErrorTypeValidation        ErrorType = "validation"
	ErrorTypeAuthentication    ErrorType = "authentication"
	ErrorTypeForbidden         ErrorType = "forbidden"
	ErrorTypeNotFound          ErrorType = "not_found"
	ErrorTypeInvalidTransition ErrorType = "invalid_transition"
	ErrorTypeAlreadyPublished  ErrorType = "already_published"
	ErrorTypeConflict          ErrorType = "conflict"
	ErrorTypeDelivery          ErrorType = "delivery"
	ErrorTypeInternal          ErrorType = "internal"
)

// AppError is a structured application error carrying the HTTP status
// the handler layer should respond with.
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	StatusCode int                    `json:"status_code"`
	Internal   error                  `json:"-"`
	Details    map[string]interface{} `json:"details,omitempty"`
	// Transient is set on delivery errors where a later retry may
	// succeed; permanent delivery failures need operator attention.
	Transient bool `json:"transient,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Internal.Error())
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Internal
}

// IsType reports whether err is an AppError of the given type.
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}

// NewValidationError creates a new validation error
func NewValidationError(message string, details map[string]interface{}) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Details:    details,
	}
}

// NewAuthenticationError creates a new authentication error
func NewAuthenticationError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeAuthentication,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

// NewForbiddenError signals that the caller's team role does not permit
// the attempted operation.
func NewForbiddenError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// NewInvalidTransitionError signals a state machine rule violation,
// e.g. confirming a proposal that was never accepted.
func NewInvalidTransitionError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInvalidTransition,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// NewAlreadyPublishedError signals an attempt to silently flip a
// deliberation outcome whose notification already went out.
func NewAlreadyPublishedError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeAlreadyPublished,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// NewConflictError signals lock contention or a selection that resolved
// to a changed/empty set under concurrent modification.
func NewConflictError(message string, internal error) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Message:    message,
		StatusCode: http.StatusConflict,
		Internal:   internal,
	}
}

// NewDeliveryError wraps a notification dispatch failure. Transient
// failures leave the sent-flag unset so the next publish retries them.
func NewDeliveryError(message string, internal error, transient bool) *AppError {
	return &AppError{
		Type:       ErrorTypeDelivery,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Internal:   internal,
		Transient:  transient,
	}
}

// NewInternalError creates a new internal server error
func NewInternalError(message string, internal error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Internal:   internal,
	}
}

// ErrorResponse represents the JSON error response
type ErrorResponse struct {
	Error struct {
		Type      ErrorType              `json:"type"`
		Message   string                 `json:"message"`
		Details   map[string]interface{} `json:"details,omitempty"`
		RequestID string                 `json:"request_id,omitempty"`
		Timestamp string                 `json:"timestamp"`
	} `json:"error"`
}
