// Package errors provides the unified error taxonomy used across the
// orchestrator, VFS, memory, and code-intelligence core.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the taxonomy of error categories every component maps its
// failures onto. Retries apply only to Transient; everything else
// surfaces immediately to the caller.
type Kind string

const (
	KindNotFound          Kind = "NOT_FOUND"
	KindInvalidInput      Kind = "INVALID_INPUT"
	KindConflict          Kind = "CONFLICT"
	KindTransient         Kind = "TRANSIENT"
	KindBackend           Kind = "BACKEND"
	KindResourceExhausted Kind = "RESOURCE_EXHAUSTION"
	KindCancelled         Kind = "CANCELLED"
	KindInternal          Kind = "INTERNAL"
)

func (k Kind) httpStatus() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindTransient:
		return http.StatusServiceUnavailable
	case KindBackend:
		return http.StatusBadGateway
	case KindResourceExhausted:
		return http.StatusTooManyRequests
	case KindCancelled:
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

// ServiceError is the structured error every public operation returns.
// It carries a stable code, a human message, and enough detail to map
// onto an API response without losing the taxonomy kind.
type ServiceError struct {
	Kind    Kind                   `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Err     error                  `json:"-"`
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// HTTPStatus maps the error's kind onto a conventional status code.
func (e *ServiceError) HTTPStatus() int { return e.Kind.httpStatus() }

// WithDetails attaches a key/value pair for diagnostics.
func (e *ServiceError) WithDetails(key string, value interface{}) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a ServiceError of the given kind.
func New(kind Kind, message string) *ServiceError {
	return &ServiceError{Kind: kind, Message: message}
}

// Wrap wraps an existing error with taxonomy and message.
func Wrap(kind Kind, message string, err error) *ServiceError {
	return &ServiceError{Kind: kind, Message: message, Err: err}
}

func NotFound(resource, id string) *ServiceError {
	return New(KindNotFound, fmt.Sprintf("%s not found", resource)).WithDetails("id", id)
}

func InvalidInput(field, reason string) *ServiceError {
	return New(KindInvalidInput, "invalid input").WithDetails("field", field).WithDetails("reason", reason)
}

func Conflict(message string) *ServiceError {
	return New(KindConflict, message)
}

func Transient(operation string, err error) *ServiceError {
	return Wrap(KindTransient, fmt.Sprintf("%s: transient failure", operation), err)
}

func Backend(err error) *ServiceError {
	return Wrap(KindBackend, "backend reported an error", err)
}

func ResourceExhausted(resource string) *ServiceError {
	return New(KindResourceExhausted, fmt.Sprintf("%s exhausted", resource))
}

func Cancelled(operation string) *ServiceError {
	return New(KindCancelled, fmt.Sprintf("%s was cancelled", operation))
}

func Internal(message string, err error) *ServiceError {
	return Wrap(KindInternal, message, err)
}

// IsServiceError reports whether err (or something it wraps) is a ServiceError.
func IsServiceError(err error) bool {
	var serviceErr *ServiceError
	return errors.As(err, &serviceErr)
}

// As extracts a ServiceError from an error chain, if present.
func As(err error) *ServiceError {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr
	}
	return nil
}

// KindOf returns the taxonomy kind of err, defaulting to Internal for
// errors that were never classified.
func KindOf(err error) Kind {
	if se := As(err); se != nil {
		return se.Kind
	}
	return KindInternal
}

// GetHTTPStatus returns the conventional HTTP status for err.
func GetHTTPStatus(err error) int {
	if se := As(err); se != nil {
		return se.HTTPStatus()
	}
	return http.StatusInternalServerError
}
