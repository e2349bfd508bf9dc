package server

import (
	"errors"
	"net/http"

	"lexdesk/internal/store"
)

// ServiceErrorKind classifies a service failure. Each kind maps to one HTTP
// status.
type ServiceErrorKind string

const (
	ServiceErrorInvalid     ServiceErrorKind = "invalid"
	ServiceErrorNotFound    ServiceErrorKind = "not_found"
	ServiceErrorUnavailable ServiceErrorKind = "unavailable"
	ServiceErrorConflict    ServiceErrorKind = "conflict"
)

var kindStatus = map[ServiceErrorKind]int{
	ServiceErrorInvalid:     http.StatusBadRequest,
	ServiceErrorNotFound:    http.StatusNotFound,
	ServiceErrorConflict:    http.StatusConflict,
	ServiceErrorUnavailable: http.StatusServiceUnavailable,
}

// Status is the HTTP status for the kind, 500 for an unknown kind.
func (k ServiceErrorKind) Status() int {
	if status, ok := kindStatus[k]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ServiceError is returned by the services. Message is safe to show to API
// callers; Err keeps the underlying cause for logs and errors.Is.
type ServiceError struct {
	Kind    ServiceErrorKind
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err == nil {
		return msg
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return msg + ": " + e.Err.Error()
}

func (e *ServiceError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newServiceError(kind ServiceErrorKind, message string, err error) *ServiceError {
	return &ServiceError{Kind: kind, Message: message, Err: err}
}

func invalidError(message string, err error) *ServiceError {
	return newServiceError(ServiceErrorInvalid, message, err)
}

func notFoundError(message string, err error) *ServiceError {
	return newServiceError(ServiceErrorNotFound, message, err)
}

func unavailableError(message string, err error) *ServiceError {
	return newServiceError(ServiceErrorUnavailable, message, err)
}

func conflictError(message string, err error) *ServiceError {
	return newServiceError(ServiceErrorConflict, message, err)
}

// storeError classifies a persistence failure. Errors that already carry a
// kind pass through and a missing record becomes not_found.
func storeError(err error) error {
	var svcErr *ServiceError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &svcErr):
		return err
	case errors.Is(err, store.ErrNotFound):
		return notFoundError("record not found", err)
	}
	return unavailableError("storage unavailable", err)
}

// errorResponse picks the status and caller-facing message for err.
func errorResponse(err error) (int, string) {
	var svcErr *ServiceError
	if !errors.As(err, &svcErr) {
		return http.StatusInternalServerError, err.Error()
	}
	message := svcErr.Message
	if message == "" {
		message = svcErr.Error()
	}
	return svcErr.Kind.Status(), message
}
