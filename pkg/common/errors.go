package common

import (
	"errors"
	"net/http"
)

// AppError is an error carrying the HTTP status it maps to and a message
// that is safe to show to the caller
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes the underlying cause
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new application error
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewBadRequestError reports a request that violates a business precondition
func NewBadRequestError(message string, err error) *AppError {
	return NewAppError(http.StatusBadRequest, message, err)
}

// NewNotFoundError reports a referenced entity that does not exist
func NewNotFoundError(message string, err error) *AppError {
	return NewAppError(http.StatusNotFound, message, err)
}

// NewConflictError reports a uniqueness or overlap violation
func NewConflictError(message string) *AppError {
	return NewAppError(http.StatusConflict, message, nil)
}

// NewUnauthorizedError creates a 401 error
func NewUnauthorizedError(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, message, nil)
}

// NewForbiddenError creates a 403 error
func NewForbiddenError(message string) *AppError {
	return NewAppError(http.StatusForbidden, message, nil)
}

// NewInternalServerError creates a 500 error
func NewInternalServerError(message string) *AppError {
	return NewAppError(http.StatusInternalServerError, message, nil)
}

// NewInternalError creates a 500 error keeping the cause
func NewInternalError(message string, err error) *AppError {
	return NewAppError(http.StatusInternalServerError, message, err)
}

// NewServiceUnavailableError creates a 503 error
func NewServiceUnavailableError(message string) *AppError {
	return NewAppError(http.StatusServiceUnavailable, message, nil)
}

// WrapServiceUnavailable reports an infrastructure failure (store, lock,
// broker) without interpreting it
func WrapServiceUnavailable(message string, err error) *AppError {
	return NewAppError(http.StatusServiceUnavailable, message, err)
}

// ErrorCode returns the status code of an AppError in err's chain, or 0
func ErrorCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return 0
}

// IsNotFound reports whether err maps to 404
func IsNotFound(err error) bool { return ErrorCode(err) == http.StatusNotFound }

// IsBadRequest reports whether err maps to 400
func IsBadRequest(err error) bool { return ErrorCode(err) == http.StatusBadRequest }

// IsConflict reports whether err maps to 409
func IsConflict(err error) bool { return ErrorCode(err) == http.StatusConflict }

// IsUnavailable reports whether err maps to 503
func IsUnavailable(err error) bool { return ErrorCode(err) == http.StatusServiceUnavailable }

// Unavailable returns err unchanged when it already carries an AppError,
// otherwise wraps it as a 503 with message
func Unavailable(message string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return WrapServiceUnavailable(message, err)
}

// ErrorKind names the class of err for metric labels
func ErrorKind(err error) string {
	if err == nil {
		return "ok"
	}
	switch ErrorCode(err) {
	case http.StatusBadRequest:
		return "invalid"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusServiceUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}
