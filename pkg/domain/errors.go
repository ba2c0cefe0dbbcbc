package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is the application error family. Services return these and the
// server's error handler maps them onto HTTP statuses and the standard
// ErrorResponse envelope.
type AppError struct {
	Status  int
	Message string
	Detail  interface{}
	Err     error
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

func newAppError(status int, message string) *AppError {
	return &AppError{Status: status, Message: message}
}

func NewBadRequestError(message string) *AppError {
	return newAppError(http.StatusBadRequest, message)
}

func NewUnauthorizedError(message string) *AppError {
	return newAppError(http.StatusUnauthorized, message)
}

func NewForbiddenError(message string) *AppError {
	return newAppError(http.StatusForbidden, message)
}

func NewNotFoundError(entityType string, id interface{}) *AppError {
	return newAppError(http.StatusNotFound, fmt.Sprintf("%s with ID '%v' not found", entityType, id))
}

func NewConflictError(message string) *AppError {
	return newAppError(http.StatusConflict, message)
}

func NewUnprocessableEntityError(message string, detail interface{}) *AppError {
	err := newAppError(http.StatusUnprocessableEntity, message)
	err.Detail = detail
	return err
}

func NewInternalServerError(message string, cause error) *AppError {
	err := newAppError(http.StatusInternalServerError, message)
	err.Err = cause
	return err
}

func NewServiceUnavailableError(message string) *AppError {
	return newAppError(http.StatusServiceUnavailable, message)
}

// StatusOf resolves the HTTP status an error should map to. Unrecognized
// errors are treated as internal.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}
