// Package errors defines the error taxonomy shared by the pipeline services:
// sentinel errors for the client-visible failure classes and an AppError
// wrapper that carries an HTTP status code across service boundaries.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrRequestNotFound = errors.New("request not found")
	ErrNoRecords       = errors.New("no enriched records found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrMissingField    = errors.New("missing required field")
	ErrUnknownStrategy = errors.New("unknown enrichment strategy")
	ErrDependency      = errors.New("dependency failure")
	ErrInternal        = errors.New("internal error")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrRequestNotFound), errors.Is(err, ErrNoRecords):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrMissingField), errors.Is(err, ErrUnknownStrategy):
		return http.StatusBadRequest
	case errors.Is(err, ErrDependency):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
