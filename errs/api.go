package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// ApiErr is an error that knows which HTTP status it maps to. Its message is
// what the client sees in the {"error": ...} body.
type ApiErr struct {
	StatusCode int
	err        error
	Cause      error // underlying error, logged but never sent to clients
}

func NewApiErr(statusCode int, message string) *ApiErr {
	return &ApiErr{
		StatusCode: statusCode,
		err:        errors.New(message),
	}
}

// implements error interface. this allows us to pass an instance of ApiErr as an argument of type `error`
func (e *ApiErr) Error() string {
	return e.err.Error()
}

// GetFullError returns a recursive error message including all causes
func (e *ApiErr) GetFullError() string {
	msg := e.Error()
	if e.Cause != nil {
		var apiErr *ApiErr
		if errors.As(e.Cause, &apiErr) {
			msg = fmt.Sprintf("%s -> %s", msg, apiErr.GetFullError())
		} else {
			msg = fmt.Sprintf("%s -> %s", msg, e.Cause.Error())
		}
	}
	return msg
}

// this function allows us to do the following:
// err := &ApiErr{StatusCode: ..., err: someSentinelError}
// errors.Is(err, someSentinelError) ==> evaluates to true
func (e *ApiErr) Unwrap() error {
	return e.err
}

// Internal reports whether the error must be hidden behind a generic message.
func (e *ApiErr) Internal() bool {
	return e.StatusCode >= http.StatusInternalServerError
}

// Common error constructors with appropriate HTTP status codes
func NewNotFoundError(message string) *ApiErr {
	return &ApiErr{StatusCode: http.StatusNotFound, err: errors.New(message)}
}

func NewBadRequestError(message string) *ApiErr {
	return NewApiErr(http.StatusBadRequest, message)
}

func NewUnauthorizedError(message string) *ApiErr {
	return NewApiErr(http.StatusUnauthorized, message)
}

func NewBadRequestErrorWithCause(message string, cause error) *ApiErr {
	e := NewBadRequestError(message)
	e.Cause = cause
	return e
}

func NewInternalErrorWithCause(message string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        errors.New(message),
		Cause:      cause,
	}
}

// IsNotFound reports whether err stands for a missing row.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// silentErr wraps a sentinel so it takes part in errors.Is without showing up
// in the message.
type silentErr struct{ target error }

func silent(target error) error { return silentErr{target} }

func (s silentErr) Error() string { return "" }

func (s silentErr) Unwrap() error { return s.target }
