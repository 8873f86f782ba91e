package errs

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrDatabaseQuery = errors.New("database query failed")
)

// NewDatabaseError wraps an unexpected storage failure. Missing rows map to 404,
// everything else is a 500 that keeps the driver error as its cause.
func NewDatabaseError(operation, entity string, cause error) *ApiErr {
	if errors.Is(cause, ErrNotFound) {
		return &ApiErr{
			StatusCode: http.StatusNotFound,
			err:        fmt.Errorf("%s not found", entity),
			Cause:      cause,
		}
	}
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        fmt.Errorf("failed to %s %s%w", operation, entity, silent(ErrDatabaseQuery)),
		Cause:      cause,
	}
}
