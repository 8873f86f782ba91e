package errs

import "net/http"

var (
	Unauthorized    = NewUnauthorizedError("Unauthorized")
	NotFound        = NewNotFoundError("Not found")
	ForbiddenOrigin = NewApiErr(http.StatusForbidden, "Forbidden")
)

// Request & Input-Validation Errors
var (
	ErrInvalidJSON = NewBadRequestError("Invalid JSON body")
	ErrNotJSON     = NewApiErr(http.StatusUnsupportedMediaType, "Content-Type must be application/json")
	ErrNoFields    = NewBadRequestError("No fields to update")
	ErrBadStatus   = NewBadRequestError("Invalid status")
)
