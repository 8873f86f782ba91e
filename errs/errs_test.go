package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructorsKeepClientMessage(t *testing.T) {
	err := NewBadRequestError("Title is required")
	assert.Equal(t, "Title is required", err.Error())
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.False(t, err.Internal())

	err = NewInternalErrorWithCause("failed to start session", errors.New("redis down"))
	assert.True(t, err.Internal())
	assert.Equal(t, "failed to start session -> redis down", err.GetFullError())
}

func TestDatabaseErrorMapsNotFound(t *testing.T) {
	err := NewDatabaseError("find", "project", ErrNotFound)
	assert.Equal(t, http.StatusNotFound, err.StatusCode)
	assert.Equal(t, "project not found", err.Error())

	cause := errors.New("connection refused")
	err = NewDatabaseError("find", "project", cause)
	assert.Equal(t, http.StatusInternalServerError, err.StatusCode)
	assert.True(t, err.Internal())
	assert.True(t, errors.Is(err, ErrDatabaseQuery))
	assert.Equal(t, "failed to find project -> connection refused", err.GetFullError())
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(ErrNotFound))
	assert.True(t, IsNotFound(fmt.Errorf("find admin: %w", ErrNotFound)))
	assert.True(t, IsNotFound(NewDatabaseError("find", "order", ErrNotFound)))
	assert.False(t, IsNotFound(NotFound))
	assert.False(t, IsNotFound(errors.New("boom")))
}
