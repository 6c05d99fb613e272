package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Is(t *testing.T) {
	err := NotFound("book not found")

	assert.True(t, Is(err, ErrNotFound))
	assert.False(t, Is(err, ErrConflict))
}

func TestError_Is_Wrapped(t *testing.T) {
	inner := Conflict("an import is already running for this user")
	wrapped := fmt.Errorf("handling request: %w", inner)

	assert.True(t, Is(wrapped, ErrConflict))
}

func TestError_HTTPStatus(t *testing.T) {
	tests := []struct {
		err  *Error
		want int
	}{
		{err: NotFound("x"), want: http.StatusNotFound},
		{err: Validation("x"), want: http.StatusBadRequest},
		{err: Conflict("x"), want: http.StatusConflict},
		{err: RateLimited("x"), want: http.StatusTooManyRequests},
		{err: Internal("x"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.HTTPStatus(), "code %s", tt.err.Code)
	}
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := Wrap(cause, CodeInternal, "write failed")

	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "write failed")
	assert.Contains(t, err.Error(), "disk full")
}

func TestWithCause(t *testing.T) {
	cause := fmt.Errorf("underlying")
	err := ErrValidation.WithCause(cause)

	assert.True(t, Is(err, ErrValidation))
	assert.Equal(t, cause, Unwrap(err))
}
