package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("place order: %w", InsufficientStock("Veil"))

	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.False(t, errors.Is(err, ErrEmptyCart))
	assert.Equal(t, "Insufficient stock for Veil", From(err).Message)
}

func TestStatusMapping(t *testing.T) {
	cases := map[*Error]int{
		NotFound("x"):         http.StatusNotFound,
		ErrEmptyCart:          http.StatusBadRequest,
		Validation():          http.StatusBadRequest,
		Unauthenticated("x"):  http.StatusUnauthorized,
		AccessDenied("x"):     http.StatusForbidden,
		Conflict("x"):         http.StatusConflict,
		Busy(nil):             http.StatusConflict,
		Unavailable(nil):      http.StatusServiceUnavailable,
		Internal("boom", nil): http.StatusInternalServerError,
		{Code: "SOMETHING"}:   http.StatusInternalServerError,
	}
	for e, want := range cases {
		assert.Equal(t, want, e.Status(), e.Code)
	}
}

func TestFromWrapsForeignErrors(t *testing.T) {
	cause := errors.New("socket closed")
	e := From(cause)

	assert.Equal(t, CodeInternal, e.Code)
	assert.ErrorIs(t, e, cause)
	assert.Nil(t, From(nil))
}

func TestValidationUsesFirstMessage(t *testing.T) {
	e := Validation(Field("name", "Name is required"), Field("price", "Valid price is required"))
	assert.Equal(t, "Name is required", e.Message)
	assert.Len(t, e.Fields, 2)
}
