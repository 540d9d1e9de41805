package utils

import (
	"testing"

	"blackline/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type address struct {
	City string `json:"city" validate:"required" msg:"City is required"`
}

type signup struct {
	Email   string  `json:"email" validate:"required,email"`
	Name    string  `json:"name" validate:"required" msg:"Name is required"`
	Address address `json:"address"`
}

func TestValidateCollectsFields(t *testing.T) {
	err := Validate(&signup{Email: "nope"})
	require.Error(t, err)

	e := apperr.From(err)
	assert.Equal(t, apperr.CodeValidation, e.Code)
	assert.ElementsMatch(t, []apperr.FieldError{
		{Field: "email", Msg: "Valid email is required"},
		{Field: "name", Msg: "Name is required"},
		{Field: "address.city", Msg: "City is required"},
	}, e.Fields)
}

func TestValidatePasses(t *testing.T) {
	assert.NoError(t, Validate(signup{Email: "a@b.co", Name: "Ana", Address: address{City: "Oslo"}}))
}
