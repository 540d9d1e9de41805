package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"blackline/apperr"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondWithErrorMapsCode(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondWithError(rec, nil, apperr.Validation(apperr.Field("name", "Name is required")))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Name is required", body.Message)
	assert.Equal(t, apperr.CodeValidation, body.Code)
	assert.Len(t, body.Errors, 1)
}

func TestRespondWithErrorHidesInternalCause(t *testing.T) {
	log, hook := test.NewNullLogger()
	rec := httptest.NewRecorder()
	RespondWithError(rec, log, errors.New("connection reset by peer"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
	require.Len(t, hook.Entries, 1)
}

func TestObjectIDParam(t *testing.T) {
	_, err := ObjectIDParam(httprouter.Params{{Key: "id", Value: "nope"}}, "id", "Product not found")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, "Product not found", apperr.From(err).Message)

	id, err := ObjectIDParam(httprouter.Params{{Key: "id", Value: "64b7f0c2a1b2c3d4e5f60718"}}, "id", "x")
	require.NoError(t, err)
	assert.Equal(t, "64b7f0c2a1b2c3d4e5f60718", id.Hex())
}

func TestDecodeJSON(t *testing.T) {
	var dst struct{ Quantity int }

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"quantity":3}`))
	require.NoError(t, DecodeJSON(r, &dst))
	assert.Equal(t, 3, dst.Quantity)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	assert.NoError(t, DecodeJSON(r, &dst))

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{"))
	assert.ErrorIs(t, DecodeJSON(r, &dst), apperr.ErrValidation)
}
