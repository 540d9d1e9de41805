package routes

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"blackline/store/memory"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	st := memory.New()
	log, hook := test.NewNullLogger()
	h := Health(st, log)

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"OK","message":"Server is running","db":"connected"}`, rec.Body.String())

	st.PingErr = errors.New("connection refused")
	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil), nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"ERROR","message":"Database connection failed","error":"Database unavailable"}`, rec.Body.String())
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "connection refused", hook.LastEntry().Data[logrus.ErrorKey].(error).Error())
}
