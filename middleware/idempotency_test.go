package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"blackline/globals"
	"blackline/store/memory"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
)

func newIdempotency() *Idempotency {
	log, _ := test.NewNullLogger()
	return &Idempotency{Store: memory.New(), TTL: time.Hour, Log: log}
}

// counting answers 201 with the request body and counts invocations.
func counting(calls *int32, status int) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		atomic.AddInt32(calls, 1)
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write(body)
	}
}

func post(h httprouter.Handle, key, session, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body))
	if key != "" {
		r.Header.Set(IdempotencyHeader, key)
	}
	if session != "" {
		r.Header.Set(globals.SessionHeader, session)
	}
	rec := httptest.NewRecorder()
	h(rec, r, nil)
	return rec
}

func TestIdempotencyReplays(t *testing.T) {
	var calls int32
	h := newIdempotency().Wrap(counting(&calls, http.StatusCreated))

	first := post(h, "k1", "session_a", `{"n":1}`)
	second := post(h, "k1", "session_a", `{"n":1}`)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
}

func TestIdempotencyScopesAndConflicts(t *testing.T) {
	var calls int32
	h := newIdempotency().Wrap(counting(&calls, http.StatusCreated))

	post(h, "k1", "session_a", `{"n":1}`)
	// same key from another owner is a separate request
	rec := post(h, "k1", "session_b", `{"n":1}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))

	rec = post(h, "k1", "session_a", `{"n":2}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestIdempotencyPassThrough(t *testing.T) {
	var calls int32
	h := newIdempotency().Wrap(counting(&calls, http.StatusCreated))

	post(h, "", "session_a", `{}`)
	post(h, "", "session_a", `{}`)
	// no owner to scope the key to
	post(h, "k", "", `{}`)
	post(h, "k", "", `{}`)
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
}

func TestIdempotencyReleasesOnServerError(t *testing.T) {
	var calls int32
	h := newIdempotency().Wrap(counting(&calls, http.StatusServiceUnavailable))

	post(h, "k", "session_a", `{}`)
	post(h, "k", "session_a", `{}`)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestIdempotencyReleasesAfterPanic(t *testing.T) {
	var calls int32
	m := newIdempotency()
	h := m.Wrap(func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if atomic.AddInt32(&calls, 1) == 1 {
			panic("boom")
		}
		w.WriteHeader(http.StatusCreated)
	})
	log, _ := test.NewNullLogger()
	srv := Recover(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { h(w, r, nil) }))

	send := func() int {
		r := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(`{}`))
		r.Header.Set(IdempotencyHeader, "k1")
		r.Header.Set(globals.SessionHeader, "session_a")
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, r)
		return rec.Code
	}

	assert.Equal(t, http.StatusInternalServerError, send())
	assert.Equal(t, http.StatusCreated, send())
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}
