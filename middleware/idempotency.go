package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"blackline/apperr"
	"blackline/globals"
	"blackline/models"
	"blackline/store"
	"blackline/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"
)

// IdempotencyHeader lets clients retry a mutating request safely.
const IdempotencyHeader = "Idempotency-Key"

// Idempotency replays the stored response when a request is retried with
// the same key. Keys are scoped to the caller's identity; a reused key
// with a different body is a conflict. It must run after the gate so the
// identity is known.
type Idempotency struct {
	Store store.IdempotencyStore
	TTL   time.Duration
	Log   logrus.FieldLogger
}

// captureWriter tees the response so it can be stored.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (c *captureWriter) WriteHeader(code int) {
	if c.status == 0 {
		c.status = code
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *captureWriter) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.buf.Write(b)
	return c.ResponseWriter.Write(b)
}

// callerKey scopes keys to the owner; callers without one are not tracked.
func callerKey(r *http.Request) (string, bool) {
	id := globals.RequestIdentity(r)
	owner, ok := id.Owner()
	if !ok {
		return "", false
	}
	return owner.Key(), true
}

func requestHash(r *http.Request, body []byte) string {
	h := sha256.New()
	h.Write([]byte(r.Method + ":" + r.URL.Path + ":"))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func (m *Idempotency) Wrap(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		raw := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
		caller, ok := callerKey(r)
		if raw == "" || !ok {
			next(w, r, ps)
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			utils.RespondWithError(w, m.Log, apperr.Validation(apperr.Field("body", "Invalid JSON payload")))
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		now := time.Now()
		rec := &models.IdempotencyRecord{
			Key:         caller + ":" + raw,
			Method:      r.Method,
			Path:        r.URL.Path,
			RequestHash: requestHash(r, body),
			CreatedAt:   now,
			ExpiresAt:   now.Add(m.TTL),
		}
		log := m.Log.WithField("idempotency_key", rec.Key)

		err = m.Store.ReserveKey(r.Context(), rec)
		switch {
		case err == nil:
			m.run(w, r, ps, next, rec.Key, log)
			return
		case !errors.Is(err, store.ErrDuplicate):
			utils.RespondWithError(w, m.Log, apperr.Unavailable(err))
			return
		}

		existing, err := m.Store.GetKey(r.Context(), rec.Key)
		if err != nil {
			utils.RespondWithError(w, m.Log, apperr.Unavailable(err))
			return
		}
		switch {
		case existing.RequestHash != rec.RequestHash:
			utils.RespondWithError(w, m.Log, apperr.Conflict("Idempotency-Key reused with a different request"))
		case !existing.Done:
			utils.RespondWithError(w, m.Log, apperr.Conflict("A request with this Idempotency-Key is still in progress"))
		default:
			log.Debug("replaying stored response")
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Idempotent-Replayed", "true")
			w.WriteHeader(existing.Status)
			w.Write(existing.Body)
		}
	}
}

// run executes the first request for a key and stores its outcome. Server
// errors and panics release the key so the client can try again.
func (m *Idempotency) run(w http.ResponseWriter, r *http.Request, ps httprouter.Params, next httprouter.Handle, key string, log logrus.FieldLogger) {
	cw := &captureWriter{ResponseWriter: w}
	defer func() {
		if p := recover(); p != nil {
			ctx, cancel := detached(r)
			defer cancel()
			if err := m.Store.ReleaseKey(ctx, key); err != nil {
				log.WithError(err).Warn("release idempotency key after panic")
			}
			panic(p)
		}
	}()
	next(cw, r, ps)
	if cw.status == 0 {
		cw.status = http.StatusOK
	}

	// the request context may be gone once the handler has written
	ctx, cancel := detached(r)
	defer cancel()

	if cw.status >= http.StatusInternalServerError {
		if err := m.Store.ReleaseKey(ctx, key); err != nil {
			log.WithError(err).Warn("release idempotency key")
		}
		return
	}
	if err := m.Store.CompleteKey(ctx, key, cw.status, cw.buf.Bytes()); err != nil {
		log.WithError(err).Warn("store idempotent response")
	}
}

func detached(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(r.Context()), 5*time.Second)
}
