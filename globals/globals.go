package globals

import (
	"context"
	"net/http"
	"strings"

	"blackline/models"
)

// Context keys
type ContextKey string

const IdentityKey ContextKey = "identity"

// SessionHeader carries the guest session token in both directions.
const SessionHeader = "x-session-id"

// SessionCookie is the cookie fallback for SessionHeader.
const SessionCookie = "sessionId"

func WithIdentity(ctx context.Context, id models.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, id)
}

// IdentityFrom returns the identity the gate attached, or an anonymous one.
func IdentityFrom(ctx context.Context) models.Identity {
	if id, ok := ctx.Value(IdentityKey).(models.Identity); ok {
		return id
	}
	return models.Anonymous("")
}

// SessionToken reads the guest token from the header, then the cookie.
func SessionToken(r *http.Request) string {
	if s := strings.TrimSpace(r.Header.Get(SessionHeader)); s != "" {
		return s
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}

// RequestIdentity binds the gate's identity to the request's guest token.
func RequestIdentity(r *http.Request) models.Identity {
	return IdentityFrom(r.Context()).WithSession(SessionToken(r))
}
