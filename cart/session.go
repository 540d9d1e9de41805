package cart

import (
	"net/http"
	"time"

	"blackline/globals"
	"blackline/models"

	"github.com/google/uuid"
)

const sessionTTL = 30 * 24 * time.Hour

func NewSessionToken() string {
	return "session_" + uuid.NewString()
}

// ensureSession mints a token for anonymous callers that have none and
// echoes the guest token back in the header and cookie.
func ensureSession(w http.ResponseWriter, id models.Identity) models.Identity {
	if id.IsAuthenticated() {
		return id
	}
	token := id.Session()
	if token == "" {
		token = NewSessionToken()
		id = id.WithSession(token)
	}
	w.Header().Set(globals.SessionHeader, token)
	http.SetCookie(w, &http.Cookie{
		Name:     globals.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(sessionTTL / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
