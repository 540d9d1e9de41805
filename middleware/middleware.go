// Package middleware holds the access gate and the HTTP wrappers applied
// around the router.
package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"blackline/apperr"
	"blackline/auth"
	"blackline/globals"
	"blackline/models"
	"blackline/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"
)

// Gate classifies each request as anonymous, authenticated or admin and
// stores the resulting models.Identity on the request context.
type Gate struct {
	Auth *auth.Service
	Log  logrus.FieldLogger
}

func bearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func (g *Gate) resolve(r *http.Request) (*models.User, error) {
	raw := bearer(r)
	if raw == "" {
		return nil, apperr.Unauthenticated("No token provided")
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	return g.Auth.Resolve(ctx, raw)
}

// Authenticate rejects requests without a valid token for an existing user.
func (g *Gate) Authenticate(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		u, err := g.resolve(r)
		if err != nil {
			utils.RespondWithError(w, g.Log, err)
			return
		}
		ctx := globals.WithIdentity(r.Context(), models.Authenticated(u))
		next(w, r.WithContext(ctx), ps)
	}
}

// OptionalAuth attaches the user when the token checks out and otherwise
// proceeds anonymously.
func (g *Gate) OptionalAuth(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		id := models.Anonymous("")
		if bearer(r) != "" {
			u, err := g.resolve(r)
			switch {
			case err == nil:
				id = models.Authenticated(u)
			case apperr.From(err).Code == apperr.CodeDependencyUnavailable:
				utils.RespondWithError(w, g.Log, err)
				return
			default:
				g.Log.WithError(err).Debug("ignoring invalid token")
			}
		}
		next(w, r.WithContext(globals.WithIdentity(r.Context(), id)), ps)
	}
}

// RequireAdmin authenticates and then insists on the admin role.
func (g *Gate) RequireAdmin(next httprouter.Handle) httprouter.Handle {
	return g.Authenticate(func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if !globals.IdentityFrom(r.Context()).IsAdmin() {
			utils.RespondWithError(w, g.Log, apperr.AccessDenied("Admin access required"))
			return
		}
		next(w, r, ps)
	})
}
