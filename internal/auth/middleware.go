package auth

import (
	"context"
	"net/http"
	"rentacar/pkg/config"
	apperrors "rentacar/pkg/errors"
	httputil "rentacar/pkg/http"
	"rentacar/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type contextKey string

const userIDKey contextKey = "user_id"

// RoleLookup resolves a user's current role. A missing user is reported as
// an AppError (404).
type RoleLookup interface {
	Role(ctx context.Context, userID string) (string, error)
}

type Decorator func(httprouter.Handle) httprouter.Handle

// Chain applies decorators so the first one runs first.
func Chain(h httprouter.Handle, decorators ...Decorator) httprouter.Handle {
	for i := len(decorators) - 1; i >= 0; i-- {
		h = decorators[i](h)
	}
	return h
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// Guard holds the request gates placed in front of protected routes.
type Guard struct {
	manager *Manager
	roles   RoleLookup
	log     *logger.Logger
}

func NewGuard(manager *Manager, roles RoleLookup, log *logger.Logger) *Guard {
	return &Guard{
		manager: manager,
		roles:   roles,
		log:     log,
	}
}

// CSRF enforces the double-submit check on state-changing methods: the
// header token must equal the XSRF-TOKEN cookie.
func (g *Guard) CSRF(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if isSafeMethod(r.Method) {
			next(w, r, ps)
			return
		}

		headerToken := csrfHeaderToken(r)
		cookie, err := r.Cookie(CSRFCookieName)
		if headerToken == "" || err != nil || cookie.Value == "" {
			g.reject(w, r, "CSRF", apperrors.Forbidden("CSRF token missing"))
			return
		}
		if !tokensEqual(headerToken, cookie.Value) {
			g.reject(w, r, "CSRF", apperrors.Forbidden("CSRF token mismatch"))
			return
		}

		next(w, r, ps)
	}
}

func (g *Guard) RequireSession(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		userID, err := g.manager.Authenticate(r)
		if err != nil {
			g.reject(w, r, "RequireSession", err)
			return
		}
		next(w, r.WithContext(WithUserID(r.Context(), userID)), ps)
	}
}

// RequireAdmin must run after RequireSession. The role is read from the
// store on every request so demotions take effect immediately.
func (g *Guard) RequireAdmin(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		userID, ok := UserIDFromContext(r.Context())
		if !ok {
			g.reject(w, r, "RequireAdmin", apperrors.Unauthorized("No active session"))
			return
		}

		role, err := g.roles.Role(r.Context(), userID)
		if err != nil {
			g.reject(w, r, "RequireAdmin", err)
			return
		}
		if role != config.RoleAdmin {
			g.reject(w, r, "RequireAdmin", apperrors.Forbidden("Forbidden"))
			return
		}

		next(w, r, ps)
	}
}

func (g *Guard) reject(w http.ResponseWriter, r *http.Request, gate string, err error) {
	g.log.Warn("Request rejected", "gate", gate, "method", r.Method, "path", r.URL.Path, "error", err)
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		g.log.Error("failed to write error response", "handler", gate, "operation", "WriteError", "error", writeErr)
	}
}

// Adapt runs net/http middleware in front of a single route.
func Adapt(mw func(http.Handler) http.Handler) Decorator {
	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next(w, r, ps)
			})).ServeHTTP(w, r)
		}
	}
}
