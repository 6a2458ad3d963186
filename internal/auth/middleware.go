package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/noah-isme/backoffice/internal/common"
	"github.com/noah-isme/backoffice/internal/obs"
	"github.com/noah-isme/backoffice/internal/store"
)

type userCtxKey struct{}

// UserFrom returns the operator loaded by RequireAuth.
func UserFrom(ctx context.Context) (store.User, bool) {
	u, ok := ctx.Value(userCtxKey{}).(store.User)
	return u, ok
}

// Middleware wires authentication into HTTP handlers.
type Middleware struct {
	Service      *Service
	AccessCookie string
}

// RequireAuth rejects requests without a valid token for an active operator
// and stores the operator's identity on the request context.
func (m Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := tokenFromRequest(r, m.AccessCookie)
		if token == "" || m.Service == nil {
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
			return
		}
		identity, u, err := m.Service.Authenticate(r.Context(), token)
		if err != nil {
			common.WriteError(w, err)
			return
		}
		obs.NoteOperator(r.Context(), obs.Operator{UserID: identity.UserID, Username: identity.Username})
		ctx := common.WithIdentity(r.Context(), identity)
		ctx = context.WithValue(ctx, userCtxKey{}, u)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin allows only administrators through. It must run after RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := common.IdentityFrom(r.Context())
		if !ok {
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
			return
		}
		if !id.Admin {
			common.JSONError(w, http.StatusForbidden, "FORBIDDEN", "administrator access required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func tokenFromRequest(r *http.Request, cookieName string) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	if cookieName != "" {
		if cookie, err := r.Cookie(cookieName); err == nil {
			return strings.TrimSpace(cookie.Value)
		}
	}
	return ""
}
