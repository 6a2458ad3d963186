package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backoffice/internal/obs"
)

func newRouter(f *fixture) http.Handler {
	h := NewHandler(HandlerConfig{Service: f.svc, AccessCookieName: "sid", CookieSameSite: http.SameSiteLaxMode})
	mw := Middleware{Service: f.svc, AccessCookie: "sid"}

	r := chi.NewRouter()
	r.Post("/auth/login", h.Login)
	r.Post("/auth/logout", h.Logout)
	r.Group(func(r chi.Router) {
		r.Use(mw.RequireAuth)
		r.Get("/auth/me", h.Me)
		r.With(RequireAdmin).Get("/admin/ping", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})
	return r
}

func login(t *testing.T, router http.Handler, username, password string) *http.Cookie {
	t.Helper()
	rr := httptest.NewRecorder()
	body := `{"username":"` + username + `","password":"` + password + `"}`
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rr.Code)
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, "sid", cookies[0].Name)
	require.True(t, cookies[0].HttpOnly)
	return cookies[0]
}

func TestLoginThenMeWithCookie(t *testing.T) {
	router := newRouter(newFixture(t))
	cookie := login(t, router, "ana", "secreto123")

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(cookie)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Data struct {
			ID       int64  `json:"id"`
			Username string `json:"username"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, int64(2), resp.Data.ID)
	require.Equal(t, "ana", resp.Data.Username)
	require.NotContains(t, rr.Body.String(), "password")
}

func TestBearerTokenAndAdminGate(t *testing.T) {
	router := newRouter(newFixture(t))

	ana := login(t, router, "ana", "secreto123")
	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	req.Header.Set("Authorization", "Bearer "+ana.Value)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusForbidden, rr.Code)

	admin := login(t, router, "admin", "cambiame123")
	req = httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	req.Header.Set("Authorization", "bearer "+admin.Value)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestMissingTokenIsUnauthorized(t *testing.T) {
	router := newRouter(newFixture(t))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestLogoutClearsCookieAndRevokes(t *testing.T) {
	router := newRouter(newFixture(t))
	cookie := login(t, router, "ana", "secreto123")

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(cookie)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNoContent, rr.Code)
	cleared := rr.Result().Cookies()
	require.Len(t, cleared, 1)
	require.Equal(t, -1, cleared[0].MaxAge)

	req = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(cookie)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	router := newRouter(newFixture(t))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"ana","password":"nope"}`)))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Contains(t, rr.Body.String(), "INVALID_CREDENTIALS")
	require.Empty(t, rr.Result().Cookies())
}

func TestRequireAuthNotesOperatorForOuterMiddleware(t *testing.T) {
	router := newRouter(newFixture(t))
	cookie := login(t, router, "ana", "secreto123")

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req = req.WithContext(obs.WithRequestNotes(req.Context()))
	req.AddCookie(cookie)
	router.ServeHTTP(httptest.NewRecorder(), req)

	op, ok := obs.NotedOperator(req.Context())
	require.True(t, ok)
	require.Equal(t, obs.Operator{UserID: 2, Username: "ana"}, op)
}
