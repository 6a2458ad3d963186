package auth

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/noah-isme/backoffice/internal/common"
)

// HandlerConfig configures the session cookie written on login.
type HandlerConfig struct {
	Service          *Service
	AccessCookieName string
	CookieDomain     string
	CookieSecure     bool
	CookieSameSite   http.SameSite
}

// Handler exposes the login, logout and current-user endpoints.
type Handler struct {
	service        *Service
	cookieName     string
	cookieDomain   string
	cookieSecure   bool
	cookieSameSite http.SameSite
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		service:        cfg.Service,
		cookieName:     cfg.AccessCookieName,
		cookieDomain:   cfg.CookieDomain,
		cookieSecure:   cfg.CookieSecure,
		cookieSameSite: cfg.CookieSameSite,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles POST /api/v1/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
		return
	}
	result, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	h.setCookie(w, result.AccessToken, result.ExpiresAt)
	common.Data(w, http.StatusOK, map[string]any{
		"user":         result.User,
		"access_token": result.AccessToken,
		"expires_at":   result.ExpiresAt,
	})
}

// Logout handles POST /api/v1/auth/logout. It always clears the cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := tokenFromRequest(r, h.cookieName); token != "" {
		if err := h.service.Logout(r.Context(), token); err != nil {
			common.WriteError(w, err)
			return
		}
	}
	h.clearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/v1/auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFrom(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	common.Data(w, http.StatusOK, u)
}

func (h *Handler) setCookie(w http.ResponseWriter, token string, expires time.Time) {
	if h.cookieName == "" {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    token,
		Domain:   h.cookieDomain,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: h.cookieSameSite,
	})
}

func (h *Handler) clearCookie(w http.ResponseWriter) {
	if h.cookieName == "" {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Domain:   h.cookieDomain,
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: h.cookieSameSite,
	})
}
