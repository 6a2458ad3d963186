// Package auth issues and verifies operator session tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/noah-isme/backoffice/internal/common"
	"github.com/noah-isme/backoffice/internal/obs"
	"github.com/noah-isme/backoffice/internal/store"
)

const defaultAccessTTL = 12 * time.Hour

// UserQuerier is the subset of store.Queries needed to authenticate operators.
type UserQuerier interface {
	GetUserByID(ctx context.Context, id int64) (store.User, error)
	GetUserByUsername(ctx context.Context, username string) (store.User, error)
}

// Service coordinates login, logout and token verification.
type Service struct {
	queries   UserQuerier
	revoker   Revoker
	secret    []byte
	accessTTL time.Duration
	now       func() time.Time
	signer    jwa.SignatureAlgorithm
	validator TokenValidator
	issuer    string
	audience  string
	clockSkew time.Duration
}

// Config configures the auth service.
type Config struct {
	Queries        UserQuerier
	Secret         string
	AccessTokenTTL time.Duration
	Issuer         string
	Audience       string
	ClockSkew      time.Duration
	// Revoker records logged-out tokens. Nil disables revocation.
	Revoker Revoker
}

// LoginResult is returned on a successful login.
type LoginResult struct {
	User        store.User
	AccessToken string
	ExpiresAt   time.Time
}

// Claims are the verified contents of an access token.
type Claims struct {
	UserID    int64
	TokenID   string
	ExpiresAt time.Time
}

// NewService constructs a Service.
func NewService(cfg Config) (*Service, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, errors.New("auth: secret is required")
	}
	if cfg.Queries == nil {
		return nil, errors.New("auth: queries are required")
	}
	ttl := cfg.AccessTokenTTL
	if ttl <= 0 {
		ttl = defaultAccessTTL
	}
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = "backoffice"
	}
	audience := cfg.Audience
	if audience == "" {
		audience = "backoffice-ui"
	}
	skew := cfg.ClockSkew
	if skew <= 0 {
		skew = 30 * time.Second
	}
	return &Service{
		queries:   cfg.Queries,
		revoker:   cfg.Revoker,
		secret:    []byte(cfg.Secret),
		accessTTL: ttl,
		now:       time.Now,
		signer:    jwa.HS256,
		validator: TokenValidator{Issuer: issuer, Audience: audience, ClockSkew: skew, Algorithm: jwa.HS256},
		issuer:    issuer,
		audience:  audience,
		clockSkew: skew,
	}, nil
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Login verifies credentials and issues an access token. Unknown usernames,
// wrong passwords and inactive accounts all yield INVALID_CREDENTIALS.
func (s *Service) Login(ctx context.Context, username, password string) (LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		obs.ObserveLogin("invalid")
		return LoginResult{}, invalidCredentials()
	}
	u, err := s.queries.GetUserByUsername(ctx, username)
	if err != nil {
		if store.IsNotFound(err) {
			obs.ObserveLogin("invalid")
			return LoginResult{}, invalidCredentials()
		}
		obs.ObserveLogin("error")
		return LoginResult{}, fmt.Errorf("lookup user: %w", err)
	}
	match, err := argon2id.ComparePasswordAndHash(password, u.PasswordHash)
	if err != nil || !match {
		obs.ObserveLogin("invalid")
		return LoginResult{}, invalidCredentials()
	}
	if !u.Active {
		obs.ObserveLogin("inactive")
		return LoginResult{}, invalidCredentials()
	}
	token, expiresAt, err := s.signAccessToken(u.ID)
	if err != nil {
		obs.ObserveLogin("error")
		return LoginResult{}, fmt.Errorf("sign token: %w", err)
	}
	obs.ObserveLogin("success")
	return LoginResult{User: u, AccessToken: token, ExpiresAt: expiresAt}, nil
}

// Logout revokes token until it would have expired. Invalid or already
// expired tokens are ignored.
func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := s.ParseAccessToken(ctx, token)
	if err != nil {
		return nil
	}
	if s.revoker == nil || claims.TokenID == "" {
		return nil
	}
	if err := s.revoker.Revoke(ctx, claims.TokenID, claims.ExpiresAt.Sub(s.now())); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// Authenticate verifies token and loads the operator it was issued to.
func (s *Service) Authenticate(ctx context.Context, token string) (common.Identity, store.User, error) {
	claims, err := s.ParseAccessToken(ctx, token)
	if err != nil {
		return common.Identity{}, store.User{}, err
	}
	u, err := s.queries.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if store.IsNotFound(err) {
			return common.Identity{}, store.User{}, unauthorized(nil)
		}
		return common.Identity{}, store.User{}, fmt.Errorf("load user: %w", err)
	}
	if !u.Active {
		return common.Identity{}, store.User{}, unauthorized(errors.New("auth: user inactive"))
	}
	return common.Identity{UserID: u.ID, Username: u.Username, Admin: u.IsAdmin}, u, nil
}

// ParseAccessToken validates signature, claims and revocation state.
func (s *Service) ParseAccessToken(ctx context.Context, token string) (Claims, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return Claims{}, common.NewAppError("UNAUTHORIZED", "missing token", http.StatusUnauthorized, nil)
	}
	algorithm, err := extractTokenAlgorithm(trimmed)
	if err != nil {
		return Claims{}, unauthorized(err)
	}
	if s.validator.Algorithm != "" && algorithm != s.validator.Algorithm {
		return Claims{}, unauthorized(fmt.Errorf("unexpected token algorithm %s", algorithm))
	}
	parsed, err := jwt.ParseString(trimmed, jwt.WithKey(algorithm, s.secret), jwt.WithValidate(false))
	if err != nil {
		return Claims{}, unauthorized(err)
	}
	claims, err := s.validator.Validate(parsed, algorithm, s.now())
	if err != nil {
		return Claims{}, unauthorized(err)
	}
	if s.revoker != nil {
		revoked, err := s.revoker.IsRevoked(ctx, claims.TokenID)
		if err != nil {
			return Claims{}, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return Claims{}, unauthorized(errors.New("auth: token revoked"))
		}
	}
	return claims, nil
}

func extractTokenAlgorithm(token string) (jwa.SignatureAlgorithm, error) {
	message, err := jws.ParseString(token)
	if err != nil {
		return "", err
	}
	signatures := message.Signatures()
	if len(signatures) != 1 {
		return "", errors.New("auth: token must carry exactly one signature")
	}
	headers := signatures[0].ProtectedHeaders()
	if headers == nil {
		return "", errors.New("auth: token missing protected headers")
	}
	alg := headers.Algorithm()
	switch alg {
	case "":
		return "", errors.New("auth: token missing algorithm")
	case jwa.NoSignature:
		return "", errors.New("auth: token uses none algorithm")
	}
	return alg, nil
}

func (s *Service) signAccessToken(userID int64) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.accessTTL)
	token, err := jwt.NewBuilder().
		JwtID(uuid.NewString()).
		Subject(strconv.FormatInt(userID, 10)).
		Issuer(s.issuer).
		Audience([]string{s.audience}).
		IssuedAt(now).
		NotBefore(now.Add(-s.clockSkew)).
		Expiration(expiresAt).
		Build()
	if err != nil {
		return "", time.Time{}, err
	}
	signed, err := jwt.Sign(token, jwt.WithKey(s.signer, s.secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return string(signed), expiresAt, nil
}

func invalidCredentials() *common.AppError {
	return common.NewAppError("INVALID_CREDENTIALS", "invalid username or password", http.StatusUnauthorized, nil)
}

func unauthorized(err error) *common.AppError {
	return common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
}
