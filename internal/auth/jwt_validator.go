package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// TokenValidator checks a parsed access token and extracts its claims.
// Besides issuer, audience and lifetime it requires a token id, since logout
// revokes by id, and a numeric subject naming the user.
type TokenValidator struct {
	Issuer    string
	Audience  string
	ClockSkew time.Duration
	Algorithm jwa.SignatureAlgorithm
}

// Validate returns the claims of tok when it was signed with the expected
// algorithm and is valid at now.
func (v TokenValidator) Validate(tok jwt.Token, algorithm jwa.SignatureAlgorithm, now time.Time) (Claims, error) {
	if tok == nil {
		return Claims{}, errors.New("auth: token is nil")
	}
	if algorithm == "" {
		return Claims{}, errors.New("auth: token missing algorithm")
	}
	if v.Algorithm != "" && algorithm != v.Algorithm {
		return Claims{}, fmt.Errorf("auth: unexpected token algorithm %s", algorithm)
	}

	options := []jwt.ValidateOption{
		jwt.WithClock(jwt.ClockFunc(func() time.Time { return now })),
		jwt.WithRequiredClaim(jwt.ExpirationKey),
		jwt.WithRequiredClaim(jwt.JwtIDKey),
		jwt.WithRequiredClaim(jwt.SubjectKey),
	}
	if v.ClockSkew > 0 {
		options = append(options, jwt.WithAcceptableSkew(v.ClockSkew))
	}
	if v.Issuer != "" {
		options = append(options, jwt.WithIssuer(v.Issuer))
	}
	if v.Audience != "" {
		options = append(options, jwt.WithAudience(v.Audience))
	}
	if err := jwt.Validate(tok, options...); err != nil {
		return Claims{}, err
	}

	userID, err := strconv.ParseInt(tok.Subject(), 10, 64)
	if err != nil || userID <= 0 {
		return Claims{}, errors.New("auth: invalid subject")
	}
	return Claims{UserID: userID, TokenID: tok.JwtID(), ExpiresAt: tok.Expiration()}, nil
}
