// token.go - Stateless bearer-token authentication (HS256 JWT).
package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenClaims carries the authenticated username under the "user" claim.
type tokenClaims struct {
	jwt.RegisteredClaims
	User string `json:"user"`
}

// bearerAuth issues and validates self-contained signed tokens. Nothing is
// stored server-side; validity ends at the embedded expiry.
type bearerAuth struct {
	secret []byte
	ttl    time.Duration
}

// NewBearerAuth returns the token transport. ttl <= 0 defaults to 24h.
func NewBearerAuth(secret string, ttl time.Duration) Authenticator {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &bearerAuth{secret: []byte(secret), ttl: ttl}
}

func (a *bearerAuth) Issue(_ http.ResponseWriter, username string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
		User: username,
	})
	return token.SignedString(a.secret)
}

// Identify reads "Authorization: Bearer <token>". A missing header, a
// malformed prefix, a bad signature, an undecodable payload, and an expired
// token are all the same errUnauthenticated.
func (a *bearerAuth) Identify(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errUnauthenticated
	}

	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return "", errUnauthenticated
	}

	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (any, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !token.Valid || claims.User == "" {
		return "", errUnauthenticated
	}

	return claims.User, nil
}

// Clear is a no-op: bearer tokens are not revocable, they simply expire.
func (a *bearerAuth) Clear(http.ResponseWriter, *http.Request) {}
