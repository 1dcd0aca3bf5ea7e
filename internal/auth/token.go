// Package auth holds the two credential primitives: the HS256 bearer-token
// issuer/validator and the bcrypt password hasher.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultTokenTTL = 15 * time.Minute

// Validation failure kinds. Expired is deliberately distinct from the other
// two so the middleware can answer with a precise message.
var (
	ErrTokenExpired          = errors.New("token has expired")
	ErrTokenMalformed        = errors.New("token is malformed")
	ErrTokenSignatureInvalid = errors.New("token signature is invalid")
)

// TokenIssuer signs and verifies bearer tokens carrying a single identity
// claim. Tokens are stateless: there is no revocation, a validly-signed
// unexpired token is always accepted.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token asserting subject until the configured TTL elapses.
func (t *TokenIssuer) Issue(subject string) (string, error) {
	claims := jwt.MapClaims{
		"id":  subject,
		"exp": time.Now().Add(t.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Validate parses and verifies a token, returning the subject claim.
func (t *TokenIssuer) Validate(raw string) (string, error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return t.secret, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "", ErrTokenMalformed
	case err != nil:
		return "", ErrTokenSignatureInvalid
	case !tkn.Valid:
		return "", ErrTokenSignatureInvalid
	}

	id, ok := claims["id"].(string)
	if !ok || id == "" {
		return "", ErrTokenMalformed
	}
	return id, nil
}
