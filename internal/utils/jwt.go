package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var jwtSecret []byte

// SetJWTSecret configures the HMAC secret used to validate admin tokens.
// Called once at startup from main.
func SetJWTSecret(secret string) {
	jwtSecret = []byte(secret)
}

// JWTClaims carries the identity of the operator performing admin actions.
// Subject is recorded as the actor on every audited override.
type JWTClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// ValidateJWT parses and validates a bearer token, returning its claims.
func ValidateJWT(token string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GenerateJWT issues a token for an operator identity. Primarily used by
// operational tooling and tests; production tokens come from the auth
// collaborator sharing the same secret.
func GenerateJWT(subject, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &JWTClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret)
}
