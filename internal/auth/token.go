package auth

import (
	"crypto/subtle"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the token payload. The service is single-tenant, so there is
// no subject beyond the access type itself.
type Claims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies signed access tokens for the single
// shared password. Tokens are stateless: validity is a function of the
// signature and the expiry claim only.
type TokenService struct {
	password string
	secret   []byte
	ttl      time.Duration
}

func NewTokenService(password, secret string, ttlHours int) *TokenService {
	return &TokenService{
		password: password,
		secret:   []byte(secret),
		ttl:      time.Duration(ttlHours) * time.Hour,
	}
}

// TTL reports the configured token lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue exchanges the shared password for a signed token.
func (s *TokenService) Issue(password string) (string, error) {
	if subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) != 1 {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	claims := Claims{
		Type: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(s.secret)
}

// Verify parses and validates a token. Every failure mode (malformed
// input, signature mismatch, expired claim) collapses to nil.
func (s *TokenService) Verify(tokenString string) *Claims {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil || !token.Valid {
		return nil
	}

	return claims
}
