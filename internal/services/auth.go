package services

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"guidegen/internal/httperr"
	"guidegen/internal/models"
)

// TokenVerifier checks bearer tokens issued by the identity provider. A
// missing or invalid token degrades to the anonymous identity on read paths;
// protected paths use RequireIdentity and fail hard.
type TokenVerifier struct {
	secret []byte
}

func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret)}
}

// Verify parses and validates a token string and returns its subject.
func (v *TokenVerifier) Verify(tokenString string) (string, error) {
	if len(v.secret) == 0 {
		return "", errors.New("token verification is not configured")
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

// Identity resolves the caller of r, falling back to the anonymous identity
// when no valid bearer token is present.
func (v *TokenVerifier) Identity(r *http.Request) string {
	raw := bearerToken(r)
	if raw == "" {
		return models.AnonymousUser
	}
	subject, err := v.Verify(raw)
	if err != nil {
		return models.AnonymousUser
	}
	return subject
}

// RequireIdentity resolves the caller of r or returns an unauthorized error.
func (v *TokenVerifier) RequireIdentity(r *http.Request) (string, error) {
	raw := bearerToken(r)
	if raw == "" {
		return "", httperr.Unauthorized("missing or invalid Authorization header")
	}
	subject, err := v.Verify(raw)
	if err != nil {
		return "", httperr.Unauthorized(err.Error())
	}
	return subject, nil
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
