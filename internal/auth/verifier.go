// Package auth verifies bearer tokens issued by the identity provider and
// maps them to request identities.
package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/nextshop/storefront/pkg/errors"
	"github.com/nextshop/storefront/pkg/middleware"
)

// claims are the token claims the storefront relies on. Email is the
// identity key for review ownership and must be present and verified.
type claims struct {
	Email         string `json:"email"`
	Name          string `json:"name"`
	EmailVerified bool   `json:"email_verified"`
	jwt.RegisteredClaims
}

// JWTVerifier validates HS256 tokens against a shared secret.
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier creates a verifier for the given signing secret.
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

// Verify parses and validates the token and returns the caller identity.
// Any parse or validation failure is Unauthorized; callers never learn
// which check failed.
func (v *JWTVerifier) Verify(_ context.Context, tokenString string) (*middleware.Identity, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperrors.Unauthorized("invalid token")
	}
	if c.Email == "" {
		return nil, apperrors.Unauthorized("token missing email claim")
	}

	return &middleware.Identity{
		Subject: c.Subject,
		Email:   c.Email,
		Name:    c.Name,
	}, nil
}
