// Package auth verifies session tokens minted by the external identity
// provider. The handshake itself (redirects, consent, refresh) is the
// provider's business; this service only checks the HS256 signature on the
// token handed back and reads the identity claims out of it.
package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the identity-provider token claims this service cares about.
// Subject carries the stable user id; Email the display label.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// Verifier validates provider session tokens against the shared secret.
type Verifier struct {
	secret []byte
}

var (
	// ErrInvalidToken indicates the token failed parsing or signature verification
	ErrInvalidToken = errors.New("invalid session token")

	// ErrMissingSubject indicates a verified token without a user id
	ErrMissingSubject = errors.New("session token has no subject")
)

// NewVerifier creates a token verifier. The secret is the HS256 key shared
// with the identity provider, supplied at process start.
func NewVerifier(secret string) (*Verifier, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("auth token secret must be at least 32 bytes")
	}
	return &Verifier{secret: []byte(secret)}, nil
}

// Verify checks the token signature and standard time claims, returning the
// embedded claims. Accepts an optional "Bearer " prefix.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	tokenString = strings.TrimSpace(strings.TrimPrefix(tokenString, "Bearer "))
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}
	return claims, nil
}
