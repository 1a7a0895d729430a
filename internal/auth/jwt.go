// Package auth provides session token issuance and verification, password
// hashing, and the request middleware that gates page access.
//
// Authentication flow:
//  1. POST /api/users/login verifies the credentials and issues a signed JWT
//     carrying the user's id and username, valid for 12 hours.
//  2. The token is stored in an HttpOnly cookie named "token" — page scripts
//     never see it, the browser sends it on every request.
//  3. PageGuard runs on every page request and decides allow / redirect /
//     clear-cookie from {token present, token valid, route public}.
//  4. API handlers that need an identity read the same cookie and call
//     Verify; a failed verification means "no identity", never a crash.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is the fixed session token lifetime.
const TokenTTL = 12 * time.Hour

const issuer = "dashboard"

// Claims is the verified token payload. It is the sole source of identity
// for downstream authorization — it is never populated from an unverified
// token.
type Claims struct {
	UserID   string
	Username string
	IssuedAt time.Time
	Expiry   time.Time
}

type tokenClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies session tokens with an HMAC secret.
// The same secret is used for both operations.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

// NewTokenService creates a TokenService. The secret must be at least 16
// bytes; generate one with `openssl rand -hex 32`.
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: token secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret), now: time.Now}, nil
}

// Issue signs a new session token for the given identity. Pure function of
// its inputs, the secret, and the clock — no side effects.
func (s *TokenService) Issue(userID, username string) (string, error) {
	return s.issueWithTTL(userID, username, TokenTTL)
}

// issueWithTTL is the shared implementation; tests use it to mint
// already-expired tokens.
func (s *TokenService) issueWithTTL(userID, username string, ttl time.Duration) (string, error) {
	now := s.now()

	c := tokenClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Verify parses and verifies a token string. It returns the payload and true
// only when the signature verifies against the secret AND the token has not
// expired; on malformed, unsigned, tampered, or expired input it returns
// (Claims{}, false). It never panics and never returns a partial payload —
// callers treat false as "no identity".
func (s *TokenService) Verify(tokenStr string) (Claims, bool) {
	if tokenStr == "" {
		return Claims{}, false
	}

	token, err := jwt.ParseWithClaims(
		tokenStr,
		&tokenClaims{},
		func(token *jwt.Token) (any, error) {
			// Pinning the method prevents algorithm-confusion tokens.
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("auth: unexpected signing method")
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return Claims{}, false
	}

	c, ok := token.Claims.(*tokenClaims)
	if !ok || c.Subject == "" {
		return Claims{}, false
	}

	claims := Claims{
		UserID:   c.Subject,
		Username: c.Username,
	}
	if c.IssuedAt != nil {
		claims.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		claims.Expiry = c.ExpiresAt.Time
	}
	return claims, true
}
