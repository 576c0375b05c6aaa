// Package auth provides JWT issuance/verification, password hashing, and the
// request gates that enforce authentication and the admin capability.
//
// AUTHENTICATION FLOW OVERVIEW:
// 1. User registers with username/email/password → password is bcrypt-hashed
// 2. User logs in → server verifies the hash and issues a signed JWT
// 3. Client sends `Authorization: Bearer <token>` on subsequent requests
// 4. RequireAuth validates the token and puts the claims in the context
// 5. RequireAdmin (stacked after RequireAuth) checks the isAdmin claim
//
// WHY JWT?
// JWT (JSON Web Token) is stateless — the server doesn't need to store
// session data. Everything needed to identify the caller (id, username,
// email, isAdmin) is inside the signed token. The signature ensures nobody
// can tamper with it without the secret key, and verification is a pure
// computation: no DB lookup, no shared state beyond the secret.
//
// THE FLIP SIDE — NO REVOCATION:
// Because the server keeps no per-token record, an issued token cannot be
// revoked. It stays valid until it expires (and by default tokens here do
// not expire at all, matching the original product behaviour). That is an
// accepted limitation of this design, not something to patch around.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sakif/blog-api/internal/apperror"
)

const issuer = "blog-api"

// Claims is the identity embedded in every issued token. These four fields
// are everything downstream code may learn about the caller without hitting
// the database.
type Claims struct {
	UserID   string
	Username string
	Email    string
	IsAdmin  bool
}

// tokenClaims is the wire shape of the JWT payload. It embeds
// jwt.RegisteredClaims for the standard fields ("sub", "iat", "exp", "iss")
// and adds our custom identity claims with explicit JSON names.
type tokenClaims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	IsAdmin  bool   `json:"isAdmin"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies access tokens.
//
// It holds the HMAC secret used for both operations — the same secret must
// be used to verify a token that was used to sign it. ttl controls token
// lifetime; zero means tokens never expire.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService with the given secret and token
// lifetime. A ttl of 0 issues time-unbounded tokens.
//
// The secret should be at least 32 bytes of random data in production:
//
//	JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// Issue creates and signs a token carrying the given claims.
//
// Signing algorithm: HS256 (HMAC-SHA256)
//   - Symmetric: same key for signing and verifying
//   - Fast and simple — right for a single-service deployment
//   - RS256/ES256 only pay off when other services must verify without
//     sharing the secret
func (s *TokenService) Issue(c Claims) (string, error) {
	now := time.Now()

	tc := tokenClaims{
		Username: c.Username,
		Email:    c.Email,
		IsAdmin:  c.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  c.UserID,
			IssuedAt: jwt.NewNumericDate(now),
			Issuer:   issuer,
		},
	}
	// ExpiresAt is only set when a lifetime is configured. Without it the
	// token is valid forever — see the package comment on revocation.
	if s.ttl > 0 {
		tc.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tc)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// issueWithExpiry creates a token with an explicit expiry offset, bypassing
// the configured ttl. Used by tests to mint already-expired tokens.
func (s *TokenService) issueWithExpiry(c Claims, d time.Duration) (string, error) {
	now := time.Now()

	tc := tokenClaims{
		Username: c.Username,
		Email:    c.Email,
		IsAdmin:  c.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tc)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Verify parses and validates a token string, returning the embedded claims.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid (wasn't tampered with)
//   - Token is not expired, when an expiry is present
//   - Issuer matches (prevents tokens minted by other apps with the same lib)
//   - Algorithm is HS256 (prevents algorithm-confusion attacks, where an
//     attacker re-signs the payload with "none" or swaps HMAC for RSA)
//
// Every failure comes back wrapped in apperror.ErrAuthRejected so the gates
// and handlers can classify it without inspecting library error strings.
func (s *TokenService) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&tokenClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperror.AuthRejected("token expired")
		}
		return nil, apperror.AuthRejected("invalid token")
	}

	tc, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid {
		return nil, apperror.AuthRejected("invalid token claims")
	}
	if tc.Subject == "" {
		return nil, apperror.AuthRejected("token has no subject")
	}

	return &Claims{
		UserID:   tc.Subject,
		Username: tc.Username,
		Email:    tc.Email,
		IsAdmin:  tc.IsAdmin,
	}, nil
}
