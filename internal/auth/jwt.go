// Package auth provides password hashing, JWT session tokens, Google
// sign-in verification, and the HTTP middleware that ties them together.
//
// AUTHENTICATION FLOW OVERVIEW:
//  1. POST /api/auth/register or /api/auth/login → server validates the
//     credentials and issues a signed JWT
//  2. POST /api/auth/google → server verifies a Google ID token assertion,
//     finds-or-creates the account by email, and issues the same kind of JWT
//  3. On every protected request the client sends
//     "Authorization: Bearer <jwt>"; middleware validates it and loads the
//     account into the request context
//
// WHY JWT?
// JWT is stateless — the server stores no session table. Everything needed
// (user ID, expiry) is inside the signed token, and the HMAC signature
// makes tampering detectable without a DB lookup. The trade-off is that a
// token can't be revoked before its expiry; we accept that for the TTLs in
// use here.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenIssuer is the "iss" claim stamped into every token and required back
// on validation, so tokens minted by other apps sharing a secret by accident
// are still rejected.
const tokenIssuer = "resolveit"

// DefaultTokenTTL is how long an issued session token stays valid.
// Configurable via Config.TokenTTL in the server package; this is the
// fallback when nothing is set.
const DefaultTokenTTL = 7 * 24 * time.Hour

// Sentinel errors for the three ways validation can fail. The middleware
// collapses all of them into one uniform 401 for the client (no hint about
// WHICH check failed), but logs them distinctly for diagnostics.
var (
	ErrTokenExpired   = errors.New("auth: token expired")
	ErrTokenMalformed = errors.New("auth: token malformed")
	ErrTokenInvalid   = errors.New("auth: token invalid")
)

// TokenService mints and validates the signed session tokens.
//
// It holds the HMAC secret used for both signing and verifying. The secret
// is injected at construction — nothing in this package reads ambient
// global state — so the dependency is visible wherever a TokenService
// travels.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService with the given secret and token
// lifetime. A ttl of 0 selects DefaultTokenTTL.
//
// The secret should be at least 32 bytes of random data in production:
//
//	JWT_SECRET=$(openssl rand -hex 32)
//
// A short secret is rejected outright. main.go treats any error here as
// fatal — the server must never start with weak or missing signing keys.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// claims is the JWT payload. jwt.RegisteredClaims carries the standard
// fields; "sub" (Subject) holds the internal user ID.
type claims struct {
	jwt.RegisteredClaims
}

// Issue creates and signs a session token for the given userID, returning
// the token string and its expiry instant.
//
// Signing algorithm: HS256 (HMAC-SHA256) — symmetric, fast, and fine for a
// deployment where one service both signs and verifies.
func (s *TokenService) Issue(userID string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.ttl)

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, expiresAt, nil
}

// IssueWithDuration creates a token with a custom expiry duration.
// Used by tests to mint already-expired or long-lived tokens.
func (s *TokenService) IssueWithDuration(userID string, d time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(d)

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, expiresAt, nil
}

// Validate parses and verifies a token string and returns the userID from
// its "sub" claim.
//
// CHECKS (performed by the jwt library):
//   - Signature matches (token wasn't tampered with)
//   - ExpiresAt is in the future
//   - Issuer is "resolveit"
//   - Algorithm is HS256
//
// ALGORITHM CONFUSION:
// Without pinning the algorithm an attacker could present a token signed
// with "none". jwt.WithValidMethods closes that hole.
//
// Errors are classified into the three sentinels above so callers can log
// the real reason while still presenting a single "unauthorized" outcome.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", fmt.Errorf("%w", ErrTokenExpired)
		case errors.Is(err, jwt.ErrTokenMalformed):
			return "", fmt.Errorf("%w: %v", ErrTokenMalformed, err)
		default:
			// Bad signature, wrong issuer, wrong algorithm, …
			return "", fmt.Errorf("%w: %v", ErrTokenInvalid, err)
		}
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("%w: bad claims", ErrTokenInvalid)
	}

	userID := c.Subject
	if userID == "" {
		return "", fmt.Errorf("%w: no subject", ErrTokenInvalid)
	}

	return userID, nil
}
