package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// googleIssuer is the only issuer we accept ID tokens from. oidc.NewProvider
// fetches this issuer's discovery document and signing keys, and every
// verification checks the token was minted by exactly this issuer.
const googleIssuer = "https://accounts.google.com"

// verifyTimeout bounds the network round trip to Google's key servers.
// Without a deadline, a Google outage would pin request-handler goroutines
// indefinitely and exhaust the server.
const verifyTimeout = 10 * time.Second

// namePlaceholder fills in for a missing name claim. Google makes the name
// optional, but our accounts require non-empty first/last names.
const namePlaceholder = "User"

// GoogleClaims is the verified, normalized subset of a Google ID token that
// the auth service consumes. It contains facts only, no decisions — whether
// to create or link an account is the service's call, not this package's.
type GoogleClaims struct {
	Subject   string // Google's stable user identifier ("sub")
	Email     string // verified email — required, the account-linking key
	Name      string // display name, may be empty
	AvatarURL string // "picture" claim, may be empty
}

// FirstName returns the first whitespace-delimited token of the display
// name, or a placeholder if the name claim was absent.
func (c *GoogleClaims) FirstName() string {
	first, _ := splitName(c.Name)
	return first
}

// LastName returns everything after the first whitespace-delimited token,
// or a placeholder when there is nothing after it.
func (c *GoogleClaims) LastName() string {
	_, last := splitName(c.Name)
	return last
}

// splitName turns a free-form display name into (first, last).
// "Ada Lovelace King" → ("Ada", "Lovelace King"); "Ada" → ("Ada", "User");
// "" → ("User", "User"). Google's name claim is loosely structured, so the
// fallback rules live in one place instead of being probed ad hoc.
func splitName(name string) (string, string) {
	fields := strings.Fields(name)
	switch len(fields) {
	case 0:
		return namePlaceholder, namePlaceholder
	case 1:
		return fields[0], namePlaceholder
	default:
		return fields[0], strings.Join(fields[1:], " ")
	}
}

// GoogleVerifier validates Google ID token assertions and (optionally)
// drives the classic OAuth redirect flow.
//
// TWO WAYS IN, ONE TRUST CHECK:
//  1. Assertion flow: the browser obtains an ID token via Google Identity
//     Services and POSTs it to /api/auth/google. We verify it directly.
//  2. Redirect flow: /auth/google/login sends the user to Google, the
//     callback exchanges the code for tokens, and the id_token inside goes
//     through the SAME verification.
//
// Either way, nothing downstream ever sees unverified claims. An assertion
// that fails signature, issuer, audience, or expiry checks never reaches
// the account-resolution step.
type GoogleVerifier struct {
	verifier *oidc.IDTokenVerifier
	oauth    *oauth2.Config
}

// NewGoogleVerifier builds a verifier bound to the given OAuth client ID
// (the expected audience of every ID token).
//
// clientSecret and redirectURL are only needed for the redirect flow; the
// assertion flow works with just the clientID. The ctx is used for the
// one-time discovery fetch of Google's OIDC configuration.
func NewGoogleVerifier(ctx context.Context, clientID, clientSecret, redirectURL string) (*GoogleVerifier, error) {
	if clientID == "" {
		return nil, errors.New("auth: google client ID is required")
	}

	provider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, fmt.Errorf("auth: initializing google oidc provider: %w", err)
	}

	return &GoogleVerifier{
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
	}, nil
}

// VerifyAssertion checks a raw ID token against Google's signing keys, the
// expected issuer, and our client ID as audience, then extracts the claims
// we care about.
//
// The call is network-bound (key fetch / refresh) and runs under a bounded
// timeout layered on top of the caller's context.
func (g *GoogleVerifier) VerifyAssertion(ctx context.Context, rawIDToken string) (*GoogleClaims, error) {
	if rawIDToken == "" {
		return nil, errors.New("auth: empty google assertion")
	}

	ctx, cancel := context.WithTimeout(ctx, verifyTimeout)
	defer cancel()

	idToken, err := g.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("auth: google id_token verification failed: %w", err)
	}

	var raw struct {
		Subject string `json:"sub"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := idToken.Claims(&raw); err != nil {
		return nil, fmt.Errorf("auth: parsing google id_token claims: %w", err)
	}

	// Email is the account-linking key — a token without it is useless to us
	// even if cryptographically valid.
	if raw.Email == "" {
		return nil, errors.New("auth: google id_token missing email claim")
	}

	return &GoogleClaims{
		Subject:   raw.Subject,
		Email:     raw.Email,
		Name:      raw.Name,
		AvatarURL: raw.Picture,
	}, nil
}

// AuthURL returns the Google authorization URL for the redirect flow.
// The state parameter is verified on callback to block CSRF-initiated
// OAuth completions.
func (g *GoogleVerifier) AuthURL(state string) string {
	return g.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// ExchangeCode completes the redirect flow: trades the authorization code
// for tokens and pulls out the raw id_token. The caller feeds that through
// the exact same VerifyAssertion path as the direct assertion flow — there
// is deliberately only one place trust is established.
func (g *GoogleVerifier) ExchangeCode(ctx context.Context, code string) (string, error) {
	token, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("auth: exchanging google oauth code: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return "", errors.New("auth: google did not return an id_token")
	}

	return rawIDToken, nil
}
