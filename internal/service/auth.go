// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer)  → validates, enforces rules, orchestrates
//	Repository (Data layer)   → reads/writes to the database
//
// AuthService is where the account rules live: how registration validates
// its input, why login failures stay deliberately vague, and how a Google
// sign-in is resolved to a local account. Handlers stay HTTP-only and the
// repository stays SQL-only; everything in between is here, testable with
// plain function calls and fake dependencies.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/sravansai-26/resolveit-sub001/internal/apperror"
	"github.com/sravansai-26/resolveit-sub001/internal/auth"
	"github.com/sravansai-26/resolveit-sub001/internal/model"
	"github.com/sravansai-26/resolveit-sub001/internal/repository"
)

// MinPasswordLength is the smallest password Register accepts.
const MinPasswordLength = 6

// AssertionVerifier is the trust boundary for Google sign-in: it turns an
// opaque ID token into verified claims, or fails. The production
// implementation is *auth.GoogleVerifier; tests substitute a fake so the
// account-resolution logic can be exercised without network access.
type AssertionVerifier interface {
	VerifyAssertion(ctx context.Context, rawIDToken string) (*auth.GoogleClaims, error)
}

// AuthService handles registration, login, Google sign-in, and account
// lookup. All dependencies are injected via NewAuthService.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	google    AssertionVerifier // nil when Google sign-in is not configured
	logger    *slog.Logger
}

// NewAuthService creates an AuthService. google may be nil — Google sign-in
// then answers with an unauthorized error instead of panicking.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	google AssertionVerifier,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		google:    google,
		logger:    logger,
	}
}

// AuthResult bundles what every successful authentication returns: the
// account, the bearer token, and the token's expiry instant. The handler
// serializes all three in one response.
type AuthResult struct {
	User      *model.User
	Token     string
	ExpiresAt time.Time
}

// RegisterInput carries the registration form. FirstName, LastName, Email,
// and Password are required; the rest are optional profile extras.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Phone     string
	Address   string
	Bio       string
	AvatarURL string
}

// Register creates a local email/password account and issues a session.
//
// DUPLICATES ARE DECIDED BY THE STORE:
// There is no "does this email exist?" pre-check here. The repository's
// UNIQUE constraint is the only arbiter, which makes two concurrent
// registrations for the same email race-safe: one wins, the other gets
// the Conflict error back (→ 409).
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	firstName := strings.TrimSpace(in.FirstName)
	lastName := strings.TrimSpace(in.LastName)
	if firstName == "" {
		return nil, apperror.ValidationFailed("firstName", "first name is required")
	}
	if lastName == "" {
		return nil, apperror.ValidationFailed("lastName", "last name is required")
	}

	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}

	if len(in.Password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		// Over-length password is a caller mistake, not a server fault.
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		Phone:        strings.TrimSpace(in.Phone),
		Address:      strings.TrimSpace(in.Address),
		Bio:          strings.TrimSpace(in.Bio),
		AvatarURL:    strings.TrimSpace(in.AvatarURL),
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		s.logger.Error("failed to create user", slog.String("error", err.Error()))
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user registered", slog.String("userID", user.ID))

	return s.issueSession(user)
}

// Login authenticates an email/password pair and issues a session.
//
// THREE OUTCOMES, TWO MESSAGES:
//   - unknown email        → 401 "invalid email or password"
//   - wrong password       → 401 "invalid email or password" (same message —
//     anything else would let attackers enumerate accounts)
//   - account has no local password (Google-created) → 403 with an explicit
//     "use Google sign-in" message. Safe to disclose: it reveals nothing
//     about any password, and without it users who signed up with Google
//     would retry "wrong" passwords forever.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	user, err := s.users.GetByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("invalid email or password")
		}
		s.logger.Error("failed to look up user for login", slog.String("error", err.Error()))
		return nil, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	if !user.HasPassword() {
		return nil, apperror.Forbidden("this account uses Google sign-in; no password is set")
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthorized("invalid email or password")
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	return s.issueSession(user)
}

// LoginWithGoogle verifies a Google ID token assertion and resolves it to a
// local account, creating one on first sight of the email.
//
// THE ACCOUNT-LINKING RULE:
// Lookup is by normalized email. If an account already exists — no matter
// how it was created — we reuse it UNCHANGED: Google's claims never
// overwrite an existing profile, they only seed a brand-new one. This is a
// deliberate trust decision: we accept Google's word that the user owns
// the email, so a locally-registered user who later clicks "Sign in with
// Google" lands on their existing account.
//
// NO PARTIAL WRITES:
// Verification happens before any store access, so a failed or forged
// assertion leaves zero rows behind.
func (s *AuthService) LoginWithGoogle(ctx context.Context, rawAssertion string) (*AuthResult, error) {
	if strings.TrimSpace(rawAssertion) == "" {
		return nil, apperror.ValidationFailed("credential", "google credential is required")
	}
	if s.google == nil {
		return nil, apperror.Unauthorized("google sign-in is not configured")
	}

	claims, err := s.google.VerifyAssertion(ctx, rawAssertion)
	if err != nil {
		// The detail goes to the log; the caller only learns "untrusted".
		s.logger.Warn("google assertion rejected", slog.String("reason", err.Error()))
		return nil, apperror.Unauthorized("google sign-in could not be verified")
	}

	email, err := normalizeEmail(claims.Email)
	if err != nil {
		return nil, apperror.Unauthorized("google sign-in could not be verified")
	}

	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		// Existing account — local or Google-created — link by reuse.
	case errors.Is(err, apperror.ErrNotFound):
		// First sight of this email: create an account with NO password
		// hash. Local login on it will steer to Google sign-in.
		user = &model.User{
			Email:     email,
			FirstName: claims.FirstName(),
			LastName:  claims.LastName(),
			AvatarURL: claims.AvatarURL,
		}
		if err := s.users.Create(ctx, user); err != nil {
			if errors.Is(err, apperror.ErrConflict) {
				// Lost a race with a concurrent signup for the same email —
				// the account exists now, so link to it.
				if user, err = s.users.GetByEmail(ctx, email); err != nil {
					return nil, fmt.Errorf("service/auth: reloading user after conflict: %w", err)
				}
			} else {
				s.logger.Error("failed to create google user", slog.String("error", err.Error()))
				return nil, fmt.Errorf("service/auth: creating google user: %w", err)
			}
		}
		s.logger.Info("user created via google sign-in", slog.String("userID", user.ID))
	default:
		s.logger.Error("failed to look up google user", slog.String("error", err.Error()))
		return nil, fmt.Errorf("service/auth: looking up google user: %w", err)
	}

	s.logger.Info("user logged in via google", slog.String("userID", user.ID))

	return s.issueSession(user)
}

// GetUserByID returns the account for the given internal ID. Used by the
// /api/me handler after the middleware has validated the token.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return user, nil
}

// UpdateProfile applies a partial profile update to the given account.
// Name fields, when present, must not collapse to empty after trimming.
func (s *AuthService) UpdateProfile(ctx context.Context, id string, update *model.ProfileUpdate) (*model.User, error) {
	if update == nil {
		return nil, apperror.ValidationFailed("body", "nothing to update")
	}

	for field, v := range map[string]*string{
		"firstName": update.FirstName,
		"lastName":  update.LastName,
	} {
		if v != nil && strings.TrimSpace(*v) == "" {
			return nil, apperror.ValidationFailed(field, field+" must not be empty")
		}
	}

	user, err := s.users.UpdateProfile(ctx, id, update)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		s.logger.Error("failed to update profile",
			slog.String("userID", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/auth: updating profile: %w", err)
	}

	s.logger.Info("profile updated", slog.String("userID", id))

	return user, nil
}

// issueSession mints a bearer token for the user and packages the result.
func (s *AuthService) issueSession(user *model.User) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.logger.Error("failed to issue token",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/auth: issuing token for user %s: %w", user.ID, err)
	}

	return &AuthResult{
		User:      user,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// normalizeEmail trims, lowercases, and syntax-checks an email address.
// The normalized form is the canonical account key — every lookup and
// every insert uses it, so "A@x.com" and "a@x.com" are the same account.
func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", apperror.ValidationFailed("email", "email is required")
	}
	// mail.ParseAddress accepts "Name <addr>" forms; requiring the parsed
	// address to round-trip to the input rejects those.
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperror.ValidationFailed("email", "email is not valid")
	}
	return email, nil
}
