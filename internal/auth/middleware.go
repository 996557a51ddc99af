package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sravansai-26/resolveit-sub001/internal/model"
	"github.com/sravansai-26/resolveit-sub001/internal/repository"
)

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue keys are compared by type AND value. With a plain
// string key, any package knowing the string could read or shadow the
// value. A package-private type means only this package can mint the key,
// so only this package controls what lives under it.
type contextKey string

const userKey contextKey = "authUser"

// bearerPrefix is the required Authorization scheme, per RFC 6750.
const bearerPrefix = "Bearer "

const unauthorizedBody = `{"error":"unauthorized","message":"valid authentication required"}`

// RequireAuth is the per-request session guard for protected routes.
//
// Per request it:
//  1. Reads the "Authorization: Bearer <token>" header
//  2. Validates the token signature, expiry, and issuer
//  3. Loads the account the token's subject points at
//  4. Stores the account in the request context for the handler
//
// ONE OUTCOME, FOUR CAUSES:
// Missing header, bad/expired token, and vanished account all produce the
// SAME 401 body. Distinguishing them for the caller would leak information
// (e.g. "this token was once valid for a now-deleted account"). The real
// cause goes to the log at Warn level instead.
//
// Step 3 matters more than it looks: tokens outlive accounts. There is no
// revocation list, so a token issued before an account was deleted still
// verifies — the DB load is what finally rejects it.
func RequireAuth(tokens *TokenService, users repository.UserRepository, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, err := bearerToken(r)
			if err != nil {
				logger.Warn("auth: missing bearer token", slog.String("path", r.URL.Path))
				http.Error(w, unauthorizedBody, http.StatusUnauthorized)
				return
			}

			userID, err := tokens.Validate(tokenStr)
			if err != nil {
				// ErrTokenExpired / ErrTokenMalformed / ErrTokenInvalid are
				// logged verbatim; the client just sees 401.
				logger.Warn("auth: token rejected",
					slog.String("path", r.URL.Path),
					slog.String("reason", err.Error()),
				)
				http.Error(w, unauthorizedBody, http.StatusUnauthorized)
				return
			}

			user, err := users.GetByID(r.Context(), userID)
			if err != nil {
				logger.Warn("auth: token subject no longer exists",
					slog.String("userID", userID),
					slog.String("error", err.Error()),
				)
				http.Error(w, unauthorizedBody, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext retrieves the authenticated account from the request
// context. On a RequireAuth-protected route it always returns (user, true);
// elsewhere it returns (nil, false).
//
// The returned User still carries its PasswordHash field in memory, but the
// `json:"-"` tag guarantees serializing it never exposes the hash.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok && user != nil
}

// bearerToken extracts the token from the Authorization header.
// Returns an error if the header is absent or not Bearer-shaped.
func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errors.New("auth: no authorization header")
	}
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", errors.New("auth: authorization header is not a bearer token")
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	if token == "" {
		return "", errors.New("auth: empty bearer token")
	}
	return token, nil
}
