package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rs/xid"
	"github.com/sravansai-26/resolveit-sub001/internal/auth"
	"github.com/sravansai-26/resolveit-sub001/internal/model"
	"github.com/sravansai-26/resolveit-sub001/internal/service"
)

// AuthHandler exposes the authentication endpoints.
//
// HANDLER RESPONSIBILITIES:
//   - HandleRegister       → create a local account, return a session token
//   - HandleLogin          → email/password login
//   - HandleGoogleLogin    → verify a posted Google ID token credential
//   - HandleGoogleRedirect / HandleGoogleCallback → classic OAuth redirect flow
//   - HandleMe / HandleUpdateMe → read/update the signed-in account
//   - HandleLogout         → symmetric no-op for stateless tokens
//
// The handler parses HTTP and writes JSON; every decision about accounts
// lives in service.AuthService.
type AuthHandler struct {
	svc    *service.AuthService
	google *auth.GoogleVerifier // nil when the redirect flow is unconfigured
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler. google may be nil; the redirect
// routes then answer 404 via the router (they're only registered when
// configured).
func NewAuthHandler(svc *service.AuthService, google *auth.GoogleVerifier, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		svc:    svc,
		google: google,
		logger: logger,
	}
}

// authResponse is the body of every successful authentication: the bearer
// token, its expiry as epoch seconds, and the account. model.User's
// `json:"-"` tag keeps the password hash out no matter what.
type authResponse struct {
	Token     string      `json:"token"`
	ExpiresAt int64       `json:"expiresAt"`
	User      *model.User `json:"user"`
}

func newAuthResponse(res *service.AuthResult) authResponse {
	return authResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt.Unix(),
		User:      res.User,
	}
}

// HandleRegister creates a local email/password account.
//
// HTTP: POST /api/auth/register
// BODY: {"firstName","lastName","email","password", optional profile fields}
//
// 201 on success, 400 on validation, 409 when the email is taken.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Email     string `json:"email"`
		Password  string `json:"password"`
		Phone     string `json:"phone"`
		Address   string `json:"address"`
		Bio       string `json:"bio"`
		AvatarURL string `json:"avatarUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "validation_error", Message: "invalid JSON body",
		})
		return
	}

	result, err := h.svc.Register(r.Context(), service.RegisterInput{
		FirstName: body.FirstName,
		LastName:  body.LastName,
		Email:     body.Email,
		Password:  body.Password,
		Phone:     body.Phone,
		Address:   body.Address,
		Bio:       body.Bio,
		AvatarURL: body.AvatarURL,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, newAuthResponse(result))
}

// HandleLogin authenticates an email/password pair.
//
// HTTP: POST /api/auth/login
// BODY: {"email","password"}
//
// 200 on success, 401 for bad credentials (deliberately vague), 403 when
// the account was created via Google and has no password.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "validation_error", Message: "invalid JSON body",
		})
		return
	}

	result, err := h.svc.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newAuthResponse(result))
}

// HandleGoogleLogin signs a user in from a Google ID token credential.
//
// HTTP: POST /api/auth/google
// BODY: {"credential": "<google id token>"}
//
// This is the flow Google Identity Services uses in the browser: the
// client obtains the ID token and posts it here as an assertion. The
// server verifies it against Google's keys before any account is touched.
// 400 when the credential is missing, 401 when verification fails.
func (h *AuthHandler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Credential string `json:"credential"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "validation_error", Message: "invalid JSON body",
		})
		return
	}

	result, err := h.svc.LoginWithGoogle(r.Context(), body.Credential)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newAuthResponse(result))
}

// HandleGoogleRedirect starts the OAuth redirect flow.
//
// HTTP: GET /auth/google/login
//
// CSRF PROTECTION VIA STATE:
// A random state value goes into a short-lived HttpOnly cookie before the
// redirect. The callback compares the state Google echoes back against the
// cookie — proof the flow started here, not on an attacker's page.
func (h *AuthHandler) HandleGoogleRedirect(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.google.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGoogleCallback completes the redirect flow.
//
// HTTP: GET /auth/google/callback?code=xxx&state=yyy
//
// FLOW:
//  1. Check the state parameter against the cookie (CSRF)
//  2. Exchange the code for Google's tokens, pull out the raw id_token
//  3. Hand the id_token to the SAME verification + account-resolution
//     path as HandleGoogleLogin
//  4. Return the session as JSON
func (h *AuthHandler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("google callback: state mismatch or missing")
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "validation_error", Message: "invalid OAuth state",
		})
		return
	}

	// The state cookie is single-use.
	http.SetCookie(w, &http.Cookie{
		Name:   "oauth_state",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("google callback: user denied authorization",
			slog.String("error", errParam),
		)
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "unauthorized", Message: "google sign-in was denied",
		})
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "validation_error", Message: "missing OAuth code",
		})
		return
	}

	rawIDToken, err := h.google.ExchangeCode(r.Context(), code)
	if err != nil {
		h.logger.Error("google callback: code exchange failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "unauthorized", Message: "google sign-in could not be verified",
		})
		return
	}

	result, err := h.svc.LoginWithGoogle(r.Context(), rawIDToken)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newAuthResponse(result))
}

// HandleLogout acknowledges a logout.
//
// HTTP: POST /api/auth/logout
//
// Tokens are stateless — there is no server-side session to destroy. The
// client discards its token; this endpoint exists so clients have a
// symmetric call and a place where revocation could later live.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe returns the authenticated account.
//
// HTTP: GET /api/me
// Auth: required (RequireAuth puts the account in the context)
//
// The record is re-read from the store rather than echoed from the
// context so the response reflects any concurrent profile update.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		// Unreachable behind RequireAuth, but don't assume.
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "unauthorized", Message: "valid authentication required",
		})
		return
	}

	fresh, err := h.svc.GetUserByID(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, fresh)
}

// HandleUpdateMe applies a partial profile update to the signed-in account.
//
// HTTP: PUT /api/me
// BODY: any subset of {"firstName","lastName","phone","address","bio","avatarUrl"}
//
// Email and password are NOT updatable here — absent fields stay as they
// are, present-but-empty name fields are rejected.
func (h *AuthHandler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "unauthorized", Message: "valid authentication required",
		})
		return
	}

	var update model.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "validation_error", Message: "invalid JSON body",
		})
		return
	}

	updated, err := h.svc.UpdateProfile(r.Context(), user.ID, &update)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}
