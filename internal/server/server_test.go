package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sravansai-26/resolveit-sub001/internal/auth"
)

// testJWTSecret is shared between the server under test and the token
// service tests mint expired tokens with.
const testJWTSecret = "integration-test-secret-0123456789"

// newTestServer builds a full server over an in-memory database, with no
// Google sign-in configured. Requests go straight to the router — no
// listener, no ports.
func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	srv, err := New(context.Background(), Config{
		Port:      0,
		DBPath:    ":memory:",
		JWTSecret: testJWTSecret,
		TokenTTL:  time.Hour,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	return srv.Router()
}

// doJSON sends a JSON request through the router and decodes the JSON
// response into a generic map for assertions.
func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded),
			"response should be JSON, got: %s", rec.Body.String())
	}
	return rec.Code, decoded
}

func registerBody(email string) map[string]any {
	return map[string]any{
		"firstName": "Asha",
		"lastName":  "Rao",
		"email":     email,
		"password":  "secret1",
	}
}

// The full lifecycle through real HTTP plumbing: register, use the token,
// read the profile back, log in again.
func TestServer_RegisterLoginMe(t *testing.T) {
	router := newTestServer(t)

	// Register.
	status, body := doJSON(t, router, http.MethodPost, "/api/auth/register", "", registerBody("asha@example.com"))
	require.Equal(t, http.StatusCreated, status)

	token, _ := body["token"].(string)
	require.NotEmpty(t, token, "registration must return a session token")
	assert.Greater(t, body["expiresAt"], float64(time.Now().Unix()))

	user, ok := body["user"].(map[string]any)
	require.True(t, ok, "registration must return the account")
	assert.Equal(t, "asha@example.com", user["email"])

	// The hash must not appear in ANY serialized form of the account.
	assert.NotContains(t, user, "passwordHash")
	assert.NotContains(t, user, "password_hash")

	// The token opens the guarded endpoint.
	status, me := doJSON(t, router, http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "asha@example.com", me["email"])
	assert.NotContains(t, me, "passwordHash")

	// Login with the same credentials works too.
	status, login := doJSON(t, router, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    "asha@example.com",
		"password": "secret1",
	})
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, login["token"])
}

func TestServer_DuplicateRegisterConflict(t *testing.T) {
	router := newTestServer(t)

	status, _ := doJSON(t, router, http.MethodPost, "/api/auth/register", "", registerBody("dup@example.com"))
	require.Equal(t, http.StatusCreated, status)

	// Same address, different case — still one account.
	status, body := doJSON(t, router, http.MethodPost, "/api/auth/register", "", registerBody("DUP@example.com"))
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "conflict", body["error"])
}

func TestServer_LoginFailuresAreUniform(t *testing.T) {
	router := newTestServer(t)

	status, _ := doJSON(t, router, http.MethodPost, "/api/auth/register", "", registerBody("asha@example.com"))
	require.Equal(t, http.StatusCreated, status)

	statusUnknown, bodyUnknown := doJSON(t, router, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email": "nobody@example.com", "password": "secret1",
	})
	statusWrong, bodyWrong := doJSON(t, router, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email": "asha@example.com", "password": "not-the-password",
	})

	// Same status, same message — an attacker probing for accounts learns
	// nothing from the difference.
	assert.Equal(t, http.StatusUnauthorized, statusUnknown)
	assert.Equal(t, http.StatusUnauthorized, statusWrong)
	assert.Equal(t, bodyUnknown["message"], bodyWrong["message"])
}

func TestServer_GuardedEndpointsRejectBadTokens(t *testing.T) {
	router := newTestServer(t)

	// No token.
	status, body := doJSON(t, router, http.MethodGet, "/api/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "unauthorized", body["error"])

	// Garbage token.
	status, _ = doJSON(t, router, http.MethodGet, "/api/me", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	// Expired token — a clean 401, never a 500. Mint it with the same
	// secret the server signs with, backdated past its lifetime.
	status, reg := doJSON(t, router, http.MethodPost, "/api/auth/register", "", registerBody("exp@example.com"))
	require.Equal(t, http.StatusCreated, status)
	userID := reg["user"].(map[string]any)["id"].(string)

	tokens, err := auth.NewTokenService(testJWTSecret, time.Hour)
	require.NoError(t, err)
	expired, _, err := tokens.IssueWithDuration(userID, -time.Minute)
	require.NoError(t, err)

	status, body = doJSON(t, router, http.MethodGet, "/api/me", expired, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "unauthorized", body["error"])

	// Valid token for a deleted/unknown account → also 401.
	ghost, _, err := tokens.Issue("no-such-user")
	require.NoError(t, err)
	status, _ = doJSON(t, router, http.MethodGet, "/api/me", ghost, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestServer_ProfileUpdate(t *testing.T) {
	router := newTestServer(t)

	status, reg := doJSON(t, router, http.MethodPost, "/api/auth/register", "", registerBody("p@example.com"))
	require.Equal(t, http.StatusCreated, status)
	token := reg["token"].(string)

	status, updated := doJSON(t, router, http.MethodPut, "/api/me", token, map[string]any{
		"bio":   "Keeps an eye on 3rd street.",
		"phone": "555-0101",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Keeps an eye on 3rd street.", updated["bio"])
	assert.Equal(t, "555-0101", updated["phone"])
	// Fields absent from the body are untouched.
	assert.Equal(t, "Asha", updated["firstName"])

	// Present-but-empty name is rejected.
	status, _ = doJSON(t, router, http.MethodPut, "/api/me", token, map[string]any{"firstName": "  "})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestServer_IssueLifecycleAndOwnership(t *testing.T) {
	router := newTestServer(t)

	status, regA := doJSON(t, router, http.MethodPost, "/api/auth/register", "", registerBody("a@example.com"))
	require.Equal(t, http.StatusCreated, status)
	tokenA := regA["token"].(string)

	status, regB := doJSON(t, router, http.MethodPost, "/api/auth/register", "", registerBody("b@example.com"))
	require.Equal(t, http.StatusCreated, status)
	tokenB := regB["token"].(string)

	// Writes need a session.
	status, _ = doJSON(t, router, http.MethodPost, "/api/issues", "", map[string]any{"title": "x"})
	assert.Equal(t, http.StatusUnauthorized, status)

	// A reports an issue.
	status, issue := doJSON(t, router, http.MethodPost, "/api/issues", tokenA, map[string]any{
		"title":    "Pothole on Main St",
		"category": "roads",
	})
	require.Equal(t, http.StatusCreated, status)
	issueID := issue["id"].(string)
	assert.Equal(t, "open", issue["status"])

	// Reads are public.
	status, got := doJSON(t, router, http.MethodGet, "/api/issues/"+issueID, "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Pothole on Main St", got["title"])

	// B cannot touch A's issue.
	status, _ = doJSON(t, router, http.MethodPut, "/api/issues/"+issueID, tokenB, map[string]any{
		"status": "resolved",
	})
	assert.Equal(t, http.StatusForbidden, status)

	// A can.
	status, got = doJSON(t, router, http.MethodPut, "/api/issues/"+issueID, tokenA, map[string]any{
		"status": "resolved",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "resolved", got["status"])

	// B cannot delete it either; A can.
	status, _ = doJSON(t, router, http.MethodDelete, "/api/issues/"+issueID, tokenB, nil)
	assert.Equal(t, http.StatusForbidden, status)

	req := httptest.NewRequest(http.MethodDelete, "/api/issues/"+issueID, nil)
	req.Header.Set("Authorization", "Bearer "+tokenA)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	status, _ = doJSON(t, router, http.MethodGet, "/api/issues/"+issueID, "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestServer_FeedbackRoutes(t *testing.T) {
	router := newTestServer(t)

	status, reg := doJSON(t, router, http.MethodPost, "/api/auth/register", "", registerBody("fb@example.com"))
	require.Equal(t, http.StatusCreated, status)
	token := reg["token"].(string)

	status, _ = doJSON(t, router, http.MethodPost, "/api/feedback", token, map[string]any{
		"message": "quick fix, thanks",
		"rating":  5,
	})
	require.Equal(t, http.StatusCreated, status)

	status, _ = doJSON(t, router, http.MethodPost, "/api/feedback", token, map[string]any{
		"message": "no stars", "rating": 7,
	})
	assert.Equal(t, http.StatusBadRequest, status)

	req := httptest.NewRequest(http.MethodGet, "/api/feedback", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var notes []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &notes))
	require.Len(t, notes, 1)
	assert.Equal(t, "quick fix, thanks", notes[0]["message"])
}

func TestServer_GoogleRouteWithoutConfiguration(t *testing.T) {
	router := newTestServer(t)

	// The credential endpoint exists but answers 401: sign-in is not
	// configured, and that is an authentication failure, not a crash.
	status, body := doJSON(t, router, http.MethodPost, "/api/auth/google", "", map[string]any{
		"credential": "some-token",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "unauthorized", body["error"])

	// The redirect flow is simply not registered.
	req := httptest.NewRequest(http.MethodGet, "/auth/google/login", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_ListIssuesSerializesEmptyAsArray(t *testing.T) {
	router := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/issues", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestServer_RejectsBadJWTSecret(t *testing.T) {
	_, err := New(context.Background(), Config{
		DBPath:    ":memory:",
		JWTSecret: "short",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Error(t, err)
}
