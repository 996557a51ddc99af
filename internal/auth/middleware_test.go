package auth

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sravansai-26/resolveit-sub001/internal/apperror"
	"github.com/sravansai-26/resolveit-sub001/internal/model"
)

// stubUserRepo is a minimal in-memory UserRepository for middleware tests.
// Only GetByID matters here; the rest exist to satisfy the interface.
type stubUserRepo struct {
	users map[string]*model.User
}

func (s *stubUserRepo) Create(ctx context.Context, user *model.User) error { return nil }
func (s *stubUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, apperror.NotFound("user", "by-email")
}
func (s *stubUserRepo) UpdateProfile(ctx context.Context, id string, update *model.ProfileUpdate) (*model.User, error) {
	return nil, apperror.NotFound("user", id)
}
func (s *stubUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	return u, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// guardTestSetup wires RequireAuth around a probe handler that records
// whether it ran and what account it saw in the context.
func guardTestSetup(t *testing.T, users map[string]*model.User) (*TokenService, http.Handler, *struct {
	called bool
	user   *model.User
}) {
	t.Helper()

	tokens := newTestTokenService(t)
	probe := &struct {
		called bool
		user   *model.User
	}{}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		probe.called = true
		probe.user, _ = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	guarded := RequireAuth(tokens, &stubUserRepo{users: users}, quietLogger())(next)
	return tokens, guarded, probe
}

func TestRequireAuth_ValidToken(t *testing.T) {
	user := &model.User{ID: "user-1", Email: "a@b.com", FirstName: "A", LastName: "B"}
	tokens, guarded, probe := guardTestSetup(t, map[string]*model.User{"user-1": user})

	token, _, err := tokens.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	guarded.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if !probe.called {
		t.Fatal("inner handler was not reached")
	}
	if probe.user == nil || probe.user.ID != "user-1" {
		t.Errorf("context user = %+v, want user-1", probe.user)
	}
}

// All four rejection branches must yield the SAME status (401). The table
// covers: no header, wrong scheme, garbage token, expired token, and a
// valid token whose subject no longer exists.
func TestRequireAuth_RejectionBranches(t *testing.T) {
	tokens, guarded, probe := guardTestSetup(t, map[string]*model.User{})

	expired, _, err := tokens.IssueWithDuration("user-gone", -time.Minute)
	if err != nil {
		t.Fatalf("IssueWithDuration() error = %v", err)
	}
	orphaned, _, err := tokens.Issue("user-gone") // valid token, deleted account
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not a bearer scheme", "Basic dXNlcjpwYXNz"},
		{"bearer with empty token", "Bearer   "},
		{"garbage token", "Bearer not.a.jwt"},
		{"expired token", "Bearer " + expired},
		{"valid token for deleted account", "Bearer " + orphaned},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			probe.called = false

			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()

			guarded.ServeHTTP(rr, req)

			if rr.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rr.Code)
			}
			if probe.called {
				t.Error("inner handler must not run on a rejected request")
			}
		})
	}
}

func TestUserFromContext_Absent(t *testing.T) {
	user, ok := UserFromContext(context.Background())
	if ok || user != nil {
		t.Errorf("UserFromContext on empty context = (%v, %v), want (nil, false)", user, ok)
	}
}
