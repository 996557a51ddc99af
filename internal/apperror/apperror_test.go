// GO TESTING BASICS:
// 1. Test files MUST end in _test.go — Go's tooling auto-discovers them
// 2. Test functions MUST start with "Test" and take *testing.T as the only param
// 3. Same package as the code being tested (so we can access unexported stuff)
// 4. Run with: go test ./internal/apperror/ -v  (-v = verbose, shows each test name)
package apperror

import (
	"errors"
	"fmt"
	"testing"
)

// TABLE-DRIVEN TESTS:
// This is Go's idiomatic pattern for testing multiple cases.
// Instead of writing separate test functions per case, we define a slice of
// cases and loop over them. Adding a new case = adding one struct literal.

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string // Descriptive name for test output
		err       error  // The error to test
		target    error  // What we expect it to match
		wantMatch bool   // Should errors.Is() return true?
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("user", "abc123"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("email", "email is required"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Conflict wraps ErrConflict",
			err:       Conflict("an account with this email already exists"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "Forbidden wraps ErrForbidden",
			err:       Forbidden("account uses Google sign-in"),
			target:    ErrForbidden,
			wantMatch: true,
		},
		{
			name:      "Unauthorized wraps ErrUnauthorized",
			err:       Unauthorized("invalid email or password"),
			target:    ErrUnauthorized,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("user", "abc123"),
			target:    ErrValidation,
			wantMatch: false,
		},
		{
			name:      "Unauthorized does NOT match ErrForbidden",
			err:       Unauthorized("invalid email or password"),
			target:    ErrForbidden,
			wantMatch: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := errors.Is(tc.err, tc.target); got != tc.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tc.err, tc.target, got, tc.wantMatch)
			}
		})
	}
}

// Wrapping an AppError with fmt.Errorf("%w") must preserve the chain —
// the handlers rely on errors.Is working through service-layer wrapping.
func TestErrorsIs_ThroughWrapping(t *testing.T) {
	inner := Conflict("an account with this email already exists")
	wrapped := fmt.Errorf("registering user: %w", inner)

	if !errors.Is(wrapped, ErrConflict) {
		t.Error("errors.Is should find ErrConflict through fmt.Errorf wrapping")
	}

	var appErr *AppError
	if !errors.As(wrapped, &appErr) {
		t.Fatal("errors.As should extract *AppError through fmt.Errorf wrapping")
	}
	if appErr.Message != "an account with this email already exists" {
		t.Errorf("AppError.Message = %q, want the original message", appErr.Message)
	}
}

func TestValidationFailed_CarriesField(t *testing.T) {
	err := ValidationFailed("password", "password must be at least 6 characters")
	if err.Field != "password" {
		t.Errorf("Field = %q, want %q", err.Field, "password")
	}
	if err.Error() != "password must be at least 6 characters" {
		t.Errorf("Error() = %q, want the message", err.Error())
	}
}
