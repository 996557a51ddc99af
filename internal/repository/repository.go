// Package repository defines the storage interfaces the service layer
// programs against. Concrete implementations live in subpackages (sqlite);
// tests substitute in-memory fakes.
package repository

import (
	"context"

	"github.com/sravansai-26/resolveit-sub001/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// UserRepository is the durable account store.
//
// UNIQUENESS LIVES HERE, NOT IN THE SERVICE:
// Create must fail with apperror.ErrConflict when the normalized email
// already exists — enforced by the database's UNIQUE constraint, not by an
// application-level SELECT-then-INSERT. Two concurrent registrations for
// the same email would both pass a pre-check; only the constraint makes
// exactly one of them win.
type UserRepository interface {
	// Create inserts a new account. The email must already be normalized
	// (lowercased, trimmed) by the caller. Fills in ID and timestamps.
	Create(ctx context.Context, user *model.User) error
	// GetByEmail looks up an account by normalized email.
	// Returns apperror.ErrNotFound if none exists.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// GetByID looks up an account by its internal ID.
	// Returns apperror.ErrNotFound if none exists.
	GetByID(ctx context.Context, id string) (*model.User, error)
	// UpdateProfile applies the non-nil fields of the update to the account.
	// Email, ID, and the password hash are not touchable through this path.
	UpdateProfile(ctx context.Context, id string, update *model.ProfileUpdate) (*model.User, error)
}

type IssueRepository interface {
	Create(ctx context.Context, issue *model.Issue) error
	GetByID(ctx context.Context, id string) (*model.Issue, error)
	List(ctx context.Context, opts ListOptions) ([]model.Issue, error)
	Update(ctx context.Context, issue *model.Issue) error
	Delete(ctx context.Context, id string) error
}

type FeedbackRepository interface {
	Create(ctx context.Context, fb *model.Feedback) error
	List(ctx context.Context, opts ListOptions) ([]model.Feedback, error)
}
