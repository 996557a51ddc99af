package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sravansai-26/resolveit-sub001/internal/apperror"
	"github.com/sravansai-26/resolveit-sub001/internal/model"
	"github.com/sravansai-26/resolveit-sub001/internal/repository"
)

// UserStore implements repository.UserRepository over the shared pool.
type UserStore struct {
	conn *sql.DB
}

// Compile-time check that *UserStore implements repository.UserRepository.
// If a method is missing or has the wrong signature, this line fails to
// compile — much earlier than the first call site would.
var _ repository.UserRepository = (*UserStore)(nil)

const userColumns = `id, email, password_hash, first_name, last_name,
	phone, address, bio, avatar_url, created_at, updated_at`

// Create inserts a new account.
//
// THE UNIQUENESS RACE:
// We do NOT check-then-insert. Two concurrent registrations for the same
// email would both pass such a check and both insert. Instead we just
// INSERT and let the UNIQUE constraint on users.email arbitrate: exactly
// one INSERT commits, the other comes back as a constraint error that we
// translate into apperror.Conflict (→ 409 at the boundary).
//
// The caller (service layer) has already normalized the email to lowercase,
// so case variants collide on the same index entry.
func (s *UserStore) Create(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, first_name, last_name,
			phone, address, bio, avatar_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Phone,
		user.Address,
		user.Bio,
		user.AvatarURL,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("an account with this email already exists")
		}
		return fmt.Errorf("sqlite: creating user: %w", err)
	}

	return nil
}

// GetByEmail retrieves an account by its normalized email.
// Returns apperror.ErrNotFound if no account exists for that address.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User

	err := s.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`,
		email,
	).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Phone, &u.Address, &u.Bio, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			// Don't put the email in the NotFound message — it flows to
			// logs, and callers decide what to disclose.
			return nil, apperror.NotFound("user", "by-email")
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}

	return &u, nil
}

// GetByID retrieves an account by its internal ID.
// Returns apperror.ErrNotFound if no account exists with that ID.
func (s *UserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User

	err := s.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`,
		id,
	).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Phone, &u.Address, &u.Bio, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}

	return &u, nil
}

// UpdateProfile applies the non-nil fields of update to the stored account
// and returns the fresh record.
//
// Only the whitelisted profile columns appear here — there is no code path
// through which this method can touch email, id, or password_hash.
func (s *UserStore) UpdateProfile(ctx context.Context, id string, update *model.ProfileUpdate) (*model.User, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.FirstName != nil {
		current.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		current.LastName = *update.LastName
	}
	if update.Phone != nil {
		current.Phone = *update.Phone
	}
	if update.Address != nil {
		current.Address = *update.Address
	}
	if update.Bio != nil {
		current.Bio = *update.Bio
	}
	if update.AvatarURL != nil {
		current.AvatarURL = *update.AvatarURL
	}
	current.UpdatedAt = time.Now()

	_, err = s.conn.ExecContext(ctx,
		`UPDATE users SET first_name = ?, last_name = ?, phone = ?,
			address = ?, bio = ?, avatar_url = ?, updated_at = ?
		 WHERE id = ?`,
		current.FirstName,
		current.LastName,
		current.Phone,
		current.Address,
		current.Bio,
		current.AvatarURL,
		current.UpdatedAt,
		current.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating user %s: %w", id, err)
	}

	return current, nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint
// failure. The pure-Go driver doesn't export a typed error for this, so we
// match on the stable message prefix SQLite itself produces.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
