// Package model defines the data structures used throughout the application.
package model

import "time"

// User is the account record — one row per person, keyed by a unique
// normalized (lowercased, trimmed) email.
//
// WHY EMAIL AS THE NATURAL KEY?
// ResolveIt supports two signup paths: local email/password and Google
// sign-in. Both paths resolve to the same User by email, so someone who
// registered locally and later clicks "Sign in with Google" (with the same
// address) lands on the same account instead of a duplicate. The DB enforces
// this with a UNIQUE constraint on the email column.
//
// WHY PasswordHash string (not *string)?
// Accounts created via Google sign-in never have a password. We use the
// empty string as "no credential" rather than a nullable pointer — simpler
// to work with, and the auth service treats empty as "federated-only" and
// steers local login attempts to Google with a 403.
//
// PasswordHash is tagged `json:"-"` so it can NEVER leak into a response,
// no matter which handler serializes the struct. This is the "sanitized
// identity" rule: the hash stays between the model and the database.
type User struct {
	ID           string    `json:"id"           db:"id"`
	Email        string    `json:"email"        db:"email"`         // normalized, unique
	PasswordHash string    `json:"-"            db:"password_hash"` // empty for Google-only accounts
	FirstName    string    `json:"firstName"    db:"first_name"`
	LastName     string    `json:"lastName"     db:"last_name"`
	Phone        string    `json:"phone"        db:"phone"`
	Address      string    `json:"address"      db:"address"`
	Bio          string    `json:"bio"          db:"bio"`
	AvatarURL    string    `json:"avatarUrl"    db:"avatar_url"`
	CreatedAt    time.Time `json:"createdAt"    db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt"    db:"updated_at"`
}

// HasPassword reports whether this account can log in with a local password.
// False means the account was created via Google sign-in and has no
// credential — local login must return a "use Google sign-in" error, never
// the generic "invalid credentials" one.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// ProfileUpdate carries the mutable profile fields for a partial update.
//
// POINTER FIELDS FOR PARTIAL UPDATES:
// A *string distinguishes "field absent from the request" (nil — keep the
// current value) from "field present but empty" (pointer to "" — clear it).
// Email, ID, and PasswordHash are deliberately NOT here: they are immutable
// through the profile endpoint.
type ProfileUpdate struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Phone     *string `json:"phone"`
	Address   *string `json:"address"`
	Bio       *string `json:"bio"`
	AvatarURL *string `json:"avatarUrl"`
}
