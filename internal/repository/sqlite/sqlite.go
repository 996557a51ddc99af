// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database — it lives inside the Go binary as a
// single file. No separate server to install or manage, which fits a
// single-node deployment, and ":memory:" gives tests a real SQL engine
// with zero setup.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which needs a C compiler and makes
// cross-compilation painful. modernc.org/sqlite is a pure-Go translation
// of SQLite — works everywhere Go works.
package sqlite

import (
	"database/sql"
	"fmt"

	// Side-effect import: the driver's init() registers itself with
	// database/sql under the name "sqlite". After this import,
	// sql.Open("sqlite", ...) knows how to talk to SQLite files.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and hands out per-table stores.
//
// WHY SUB-STORES INSTEAD OF METHODS ON DB?
// The repository interfaces all have a Create method with different
// signatures, and Go doesn't allow method overloading. Users(), Issues(),
// and Feedback() each return a small store over the same pool, and each
// store implements exactly one repository interface.
type DB struct {
	conn *sql.DB
}

// Users returns the account store backed by this pool.
func (db *DB) Users() *UserStore { return &UserStore{conn: db.conn} }

// Issues returns the issue store backed by this pool.
func (db *DB) Issues() *IssueStore { return &IssueStore{conn: db.conn} }

// Feedback returns the feedback store backed by this pool.
func (db *DB) Feedback() *FeedbackStore { return &FeedbackStore{conn: db.conn} }

// New opens the database at dbPath (":memory:" for tests) and runs the
// schema migrations.
//
// sql.Open does not actually connect — it creates a pool manager. Ping
// forces the first real connection so that a bad path or permission
// problem surfaces here, at startup, rather than on the first query.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// One connection, always. SQLite allows a single writer anyway, and
	// for ":memory:" every pooled connection would otherwise be a SEPARATE
	// empty database — the migrated schema only exists on one of them.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL mode lets reads proceed concurrently with a write — important
	// for a web server where many requests hit the DB at once.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite for historical reasons.
	// We want issues.user_id → users.id actually enforced.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool. Callers should defer this next to New
// so the WAL is flushed and the file lock released on shutdown.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps this
// idempotent — safe to run on every start.
func (db *DB) migrate() error {
	// users: the account table.
	//
	// email is UNIQUE — this single constraint is what makes concurrent
	// duplicate registration safe. Whichever INSERT commits second gets a
	// constraint error, which user.go translates to apperror.Conflict.
	// The application stores emails pre-lowercased, so a plain UNIQUE
	// index also covers case variants (A@x.com vs a@x.com).
	//
	// password_hash defaults to '' — the marker for accounts created via
	// Google sign-in, which have no local credential.
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL DEFAULT '',
			first_name    TEXT NOT NULL,
			last_name     TEXT NOT NULL,
			phone         TEXT NOT NULL DEFAULT '',
			address       TEXT NOT NULL DEFAULT '',
			bio           TEXT NOT NULL DEFAULT '',
			avatar_url    TEXT NOT NULL DEFAULT '',
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS issues (
			id          TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL REFERENCES users(id),
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			category    TEXT NOT NULL DEFAULT '',
			location    TEXT NOT NULL DEFAULT '',
			status      TEXT NOT NULL DEFAULT 'open',
			image_url   TEXT NOT NULL DEFAULT '',
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_issues_user_id ON issues(user_id);
		CREATE INDEX IF NOT EXISTS idx_issues_created_at ON issues(created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating issues table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS feedback (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL REFERENCES users(id),
			message    TEXT NOT NULL,
			rating     INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating feedback table: %w", err)
	}

	return nil
}
