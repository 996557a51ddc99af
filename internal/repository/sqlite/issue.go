package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sravansai-26/resolveit-sub001/internal/apperror"
	"github.com/sravansai-26/resolveit-sub001/internal/model"
	"github.com/sravansai-26/resolveit-sub001/internal/repository"
)

// IssueStore implements repository.IssueRepository; FeedbackStore
// implements repository.FeedbackRepository. Both share the pool owned by DB.
type IssueStore struct {
	conn *sql.DB
}

type FeedbackStore struct {
	conn *sql.DB
}

var (
	_ repository.IssueRepository    = (*IssueStore)(nil)
	_ repository.FeedbackRepository = (*FeedbackStore)(nil)
)

const issueColumns = `id, user_id, title, description, category, location,
	status, image_url, created_at, updated_at`

// Create inserts a new issue report.
//
// WHY xid FOR IDS?
// xid generates 20-char, URL-safe, time-sortable ids (e.g.
// "cv37rs3pp9olc6atsptg") — shorter than UUIDs and they sort by creation
// time for free. The pointer receiver lets us write the generated ID and
// timestamps back into the caller's struct.
func (s *IssueStore) Create(ctx context.Context, issue *model.Issue) error {
	issue.ID = xid.New().String()
	now := time.Now()
	issue.CreatedAt = now
	issue.UpdatedAt = now
	if issue.Status == "" {
		issue.Status = model.StatusOpen
	}

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO issues (id, user_id, title, description, category,
			location, status, image_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		issue.ID,
		issue.UserID,
		issue.Title,
		issue.Description,
		issue.Category,
		issue.Location,
		issue.Status,
		issue.ImageURL,
		issue.CreatedAt,
		issue.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating issue: %w", err)
	}

	return nil
}

// GetByID retrieves a single issue.
// sql.ErrNoRows is translated to the domain NotFound error so the handler
// can answer 404 without knowing anything about SQL.
func (s *IssueStore) GetByID(ctx context.Context, id string) (*model.Issue, error) {
	var issue model.Issue

	err := s.conn.QueryRowContext(ctx,
		`SELECT `+issueColumns+` FROM issues WHERE id = ?`,
		id,
	).Scan(
		&issue.ID, &issue.UserID, &issue.Title, &issue.Description,
		&issue.Category, &issue.Location, &issue.Status, &issue.ImageURL,
		&issue.CreatedAt, &issue.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("issue", id)
		}
		return nil, fmt.Errorf("sqlite: getting issue %s: %w", id, err)
	}

	return &issue, nil
}

// List returns issues newest-first with limit/offset pagination.
func (s *IssueStore) List(ctx context.Context, opts repository.ListOptions) ([]model.Issue, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+issueColumns+` FROM issues
		 ORDER BY created_at DESC
		 LIMIT ? OFFSET ?`,
		opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing issues: %w", err)
	}
	defer rows.Close()

	// Non-nil empty slice so an empty list serializes as [] not null.
	issues := []model.Issue{}
	for rows.Next() {
		var issue model.Issue
		if err := rows.Scan(
			&issue.ID, &issue.UserID, &issue.Title, &issue.Description,
			&issue.Category, &issue.Location, &issue.Status, &issue.ImageURL,
			&issue.CreatedAt, &issue.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning issue row: %w", err)
		}
		issues = append(issues, issue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating issue rows: %w", err)
	}

	return issues, nil
}

// Update persists the mutable fields of an existing issue.
// Ownership has already been checked by the service; this just writes.
func (s *IssueStore) Update(ctx context.Context, issue *model.Issue) error {
	issue.UpdatedAt = time.Now()

	res, err := s.conn.ExecContext(ctx,
		`UPDATE issues SET title = ?, description = ?, category = ?,
			location = ?, status = ?, image_url = ?, updated_at = ?
		 WHERE id = ?`,
		issue.Title,
		issue.Description,
		issue.Category,
		issue.Location,
		issue.Status,
		issue.ImageURL,
		issue.UpdatedAt,
		issue.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating issue %s: %w", issue.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking update result: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("issue", issue.ID)
	}

	return nil
}

// Delete removes an issue. Returns NotFound if the id doesn't exist,
// so repeated deletes don't silently "succeed".
func (s *IssueStore) Delete(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM issues WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting issue %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking delete result: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("issue", id)
	}

	return nil
}

// Create stores a feedback note.
func (s *FeedbackStore) Create(ctx context.Context, fb *model.Feedback) error {
	fb.ID = xid.New().String()
	fb.CreatedAt = time.Now()

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO feedback (id, user_id, message, rating, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		fb.ID, fb.UserID, fb.Message, fb.Rating, fb.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating feedback: %w", err)
	}

	return nil
}

// List returns feedback newest-first.
func (s *FeedbackStore) List(ctx context.Context, opts repository.ListOptions) ([]model.Feedback, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, user_id, message, rating, created_at FROM feedback
		 ORDER BY created_at DESC
		 LIMIT ? OFFSET ?`,
		opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing feedback: %w", err)
	}
	defer rows.Close()

	feedback := []model.Feedback{}
	for rows.Next() {
		var fb model.Feedback
		if err := rows.Scan(&fb.ID, &fb.UserID, &fb.Message, &fb.Rating, &fb.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning feedback row: %w", err)
		}
		feedback = append(feedback, fb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating feedback rows: %w", err)
	}

	return feedback, nil
}
