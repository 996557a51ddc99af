package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sravansai-26/resolveit-sub001/internal/apperror"
	"github.com/sravansai-26/resolveit-sub001/internal/model"
	"github.com/sravansai-26/resolveit-sub001/internal/repository"
)

// Validation constants for issue reports.
const (
	MaxTitleLength       = 150
	MaxDescriptionLength = 5000
	DefaultListLimit     = 20
	MaxListLimit         = 100
)

// IssueService handles business logic for issue reports: validation,
// pagination clamping, and — the part that matters for auth — ownership
// checks on every mutation.
type IssueService struct {
	issues repository.IssueRepository
	logger *slog.Logger
}

func NewIssueService(issues repository.IssueRepository, logger *slog.Logger) *IssueService {
	return &IssueService{
		issues: issues,
		logger: logger,
	}
}

// IssueInput carries the writable fields of an issue report.
type IssueInput struct {
	Title       string
	Description string
	Category    string
	Location    string
	ImageURL    string
}

// Create validates and saves a new issue owned by userID.
// userID comes from the authenticated context, never from the request body —
// a client cannot report an issue as someone else.
func (s *IssueService) Create(ctx context.Context, userID string, in IssueInput) (*model.Issue, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "issue title is required")
	}
	if len(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("issue title must be %d characters or less", MaxTitleLength))
	}
	if len(in.Description) > MaxDescriptionLength {
		return nil, apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or less", MaxDescriptionLength))
	}

	issue := &model.Issue{
		UserID:      userID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		Location:    strings.TrimSpace(in.Location),
		ImageURL:    strings.TrimSpace(in.ImageURL),
		Status:      model.StatusOpen,
	}

	if err := s.issues.Create(ctx, issue); err != nil {
		s.logger.Error("failed to create issue",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating issue: %w", err)
	}

	s.logger.Info("issue created",
		slog.String("id", issue.ID),
		slog.String("userID", userID),
	)

	return issue, nil
}

// GetByID retrieves an issue. Reads are public — no ownership check.
func (s *IssueService) GetByID(ctx context.Context, id string) (*model.Issue, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "issue ID is required")
	}

	return s.issues.GetByID(ctx, id)
}

// List retrieves issues with pagination, clamped to a sane range.
func (s *IssueService) List(ctx context.Context, limit, offset int) ([]model.Issue, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	issues, err := s.issues.List(ctx, repository.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		s.logger.Error("failed to list issues", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing issues: %w", err)
	}

	return issues, nil
}

// Update applies changes to an issue after checking that userID owns it.
//
// OWNERSHIP BEFORE MUTATION:
// Load first, compare UserID, then write. Whoever holds a valid session
// can READ any issue, but only the reporter may change or delete theirs.
// A mismatch is 403 — the caller is authenticated, just not allowed.
func (s *IssueService) Update(ctx context.Context, userID, issueID string, in IssueInput, status string) (*model.Issue, error) {
	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		return nil, err
	}

	if issue.UserID != userID {
		return nil, apperror.Forbidden("you can only modify your own issues")
	}

	if title := strings.TrimSpace(in.Title); title != "" {
		if len(title) > MaxTitleLength {
			return nil, apperror.ValidationFailed("title",
				fmt.Sprintf("issue title must be %d characters or less", MaxTitleLength))
		}
		issue.Title = title
	}
	if in.Description != "" {
		issue.Description = strings.TrimSpace(in.Description)
	}
	if in.Category != "" {
		issue.Category = strings.TrimSpace(in.Category)
	}
	if in.Location != "" {
		issue.Location = strings.TrimSpace(in.Location)
	}
	if in.ImageURL != "" {
		issue.ImageURL = strings.TrimSpace(in.ImageURL)
	}
	if status != "" {
		switch status {
		case model.StatusOpen, model.StatusInProgress, model.StatusResolved:
			issue.Status = status
		default:
			return nil, apperror.ValidationFailed("status", "status must be open, in_progress, or resolved")
		}
	}

	if err := s.issues.Update(ctx, issue); err != nil {
		s.logger.Error("failed to update issue",
			slog.String("id", issueID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating issue: %w", err)
	}

	return issue, nil
}

// Delete removes an issue after the same ownership check as Update.
func (s *IssueService) Delete(ctx context.Context, userID, issueID string) error {
	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		return err
	}

	if issue.UserID != userID {
		return apperror.Forbidden("you can only delete your own issues")
	}

	if err := s.issues.Delete(ctx, issueID); err != nil {
		s.logger.Error("failed to delete issue",
			slog.String("id", issueID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("deleting issue: %w", err)
	}

	s.logger.Info("issue deleted",
		slog.String("id", issueID),
		slog.String("userID", userID),
	)

	return nil
}

// FeedbackService handles feedback notes. Small enough that it shares this
// file with IssueService.
type FeedbackService struct {
	feedback repository.FeedbackRepository
	logger   *slog.Logger
}

func NewFeedbackService(feedback repository.FeedbackRepository, logger *slog.Logger) *FeedbackService {
	return &FeedbackService{
		feedback: feedback,
		logger:   logger,
	}
}

// Create stores a feedback note from the authenticated user.
func (s *FeedbackService) Create(ctx context.Context, userID, message string, rating int) (*model.Feedback, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperror.ValidationFailed("message", "feedback message is required")
	}
	if rating < 1 || rating > 5 {
		return nil, apperror.ValidationFailed("rating", "rating must be between 1 and 5")
	}

	fb := &model.Feedback{
		UserID:  userID,
		Message: message,
		Rating:  rating,
	}

	if err := s.feedback.Create(ctx, fb); err != nil {
		s.logger.Error("failed to create feedback", slog.String("error", err.Error()))
		return nil, fmt.Errorf("creating feedback: %w", err)
	}

	return fb, nil
}

// List returns feedback notes, newest first.
func (s *FeedbackService) List(ctx context.Context, limit, offset int) ([]model.Feedback, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	feedback, err := s.feedback.List(ctx, repository.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		s.logger.Error("failed to list feedback", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing feedback: %w", err)
	}

	return feedback, nil
}
