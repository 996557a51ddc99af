package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/sravansai-26/resolveit-sub001/internal/apperror"
	"github.com/sravansai-26/resolveit-sub001/internal/model"
	"github.com/sravansai-26/resolveit-sub001/internal/repository"
)

// fakeIssueRepo is an in-memory IssueRepository, same style as fakeUserRepo.
type fakeIssueRepo struct {
	byID   map[string]*model.Issue
	nextID int
}

func newFakeIssueRepo() *fakeIssueRepo {
	return &fakeIssueRepo{byID: make(map[string]*model.Issue), nextID: 1}
}

func (f *fakeIssueRepo) Create(ctx context.Context, issue *model.Issue) error {
	issue.ID = fmt.Sprintf("issue-fake-%d", f.nextID)
	f.nextID++
	copied := *issue
	f.byID[issue.ID] = &copied
	return nil
}

func (f *fakeIssueRepo) GetByID(ctx context.Context, id string) (*model.Issue, error) {
	issue, ok := f.byID[id]
	if !ok {
		return nil, apperror.NotFound("issue", id)
	}
	copied := *issue
	return &copied, nil
}

func (f *fakeIssueRepo) List(ctx context.Context, opts repository.ListOptions) ([]model.Issue, error) {
	issues := make([]model.Issue, 0, len(f.byID))
	for _, issue := range f.byID {
		issues = append(issues, *issue)
	}
	return issues, nil
}

func (f *fakeIssueRepo) Update(ctx context.Context, issue *model.Issue) error {
	if _, ok := f.byID[issue.ID]; !ok {
		return apperror.NotFound("issue", issue.ID)
	}
	copied := *issue
	f.byID[issue.ID] = &copied
	return nil
}

func (f *fakeIssueRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return apperror.NotFound("issue", id)
	}
	delete(f.byID, id)
	return nil
}

func newTestIssueService(repo *fakeIssueRepo) *IssueService {
	return NewIssueService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestIssueCreate_SetsOwnerAndDefaults(t *testing.T) {
	repo := newFakeIssueRepo()
	svc := newTestIssueService(repo)

	issue, err := svc.Create(context.Background(), "user-1", IssueInput{
		Title:    "  Broken streetlight  ",
		Category: "infrastructure",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if issue.UserID != "user-1" {
		t.Errorf("UserID = %q, want the authenticated user", issue.UserID)
	}
	if issue.Title != "Broken streetlight" {
		t.Errorf("Title = %q, want trimmed", issue.Title)
	}
	if issue.Status != model.StatusOpen {
		t.Errorf("Status = %q, want %q on creation", issue.Status, model.StatusOpen)
	}
}

func TestIssueCreate_Validation(t *testing.T) {
	svc := newTestIssueService(newFakeIssueRepo())

	tests := []struct {
		name string
		in   IssueInput
	}{
		{"blank title", IssueInput{Title: "   "}},
		{"title too long", IssueInput{Title: strings.Repeat("x", MaxTitleLength+1)}},
		{"description too long", IssueInput{Title: "ok", Description: strings.Repeat("y", MaxDescriptionLength+1)}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "user-1", tc.in)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("Create() error = %v, want ErrValidation", err)
			}
		})
	}
}

// Only the reporter may mutate an issue. Another authenticated user gets
// 403, not 404 — the issue is publicly readable, so hiding its existence
// buys nothing.
func TestIssueUpdate_OwnershipEnforced(t *testing.T) {
	repo := newFakeIssueRepo()
	svc := newTestIssueService(repo)

	issue, err := svc.Create(context.Background(), "owner", IssueInput{Title: "Pothole on Main St"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	_, err = svc.Update(context.Background(), "intruder", issue.ID, IssueInput{Title: "Hijacked"}, "")
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("Update() by non-owner error = %v, want ErrForbidden", err)
	}

	// The issue is untouched.
	reloaded, err := svc.GetByID(context.Background(), issue.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if reloaded.Title != "Pothole on Main St" {
		t.Errorf("Title = %q after rejected update, want unchanged", reloaded.Title)
	}

	// The owner can.
	updated, err := svc.Update(context.Background(), "owner", issue.ID, IssueInput{}, model.StatusResolved)
	if err != nil {
		t.Fatalf("Update() by owner error = %v", err)
	}
	if updated.Status != model.StatusResolved {
		t.Errorf("Status = %q, want %q", updated.Status, model.StatusResolved)
	}
}

func TestIssueUpdate_RejectsUnknownStatus(t *testing.T) {
	repo := newFakeIssueRepo()
	svc := newTestIssueService(repo)

	issue, err := svc.Create(context.Background(), "owner", IssueInput{Title: "Graffiti"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	_, err = svc.Update(context.Background(), "owner", issue.ID, IssueInput{}, "done")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Update(status=done) error = %v, want ErrValidation", err)
	}
}

func TestIssueDelete_OwnershipEnforced(t *testing.T) {
	repo := newFakeIssueRepo()
	svc := newTestIssueService(repo)

	issue, err := svc.Create(context.Background(), "owner", IssueInput{Title: "Loose paving stone"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := svc.Delete(context.Background(), "intruder", issue.ID); !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("Delete() by non-owner error = %v, want ErrForbidden", err)
	}
	if err := svc.Delete(context.Background(), "owner", issue.ID); err != nil {
		t.Fatalf("Delete() by owner error = %v", err)
	}
	if _, err := svc.GetByID(context.Background(), issue.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}
}

func TestFeedbackCreate_RatingBounds(t *testing.T) {
	repo := &fakeFeedbackRepo{}
	svc := NewFeedbackService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))

	for _, rating := range []int{0, 6, -1} {
		if _, err := svc.Create(context.Background(), "user-1", "needs work", rating); !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("Create(rating=%d) error = %v, want ErrValidation", rating, err)
		}
	}

	fb, err := svc.Create(context.Background(), "user-1", "  great service  ", 5)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if fb.Message != "great service" {
		t.Errorf("Message = %q, want trimmed", fb.Message)
	}
}

type fakeFeedbackRepo struct {
	stored []model.Feedback
}

func (f *fakeFeedbackRepo) Create(ctx context.Context, fb *model.Feedback) error {
	fb.ID = fmt.Sprintf("fb-fake-%d", len(f.stored)+1)
	f.stored = append(f.stored, *fb)
	return nil
}

func (f *fakeFeedbackRepo) List(ctx context.Context, opts repository.ListOptions) ([]model.Feedback, error) {
	return append([]model.Feedback(nil), f.stored...), nil
}
