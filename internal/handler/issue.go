package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sravansai-26/resolveit-sub001/internal/auth"
	"github.com/sravansai-26/resolveit-sub001/internal/service"
)

// IssueHandler manages CRUD for issue reports.
//
// Reads are public; writes sit behind RequireAuth, and the reporter's
// identity always comes from the authenticated context — the request body
// has no say in who owns an issue.
type IssueHandler struct {
	svc    *service.IssueService
	logger *slog.Logger
}

func NewIssueHandler(svc *service.IssueService, logger *slog.Logger) *IssueHandler {
	return &IssueHandler{svc: svc, logger: logger}
}

// issueBody is the writable subset of an issue accepted from clients.
type issueBody struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Location    string `json:"location"`
	ImageURL    string `json:"imageUrl"`
	Status      string `json:"status"` // only honored on update
}

func (b issueBody) input() service.IssueInput {
	return service.IssueInput{
		Title:       b.Title,
		Description: b.Description,
		Category:    b.Category,
		Location:    b.Location,
		ImageURL:    b.ImageURL,
	}
}

// HandleCreate reports a new issue.
//
// HTTP: POST /api/issues (auth required)
func (h *IssueHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "unauthorized", Message: "valid authentication required",
		})
		return
	}

	var body issueBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "validation_error", Message: "invalid JSON body",
		})
		return
	}

	issue, err := h.svc.Create(r.Context(), user.ID, body.input())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, issue)
}

// HandleList returns issues, newest first.
//
// HTTP: GET /api/issues?limit=20&offset=0 (public)
func (h *IssueHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	issues, err := h.svc.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, issues)
}

// HandleGetByID returns a single issue.
//
// HTTP: GET /api/issues/{id} (public)
func (h *IssueHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	issue, err := h.svc.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, issue)
}

// HandleUpdate modifies an issue the caller reported.
//
// HTTP: PUT /api/issues/{id} (auth required; 403 unless caller owns it)
func (h *IssueHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "unauthorized", Message: "valid authentication required",
		})
		return
	}

	var body issueBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "validation_error", Message: "invalid JSON body",
		})
		return
	}

	issue, err := h.svc.Update(r.Context(), user.ID, chi.URLParam(r, "id"), body.input(), body.Status)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, issue)
}

// HandleDelete removes an issue the caller reported.
//
// HTTP: DELETE /api/issues/{id} (auth required; 403 unless caller owns it)
func (h *IssueHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "unauthorized", Message: "valid authentication required",
		})
		return
	}

	if err := h.svc.Delete(r.Context(), user.ID, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// FeedbackHandler manages feedback notes: authenticated create, public list.
type FeedbackHandler struct {
	svc    *service.FeedbackService
	logger *slog.Logger
}

func NewFeedbackHandler(svc *service.FeedbackService, logger *slog.Logger) *FeedbackHandler {
	return &FeedbackHandler{svc: svc, logger: logger}
}

// HandleCreate stores a feedback note from the signed-in user.
//
// HTTP: POST /api/feedback (auth required)
func (h *FeedbackHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "unauthorized", Message: "valid authentication required",
		})
		return
	}

	var body struct {
		Message string `json:"message"`
		Rating  int    `json:"rating"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "validation_error", Message: "invalid JSON body",
		})
		return
	}

	fb, err := h.svc.Create(r.Context(), user.ID, body.Message, body.Rating)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, fb)
}

// HandleList returns feedback notes.
//
// HTTP: GET /api/feedback (public)
func (h *FeedbackHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	feedback, err := h.svc.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, feedback)
}
