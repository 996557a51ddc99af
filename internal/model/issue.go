package model

import "time"

// Issue represents a community problem reported by a user — a pothole, a
// broken streetlight, a safety concern. Issues are the main resource the
// Identity core protects: every write goes through the auth middleware and
// is checked against the reporter's ID.
//
// The `json:"..."` struct tags control how encoding/json serializes the
// struct; the `db:"..."` tags document the column each field maps to.
type Issue struct {
	ID          string    `json:"id"          db:"id"`
	UserID      string    `json:"userId"      db:"user_id"` // reporter — owns the issue
	Title       string    `json:"title"       db:"title"`
	Description string    `json:"description" db:"description"`
	Category    string    `json:"category"    db:"category"`
	Location    string    `json:"location"    db:"location"`
	Status      string    `json:"status"      db:"status"` // "open", "in_progress", "resolved"
	ImageURL    string    `json:"imageUrl"    db:"image_url"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt"   db:"updated_at"`
}

// Issue status values. New issues always start as StatusOpen.
const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusResolved   = "resolved"
)

// Feedback is a short free-form note a signed-in user leaves about the
// service itself (not about a specific issue). Creation requires auth so we
// can attribute it; listing is public.
type Feedback struct {
	ID        string    `json:"id"        db:"id"`
	UserID    string    `json:"userId"    db:"user_id"`
	Message   string    `json:"message"   db:"message"`
	Rating    int       `json:"rating"    db:"rating"` // 1–5
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
