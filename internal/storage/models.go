package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Outcomes of a fill.
const (
	OutcomeFilled     = "filled"
	OutcomeReturned   = "returned"
	OutcomeSuppressed = "suppressed"
	OutcomeFailed     = "failed"
)

// Fill is one history entry. The produced text itself is never stored,
// only its length.
type Fill struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	Source      string    `json:"source"` // "trigger", "cli", "http", "mcp"
	ProfileID   string    `json:"profile_id"`
	AppName     string    `json:"app_name"`
	WindowTitle string    `json:"window_title"`
	FieldLabel  string    `json:"field_label"`
	FieldType   string    `json:"field_type"`
	ContentType string    `json:"content_type"`
	Strategy    string    `json:"strategy"`
	Outcome     string    `json:"outcome"`
	Chars       int       `json:"chars"`
	DurationMs  int64     `json:"duration_ms"`
	Error       string    `json:"error,omitempty"`
}
