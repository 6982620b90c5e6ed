// Package accessibility reads the focused UI element and writes text into it.
package accessibility

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

var (
	ErrPermissionDenied = errors.New("accessibility permissions required")
	ErrNoFocusedElement = errors.New("no focused element found")
	ErrNotSettable      = errors.New("element value is not settable")
	ErrUnsupported      = errors.New("accessibility is not supported on this platform")
)

// MaxSurroundingText bounds the surrounding text captured with a snapshot.
const MaxSurroundingText = 1000

// Snapshot is the accessibility metadata of the focused element at one
// point in time.
type Snapshot struct {
	AppName         string `json:"app_name"`
	BundleID        string `json:"bundle_id,omitempty"`
	WindowTitle     string `json:"window_title"`
	Label           string `json:"title"`
	Placeholder     string `json:"placeholder"`
	Role            string `json:"role"`
	RoleDescription string `json:"role_description"`
	Value           string `json:"value"`
	Help            string `json:"help"`
	SurroundingText string `json:"surrounding_text"`
	SelectedText    string `json:"selected_text"`
	Editable        bool   `json:"editable"`
}

// Accessibility is the OS capability behind a fill.
type Accessibility interface {
	// Trusted reports whether this process may use accessibility APIs.
	Trusted(ctx context.Context) bool
	// FocusedElement returns the focused element of the frontmost app, or
	// ErrPermissionDenied / ErrNoFocusedElement.
	FocusedElement(ctx context.Context) (Snapshot, error)
	// SetValue assigns the element value directly. ErrNotSettable means the
	// control needs keystrokes instead.
	SetValue(ctx context.Context, text string) error
	// TypeRune posts one character as a key event.
	TypeRune(ctx context.Context, r rune) error
}

// Insert writes text into the focused element. It prefers a direct value
// assignment and falls back to typing each character with delay between
// keystrokes.
func Insert(ctx context.Context, a Accessibility, text string, delay time.Duration) error {
	err := a.SetValue(ctx, text)
	if err == nil {
		slog.Debug("inserted text by value assignment", "chars", len([]rune(text)))
		return nil
	}
	if errors.Is(err, ErrPermissionDenied) {
		return err
	}
	slog.Info("value assignment failed, simulating keystrokes", "error", err)

	for _, r := range text {
		if err := a.TypeRune(ctx, r); err != nil {
			return fmt.Errorf("typing %q: %w", r, err)
		}
		if delay <= 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil
}

// Unsupported is the Accessibility of platforms without an implementation.
type Unsupported struct{}

func (Unsupported) Trusted(context.Context) bool { return false }

func (Unsupported) FocusedElement(context.Context) (Snapshot, error) {
	return Snapshot{}, ErrUnsupported
}

func (Unsupported) SetValue(context.Context, string) error { return ErrUnsupported }

func (Unsupported) TypeRune(context.Context, rune) error { return ErrUnsupported }
