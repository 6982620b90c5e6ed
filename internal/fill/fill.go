// Package fill runs a fill end to end: read the focused field, classify it,
// resolve content and insert it.
package fill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kalambet/smartfill/internal/accessibility"
	"github.com/kalambet/smartfill/internal/classify"
	"github.com/kalambet/smartfill/internal/profile"
	"github.com/kalambet/smartfill/internal/resolve"
	"github.com/kalambet/smartfill/internal/storage"
)

// Each failure class is reported separately so callers can tell a missing
// field apart from a failed generation or a failed insertion.
var (
	ErrContext     = errors.New("could not read the focused field")
	ErrNotEditable = errors.New("focused element is not editable")
	ErrGeneration  = errors.New("generating content failed")
	ErrInsert      = errors.New("fill failed")
	ErrEmpty       = errors.New("no content to insert")
	ErrSuppressed  = errors.New("sensitive field skipped")
)

// ProfileSource supplies the active profile. *profile.Manager implements it.
type ProfileSource interface {
	ID() string
	Profile() (*profile.Profile, error)
}

// History records fill outcomes. *storage.Store implements it.
type History interface {
	RecordFill(storage.Fill) (storage.Fill, error)
}

// Outcome describes one completed or attempted fill.
type Outcome struct {
	Snapshot       accessibility.Snapshot
	Classification classify.Result
	Content        resolve.Content
	Duration       time.Duration
}

// Service serializes fills: one trigger runs to completion before the next
// starts.
type Service struct {
	mu sync.Mutex

	ax         accessibility.Accessibility
	classifier *classify.Classifier
	resolver   *resolve.Resolver
	profiles   ProfileSource
	history    History
	delay      time.Duration
}

// Config wires a Service. AX and History may be nil: without AX only
// Resolve works, without History nothing is recorded.
type Config struct {
	AX             accessibility.Accessibility
	Classifier     *classify.Classifier
	Resolver       *resolve.Resolver
	Profiles       ProfileSource
	History        History
	KeystrokeDelay time.Duration
}

func New(cfg Config) *Service {
	ax := cfg.AX
	if ax == nil {
		ax = accessibility.Unsupported{}
	}
	return &Service{
		ax:         ax,
		classifier: cfg.Classifier,
		resolver:   cfg.Resolver,
		profiles:   cfg.Profiles,
		history:    cfg.History,
		delay:      cfg.KeystrokeDelay,
	}
}

// Trigger fills the focused element of the frontmost application.
func (s *Service) Trigger(ctx context.Context) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	if !s.ax.Trusted(ctx) {
		return Outcome{}, fmt.Errorf("%w: %w", ErrContext, accessibility.ErrPermissionDenied)
	}
	snap, err := s.ax.FocusedElement(ctx)
	if err != nil {
		return Outcome{Snapshot: snap}, fmt.Errorf("%w: %w", ErrContext, err)
	}
	if !snap.Editable {
		return Outcome{Snapshot: snap}, ErrNotEditable
	}

	out, err := s.resolve(ctx, snap)
	if err == nil && out.Content.Kind == resolve.Suppressed {
		err = ErrSuppressed
	}
	if err == nil {
		if ierr := accessibility.Insert(ctx, s.ax, out.Content.Text, s.delay); ierr != nil {
			err = fmt.Errorf("%w: %w", ErrInsert, ierr)
		}
	}
	out.Duration = time.Since(start)
	s.record("trigger", out, err, storage.OutcomeFilled)
	return out, err
}

// Resolve classifies and resolves a snapshot supplied by a bridge without
// touching the UI. Suppressed content is returned without error; the
// placeholder is the result.
func (s *Service) Resolve(ctx context.Context, source string, snap accessibility.Snapshot) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	out, err := s.resolve(ctx, snap)
	out.Duration = time.Since(start)
	s.record(source, out, err, storage.OutcomeReturned)
	return out, err
}

// Classify runs only the classifier.
func (s *Service) Classify(ctx context.Context, snap accessibility.Snapshot) classify.Result {
	return s.classifier.Classify(ctx, snap)
}

func (s *Service) resolve(ctx context.Context, snap accessibility.Snapshot) (Outcome, error) {
	out := Outcome{Snapshot: snap}
	out.Classification = s.classifier.Classify(ctx, snap)

	var data *profile.Data
	if s.profiles != nil {
		p, err := s.profiles.Profile()
		if err != nil {
			slog.Warn("loading profile failed, continuing without it", "error", err)
		} else {
			data = &p.Data
		}
	}

	out.Content = s.resolver.Resolve(ctx, out.Classification, data, snap)
	switch {
	case out.Content.Kind == resolve.Error:
		return out, fmt.Errorf("%w: %s", ErrGeneration, out.Content.Text)
	case out.Content.Kind == resolve.Literal && out.Content.Text == "":
		return out, ErrEmpty
	}
	return out, nil
}

func (s *Service) record(source string, out Outcome, err error, success string) {
	if s.history == nil {
		return
	}
	f := storage.Fill{
		Source:      source,
		AppName:     out.Snapshot.AppName,
		WindowTitle: out.Snapshot.WindowTitle,
		FieldLabel:  out.Snapshot.Label,
		FieldType:   out.Classification.FieldType,
		ContentType: out.Classification.ContentType,
		Strategy:    out.Content.Strategy.String(),
		Outcome:     success,
		DurationMs:  out.Duration.Milliseconds(),
	}
	if s.profiles != nil {
		f.ProfileID = s.profiles.ID()
	}
	switch {
	case errors.Is(err, ErrSuppressed) || out.Content.Kind == resolve.Suppressed:
		f.Outcome = storage.OutcomeSuppressed
	case err != nil:
		f.Outcome = storage.OutcomeFailed
		f.Error = err.Error()
	default:
		f.Chars = len([]rune(out.Content.Text))
	}
	if _, rerr := s.history.RecordFill(f); rerr != nil {
		slog.Warn("recording fill history failed", "error", rerr)
	}
}
