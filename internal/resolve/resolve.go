// Package resolve turns a classified field into the text to insert.
package resolve

import (
	"context"
	"log/slog"

	"github.com/kalambet/smartfill/internal/accessibility"
	"github.com/kalambet/smartfill/internal/classify"
	"github.com/kalambet/smartfill/internal/field"
	"github.com/kalambet/smartfill/internal/llm"
	"github.com/kalambet/smartfill/internal/profile"
)

// PasswordPlaceholder is returned for password fields instead of content.
const PasswordPlaceholder = "******"

type Kind int

const (
	// Literal is text ready to insert.
	Literal Kind = iota
	// Suppressed marks a sensitive field; Text is a placeholder that must
	// not be inserted.
	Suppressed
	// Error carries a user-visible message starting with "Error:".
	Error
)

func (k Kind) String() string {
	switch k {
	case Suppressed:
		return "suppressed"
	case Error:
		return "error"
	default:
		return "literal"
	}
}

// Content is the outcome of a resolution. An empty Literal is never
// produced: failures are always Error content.
type Content struct {
	Kind     Kind
	Text     string
	Strategy field.Strategy
	Err      error
}

// Resolver picks a value for a field: suppression, then a direct profile
// lookup, then a formatted profile section and finally generation.
type Resolver struct {
	backend  llm.Completer
	language func(string) (string, bool)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLanguageDetector replaces the detector used to pick the reply
// language. Passing nil disables the hint.
func WithLanguageDetector(fn func(string) (string, bool)) Option {
	return func(r *Resolver) { r.language = fn }
}

// New returns a Resolver. backend may be nil, in which case generation
// yields the disabled error.
func New(backend llm.Completer, opts ...Option) *Resolver {
	r := &Resolver{backend: backend, language: DetectLanguage}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve never fails outward; failures are returned as Error content.
func (r *Resolver) Resolve(ctx context.Context, cls classify.Result, d *profile.Data, snap accessibility.Snapshot) Content {
	t := cls.Type()
	strategy := field.StrategyOf(t)

	if strategy == field.Suppress {
		slog.Info("sensitive field, not filling", "field_type", cls.FieldType)
		return Content{Kind: Suppressed, Text: PasswordPlaceholder, Strategy: field.Suppress}
	}

	if d == nil {
		empty := profile.Default()
		d = &empty
	}

	switch strategy {
	case field.Direct:
		if v, ok := Direct(t, d); ok {
			slog.Debug("resolved from profile", "field_type", cls.FieldType)
			return Content{Kind: Literal, Text: v, Strategy: field.Direct}
		}
		slog.Info("profile has no value, generating", "field_type", cls.FieldType)
	case field.Composite:
		if v, ok := Composite(t, d); ok {
			slog.Debug("formatted profile section", "field_type", cls.FieldType)
			return Content{Kind: Literal, Text: v, Strategy: field.Composite}
		}
		slog.Info("profile section empty, generating", "field_type", cls.FieldType)
	}
	return r.generate(ctx, cls, d, snap)
}
