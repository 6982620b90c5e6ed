// Package classify decides what kind of content a focused field expects.
package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kalambet/smartfill/internal/accessibility"
	"github.com/kalambet/smartfill/internal/field"
	"github.com/kalambet/smartfill/internal/llm"
)

const (
	DefaultStyle  = "Professional"
	DefaultLength = "Medium"
	unknown       = "Unknown"
)

// Styles and Lengths are the vocabularies offered to the model.
var (
	Styles  = []string{"Professional", "Casual", "Technical", "Formal", "Friendly", "Concise"}
	Lengths = []string{"Very Short", "Short", "Medium", "Long", "Variable"}
)

// Result describes the field being filled.
type Result struct {
	ContentType string `json:"content_type"`
	FieldType   string `json:"field_type"`
	Style       string `json:"recommended_style"`
	Length      string `json:"recommended_length"`
	// Source tells whether the rules, the resume context or the model
	// decided, or whether the fallback was used.
	Source Source `json:"-"`
}

// Type returns the enumerated field type, Other for free-form names.
func (r Result) Type() field.Type {
	return field.Parse(r.FieldType)
}

type Source int

const (
	SourceRule Source = iota
	SourceResumeContext
	SourceModel
	SourceFallback
)

func (s Source) String() string {
	switch s {
	case SourceResumeContext:
		return "resume_context"
	case SourceModel:
		return "model"
	case SourceFallback:
		return "fallback"
	default:
		return "rule"
	}
}

// Input is the normalized view of a snapshot the rules work on.
type Input struct {
	AppName       string
	WindowTitle   string
	Label         string
	Role          string
	Excerpt       string
	ResumeContext bool
}

// Normalize derives the classifier input from a snapshot: label falls back
// to the placeholder, role to the raw role, and surrounding text is reduced
// to a bounded plain-text excerpt.
func Normalize(s accessibility.Snapshot) Input {
	in := Input{
		AppName:     orUnknown(s.AppName),
		WindowTitle: orUnknown(s.WindowTitle),
		Label:       orUnknown(cleanLabel(firstNonEmpty(s.Label, s.Placeholder))),
		Role:        orUnknown(firstNonEmpty(s.RoleDescription, s.Role)),
		Excerpt:     excerpt(s.SurroundingText),
	}
	text := strings.ToLower(in.Excerpt)
	in.ResumeContext = containsAny(text, resumeKeywords) ||
		containsAny(strings.ToLower(s.WindowTitle), jobBoardKeywords)
	return in
}

// Classifier runs the rule tables and, when they are inconclusive, asks the
// completion backend.
type Classifier struct {
	backend llm.Completer
}

// New returns a Classifier. backend may be nil, in which case unmatched
// fields get the fallback result.
func New(backend llm.Completer) *Classifier {
	return &Classifier{backend: backend}
}

// Classify never fails; backend or parse errors degrade to Fallback.
func (c *Classifier) Classify(ctx context.Context, s accessibility.Snapshot) Result {
	in := Normalize(s)
	if r, ok := MatchRules(in); ok {
		slog.Debug("classified by rules", "label", in.Label, "field_type", r.FieldType, "source", r.Source)
		return r
	}
	if c.backend == nil {
		return Fallback(in.Label)
	}
	return c.classifyWithModel(ctx, in)
}

// MatchRules runs the deterministic pass. It never calls a backend.
func MatchRules(in Input) (Result, bool) {
	label := strings.ToLower(in.Label)
	role := strings.ToLower(in.Role)

	for _, tbl := range append([][]rule{passwordRules}, ruleTables...) {
		for _, r := range tbl {
			if r.matches(label, role) {
				return r.result(in.ResumeContext), true
			}
		}
	}
	if in.ResumeContext {
		return Result{
			ContentType: resumeForm,
			FieldType:   field.ResumeField.String(),
			Style:       DefaultStyle,
			Length:      DefaultLength,
			Source:      SourceResumeContext,
		}, true
	}
	return Result{}, false
}

func (r rule) matches(label, role string) bool {
	target := label
	if r.onRole {
		target = role
	}
	if !containsAny(target, r.keywords) {
		return false
	}
	if len(r.exclude) > 0 && containsAny(target, r.exclude) {
		return false
	}
	if len(r.roleHas) > 0 && !containsAny(role, r.roleHas) {
		return false
	}
	return true
}

func (r rule) result(resumeContext bool) Result {
	res := Result{
		ContentType: r.content,
		FieldType:   r.field.String(),
		Style:       DefaultStyle,
		Length:      DefaultLength,
		Source:      SourceRule,
	}
	if r.resumeAware && resumeContext {
		res.ContentType = resumeForm
	}
	if r.style != "" {
		res.Style = r.style
	}
	if r.length != "" {
		res.Length = r.length
	}
	return res
}

// Fallback is the result used when nothing else applies.
func Fallback(label string) Result {
	ft := label
	if ft == "" || ft == unknown {
		ft = field.GenericText.String()
	}
	return Result{
		ContentType: unknown,
		FieldType:   ft,
		Style:       DefaultStyle,
		Length:      DefaultLength,
		Source:      SourceFallback,
	}
}

const modelSystemPrompt = "You classify UI form fields. Reply with a single JSON object and nothing else."

func (c *Classifier) classifyWithModel(ctx context.Context, in Input) Result {
	prompt := buildPrompt(in)
	out, err := c.backend.Complete(ctx, llm.Request{System: modelSystemPrompt, User: prompt, Temperature: 0.1, MaxTokens: 300})
	if err != nil {
		slog.Warn("model classification failed, using fallback", "label", in.Label, "error", err)
		return Fallback(in.Label)
	}
	r, err := ParseModelResult(out)
	if err != nil {
		slog.Warn("model classification unusable, using fallback", "label", in.Label, "error", err)
		return Fallback(in.Label)
	}
	slog.Info("classified by model", "label", in.Label, "field_type", r.FieldType)
	return r
}

var requiredKeys = []string{"content_type", "field_type", "recommended_style", "recommended_length"}

// ParseModelResult extracts the first JSON object from a model reply and
// checks it carries all four result keys.
func ParseModelResult(out string) (Result, error) {
	obj, ok := llm.ExtractJSON(out)
	if !ok {
		return Result{}, fmt.Errorf("no JSON object in reply")
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(obj), &m); err != nil {
		return Result{}, fmt.Errorf("decoding reply: %w", err)
	}
	vals := make([]string, len(requiredKeys))
	for i, k := range requiredKeys {
		v, ok := m[k]
		if !ok || v == nil {
			return Result{}, fmt.Errorf("reply is missing %q", k)
		}
		s, ok := v.(string)
		if !ok {
			s = fmt.Sprint(v)
		}
		vals[i] = strings.TrimSpace(s)
	}
	return Result{
		ContentType: vals[0],
		FieldType:   vals[1],
		Style:       vals[2],
		Length:      vals[3],
		Source:      SourceModel,
	}, nil
}

func buildPrompt(in Input) string {
	names := make([]string, 0, len(field.All()))
	for _, t := range field.All() {
		if t != field.Other {
			names = append(names, "'"+t.String()+"'")
		}
	}
	var b strings.Builder
	b.WriteString("Analyze the context of the currently focused UI element to understand what kind of information is required.\n\n")
	fmt.Fprintf(&b, "Application: %s\n", in.AppName)
	fmt.Fprintf(&b, "Window Title: %s\n", in.WindowTitle)
	fmt.Fprintf(&b, "Field Role: %s\n", in.Role)
	fmt.Fprintf(&b, "Field Label/Placeholder: %s\n", in.Label)
	fmt.Fprintf(&b, "Surrounding Text (Excerpt):\n%s\n\n", in.Excerpt)
	b.WriteString("Based only on the information above, determine the most likely type of information needed for the focused field.\n")
	b.WriteString("Respond with a JSON object with exactly these keys:\n")
	b.WriteString(`  "content_type": the broader context, e.g. 'Job Application Form', 'Email Composition', 'Social Media Post', 'Website Login', 'General Text Field', 'Unknown'.` + "\n")
	fmt.Fprintf(&b, `  "field_type": the specific data needed. Prefer one of %s.`+"\n", strings.Join(names, ", "))
	fmt.Fprintf(&b, `  "recommended_style": one of %s. Default to 'Professional'.`+"\n", quoteList(Styles))
	fmt.Fprintf(&b, `  "recommended_length": one of %s. Default to 'Medium'.`+"\n", quoteList(Lengths))
	return b.String()
}

func quoteList(vs []string) string {
	q := make([]string, len(vs))
	for i, v := range vs {
		q[i] = "'" + v + "'"
	}
	return strings.Join(q, ", ")
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return unknown
	}
	return s
}
