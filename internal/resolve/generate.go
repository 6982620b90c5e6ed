package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/kalambet/smartfill/internal/accessibility"
	"github.com/kalambet/smartfill/internal/classify"
	"github.com/kalambet/smartfill/internal/field"
	"github.com/kalambet/smartfill/internal/llm"
	"github.com/kalambet/smartfill/internal/profile"
)

const systemPrompt = `You are SmartFill, an intelligent form-filling assistant. Your goal is to generate concise, relevant and context-aware content for the requested field based on the provided context and user profile information.
Adhere to the specified style and length constraints. If generating personal information, be mindful of privacy.
Focus on fulfilling the request for the specific field mentioned in the prompt.`

const maxPromptSurrounding = 200

var leadingBullet = regexp.MustCompile(`^\s*[*\-•]\s+`)

// ErrEmptyGeneration is reported when the backend answers with no text.
var ErrEmptyGeneration = errors.New("the model returned no text")

func (r *Resolver) generate(ctx context.Context, cls classify.Result, d *profile.Data, snap accessibility.Snapshot) Content {
	backend := r.backend
	if backend == nil {
		backend = llm.Disabled{}
	}
	req := llm.Request{
		System: systemPrompt,
		User:   r.prompt(cls, profile.Summarize(*d), snap),
	}
	out, err := backend.Complete(ctx, req)
	if err != nil {
		return Content{Kind: Error, Text: llm.Message(err), Strategy: field.Generate, Err: err}
	}
	out = strings.TrimSpace(out)
	if !field.ListLike(cls.Type()) && cls.Length != "Long" {
		out = leadingBullet.ReplaceAllString(out, "")
	}
	if out == "" {
		slog.Warn("generation returned empty text", "field_type", cls.FieldType)
		return Content{Kind: Error, Text: "Error: " + ErrEmptyGeneration.Error() + ".", Strategy: field.Generate, Err: ErrEmptyGeneration}
	}
	return Content{Kind: Literal, Text: out, Strategy: field.Generate}
}

func (r *Resolver) prompt(cls classify.Result, summary string, snap accessibility.Snapshot) string {
	var b strings.Builder
	b.WriteString("Context Information:\n")
	fmt.Fprintf(&b, "- Application: %s\n", orUnknown(snap.AppName))
	fmt.Fprintf(&b, "- Window: %s\n", orUnknown(snap.WindowTitle))
	fmt.Fprintf(&b, "- Field Role: %s\n", orUnknown(firstNonEmpty(snap.RoleDescription, snap.Role)))
	fmt.Fprintf(&b, "- Field Label/Placeholder: %s\n", orUnknown(firstNonEmpty(snap.Label, snap.Placeholder)))
	if s := bounded(snap.SurroundingText, maxPromptSurrounding); s != "" {
		fmt.Fprintf(&b, "- Surrounding Text (Excerpt): %s...\n", s)
	}
	if snap.SelectedText != "" {
		fmt.Fprintf(&b, "- Selected Text: %s\n", bounded(snap.SelectedText, maxPromptSurrounding))
	}

	b.WriteString("\nTask: Fill the field described below.\n")
	fmt.Fprintf(&b, "Generate appropriate text to fill a field of type %q.\n", cls.FieldType)
	fmt.Fprintf(&b, "The broader context is: %q.\n", cls.ContentType)
	fmt.Fprintf(&b, "The desired style is %q and the approximate length should be %q.\n\n", cls.Style, cls.Length)
	b.WriteString("Use the following user profile information if relevant, but prioritize filling the specific field requested:\n")
	b.WriteString("--- User Profile ---\n")
	b.WriteString(summary)
	b.WriteString("\n--- End User Profile ---\n\n")
	fmt.Fprintf(&b, "Generate only the text content suitable for the %q field. Do not add explanations or labels.\n", cls.FieldType)

	if s := steering(cls); s != "" {
		b.WriteString(s + "\n")
	}
	if r.language != nil {
		if lang, ok := r.language(snap.SurroundingText + " " + snap.Label); ok && lang != "English" {
			fmt.Fprintf(&b, "Write the answer in %s.\n", lang)
		}
	}
	return b.String()
}

// steering adds a field-specific instruction for categories the model
// tends to get wrong.
func steering(cls classify.Result) string {
	raw := strings.ToLower(strings.TrimSpace(cls.FieldType))
	switch t := cls.Type(); {
	case t == field.ShortBio || t == field.ProfileSummary || raw == "self introduction":
		return "Focus on creating a concise and relevant biography or introduction."
	case t == field.SkillList || t == field.Skills:
		return "List relevant skills, potentially comma-separated or bulleted based on context."
	case t == field.ExperienceSummary || t == field.WorkExperience:
		return "Summarize key work experiences or provide details for one relevant role."
	case t == field.EducationSummary || t == field.Education:
		return "Summarize key educational achievements."
	case t == field.MessageBody && cls.ContentType == "Email Composition":
		return "Compose a relevant email body based on the subject (if available) or general context."
	case t == field.CoverLetterSnippet:
		return "Generate a paragraph suitable for a cover letter, tailored to the job context if possible."
	}
	return ""
}

func bounded(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > n {
		return string(r[:n])
	}
	return s
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
		return "Unknown"
	}
	return s
}
