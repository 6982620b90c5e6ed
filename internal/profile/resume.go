package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/kalambet/smartfill/internal/llm"
)

const maxResumeChars = 12000

const resumePrompt = `You extract structured data from resumes.
Return only a JSON object with these keys:
"basic" (name, email, phone, location, linkedin),
"education" (list of {period, school, degree, major}),
"work_experience" (list of {company, period, title, highlights}, most recent first),
"projects" (list of {name, description, achievement, highlights}),
"skills" (object mapping category to a list of strings).
Leave out anything the resume does not state. Do not invent values.`

// ReadPDFText extracts the plain text of a PDF file.
func ReadPDFText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	text, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extracting pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(text); err != nil {
		return "", fmt.Errorf("reading pdf text: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// ParseResume asks the model to turn resume text into profile data.
func ParseResume(ctx context.Context, c llm.Completer, text string) (Data, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Data{}, fmt.Errorf("resume text is empty")
	}
	if r := []rune(text); len(r) > maxResumeChars {
		text = string(r[:maxResumeChars])
	}
	out, err := c.Complete(ctx, llm.Request{System: resumePrompt, User: text, Temperature: 0.1})
	if err != nil {
		return Data{}, err
	}
	obj, ok := llm.ExtractJSON(out)
	if !ok {
		return Data{}, fmt.Errorf("model reply contains no JSON object")
	}
	var d Data
	if err := json.Unmarshal([]byte(obj), &d); err != nil {
		return Data{}, fmt.Errorf("decoding extracted resume: %w", err)
	}
	return d, nil
}

// MergeMissing copies values from src into dst only where dst is empty.
// Lists are taken from src when dst holds nothing but empty placeholders.
func MergeMissing(dst *Data, src Data) {
	b, s := &dst.Basic, src.Basic
	fill := func(to *string, from string) {
		if *to == "" {
			*to = from
		}
	}
	fill(&b.Name, s.Name)
	fill(&b.Gender, s.Gender)
	fill(&b.BirthYear, s.BirthYear)
	fill(&b.Email, s.Email)
	fill(&b.Phone, s.Phone)
	fill(&b.Location, s.Location)
	fill(&b.LinkedIn, s.LinkedIn)

	if allEmpty(dst.Education, Education.IsEmpty) && !allEmpty(src.Education, Education.IsEmpty) {
		dst.Education = src.Education
	}
	if allEmpty(dst.WorkExperience, Job.IsEmpty) && !allEmpty(src.WorkExperience, Job.IsEmpty) {
		dst.WorkExperience = src.WorkExperience
	}
	if allEmpty(dst.Projects, Project.IsEmpty) && !allEmpty(src.Projects, Project.IsEmpty) {
		dst.Projects = src.Projects
	}

	if dst.Skills == nil {
		dst.Skills = NewSkills()
	}
	for _, c := range src.Skills.Categories() {
		have, _ := dst.Skills.Get(c)
		if len(have) > 0 {
			continue
		}
		items, _ := src.Skills.Get(c)
		if len(items) > 0 {
			dst.Skills.Set(c, items)
		}
	}
	fill(&dst.Portfolio.PersonalWebsite, src.Portfolio.PersonalWebsite)
	dst.normalize()
}

func allEmpty[T any](list []T, empty func(T) bool) bool {
	for _, v := range list {
		if !empty(v) {
			return false
		}
	}
	return true
}

// ImportResume extracts a resume PDF and fills the empty parts of the
// managed profile with what the model found.
func (m *Manager) ImportResume(ctx context.Context, c llm.Completer, path string) (Data, error) {
	text, err := ReadPDFText(path)
	if err != nil {
		return Data{}, err
	}
	parsed, err := ParseResume(ctx, c, text)
	if err != nil {
		return Data{}, err
	}
	p, err := m.Profile()
	if err != nil {
		return Data{}, err
	}
	MergeMissing(&p.Data, parsed)
	if err := m.Save(p); err != nil {
		return Data{}, err
	}
	return p.Data, nil
}
