package resolve

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/kalambet/smartfill/internal/field"
	"github.com/kalambet/smartfill/internal/profile"
)

// Composite formats a whole profile section for t. It reports false when
// the section has nothing to show.
func Composite(t field.Type, d *profile.Data) (string, bool) {
	var v string
	switch t {
	case field.Education:
		v = formatEducation(d.Education)
	case field.WorkExperience:
		v = formatWork(d.WorkExperience)
	case field.Skills:
		v = formatSkills(d.Skills)
	case field.Projects:
		v = formatProjects(d.Projects)
	case field.ProfileSummary:
		v = summarize(d)
	case field.Achievements:
		v = skillCategory(d.Skills, "achievements", "\n")
	case field.Certifications:
		v = skillCategory(d.Skills, "certifications", ", ")
	case field.Languages:
		v = skillCategory(d.Skills, "languages", ", ")
	}
	return v, v != ""
}

func formatEducation(list []profile.Education) string {
	var out []string
	for _, e := range list {
		if e.IsEmpty() {
			continue
		}
		out = append(out, fmt.Sprintf("%s, %s in %s (%s)", e.School, e.Degree, e.Major, e.Period))
	}
	return strings.Join(out, "\n")
}

// formatWork keeps stored order, so the most recent job comes first.
func formatWork(list []profile.Job) string {
	var out []string
	for _, j := range list {
		if j.IsEmpty() {
			continue
		}
		entry := fmt.Sprintf("%s at %s (%s)", j.Title, j.Company, j.Period)
		for _, h := range j.Highlights {
			entry += "\n• " + h
		}
		out = append(out, entry)
	}
	return strings.Join(out, "\n\n")
}

func formatSkills(s *profile.Skills) string {
	var out []string
	for _, c := range s.Categories() {
		items, _ := s.Get(c)
		if len(items) == 0 {
			continue
		}
		out = append(out, titleCase(c)+": "+strings.Join(items, ", "))
	}
	return strings.Join(out, "\n")
}

func formatProjects(list []profile.Project) string {
	var out []string
	for _, p := range list {
		if p.IsEmpty() {
			continue
		}
		lines := []string{p.Name}
		if p.Description != "" {
			lines = append(lines, p.Description)
		}
		if p.Achievement != "" {
			lines = append(lines, "Achievement: "+p.Achievement)
		}
		for _, h := range p.Highlights {
			lines = append(lines, "• "+h)
		}
		out = append(out, strings.Join(lines, "\n"))
	}
	return strings.Join(out, "\n\n")
}

const (
	summarySkillsPerCategory = 3
	summarySkillsTotal       = 5
)

// summarize builds a one-paragraph introduction from name, current job,
// location and a handful of skills.
func summarize(d *profile.Data) string {
	var parts []string
	if n := strings.TrimSpace(d.Basic.Name); n != "" {
		parts = append(parts, n)
	}
	if j, ok := d.CurrentJob(); ok {
		switch {
		case j.Title != "" && j.Company != "":
			parts = append(parts, j.Title+" at "+j.Company)
		case j.Title != "":
			parts = append(parts, j.Title)
		case j.Company != "":
			parts = append(parts, "Working at "+j.Company)
		}
	}
	if loc := strings.TrimSpace(d.Basic.Location); loc != "" {
		parts = append(parts, "Based in "+loc)
	}
	var skills []string
	for _, c := range d.Skills.Categories() {
		items, _ := d.Skills.Get(c)
		if len(items) > summarySkillsPerCategory {
			items = items[:summarySkillsPerCategory]
		}
		skills = append(skills, items...)
	}
	if len(skills) > summarySkillsTotal {
		skills = skills[:summarySkillsTotal]
	}
	if len(skills) > 0 {
		parts = append(parts, "Skilled in "+strings.Join(skills, ", "))
	}
	return strings.Join(parts, ". ")
}

func skillCategory(s *profile.Skills, category, sep string) string {
	items, _ := s.Get(category)
	return strings.Join(items, sep)
}

// titleCase turns "ai_frameworks" into "Ai Frameworks".
func titleCase(s string) string {
	words := strings.Fields(strings.ReplaceAll(s, "_", " "))
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
