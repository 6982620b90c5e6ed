package profile

import (
	"fmt"
	"sort"
	"strings"
)

// Summarize renders the profile as plain text for model prompts. Output is
// deterministic and sections without content are left out entirely.
func Summarize(d Data) string {
	var b strings.Builder
	b.WriteString("User Profile Summary:\n")

	section := func(title string, lines []string) {
		if len(lines) == 0 {
			return
		}
		b.WriteString("\n" + title + ":\n")
		for _, l := range lines {
			b.WriteString(l + "\n")
		}
	}

	section("Basic Information", basicLines(d.Basic))
	section("Education", educationLines(d.Education))
	section("Work Experience", workLines(d.WorkExperience))
	section("Skills", skillLines(d.Skills))
	section("Projects", projectLines(d.Projects))
	section("Portfolio", portfolioLines(d.Portfolio))

	return strings.TrimSpace(b.String())
}

func basicLines(bi Basic) []string {
	fields := []struct{ key, value string }{
		{"name", bi.Name},
		{"gender", bi.Gender},
		{"birth_year", bi.BirthYear},
		{"email", bi.Email},
		{"phone", bi.Phone},
		{"location", bi.Location},
		{"linkedin", bi.LinkedIn},
	}
	others := make([]string, 0, len(bi.Other))
	for k := range bi.Other {
		others = append(others, k)
	}
	sort.Strings(others)
	for _, k := range others {
		fields = append(fields, struct{ key, value string }{k, bi.Other[k]})
	}

	var lines []string
	for _, f := range fields {
		if f.value != "" {
			lines = append(lines, fmt.Sprintf("  %s: %s", labelOf(f.key), f.value))
		}
	}
	return lines
}

func educationLines(list []Education) []string {
	var lines []string
	for _, e := range list {
		if e.IsEmpty() {
			continue
		}
		l := fmt.Sprintf("  %s - %s in %s", e.School, e.Degree, e.Major)
		if e.Period != "" {
			l += fmt.Sprintf(" (%s)", e.Period)
		}
		lines = append(lines, l)
	}
	return lines
}

func workLines(list []Job) []string {
	var lines []string
	for _, j := range list {
		if j.Company == "" && j.Title == "" && j.Period == "" {
			continue
		}
		l := fmt.Sprintf("  %s at %s", j.Title, j.Company)
		if j.Period != "" {
			l += fmt.Sprintf(" (%s)", j.Period)
		}
		lines = append(lines, l)
		for _, h := range j.Highlights {
			lines = append(lines, "    - "+h)
		}
	}
	return lines
}

func skillLines(s *Skills) []string {
	var lines []string
	for _, c := range s.Categories() {
		items, _ := s.Get(c)
		if len(items) == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("  %s: %s", labelOf(c), strings.Join(items, ", ")))
	}
	return lines
}

func projectLines(list []Project) []string {
	var lines []string
	for _, p := range list {
		if p.Name == "" && p.Description == "" && p.Achievement == "" {
			continue
		}
		lines = append(lines, "  "+p.Name)
		if p.Description != "" {
			lines = append(lines, "    "+p.Description)
		}
		if p.Achievement != "" {
			lines = append(lines, "    Achievement: "+p.Achievement)
		}
		for _, h := range p.Highlights {
			lines = append(lines, "    - "+h)
		}
	}
	return lines
}

func portfolioLines(p Portfolio) []string {
	var lines []string
	if p.PersonalWebsite != "" {
		lines = append(lines, "  Website: "+p.PersonalWebsite)
	}
	for _, l := range p.Projects {
		if l.Name == "" || l.URL == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("  %s: %s", l.Name, l.URL))
		if l.Description != "" {
			lines = append(lines, "    "+l.Description)
		}
	}
	return lines
}

// labelOf turns "birth_year" into "Birth year".
func labelOf(key string) string {
	s := strings.ToLower(strings.ReplaceAll(key, "_", " "))
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}
