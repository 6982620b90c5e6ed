package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidKey is returned by Update for a key that does not address a
// field of the section.
var ErrInvalidKey = errors.New("invalid profile key")

// Manager reads and mutates a single profile. Every call reloads the file,
// so changes made by other processes are always visible; there is no cache.
type Manager struct {
	store *Store
	id    string
}

// NewManager returns a Manager for profile id.
func NewManager(store *Store, id string) *Manager {
	return &Manager{store: store, id: id}
}

// ID returns the profile id the manager operates on.
func (m *Manager) ID() string {
	return m.id
}

// Profile loads the current profile from disk.
func (m *Manager) Profile() (*Profile, error) {
	return m.store.Load(m.id)
}

// Save persists p as the managed profile.
func (m *Manager) Save(p *Profile) error {
	p.ID = m.id
	return m.store.Save(p)
}

// Get returns a whole section when key is empty, otherwise the value at
// key. List sections accept indexed keys such as "0.title".
func (m *Manager) Get(section, key string) (any, bool, error) {
	p, err := m.Profile()
	if err != nil {
		return nil, false, err
	}
	v, ok := lookup(p.Data, section, key)
	return v, ok, nil
}

func lookup(d Data, section, key string) (any, bool) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, false
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, false
	}
	cur, ok := doc[section]
	if !ok {
		return nil, false
	}
	if key == "" {
		return cur, true
	}
	for _, part := range strings.Split(key, ".") {
		switch node := cur.(type) {
		case map[string]any:
			cur, ok = node[part]
			if !ok {
				return nil, false
			}
		case []any:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// Update sets one value and persists the profile immediately. The section
// is created if absent. List-typed fields given a comma-separated string
// are split and trimmed. Entries of list sections are addressed as
// "<index>.<field>"; an index equal to the list length appends an entry.
func (m *Manager) Update(section, key string, value any) error {
	p, err := m.Profile()
	if err != nil {
		return err
	}
	if err := apply(&p.Data, section, key, value); err != nil {
		return err
	}
	return m.store.Save(p)
}

// AddJob records a new most-recent job at index 0. The empty placeholder
// entry of a fresh profile is replaced rather than kept.
func (m *Manager) AddJob(j Job) error {
	p, err := m.Profile()
	if err != nil {
		return err
	}
	if j.Highlights == nil {
		j.Highlights = []string{}
	}
	jobs := p.Data.WorkExperience
	if len(jobs) == 1 && jobs[0].IsEmpty() {
		jobs = nil
	}
	p.Data.WorkExperience = append([]Job{j}, jobs...)
	return m.store.Save(p)
}

// Replace overwrites the whole profile content.
func (m *Manager) Replace(d Data) error {
	d.normalize()
	return m.store.Save(&Profile{ID: m.id, Data: d})
}

// Summary returns the textual rendering of the profile used as model
// context.
func (m *Manager) Summary() (string, error) {
	p, err := m.Profile()
	if err != nil {
		return "", fmt.Errorf("getting profile for summary: %w", err)
	}
	return Summarize(p.Data), nil
}

func apply(d *Data, section, key string, value any) error {
	if section == "" {
		return fmt.Errorf("%w: empty section", ErrInvalidKey)
	}
	switch section {
	case "basic":
		if key == "" {
			return fmt.Errorf("%w: basic requires a key", ErrInvalidKey)
		}
		return d.Basic.set(key, asString(value))
	case "skills":
		if key == "" {
			return fmt.Errorf("%w: skills requires a category", ErrInvalidKey)
		}
		if d.Skills == nil {
			d.Skills = NewSkills()
		}
		d.Skills.Set(key, asList(value))
		return nil
	case "portfolio":
		if key == "personal_website" {
			d.Portfolio.PersonalWebsite = asString(value)
			return nil
		}
		i, f, err := indexed(strings.TrimPrefix(key, "projects."), len(d.Portfolio.Projects))
		if err != nil {
			return err
		}
		if i == len(d.Portfolio.Projects) {
			d.Portfolio.Projects = append(d.Portfolio.Projects, PortfolioLink{})
		}
		return setLink(&d.Portfolio.Projects[i], f, asString(value))
	case "education":
		i, f, err := indexed(key, len(d.Education))
		if err != nil {
			return err
		}
		if i == len(d.Education) {
			d.Education = append(d.Education, Education{})
		}
		return setEducation(&d.Education[i], f, asString(value))
	case "work_experience":
		i, f, err := indexed(key, len(d.WorkExperience))
		if err != nil {
			return err
		}
		if i == len(d.WorkExperience) {
			d.WorkExperience = append(d.WorkExperience, Job{Highlights: []string{}})
		}
		return setJob(&d.WorkExperience[i], f, value)
	case "projects":
		i, f, err := indexed(key, len(d.Projects))
		if err != nil {
			return err
		}
		if i == len(d.Projects) {
			d.Projects = append(d.Projects, Project{Highlights: []string{}})
		}
		return setProject(&d.Projects[i], f, value)
	default:
		return setExtra(d, section, key, value)
	}
}

// indexed parses "<index>.<field>" for a list of length n.
func indexed(key string, n int) (int, string, error) {
	idx, f, ok := strings.Cut(key, ".")
	if !ok || f == "" {
		return 0, "", fmt.Errorf("%w: %q, want <index>.<field>", ErrInvalidKey, key)
	}
	i, err := strconv.Atoi(idx)
	if err != nil || i < 0 || i > n {
		return 0, "", fmt.Errorf("%w: index %q out of range (0..%d)", ErrInvalidKey, idx, n)
	}
	return i, f, nil
}

func setEducation(e *Education, f, v string) error {
	switch f {
	case "period":
		e.Period = v
	case "school":
		e.School = v
	case "degree":
		e.Degree = v
	case "major":
		e.Major = v
	default:
		return fmt.Errorf("%w: education has no field %q", ErrInvalidKey, f)
	}
	return nil
}

func setJob(j *Job, f string, v any) error {
	switch f {
	case "company":
		j.Company = asString(v)
	case "period":
		j.Period = asString(v)
	case "title":
		j.Title = asString(v)
	case "highlights":
		j.Highlights = asList(v)
	default:
		return fmt.Errorf("%w: work_experience has no field %q", ErrInvalidKey, f)
	}
	return nil
}

func setProject(p *Project, f string, v any) error {
	switch f {
	case "name":
		p.Name = asString(v)
	case "description":
		p.Description = asString(v)
	case "achievement":
		p.Achievement = asString(v)
	case "highlights":
		p.Highlights = asList(v)
	default:
		return fmt.Errorf("%w: projects has no field %q", ErrInvalidKey, f)
	}
	return nil
}

func setLink(l *PortfolioLink, f, v string) error {
	switch f {
	case "name":
		l.Name = v
	case "url":
		l.URL = v
	case "description":
		l.Description = v
	default:
		return fmt.Errorf("%w: portfolio project has no field %q", ErrInvalidKey, f)
	}
	return nil
}

// setExtra updates a section this package has no type for. A string
// assigned to a key that already holds a list is split on commas.
func setExtra(d *Data, section, key string, value any) error {
	if key == "" {
		return fmt.Errorf("%w: %s requires a key", ErrInvalidKey, section)
	}
	sec := map[string]any{}
	if raw, ok := d.Extra[section]; ok {
		if err := json.Unmarshal(raw, &sec); err != nil {
			return fmt.Errorf("%w: section %q is not an object", ErrInvalidKey, section)
		}
	}
	if _, isList := sec[key].([]any); isList {
		if s, ok := value.(string); ok {
			value = splitList(s)
		}
	}
	sec[key] = value

	b, err := json.Marshal(sec)
	if err != nil {
		return fmt.Errorf("encoding section %q: %w", section, err)
	}
	if d.Extra == nil {
		d.Extra = make(map[string]json.RawMessage)
	}
	d.Extra[section] = b
	return nil
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []string:
		return strings.Join(t, ", ")
	case nil:
		return ""
	default:
		return stringify(t)
	}
}

func asList(v any) []string {
	switch t := v.(type) {
	case string:
		return splitList(t)
	case []string:
		return append([]string{}, t...)
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			out = append(out, stringify(item))
		}
		return out
	case nil:
		return []string{}
	default:
		return []string{stringify(t)}
	}
}
