package profile

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var knownSections = map[string]bool{
	"basic":           true,
	"education":       true,
	"work_experience": true,
	"projects":        true,
	"skills":          true,
	"portfolio":       true,
}

type dataAlias Data

func (d Data) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal(dataAlias(d))
	if err != nil || len(d.Extra) == 0 {
		return b, err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	for k, v := range d.Extra {
		if !knownSections[k] {
			m[k] = v
		}
	}
	return json.Marshal(m)
}

func (d *Data) UnmarshalJSON(b []byte) error {
	var a dataAlias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*d = Data(a)
	d.Extra = nil
	for k, v := range m {
		if knownSections[k] {
			continue
		}
		if d.Extra == nil {
			d.Extra = make(map[string]json.RawMessage)
		}
		d.Extra[k] = v
	}
	d.normalize()
	return nil
}

type basicAlias Basic

func (b Basic) MarshalJSON() ([]byte, error) {
	out, err := json.Marshal(basicAlias(b))
	if err != nil || len(b.Other) == 0 {
		return out, err
	}
	var m map[string]any
	if err := json.Unmarshal(out, &m); err != nil {
		return nil, err
	}
	for k, v := range b.Other {
		if _, ok := m[k]; !ok {
			m[k] = v
		}
	}
	return json.Marshal(m)
}

// UnmarshalJSON accepts any scalar for basic fields; older profiles stored
// birth_year as a number.
func (b *Basic) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*b = Basic{}
	for k, v := range m {
		if v == nil {
			continue
		}
		if err := b.set(k, stringify(v)); err != nil {
			return err
		}
	}
	return nil
}

func (b *Basic) set(key, value string) error {
	switch key {
	case "name":
		b.Name = value
	case "gender":
		b.Gender = value
	case "birth_year":
		b.BirthYear = value
	case "email":
		b.Email = value
	case "phone":
		b.Phone = value
	case "location":
		b.Location = value
	case "linkedin":
		b.LinkedIn = value
	default:
		if key == "" {
			return fmt.Errorf("empty basic field name")
		}
		if b.Other == nil {
			b.Other = make(map[string]string)
		}
		b.Other[key] = value
	}
	return nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	}
}

// Skills maps a category name to its skills, in insertion order.
type Skills struct {
	m *orderedmap.OrderedMap[string, []string]
}

func NewSkills() *Skills {
	return &Skills{m: orderedmap.New[string, []string]()}
}

func (s *Skills) Get(category string) ([]string, bool) {
	if s == nil || s.m == nil {
		return nil, false
	}
	return s.m.Get(category)
}

// Set replaces a category, appending it if new.
func (s *Skills) Set(category string, skills []string) {
	if s.m == nil {
		s.m = orderedmap.New[string, []string]()
	}
	if skills == nil {
		skills = []string{}
	}
	s.m.Set(category, skills)
}

// Categories returns category names in stored order.
func (s *Skills) Categories() []string {
	if s == nil || s.m == nil {
		return nil
	}
	out := make([]string, 0, s.m.Len())
	for p := s.m.Oldest(); p != nil; p = p.Next() {
		out = append(out, p.Key)
	}
	return out
}

func (s *Skills) Len() int {
	if s == nil || s.m == nil {
		return 0
	}
	return s.m.Len()
}

func (s *Skills) MarshalJSON() ([]byte, error) {
	if s == nil || s.m == nil {
		return []byte("{}"), nil
	}
	return s.m.MarshalJSON()
}

// UnmarshalJSON keeps category order. A category stored as a single string
// is split on commas; other shapes are dropped with a warning.
func (s *Skills) UnmarshalJSON(b []byte) error {
	raw := orderedmap.New[string, json.RawMessage]()
	if err := raw.UnmarshalJSON(b); err != nil {
		return err
	}
	s.m = orderedmap.New[string, []string]()
	for p := raw.Oldest(); p != nil; p = p.Next() {
		var list []string
		if err := json.Unmarshal(p.Value, &list); err == nil {
			s.Set(p.Key, list)
			continue
		}
		var one string
		if err := json.Unmarshal(p.Value, &one); err == nil {
			s.Set(p.Key, splitList(one))
			continue
		}
		slog.Warn("skipping malformed skills category", "category", p.Key)
	}
	return nil
}

// splitList turns "a, b ,c" into ["a","b","c"], dropping empty items.
func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
