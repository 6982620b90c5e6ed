package resolve

import (
	"strings"
	"unicode"

	"github.com/kalambet/smartfill/internal/field"
	"github.com/kalambet/smartfill/internal/profile"
)

// Direct looks up a single profile value for t. Empty values report false
// so the caller falls through to generation.
func Direct(t field.Type, d *profile.Data) (string, bool) {
	var v string
	switch t {
	case field.EmailAddress:
		v = d.Basic.Email
	case field.PhoneNumber:
		v = d.Basic.Phone
	case field.FullName:
		v = d.Basic.Name
	case field.FirstName:
		v, _ = splitName(d.Basic.Name)
	case field.LastName:
		_, v = splitName(d.Basic.Name)
	case field.StreetAddress:
		v = d.Basic.Location
	case field.City, field.StateProvince, field.Country:
		v = locationPart(d.Basic.Location, t)
	case field.Website:
		v = d.Portfolio.PersonalWebsite
	case field.LinkedIn:
		v = linkedIn(d)
	case field.JobTitle, field.CompanyName:
		// Only the most recent job counts; an empty value there falls
		// through even when older entries have one.
		if j, ok := d.CurrentJob(); ok {
			if t == field.JobTitle {
				v = j.Title
			} else {
				v = j.Company
			}
		}
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

// locationPart picks a component of a "city, region, country" string. A
// location without separators is all city. Region needs a second part and
// country a third; a missing part is empty so the field is generated.
func locationPart(loc string, t field.Type) string {
	parts := splitLocation(loc)
	switch t {
	case field.City:
		if len(parts) < 2 {
			return strings.TrimSpace(loc)
		}
		return parts[0]
	case field.StateProvince:
		if len(parts) < 2 {
			return ""
		}
		return parts[1]
	default:
		if len(parts) < 3 {
			return ""
		}
		return parts[len(parts)-1]
	}
}

func splitLocation(loc string) []string {
	f := func(r rune) bool { return r == ',' || r == '，' || r == '、' }
	var parts []string
	for _, p := range strings.FieldsFunc(loc, f) {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// splitName returns given and family name. Han names without spaces put
// the family name first as a single character.
func splitName(name string) (first, last string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ""
	}
	if r := []rune(name); unicode.Is(unicode.Han, r[0]) && !strings.ContainsRune(name, ' ') {
		return string(r[1:]), string(r[0])
	}
	parts := strings.Fields(name)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[len(parts)-1]
}

func linkedIn(d *profile.Data) string {
	if d.Basic.LinkedIn != "" {
		return d.Basic.LinkedIn
	}
	if isLinkedIn(d.Portfolio.PersonalWebsite) {
		return d.Portfolio.PersonalWebsite
	}
	for _, l := range d.Portfolio.Projects {
		if isLinkedIn(l.URL) {
			return l.URL
		}
	}
	return ""
}

func isLinkedIn(u string) bool {
	return strings.Contains(strings.ToLower(u), "linkedin.com")
}
