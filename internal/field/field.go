// Package field enumerates the semantic field types the classifier can
// produce and the resolution strategy each one uses.
package field

import "strings"

type Type int

const (
	Other Type = iota
	EmailAddress
	PhoneNumber
	FullName
	FirstName
	LastName
	StreetAddress
	City
	StateProvince
	PostalCode
	Country
	Website
	LinkedIn
	JobTitle
	CompanyName
	Education
	WorkExperience
	Skills
	Projects
	ProfileSummary
	Achievements
	Languages
	Certifications
	References
	Password
	SearchQuery
	EmailSubject
	MessageBody
	ResumeField
	GenericText
	ShortBio
	SkillList
	ExperienceSummary
	EducationSummary
	CoverLetterSnippet
)

// names holds the canonical display name of every type. The classifier
// emits these strings and the model-backed pass is asked to use them.
var names = map[Type]string{
	Other:              "Unknown",
	EmailAddress:       "Email Address",
	PhoneNumber:        "Phone Number",
	FullName:           "Full Name",
	FirstName:          "First Name",
	LastName:           "Last Name",
	StreetAddress:      "Street Address",
	City:               "City",
	StateProvince:      "State/Province",
	PostalCode:         "Zip/Postal Code",
	Country:            "Country",
	Website:            "Website",
	LinkedIn:           "LinkedIn URL",
	JobTitle:           "Job Title",
	CompanyName:        "Company Name",
	Education:          "Education",
	WorkExperience:     "Work Experience",
	Skills:             "Skills",
	Projects:           "Projects",
	ProfileSummary:     "Profile Summary",
	Achievements:       "Achievements",
	Languages:          "Languages",
	Certifications:     "Certifications",
	References:         "References",
	Password:           "Password",
	SearchQuery:        "Search Query",
	EmailSubject:       "Email Subject",
	MessageBody:        "Message Body",
	ResumeField:        "Resume Field",
	GenericText:        "Generic Text",
	ShortBio:           "Short Bio",
	SkillList:          "Skill List",
	ExperienceSummary:  "Work Experience Summary",
	EducationSummary:   "Education Summary",
	CoverLetterSnippet: "Cover Letter Snippet",
}

// aliases maps other names a model tends to produce onto known types.
var aliases = map[string]Type{
	"email":             EmailAddress,
	"phone":             PhoneNumber,
	"name":              FullName,
	"address":           StreetAddress,
	"state":             StateProvince,
	"province":          StateProvince,
	"zip code":          PostalCode,
	"postal code":       PostalCode,
	"linkedin":          LinkedIn,
	"personal website":  Website,
	"company":           CompanyName,
	"about me":          ShortBio,
	"self introduction": ShortBio,
	"bio":               ShortBio,
	"experience":        ExperienceSummary,
	"skill":             SkillList,
	"cover letter":      CoverLetterSnippet,
	"summary":           ProfileSummary,
	"subject":           EmailSubject,
	"search":            SearchQuery,
}

var byName = func() map[string]Type {
	m := make(map[string]Type, len(names)+len(aliases))
	for t, n := range names {
		m[strings.ToLower(n)] = t
	}
	for n, t := range aliases {
		m[n] = t
	}
	return m
}()

func (t Type) String() string {
	if n, ok := names[t]; ok {
		return n
	}
	return names[Other]
}

// Parse maps a field type name, case-insensitively, to a Type. Unknown names
// yield Other.
func Parse(name string) Type {
	if t, ok := byName[strings.ToLower(strings.TrimSpace(name))]; ok {
		return t
	}
	return Other
}

// All returns every defined type in declaration order.
func All() []Type {
	out := make([]Type, 0, len(names))
	for t := Other; t <= CoverLetterSnippet; t++ {
		out = append(out, t)
	}
	return out
}
