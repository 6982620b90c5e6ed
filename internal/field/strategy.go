package field

// Strategy is how the resolver obtains a value for a field type.
type Strategy int

const (
	// Generate asks the completion backend. It is also the fallthrough for
	// Direct and Composite when the profile has nothing to offer.
	Generate Strategy = iota
	// Suppress never produces real content.
	Suppress
	// Direct reads one scalar from the profile.
	Direct
	// Composite formats a whole profile section.
	Composite
)

func (s Strategy) String() string {
	switch s {
	case Suppress:
		return "suppress"
	case Direct:
		return "direct"
	case Composite:
		return "composite"
	default:
		return "generate"
	}
}

var strategies = map[Type]Strategy{
	Other:              Generate,
	EmailAddress:       Direct,
	PhoneNumber:        Direct,
	FullName:           Direct,
	FirstName:          Direct,
	LastName:           Direct,
	StreetAddress:      Direct,
	City:               Direct,
	StateProvince:      Direct,
	PostalCode:         Generate,
	Country:            Direct,
	Website:            Direct,
	LinkedIn:           Direct,
	JobTitle:           Direct,
	CompanyName:        Direct,
	Education:          Composite,
	WorkExperience:     Composite,
	Skills:             Composite,
	Projects:           Composite,
	ProfileSummary:     Composite,
	Achievements:       Composite,
	Languages:          Composite,
	Certifications:     Composite,
	References:         Generate,
	Password:           Suppress,
	SearchQuery:        Generate,
	EmailSubject:       Generate,
	MessageBody:        Generate,
	ResumeField:        Generate,
	GenericText:        Generate,
	ShortBio:           Generate,
	SkillList:          Generate,
	ExperienceSummary:  Generate,
	EducationSummary:   Generate,
	CoverLetterSnippet: Generate,
}

// StrategyOf returns the resolution strategy for t.
func StrategyOf(t Type) Strategy {
	if s, ok := strategies[t]; ok {
		return s
	}
	return Generate
}

// ListLike reports whether generated text for t is expected to be a list,
// in which case leading bullet markers are kept.
func ListLike(t Type) bool {
	return t == SkillList || t == MessageBody
}
