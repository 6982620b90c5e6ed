package profile

import (
	"encoding/json"
	"time"
)

// Profile is one stored user profile, selected by ID.
type Profile struct {
	ID        string
	Data      Data
	UpdatedAt time.Time
}

// Data is the structured profile content. All sections are present after
// load, even when empty. Sections this package does not know about are kept
// in Extra so that writers never drop them.
type Data struct {
	Basic          Basic       `json:"basic" yaml:"basic"`
	Education      []Education `json:"education" yaml:"education"`
	WorkExperience []Job       `json:"work_experience" yaml:"work_experience"`
	Projects       []Project   `json:"projects" yaml:"projects"`
	Skills         *Skills     `json:"skills" yaml:"skills"`
	Portfolio      Portfolio   `json:"portfolio" yaml:"portfolio"`

	Extra map[string]json.RawMessage `json:"-" yaml:"-"`
}

// Basic holds contact details. Location is a free-form
// "city, region, country" string.
type Basic struct {
	Name      string `json:"name" yaml:"name"`
	Gender    string `json:"gender" yaml:"gender"`
	BirthYear string `json:"birth_year" yaml:"birth_year"`
	Email     string `json:"email" yaml:"email"`
	Phone     string `json:"phone" yaml:"phone"`
	Location  string `json:"location" yaml:"location"`
	LinkedIn  string `json:"linkedin,omitempty" yaml:"linkedin,omitempty"`

	Other map[string]string `json:"-" yaml:"-"`
}

type Education struct {
	Period string `json:"period" yaml:"period"`
	School string `json:"school" yaml:"school"`
	Degree string `json:"degree" yaml:"degree"`
	Major  string `json:"major" yaml:"major"`
}

func (e Education) IsEmpty() bool {
	return e.Period == "" && e.School == "" && e.Degree == "" && e.Major == ""
}

// Job is one work_experience entry. Index 0 of Data.WorkExperience is the
// most recent job.
type Job struct {
	Company    string   `json:"company" yaml:"company"`
	Period     string   `json:"period" yaml:"period"`
	Title      string   `json:"title" yaml:"title"`
	Highlights []string `json:"highlights" yaml:"highlights"`
}

func (j Job) IsEmpty() bool {
	return j.Company == "" && j.Period == "" && j.Title == "" && len(j.Highlights) == 0
}

type Project struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Achievement string   `json:"achievement,omitempty" yaml:"achievement,omitempty"`
	Highlights  []string `json:"highlights" yaml:"highlights"`
}

func (p Project) IsEmpty() bool {
	return p.Name == "" && p.Description == "" && p.Achievement == "" && len(p.Highlights) == 0
}

type Portfolio struct {
	PersonalWebsite string          `json:"personal_website" yaml:"personal_website"`
	Projects        []PortfolioLink `json:"projects" yaml:"projects"`
}

type PortfolioLink struct {
	Name        string `json:"name" yaml:"name"`
	URL         string `json:"url" yaml:"url"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Default returns the empty skeleton written for a new profile.
func Default() Data {
	skills := NewSkills()
	for _, c := range []string{"ai_frameworks", "hardware", "certifications", "achievements"} {
		skills.Set(c, []string{})
	}
	return Data{
		Education:      []Education{{}},
		WorkExperience: []Job{{Highlights: []string{}}},
		Projects:       []Project{{Highlights: []string{}}},
		Skills:         skills,
		Portfolio:      Portfolio{Projects: []PortfolioLink{}},
	}
}

// normalize guarantees every top-level section exists.
func (d *Data) normalize() {
	if d.Education == nil {
		d.Education = []Education{}
	}
	if d.WorkExperience == nil {
		d.WorkExperience = []Job{}
	}
	for i := range d.WorkExperience {
		if d.WorkExperience[i].Highlights == nil {
			d.WorkExperience[i].Highlights = []string{}
		}
	}
	if d.Projects == nil {
		d.Projects = []Project{}
	}
	for i := range d.Projects {
		if d.Projects[i].Highlights == nil {
			d.Projects[i].Highlights = []string{}
		}
	}
	if d.Skills == nil {
		d.Skills = NewSkills()
	}
	if d.Portfolio.Projects == nil {
		d.Portfolio.Projects = []PortfolioLink{}
	}
}

// Clone returns a deep copy of d.
func (d Data) Clone() Data {
	b, err := json.Marshal(d)
	if err != nil {
		return Default()
	}
	var out Data
	if err := json.Unmarshal(b, &out); err != nil {
		return Default()
	}
	return out
}

// CurrentJob returns the most recent job, if any.
func (d Data) CurrentJob() (Job, bool) {
	if len(d.WorkExperience) == 0 {
		return Job{}, false
	}
	return d.WorkExperience[0], true
}
